// Package registry discovers balanced inventories of the host and maintains
// them as a NodeSet snapshot. Discovery is a full and comparatively expensive
// enumeration of host blocks; Refresh is a cheap re-resolution of a previous
// snapshot which drops Nodes whose blocks have vanished.
package registry

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.ballast.dev/core/fingerprint"
	"go.ballast.dev/core/host"
)

// ErrBudgetExceeded is returned by Discover if it was aborted.
var ErrBudgetExceeded = errors.New("compute budget exceeded during discovery")

// GroupMatcher maps a block name to the group which claims it, or to the
// empty string if no group does.
type GroupMatcher interface {
	Group(blockName string) string
}

// KindFilter returns true for NodeKinds which should be discovered.
type KindFilter func(NodeKind) bool

// Registry discovers and refreshes Nodes.
type Registry struct {
	Classifier *fingerprint.Classifier
	// Matcher of group membership. May be nil, in which case no Node is
	// claimed by a group.
	Matcher GroupMatcher
	// Grids observed by the last Discover or Refresh.
	Grids map[string]struct{}
}

// New returns a Registry which classifies inventories using |c|.
func New(c *fingerprint.Classifier) *Registry {
	return &Registry{
		Classifier: c,
		Grids:      make(map[string]struct{}),
	}
}

// DiscoverArgs are arguments of Discover.
type DiscoverArgs struct {
	Host host.Host
	// Kinds to discover. If nil, all kinds are discovered.
	Kinds KindFilter
	// Abort is polled before each candidate block. If it returns true,
	// discovery stops and ErrBudgetExceeded is returned.
	Abort func() bool
}

// Discover enumerates all host blocks and returns a NodeSet of those which
// are balanceable. No partial NodeSet is returned on abort.
func (r *Registry) Discover(args DiscoverArgs) (*NodeSet, error) {
	var set = new(NodeSet)
	var grids = make(map[string]struct{})
	var candidates = args.Host.Blocks()

	for _, b := range candidates {
		if args.Abort != nil && args.Abort() {
			log.WithFields(log.Fields{
				"candidates": len(candidates),
				"nodes":      len(set.Nodes),
			}).Info("discovery aborted")
			return nil, ErrBudgetExceeded
		}
		grids[b.Grid()] = struct{}{}

		var group = r.groupOf(b.Name())
		var slots = slotsOf(b.TypeID())

		if len(slots) == 0 && group != "" && b.InventoryCount() != 0 {
			slots = []slot{{GroupMember, 0}}
		}
		for _, s := range slots {
			if args.Kinds != nil && s.kind != GroupMember && !args.Kinds(s.kind) {
				continue
			} else if s.inventory >= b.InventoryCount() {
				continue
			} else if s.kind.requiresConveyor() && !b.UsesConveyor() {
				continue
			}
			var inv = b.Inventory(s.inventory)
			if inv.MaxVolume() <= 0 {
				continue
			}
			set.insert(&Node{
				ID:    b.ID(),
				Index: s.inventory,
				Kind:  s.kind,
				Name:  b.Name(),
				Grid:  b.Grid(),
				Group: group,
				Fingerprint: r.Classifier.Classify(
					fingerprint.Definition{Name: b.Definition(), Inventory: s.inventory}, inv),
				Inventory: inv,
			})
		}
	}
	r.Grids = grids

	log.WithFields(log.Fields{
		"candidates": len(candidates),
		"nodes":      len(set.Nodes),
		"grids":      len(grids),
		"distinct":   r.Classifier.Distinct(),
	}).Debug("discovered nodes")

	return set, nil
}

// Refresh re-resolves each Node of |prev| and returns a NodeSet of those
// which survive. Surviving Nodes are updated in place.
func (r *Registry) Refresh(h host.Host, prev *NodeSet) *NodeSet {
	var set = &NodeSet{Nodes: make([]*Node, 0, len(prev.Nodes))}
	var grids = make(map[string]struct{})

	for _, n := range prev.Nodes {
		var b, ok = h.Resolve(n.ID)
		if !ok || n.Index >= b.InventoryCount() {
			log.WithField("node", n.String()).Debug("dropping unresolved node")
			continue
		}
		var inv = b.Inventory(n.Index)
		if inv.MaxVolume() <= 0 {
			continue
		}
		n.Name, n.Grid, n.Inventory = b.Name(), b.Grid(), inv
		n.Group = r.groupOf(n.Name)

		if n.Kind == GroupMember && n.Group == "" {
			continue // No longer claimed by any group.
		}
		set.Nodes = append(set.Nodes, n)
		grids[n.Grid] = struct{}{}
	}
	r.Grids = grids
	return set
}

func (r *Registry) groupOf(name string) string {
	if r.Matcher == nil {
		return ""
	}
	return r.Matcher.Group(name)
}

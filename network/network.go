// Package network partitions Nodes into Networks: sets of Nodes which share
// a Fingerprint and can exchange items through the host's conveyor medium.
// Networks are rebuilt every cycle.
package network

import (
	"go.ballast.dev/core/registry"
)

// Network is a set of mutually reachable, Fingerprint-compatible Nodes.
type Network struct {
	// ID is a small sequential identifier, for diagnostics.
	ID    int
	Nodes []*registry.Node
}

// Options of Partition.
type Options struct {
	// FirstID is the ID assigned to the first Network.
	FirstID int
	// Exhaustive tests connectivity against every member of a candidate
	// Network, rather than only its first, and merges Networks which a Node
	// bridges. Networks are then the connected components of the host's
	// connectivity predicate, even where it isn't transitive.
	Exhaustive bool
	// IgnoreFingerprint admits Nodes to a Network regardless of Fingerprint
	// identity. Groups are subdivided this way, as they may combine kinds.
	IgnoreFingerprint bool
}

// Partition |nodes| into Networks. Nodes for which |exclude| returns true
// are skipped; |exclude| may be nil.
//
// By default, each Node joins the first Network whose representative (its
// first member) has an identical Fingerprint (unless Options.IgnoreFingerprint)
// and is connected to the Node, or else begins a new Network. With
// Options.Exhaustive, a Node joins every compatible Network having any member
// connected to it, and those Networks are merged. Networks of a single Node
// are returned, though they have nothing to balance.
func Partition(nodes []*registry.Node, exclude func(*registry.Node) bool, opts Options) []*Network {
	var out []*Network

	for _, n := range nodes {
		if exclude != nil && exclude(n) {
			continue
		}
		var joined *Network

		for i := 0; i < len(out); i++ {
			var net = out[i]
			if !opts.IgnoreFingerprint && net.Nodes[0].Fingerprint != n.Fingerprint {
				continue
			} else if !reachable(net, n, opts.Exhaustive) {
				continue
			}

			if joined == nil {
				net.Nodes = append(net.Nodes, n)
				joined = net

				if !opts.Exhaustive {
					break
				}
				continue
			}
			// |n| bridges |joined| and |net|.
			joined.Nodes = append(joined.Nodes, net.Nodes...)
			out = append(out[:i], out[i+1:]...)
			i--
		}
		if joined == nil {
			out = append(out, &Network{Nodes: []*registry.Node{n}})
		}
	}
	for i, net := range out {
		net.ID = opts.FirstID + i
	}
	return out
}

func reachable(net *Network, n *registry.Node, exhaustive bool) bool {
	if !exhaustive {
		return n.Inventory.IsConnectedTo(net.Nodes[0].Inventory)
	}
	for _, m := range net.Nodes {
		if n.Inventory.IsConnectedTo(m.Inventory) {
			return true
		}
	}
	return false
}

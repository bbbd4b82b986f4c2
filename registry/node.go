package registry

import (
	"fmt"
	"sort"

	"go.ballast.dev/core/fingerprint"
	"go.ballast.dev/core/host"
)

// NodeKind is the capability category of a Node, fixed at discovery.
type NodeKind int

const (
	// BulkStore is a general purpose cargo container.
	BulkStore NodeKind = iota
	// OreProcessorInput is the ore inventory of a refinery.
	OreProcessorInput
	// OreProcessorOutput is the ingot inventory of a refinery.
	OreProcessorOutput
	// EnergyCell is the fuel inventory of a reactor.
	EnergyCell
	// GasProcessor is the ice inventory of a gas generator.
	GasProcessor
	// WeaponMagazine is the ammunition inventory of a turret.
	WeaponMagazine
	// GroupMember is an otherwise uncategorized inventory which participates
	// only through its membership of a named group.
	GroupMember
)

// Kinds enumerates categorized NodeKinds in balancing order.
var Kinds = []NodeKind{
	BulkStore,
	OreProcessorInput,
	OreProcessorOutput,
	EnergyCell,
	GasProcessor,
	WeaponMagazine,
}

func (k NodeKind) String() string {
	switch k {
	case BulkStore:
		return "bulk-store"
	case OreProcessorInput:
		return "ore-processor-input"
	case OreProcessorOutput:
		return "ore-processor-output"
	case EnergyCell:
		return "energy-cell"
	case GasProcessor:
		return "gas-processor"
	case WeaponMagazine:
		return "weapon-magazine"
	case GroupMember:
		return "group-member"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// requiresConveyor is true of kinds whose blocks participate only when
// pulling from and pushing to the conveyor system.
func (k NodeKind) requiresConveyor() bool {
	switch k {
	case OreProcessorInput, OreProcessorOutput, EnergyCell, GasProcessor, WeaponMagazine:
		return true
	}
	return false
}

// slot is a categorized inventory of a block type.
type slot struct {
	kind      NodeKind
	inventory int
}

// slotsOf maps a block TypeID to its categorized inventories. This is the
// only place block types are tested.
func slotsOf(typeID string) []slot {
	switch typeID {
	case host.TypeCargoContainer:
		return []slot{{BulkStore, 0}}
	case host.TypeRefinery:
		return []slot{{OreProcessorInput, 0}, {OreProcessorOutput, 1}}
	case host.TypeReactor:
		return []slot{{EnergyCell, 0}}
	case host.TypeGasGenerator:
		return []slot{{GasProcessor, 0}}
	case host.TypeTurret:
		return []slot{{WeaponMagazine, 0}}
	}
	return nil
}

// Node is a balanced inventory of a host Block.
type Node struct {
	// ID of the owning Block.
	ID host.EntityID
	// Index of the inventory within the Block.
	Index int
	Kind  NodeKind
	// Name and Grid of the Block, as of the last discovery or refresh.
	Name string
	Grid string
	// Group the Node is claimed by, or empty.
	Group       string
	Fingerprint *fingerprint.Fingerprint
	// Inventory accessor, re-resolved each cycle.
	Inventory host.Inventory

	// Volumes and fill fraction, recomputed when a balancing pass touches the Node.
	CurrentVolume float64
	MaxVolume     float64
	FillPercent   float64
}

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d/%d", n.Name, n.ID, n.Index)
}

// NodeSet is a snapshot of Nodes, ordered on (ID, Index).
type NodeSet struct {
	Nodes []*Node
}

func (s *NodeSet) Len() int { return len(s.Nodes) }

// Search returns the index at which (|id|, |index|) is found to be present,
// or should be inserted to maintain ordering.
func (s *NodeSet) Search(id host.EntityID, index int) (ind int, found bool) {
	ind = sort.Search(len(s.Nodes), func(i int) bool {
		var n = s.Nodes[i]
		return n.ID > id || (n.ID == id && n.Index >= index)
	})
	found = ind != len(s.Nodes) && s.Nodes[ind].ID == id && s.Nodes[ind].Index == index
	return
}

// OfKind returns Nodes of NodeKind |kind|, in order.
func (s *NodeSet) OfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, n := range s.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Groups returns the Nodes of each named group.
func (s *NodeSet) Groups() map[string][]*Node {
	var out = make(map[string][]*Node)
	for _, n := range s.Nodes {
		if n.Group != "" {
			out[n.Group] = append(out[n.Group], n)
		}
	}
	return out
}

// GroupNames returns the sorted names of groups having at least one Node.
func (s *NodeSet) GroupNames() []string {
	var out []string
	for name := range s.Groups() {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *NodeSet) insert(n *Node) {
	var ind, found = s.Search(n.ID, n.Index)
	if found {
		s.Nodes[ind] = n
		return
	}
	s.Nodes = append(s.Nodes, nil)
	copy(s.Nodes[ind+1:], s.Nodes[ind:])
	s.Nodes[ind] = n
}

package balancer

import (
	"fmt"
	"sort"

	"go.ballast.dev/core/network"
	"go.ballast.dev/core/registry"
)

// CycleStats aggregates the work of one cycle. It's created at cycle start
// and discarded at cycle end.
type CycleStats struct {
	// Networks formed by all balancing passes.
	Networks int
	// Transfers which moved a non-zero volume.
	Transfers int
	// StackMoves is the number of successful host item transfers.
	StackMoves int
	// VolumeMoved between Nodes, in cubic meters.
	VolumeMoved float64
	// PriorityMoves is the number of slot relocations of the priority pass.
	PriorityMoves int
	// Shortfalls counts Transfers which exhausted their source before
	// moving the requested volume.
	Shortfalls int
	// Missing item types having no catalog Entry.
	Missing map[string]struct{}
}

// NewCycleStats returns an empty CycleStats.
func NewCycleStats() *CycleStats {
	return &CycleStats{Missing: make(map[string]struct{})}
}

// MissingTypes returns the sorted item types having no catalog Entry.
func (s *CycleStats) MissingTypes() []string {
	var out = make([]string, 0, len(s.Missing))
	for t := range s.Missing {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Transfer records the single equalizing transfer of a Network.
type Transfer struct {
	Network *network.Network
	// From and To are nil if no transfer was attempted.
	From, To *registry.Node
	// Requested and Moved volumes, in cubic meters.
	Requested, Moved float64
	// Stacks is the number of host item transfers performed.
	Stacks int
}

func (t Transfer) String() string {
	if t.From == nil {
		return fmt.Sprintf("network %d: balanced", t.Network.ID)
	}
	return fmt.Sprintf("network %d: %s -> %s (requested %.4f, moved %.4f, stacks %d)",
		t.Network.ID, t.From, t.To, t.Requested, t.Moved, t.Stacks)
}

// InvalidTransferAmountError is returned when a computed transfer volume is
// negative, which indicates a defect in source and destination selection.
type InvalidTransferAmountError struct {
	Network  int
	From, To string
	Amount   float64
}

func (e *InvalidTransferAmountError) Error() string {
	return fmt.Sprintf("invalid transfer amount %v from %s to %s (network %d)",
		e.Amount, e.From, e.To, e.Network)
}

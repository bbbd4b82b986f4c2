// Package balancer equalizes the fill percentage of Nodes within a Network.
// Each invocation of Balance performs at most one transfer: from the Node
// having the highest fill percentage to the Node having the lowest, of the
// volume which would leave them equally full. Repeated over cycles, the
// Network converges towards an even fill.
//
// Transfers are expressed as volumes but executed as item amounts, and
// discrete items only move in whole units. A transfer may therefore move
// slightly more or less than requested, or nothing at all.
package balancer

import (
	"math"

	log "github.com/sirupsen/logrus"
	"go.ballast.dev/core/catalog"
	"go.ballast.dev/core/host"
	"go.ballast.dev/core/metrics"
	"go.ballast.dev/core/network"
	"go.ballast.dev/core/registry"
)

// Epsilon is the volume, in cubic meters, below which volumes are treated as zero.
const Epsilon = 0.0001

// discreteBias is added to discrete quantities prior to rounding down, to
// absorb floating-point error without rounding a fractional unit upwards.
const discreteBias = 0.1

// Predicate restricts a balancing pass to item types for which it returns
// true. Items failing the Predicate are inert: they're neither moved, nor
// counted as occupied or free volume.
type Predicate func(itemType string) bool

// Balancer executes equalizing transfers.
type Balancer struct {
	Catalog *catalog.Catalog

	warned map[string]struct{} // Missing types which have been logged.
}

// New returns a Balancer using Catalog |cat|.
func New(cat *catalog.Catalog) *Balancer {
	return &Balancer{
		Catalog: cat,
		warned:  make(map[string]struct{}),
	}
}

// Balance measures each Node of |net| and performs a single transfer from
// the fullest to the emptiest Node. |pred| may be nil. Work done is
// accumulated into |stats|.
func (b *Balancer) Balance(net *network.Network, pred Predicate, stats *CycleStats) (Transfer, error) {
	var out = Transfer{Network: net}
	if len(net.Nodes) < 2 {
		return out, nil
	}

	var min, max *registry.Node
	for _, n := range net.Nodes {
		b.measure(n, pred, stats)

		if n.MaxVolume < Epsilon {
			continue // Entirely occupied by inert items.
		}
		if min == nil || n.FillPercent < min.FillPercent {
			min = n
		}
		if max == nil || n.FillPercent > max.FillPercent {
			max = n
		}
	}
	if min == max || max.CurrentVolume < Epsilon {
		return out, nil
	}

	var toMove float64
	if math.Abs(min.MaxVolume-max.MaxVolume) < Epsilon {
		toMove = (max.CurrentVolume - min.CurrentVolume) / 2
	} else {
		toMove = (max.CurrentVolume*min.MaxVolume - min.CurrentVolume*max.MaxVolume) /
			(min.MaxVolume + max.MaxVolume)
	}
	// Rounding of the closed form may produce a negligible negative amount
	// where fill percentages are near-equal. Anything larger is a defect.
	if toMove <= -Epsilon {
		return out, &InvalidTransferAmountError{
			Network: net.ID,
			From:    max.String(),
			To:      min.String(),
			Amount:  toMove,
		}
	} else if toMove < Epsilon {
		return out, nil
	}

	out.From, out.To, out.Requested = max, min, toMove
	out.Moved, out.Stacks = b.Move(max, min, toMove, pred, stats)

	if out.Moved != 0 {
		stats.Transfers++
	}
	log.WithFields(log.Fields{
		"network":   net.ID,
		"from":      max.String(),
		"to":        min.String(),
		"requested": toMove,
		"moved":     out.Moved,
		"stacks":    out.Stacks,
	}).Debug("balanced network")

	return out, nil
}

// Move up to |volume| of items passing |pred| from Node |from| to Node |to|.
// Source stacks are taken in reverse slot order. It returns the volume the
// host actually moved and the number of host transfers performed, and updates
// the cached volumes of both Nodes.
func (b *Balancer) Move(from, to *registry.Node, volume float64, pred Predicate, stats *CycleStats) (moved float64, stacks int) {
	var items = from.Inventory.Items()
	var dstItems = to.Inventory.Items()
	// Nodes of differing Fingerprints may be combined by a group, and each
	// item type must then be checked against the destination.
	var checkAccept = from.Fingerprint != to.Fingerprint
	var remaining = volume

	for i := len(items) - 1; i >= 0 && remaining >= Epsilon; i-- {
		var stack = items[i]

		if pred != nil && !pred(stack.Type) {
			continue
		}
		var entry, ok = b.lookup(stack.Type, stats)
		if !ok {
			continue
		} else if checkAccept && !to.Inventory.CanAccept(stack.Type) {
			continue
		}

		var qty = remaining * catalog.VolumeScale / entry.Volume
		if entry.Quantization == catalog.Discrete {
			qty = math.Floor(qty + discreteBias)
		}
		if qty <= 0 {
			continue // Less than a single discrete unit.
		} else if qty > stack.Amount {
			qty = stack.Amount
		}

		var dstIndex = destinationIndex(dstItems, stack.Type, entry.Stackable)
		if !from.Inventory.TransferItem(to.Inventory, i, dstIndex, qty) {
			log.WithFields(log.Fields{
				"from":   from.String(),
				"to":     to.String(),
				"type":   stack.Type,
				"amount": qty,
			}).Warn("host rejected item transfer")
			continue
		}
		// The host may move less than requested, as when the destination is
		// nearly full. Source items are re-read to learn the amount moved.
		var after = from.Inventory.Items()
		if len(after) == len(items) {
			qty = stack.Amount - after[i].Amount
		} else {
			qty = stack.Amount // The stack was moved in its entirety.
		}
		items = after

		if dstIndex == len(dstItems) {
			dstItems = append(dstItems, host.ItemStack{Type: stack.Type, Amount: qty})
		} else {
			dstItems[dstIndex].Amount += qty
		}

		var v = entry.UnitVolume(qty)
		remaining -= v
		moved += v
		stacks++
	}

	if remaining >= Epsilon {
		stats.Shortfalls++
		log.WithFields(log.Fields{
			"from":      from.String(),
			"to":        to.String(),
			"requested": volume,
			"remaining": remaining,
		}).Debug("cannot move requested volume")
	}

	from.CurrentVolume -= moved
	to.CurrentVolume += moved
	updateFill(from)
	updateFill(to)

	stats.StackMoves += stacks
	stats.VolumeMoved += moved
	metrics.StackMovesTotal.Add(float64(stacks))
	metrics.VolumeMovedTotal.Add(moved)

	return moved, stacks
}

// measure recomputes the cached volumes and fill percentage of |n|, less the
// volume of items failing |pred|.
func (b *Balancer) measure(n *registry.Node, pred Predicate, stats *CycleStats) {
	var current, max = n.Inventory.CurrentVolume(), n.Inventory.MaxVolume()

	if pred != nil {
		for _, stack := range n.Inventory.Items() {
			if pred(stack.Type) {
				continue
			}
			// An unknown type can't be measured, and its volume stays in the pool.
			if entry, ok := b.lookup(stack.Type, stats); ok {
				var v = entry.UnitVolume(stack.Amount)
				current -= v
				max -= v
			}
		}
	}
	n.CurrentVolume, n.MaxVolume = current, max
	updateFill(n)
}

// lookup the catalog Entry of |itemType|, recording it into |stats| if missing.
func (b *Balancer) lookup(itemType string, stats *CycleStats) (catalog.Entry, bool) {
	var entry, ok = b.Catalog.Lookup(itemType)
	if ok {
		return entry, true
	}
	stats.Missing[itemType] = struct{}{}

	if _, ok = b.warned[itemType]; !ok {
		b.warned[itemType] = struct{}{}
		log.WithField("type", itemType).Warn("item type is missing from the catalog")
	}
	return entry, false
}

// destinationIndex returns the index of the first stack of |items| into
// which |itemType| merges, or len(|items|) if a new stack is required.
func destinationIndex(items []host.ItemStack, itemType string, stackable bool) int {
	if stackable {
		for i, s := range items {
			if s.Type == itemType {
				return i
			}
		}
	}
	return len(items)
}

func updateFill(n *registry.Node) {
	if n.MaxVolume > 0 {
		n.FillPercent = n.CurrentVolume / n.MaxVolume
	} else {
		n.FillPercent = 1
	}
}

// Package priority keeps designated item types at the first or last slot of
// inventories. Hosts consume an ore processor's input from its first slot, so
// placing an item type there prioritizes its processing, and placing one last
// defers it.
package priority

import (
	log "github.com/sirupsen/logrus"
	"go.ballast.dev/core/metrics"
	"go.ballast.dev/core/registry"
)

// Enforce relocates the first stack of item type |top| to slot 0, and the
// last stack of item type |bottom| to the last slot, of each of |nodes|
// having at least two stacks. Either type may be empty, in which case it's
// not enforced. Nodes already in the required arrangement are not touched,
// so a second invocation performs no moves. It returns the number of
// relocations performed.
func Enforce(nodes []*registry.Node, top, bottom string) (moves int) {
	if top == "" && bottom == "" {
		return 0
	}
	for _, n := range nodes {
		var items = n.Inventory.Items()
		if len(items) < 2 {
			continue
		}

		if top != "" && items[0].Type != top {
			for i := 1; i != len(items); i++ {
				if items[i].Type != top {
					continue
				}
				if relocate(n, i, 0, items[i].Amount) {
					moves++
					items = n.Inventory.Items()
				}
				break
			}
		}
		// If the same type is both top and bottom, top wins.
		if bottom != "" && bottom != top && items[len(items)-1].Type != bottom {
			for i := len(items) - 2; i >= 0; i-- {
				if items[i].Type != bottom {
					continue
				}
				if relocate(n, i, len(items), items[i].Amount) {
					moves++
				}
				break
			}
		}
	}
	metrics.PriorityMovesTotal.Add(float64(moves))
	return moves
}

func relocate(n *registry.Node, from, to int, amount float64) bool {
	if n.Inventory.TransferItem(n.Inventory, from, to, amount) {
		return true
	}
	log.WithFields(log.Fields{
		"node": n.String(),
		"from": from,
		"to":   to,
	}).Warn("host rejected slot relocation")
	return false
}

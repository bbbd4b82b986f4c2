package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.ballast.dev/core/host/hosttest"
)

func TestIdenticalProbesShareOneFingerprint(t *testing.T) {
	var cat = hosttest.Catalog()
	var w = hosttest.NewWorld(cat)

	var small = w.AddBlock(hosttest.BlockSpec{ID: 1, Definition: "SmallContainer",
		Inventories: []hosttest.InventorySpec{{Max: 1}}})
	var large = w.AddBlock(hosttest.BlockSpec{ID: 2, Definition: "LargeContainer",
		Inventories: []hosttest.InventorySpec{{Max: 10}}})
	var reactor = w.AddBlock(hosttest.BlockSpec{ID: 3, Definition: "Reactor",
		Inventories: []hosttest.InventorySpec{{Max: 1, Accepts: []string{"Ingot/Uranium"}}}})

	var c = NewClassifier(cat)
	var fpSmall = c.Classify(Definition{Name: "SmallContainer"}, small.Inventory(0))
	var fpLarge = c.Classify(Definition{Name: "LargeContainer"}, large.Inventory(0))
	var fpReactor = c.Classify(Definition{Name: "Reactor"}, reactor.Inventory(0))

	require.True(t, fpSmall == fpLarge, "expected identity-equal fingerprints")
	require.False(t, fpSmall == fpReactor)
	require.Equal(t, cat.Len(), fpSmall.Len())
	require.Equal(t, 1, fpReactor.Len())
	require.Equal(t, []string{"Ingot/Uranium"}, fpReactor.Types(cat))
	require.True(t, fpReactor.Has(cat.Index["Ingot/Uranium"]))
	require.False(t, fpReactor.Has(cat.Index["Ore/Ice"]))
	require.False(t, fpReactor.Has(1000))

	require.Equal(t, 2, c.Distinct())
	require.Equal(t, 3, c.Definitions())
}

func TestClassifyIsMemoizedPerDefinition(t *testing.T) {
	var cat = hosttest.Catalog()
	var w = hosttest.NewWorld(cat)
	var b = w.AddBlock(hosttest.BlockSpec{ID: 1, Definition: "Refinery",
		Inventories: []hosttest.InventorySpec{
			{Max: 1, Accepts: []string{"Ore/Iron", "Ore/Ice"}},
			{Max: 1},
		}})
	var c = NewClassifier(cat)

	var in = c.Classify(Definition{Name: "Refinery", Inventory: 0}, b.Inventory(0))
	var used = w.Meter.Used()

	// A second classification of the same definition doesn't probe the host.
	require.True(t, in == c.Classify(Definition{Name: "Refinery", Inventory: 0}, b.Inventory(0)))
	require.Equal(t, used+1, w.Meter.Used()) // Only the Inventory() accessor was charged.

	// Inventories of one block model are classified independently.
	var out = c.Classify(Definition{Name: "Refinery", Inventory: 1}, b.Inventory(1))
	require.False(t, in == out)
	require.Equal(t, []string{"Ore/Ice", "Ore/Iron"}, in.Types(cat))
}

func TestEmptyFingerprint(t *testing.T) {
	var cat = hosttest.Catalog()
	var w = hosttest.NewWorld(cat)
	var b = w.AddBlock(hosttest.BlockSpec{ID: 1, Definition: "Locker",
		Inventories: []hosttest.InventorySpec{{Max: 1, Accepts: []string{"Nothing/Known"}}}})

	var c = NewClassifier(cat)
	var fp = c.Classify(Definition{Name: "Locker"}, b.Inventory(0))
	require.Equal(t, 0, fp.Len())
	require.Empty(t, fp.Types(cat))
}

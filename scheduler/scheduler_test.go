package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.ballast.dev/core/host"
	"go.ballast.dev/core/host/hosttest"
	"go.ballast.dev/core/report"
)

const baseConfig = `
[Categories]
disable = weapon-magazine

[Priority]
top = Ore/Ice
`

func buildWorld() *hosttest.World {
	var w = hosttest.NewWorld(hosttest.Catalog())
	w.Config = baseConfig

	var cargo = func(id int64, name string, max float64, items ...host.ItemStack) {
		w.AddBlock(hosttest.BlockSpec{
			ID:          id,
			Name:        name,
			Type:        host.TypeCargoContainer,
			Definition:  "LargeContainer",
			Grid:        "Station",
			Inventories: []hosttest.InventorySpec{{Max: max, Port: "main", Items: items}},
		})
	}
	cargo(1, "Cargo North", 100, host.ItemStack{Type: "Component/Crate", Amount: 80000})
	cargo(2, "Cargo South", 100)

	w.AddBlock(hosttest.BlockSpec{
		ID:         3,
		Name:       "Refinery [BAL:ore]",
		Type:       host.TypeRefinery,
		Definition: "LargeRefinery",
		Grid:       "Station",
		Conveyor:   true,
		Inventories: []hosttest.InventorySpec{
			{Max: 10, Port: "main", Accepts: []string{"Ore/Iron", "Ore/Ice"}, Items: []host.ItemStack{
				{Type: "Ore/Iron", Amount: 100},
				{Type: "Ore/Ice", Amount: 100},
			}},
			{Max: 10, Port: "main", Accepts: []string{"Ingot/Uranium"}, Items: []host.ItemStack{
				{Type: "Ingot/Uranium", Amount: 20000},
			}},
		},
	})
	cargo(5, "Ore Bin [BAL:ore]", 10, host.ItemStack{Type: "Ore/Iron", Amount: 10000})

	return w
}

func passNames(s *report.Status) []string {
	var out []string
	for _, p := range s.Passes {
		var name = p.Name
		if p.Group {
			name = "group:" + name
		} else if p.Disabled {
			name += ":off"
		}
		out = append(out, name)
	}
	return out
}

func TestFirstCycleDiscoversAndBalances(t *testing.T) {
	var w = buildWorld()
	var s = New(w.Catalog, Options{})

	var status = s.Cycle(w)
	require.Equal(t, Warm, s.State())
	require.Equal(t, "full", status.Discovery)
	require.Equal(t, "warm", status.State)
	require.Equal(t, 1, status.ConfigVersion)
	require.Equal(t, 5, s.Snapshot().Len())
	require.Empty(t, status.Warnings)

	// Groups balance first, then kinds in fixed order.
	require.Equal(t, []string{
		"group:ore",
		"bulk-store",
		"ore-processor-input",
		"ore-processor-output",
		"energy-cell",
		"gas-processor",
		"weapon-magazine:off",
	}, passNames(status))

	// The group combines kinds: the ore bin fed the refinery input.
	var group = status.Passes[0]
	require.Equal(t, 3, group.Nodes)
	require.Equal(t, 1, group.Transfers)

	// Claimed nodes are excluded from the categorized pass.
	var bulk = status.Passes[1]
	require.Equal(t, 2, bulk.Nodes)
	require.Equal(t, 1, bulk.Transfers)
	require.InDelta(t, 40, bulk.Volume, 1e-9)
	require.Equal(t, []host.ItemStack{{Type: "Component/Crate", Amount: 40000}}, w.Block(2).Inv(0).Stacks())

	// Ice is prioritized within the refinery input.
	var input = w.Block(3).Inv(0).Stacks()
	require.Equal(t, "Ore/Ice", input[0].Type)
	require.Equal(t, "Ore/Iron", input[1].Type)
	require.True(t, input[1].Amount > 100)
	require.Equal(t, 1, status.PriorityMoves)

	require.Equal(t, 2, status.StackMoves)
	require.Equal(t, 2.0, status.RollingAverage)
	require.Equal(t, []string{"Station"}, status.Grids)
	require.Equal(t, w.Meter.Used(), status.BudgetUsed)
}

func TestWarmRefreshAndPeriodicRediscovery(t *testing.T) {
	var w = buildWorld()
	var s = New(w.Catalog, Options{RediscoverEvery: 4})

	var discoveries []string
	for i := 0; i != 8; i++ {
		if i == 1 {
			// A new container is invisible to refresh.
			w.AddBlock(hosttest.BlockSpec{ID: 9, Name: "Cargo East", Type: host.TypeCargoContainer,
				Definition: "LargeContainer", Inventories: []hosttest.InventorySpec{{Max: 100, Port: "main"}}})
		}
		w.BeginTick()
		var status = s.Cycle(w)
		discoveries = append(discoveries, status.Discovery)

		if i < 3 {
			require.Equal(t, 5, s.Snapshot().Len())
		} else {
			require.Equal(t, 6, s.Snapshot().Len())
		}
	}
	require.Equal(t, []string{"full", "refresh", "refresh", "full", "refresh", "refresh", "refresh", "full"}, discoveries)

	// A vanished block is dropped by refresh.
	w.Remove(9)
	w.BeginTick()
	require.Equal(t, "refresh", s.Cycle(w).Discovery)
	require.Equal(t, 5, s.Snapshot().Len())
}

func TestBudgetGuardAbortsDiscovery(t *testing.T) {
	var w = hosttest.NewWorld(hosttest.Catalog())
	for i := 1; i <= 20; i++ {
		var spec = hosttest.BlockSpec{
			ID:   int64(i),
			Name: fmt.Sprintf("Cargo %d", i),
			Type: host.TypeCargoContainer,
			// Distinct definitions must each be classified.
			Definition:  fmt.Sprintf("Container%d", i),
			Inventories: []hosttest.InventorySpec{{Max: 10, Port: "main"}},
		}
		if i == 1 {
			spec.Inventories[0].Items = []host.ItemStack{{Type: "Component/Crate", Amount: 5000}}
		}
		w.AddBlock(spec)
	}
	var before = append([]host.ItemStack(nil), w.Block(1).Inv(0).Stacks()...)
	var s = New(w.Catalog, Options{})

	// Discovery costs more than 75% of the limit, but the cycle begins
	// with its full budget.
	w.Meter.LimitN = 200
	w.BeginTick()
	var status = s.Cycle(w)

	require.False(t, status.BudgetSkipped)
	require.Equal(t, "aborted", status.Discovery)
	require.Equal(t, Cold, s.State())
	require.Nil(t, s.Snapshot())
	require.Equal(t, 0, status.StackMoves)
	require.Empty(t, status.Passes)
	require.Equal(t, before, w.Block(1).Inv(0).Stacks())

	// Discovery restarts from scratch, but definitions classified by the
	// aborted attempt remain memoized, and it now completes.
	w.BeginTick()
	status = s.Cycle(w)
	require.Equal(t, "full", status.Discovery)
	require.Equal(t, Warm, s.State())
	require.Equal(t, 20, s.Snapshot().Len())
	require.Equal(t, 1, status.StackMoves)
	require.True(t, status.BudgetUsed < 200)
}

func TestBudgetBelowHalfSkipsCycle(t *testing.T) {
	var w = buildWorld()
	var s = New(w.Catalog, Options{})

	w.BeginTick()
	w.Meter.UsedN = w.Meter.LimitN/2 + 1

	var status = s.Cycle(w)
	require.True(t, status.BudgetSkipped)
	require.Equal(t, "skipped", status.Discovery)
	require.Equal(t, Cold, s.State())
	require.Equal(t, 0, status.StackMoves)
	require.Empty(t, w.Block(2).Inv(0).Stacks())
	require.Contains(t, status.Render(), "Balancing skipped")

	// Exactly half remaining is sufficient.
	w.BeginTick()
	w.Meter.UsedN = w.Meter.LimitN / 2
	status = s.Cycle(w)
	require.False(t, status.BudgetSkipped)
	require.Equal(t, "full", status.Discovery)
}

func TestConfigChangesAndErrors(t *testing.T) {
	var w = buildWorld()
	var s = New(w.Catalog, Options{})

	require.Equal(t, "full", s.Cycle(w).Discovery)
	w.BeginTick()
	require.Equal(t, "refresh", s.Cycle(w).Discovery)

	// Malformed config is reported, and the prior config is retained.
	w.Config = baseConfig + "middle = Ore/Iron\n"
	w.BeginTick()
	var status = s.Cycle(w)
	require.Equal(t, "refresh", status.Discovery)
	require.Len(t, status.Warnings, 1)
	require.Contains(t, status.Warnings[0], "parsing config")
	require.Equal(t, "Ore/Ice", s.Config().Priority.Top)
	require.Equal(t, 1, status.ConfigVersion)

	// Restoring the config in effect clears the warning, and stays WARM.
	w.Config = baseConfig
	w.BeginTick()
	status = s.Cycle(w)
	require.Equal(t, "refresh", status.Discovery)
	require.Empty(t, status.Warnings)
	require.Equal(t, 1, status.ConfigVersion)
	require.Equal(t, Warm, s.State())

	// A changed config forces rediscovery.
	w.Config = "[Groups]\nname = ore\nname = fuel\n"
	w.BeginTick()
	status = s.Cycle(w)
	require.Equal(t, "full", status.Discovery)
	require.Equal(t, 2, status.ConfigVersion)
	require.Equal(t, "", s.Config().Priority.Top)
	require.Equal(t, []string{`group "fuel" has no members`}, status.Warnings)
	require.Equal(t, "group:ore", passNames(status)[0])
	require.Equal(t, "weapon-magazine", passNames(status)[6])

	// Unresolved groups are reported once.
	w.BeginTick()
	require.Empty(t, s.Cycle(w).Warnings)
}

func TestGroupsMayBeRestricted(t *testing.T) {
	var w = buildWorld()
	w.Config = "[Groups]\nname = other\n"
	var s = New(w.Catalog, Options{})

	var status = s.Cycle(w)
	require.Equal(t, []string{`group "other" has no members`}, status.Warnings)
	require.Equal(t, "bulk-store", passNames(status)[0])
	// Nodes claimed by the unbalanced group are not balanced by kind.
	require.Equal(t, []host.ItemStack{{Type: "Ore/Iron", Amount: 10000}}, w.Block(5).Inv(0).Stacks())
}

func TestFuelPredicates(t *testing.T) {
	var w = hosttest.NewWorld(hosttest.Catalog())
	var reactor = func(id int64, items ...host.ItemStack) {
		w.AddBlock(hosttest.BlockSpec{
			ID:          id,
			Name:        "Reactor",
			Type:        host.TypeReactor,
			Definition:  "LargeReactor",
			Conveyor:    true,
			Inventories: []hosttest.InventorySpec{{Max: 1, Port: "main", Items: items}},
		})
	}
	reactor(1,
		host.ItemStack{Type: "Ingot/Uranium", Amount: 10000},
		host.ItemStack{Type: "Component/Crate", Amount: 100},
	)
	reactor(2)
	var s = New(w.Catalog, Options{})

	var status = s.Cycle(w)
	require.Equal(t, 1, status.Passes[3].Transfers)
	require.Equal(t, "energy-cell", status.Passes[3].Name)

	// Only fuel moves.
	require.Len(t, w.Block(2).Inv(0).Stacks(), 1)
	require.Equal(t, "Ingot/Uranium", w.Block(2).Inv(0).Stacks()[0].Type)
	require.Equal(t, 100.0, w.Block(1).Inv(0).Stacks()[1].Amount)
}

func TestReportPublishing(t *testing.T) {
	var w = buildWorld()
	w.Config = "[Report]\ndisplay = LCD\ndisplay = LCD Missing\nlines = 40\n"
	var lcd = w.AddDisplay("LCD")
	var s = New(w.Catalog, Options{})

	var status = s.Cycle(w)
	require.Equal(t, []string{`display "LCD Missing" not found`}, status.Warnings)
	require.Contains(t, lcd.Text, "Ballast cycle 1 (warm, full)")
	require.Contains(t, lcd.Text, "Grids: Station")

	w.BeginTick()
	status = s.Cycle(w)
	require.Empty(t, status.Warnings)
	require.Contains(t, lcd.Text, "Ballast cycle 2 (warm, refresh)")
	require.Equal(t, 2, lcd.Writes)
}

func TestRollingAverage(t *testing.T) {
	var w = buildWorld()
	var s = New(w.Catalog, Options{History: 2})

	var averages []float64
	for i := 0; i != 3; i++ {
		w.BeginTick()
		averages = append(averages, s.Cycle(w).RollingAverage)
	}
	// The first cycle moves two stacks, and later cycles move fewer.
	require.Equal(t, 2.0, averages[0])
	require.True(t, averages[2] < averages[0])
}

package hosttest

import (
	"fmt"
	"math/rand"
	"strings"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.ballast.dev/core/catalog"
	"go.ballast.dev/core/host"
	"gopkg.in/yaml.v2"
)

// Fixture is the YAML representation of a World.
type Fixture struct {
	// Budget is the per-tick compute limit. Zero uses the World default.
	Budget   int         `yaml:"budget"`
	Config   string      `yaml:"config"`
	Displays []string    `yaml:"displays"`
	Blocks   []BlockSpec `yaml:"blocks"`
}

// LoadWorld builds a World from the Fixture at |path| of |fs|.
func LoadWorld(fs afero.Fs, path string, cat *catalog.Catalog) (*World, error) {
	var raw, err = afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, "reading world fixture")
	}
	var fixture Fixture
	if err = yaml.UnmarshalStrict(raw, &fixture); err != nil {
		return nil, errors.Wrapf(err, "decoding world fixture %s", path)
	}

	var w = NewWorld(cat)
	if fixture.Budget != 0 {
		w.Meter.LimitN = fixture.Budget
	}
	w.Config = fixture.Config

	for _, name := range fixture.Displays {
		w.AddDisplay(name)
	}
	for _, spec := range fixture.Blocks {
		if w.Block(host.EntityID(spec.ID)) != nil {
			return nil, errors.Errorf("world fixture %s: duplicate block id %d", path, spec.ID)
		}
		w.AddBlock(spec)
	}
	return w, nil
}

// Generate a random World of |n| blocks over two conveyor networks, with
// inventories populated from |cat|.
func Generate(rng *rand.Rand, cat *catalog.Catalog, n int) *World {
	var w = NewWorld(cat)
	var types = []string{
		host.TypeCargoContainer,
		host.TypeCargoContainer,
		host.TypeCargoContainer,
		host.TypeRefinery,
		host.TypeReactor,
		host.TypeGasGenerator,
		host.TypeTurret,
	}

	for i := 0; i != n; i++ {
		var spec = BlockSpec{
			ID:         int64(1000 + i),
			Type:       types[rng.Intn(len(types))],
			Name:       petname.Generate(2, "-"),
			Definition: "Large",
			Grid:       "Station",
			Conveyor:   true,
		}
		var port = fmt.Sprintf("net-%d", rng.Intn(2))

		switch spec.Type {
		case host.TypeCargoContainer:
			if rng.Intn(2) == 0 {
				spec.Definition = "Small"
				spec.Inventories = []InventorySpec{{Max: 15.625, Port: port}}
			} else {
				spec.Inventories = []InventorySpec{{Max: 421.875, Port: port}}
			}
			spec.Inventories[0].Items = randomStacks(rng, cat, spec.Inventories[0].Max)
		case host.TypeRefinery:
			spec.Inventories = []InventorySpec{
				{Max: 7.5, Port: port, Accepts: oreTypes(cat)},
				{Max: 7.5, Port: port},
			}
		case host.TypeReactor:
			spec.Inventories = []InventorySpec{{Max: 4, Port: port, Accepts: []string{"Ingot/Uranium"}}}
		case host.TypeGasGenerator:
			spec.Inventories = []InventorySpec{{Max: 4, Port: port, Accepts: []string{"Ore/Ice"}}}
		case host.TypeTurret:
			spec.Inventories = []InventorySpec{{Max: 0.384, Port: port, Accepts: []string{"AmmoMagazine/NATO_25x184mm"}}}
		}
		if rng.Intn(10) == 0 {
			spec.Name += " [BAL:spare]"
		}
		w.AddBlock(spec)
	}
	return w
}

func randomStacks(rng *rand.Rand, cat *catalog.Catalog, max float64) []host.ItemStack {
	var out []host.ItemStack
	var budget = max * rng.Float64()

	for _, t := range cat.Palette {
		if budget <= 0 || rng.Intn(3) != 0 {
			continue
		}
		var e, _ = cat.Lookup(t)
		var amount = budget * rng.Float64() * catalog.VolumeScale / e.Volume
		if e.Quantization == catalog.Discrete {
			amount = float64(int(amount))
		}
		if amount <= 0 {
			continue
		}
		out = append(out, host.ItemStack{Type: t, Amount: amount})
		budget -= e.UnitVolume(amount)
	}
	return out
}

func oreTypes(cat *catalog.Catalog) []string {
	var out []string
	for _, t := range cat.Palette {
		if strings.HasPrefix(t, "Ore/") {
			out = append(out, t)
		}
	}
	return out
}

// Package catalog is the static table of item types known to the balancer.
// Each Entry records the unit volume, mass, quantization rule and stacking
// behavior of one item type. A Catalog is loaded once at process start and is
// thereafter read-only; it's passed explicitly to the components that need it.
//
// Item types are ordered into a Palette, and the index of a type within the
// Palette is its stable small-integer identifier. Package fingerprint uses
// Palette indices as bit positions.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// VolumeScale converts between Entry volumes (liters) and inventory volumes
// (cubic meters).
const VolumeScale = 1000

// Quantization governs whether an item type moves in whole units, or in
// arbitrary fractional amounts.
type Quantization int

const (
	// Continuous items (ores, ingots) may move in fractional amounts.
	Continuous Quantization = iota
	// Discrete items (components, tools, ammunition) move only in whole units.
	Discrete
)

func (q Quantization) String() string {
	switch q {
	case Continuous:
		return "continuous"
	case Discrete:
		return "discrete"
	}
	return fmt.Sprintf("Quantization(%d)", int(q))
}

// UnmarshalYAML decodes a Quantization from its string form.
func (q *Quantization) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "continuous", "":
		*q = Continuous
	case "discrete":
		*q = Discrete
	default:
		return fmt.Errorf("unknown quantization %q", s)
	}
	return nil
}

// MarshalYAML encodes a Quantization as its string form.
func (q Quantization) MarshalYAML() (interface{}, error) { return q.String(), nil }

// Entry is the immutable description of one item type.
type Entry struct {
	// Type of the item, eg "Ore/Iron" or "Component/SteelPlate".
	Type string `yaml:"type"`
	// Volume of a single unit of the item, in liters.
	Volume float64 `yaml:"volume"`
	// Mass of a single unit of the item, in kilograms.
	Mass float64 `yaml:"mass"`
	// Quantization of item amounts.
	Quantization Quantization `yaml:"quantization"`
	// Stackable items merge into an existing stack of the same type.
	Stackable bool `yaml:"stackable"`
}

// UnitVolume returns the volume of |amount| units of the Entry, in cubic meters.
func (e Entry) UnitVolume(amount float64) float64 {
	return amount * e.Volume / VolumeScale
}

// Validate returns an error if the Entry is malformed.
func (e Entry) Validate() error {
	if e.Type == "" {
		return errors.New("expected Type")
	} else if e.Volume <= 0 {
		return errors.Errorf("expected Volume > 0 (%s: %v)", e.Type, e.Volume)
	} else if e.Mass < 0 {
		return errors.Errorf("expected Mass >= 0 (%s: %v)", e.Type, e.Mass)
	}
	return nil
}

// Catalog indexes Entries by item type.
type Catalog struct {
	// Palette of item types, in sorted order.
	Palette []string
	// Index of each item type within Palette.
	Index map[string]int
	// Entries keyed on item type.
	Entries map[string]Entry
	// Digest is a content hash of the Catalog source.
	Digest string
}

// New builds a Catalog from |entries|, which must be valid and have
// unique types.
func New(entries []Entry) (*Catalog, error) {
	var c = &Catalog{
		Index:   make(map[string]int, len(entries)),
		Entries: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		} else if _, ok := c.Entries[e.Type]; ok {
			return nil, errors.Errorf("duplicate item type %q", e.Type)
		}
		c.Entries[e.Type] = e
		c.Palette = append(c.Palette, e.Type)
	}
	sort.Strings(c.Palette)

	for i, t := range c.Palette {
		c.Index[t] = i
	}
	return c, nil
}

// Load a Catalog from the YAML document at |path| of |fs|. The document is a
// sequence of Entries.
func Load(fs afero.Fs, path string) (*Catalog, error) {
	var raw, err = afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, "reading catalog")
	}
	var entries []Entry
	if err = yaml.UnmarshalStrict(raw, &entries); err != nil {
		return nil, errors.Wrapf(err, "decoding catalog %s", path)
	}
	c, err := New(entries)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	var sum = sha256.Sum256(raw)
	c.Digest = hex.EncodeToString(sum[:])

	return c, nil
}

// Lookup the Entry of item |type|.
func (c *Catalog) Lookup(itemType string) (Entry, bool) {
	var e, ok = c.Entries[itemType]
	return e, ok
}

// Len is the number of item types in the Catalog.
func (c *Catalog) Len() int { return len(c.Palette) }

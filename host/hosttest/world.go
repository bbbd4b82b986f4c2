// Package hosttest provides an in-memory World which implements the
// host.Host contract, for use in tests and simulations. Every host call
// charges the World's Meter, so that compute budget behavior can be
// exercised deterministically.
package hosttest

import (
	"math"
	"sort"

	"go.ballast.dev/core/catalog"
	"go.ballast.dev/core/host"
)

// World is an in-memory host.Host.
type World struct {
	// Catalog used to compute item volumes and stacking behavior.
	Catalog *catalog.Catalog
	// UnknownVolume is the unit volume, in liters, of item types which are
	// absent from Catalog.
	UnknownVolume float64
	// Config is the engine configuration text returned by ConfigText.
	Config string
	// Meter charges the compute cost of host calls.
	Meter Meter

	blocks   []*Block // Ordered on ID.
	displays map[string]*Display
	links    map[[2]*Inventory]struct{}
}

// NewWorld returns an empty World using Catalog |cat|.
func NewWorld(cat *catalog.Catalog) *World {
	return &World{
		Catalog:       cat,
		UnknownVolume: 1,
		Meter:         Meter{LimitN: 50000, CallCost: 1},
		displays:      make(map[string]*Display),
		links:         make(map[[2]*Inventory]struct{}),
	}
}

// Meter is a host.Budget which is charged by each host call.
type Meter struct {
	LimitN   int
	UsedN    int
	CallCost int
}

func (m *Meter) Used() int  { return m.UsedN }
func (m *Meter) Limit() int { return m.LimitN }

func (m *Meter) charge(n int) { m.UsedN += n * m.CallCost }

// BeginTick resets consumed compute, as a host does at the start of a tick.
func (w *World) BeginTick() { w.Meter.UsedN = 0 }

// BlockSpec describes a Block to add to the World.
type BlockSpec struct {
	ID          int64           `yaml:"id"`
	Name        string          `yaml:"name"`
	Type        string          `yaml:"type"`
	Definition  string          `yaml:"definition"`
	Grid        string          `yaml:"grid"`
	Conveyor    bool            `yaml:"conveyor"`
	Inventories []InventorySpec `yaml:"inventories"`
}

// InventorySpec describes an Inventory of a BlockSpec.
type InventorySpec struct {
	// Max volume in cubic meters.
	Max float64 `yaml:"max"`
	// Port names the conveyor network of the inventory. Inventories sharing
	// a non-empty Port are connected.
	Port string `yaml:"port"`
	// Accepts enumerates accepted item types. If empty, all types are accepted.
	Accepts []string         `yaml:"accepts"`
	Items   []host.ItemStack `yaml:"items"`
}

// AddBlock adds a Block built from |spec|. It panics if the ID is taken.
func (w *World) AddBlock(spec BlockSpec) *Block {
	var b = &Block{
		world:    w,
		id:       host.EntityID(spec.ID),
		name:     spec.Name,
		typeID:   spec.Type,
		def:      spec.Definition,
		grid:     spec.Grid,
		conveyor: spec.Conveyor,
	}
	for i, is := range spec.Inventories {
		var inv = &Inventory{
			block: b,
			index: i,
			max:   is.Max,
			port:  is.Port,
			items: append([]host.ItemStack(nil), is.Items...),
		}
		if len(is.Accepts) != 0 {
			inv.accepts = make(map[string]bool, len(is.Accepts))
			for _, t := range is.Accepts {
				inv.accepts[t] = true
			}
		}
		b.inventories = append(b.inventories, inv)
	}

	var ind = sort.Search(len(w.blocks), func(i int) bool { return w.blocks[i].id >= b.id })
	if ind != len(w.blocks) && w.blocks[ind].id == b.id {
		panic("duplicate block ID")
	}
	w.blocks = append(w.blocks, nil)
	copy(w.blocks[ind+1:], w.blocks[ind:])
	w.blocks[ind] = b

	return b
}

// Remove the Block identified by |id|, as if it were destroyed.
func (w *World) Remove(id host.EntityID) {
	for i, b := range w.blocks {
		if b.id == id {
			w.blocks = append(w.blocks[:i], w.blocks[i+1:]...)
			return
		}
	}
}

// Block returns the Block identified by |id|, or nil. It doesn't charge the Meter.
func (w *World) Block(id host.EntityID) *Block {
	for _, b := range w.blocks {
		if b.id == id {
			return b
		}
	}
	return nil
}

// Link connects |a| and |b| directly, independent of their Ports.
// Links are not transitive.
func (w *World) Link(a, b *Inventory) {
	w.links[[2]*Inventory{a, b}] = struct{}{}
	w.links[[2]*Inventory{b, a}] = struct{}{}
}

// AddDisplay adds a named Display.
func (w *World) AddDisplay(name string) *Display {
	var d = &Display{}
	w.displays[name] = d
	return d
}

// TotalVolume sums the CurrentVolume of all inventories, without charging the Meter.
func (w *World) TotalVolume() float64 {
	var sum float64
	for _, b := range w.blocks {
		for _, inv := range b.inventories {
			sum += inv.currentVolume()
		}
	}
	return sum
}

func (w *World) Blocks() []host.Block {
	w.Meter.charge(1 + len(w.blocks))

	var out = make([]host.Block, len(w.blocks))
	for i, b := range w.blocks {
		out[i] = b
	}
	return out
}

func (w *World) Resolve(id host.EntityID) (host.Block, bool) {
	w.Meter.charge(1)

	var ind = sort.Search(len(w.blocks), func(i int) bool { return w.blocks[i].id >= id })
	if ind != len(w.blocks) && w.blocks[ind].id == id {
		return w.blocks[ind], true
	}
	return nil, false
}

func (w *World) Budget() host.Budget { return &w.Meter }
func (w *World) ConfigText() string  { return w.Config }

func (w *World) Display(name string) (host.Display, bool) {
	if d, ok := w.displays[name]; ok {
		return d, true
	}
	return nil, false
}

// unitVolume returns the volume of one unit of |itemType|, in cubic meters.
func (w *World) unitVolume(itemType string) float64 {
	if e, ok := w.Catalog.Lookup(itemType); ok {
		return e.Volume / catalog.VolumeScale
	}
	return w.UnknownVolume / catalog.VolumeScale
}

// Block is an in-memory host.Block.
type Block struct {
	world       *World
	id          host.EntityID
	name        string
	typeID      string
	def         string
	grid        string
	conveyor    bool
	inventories []*Inventory
}

func (b *Block) ID() host.EntityID   { return b.id }
func (b *Block) Name() string        { return b.name }
func (b *Block) TypeID() string      { return b.typeID }
func (b *Block) Definition() string  { return b.def }
func (b *Block) Grid() string        { return b.grid }
func (b *Block) UsesConveyor() bool  { return b.conveyor }
func (b *Block) InventoryCount() int { return len(b.inventories) }

func (b *Block) Inventory(index int) host.Inventory {
	b.world.Meter.charge(1)
	return b.inventories[index]
}

// Inv returns the concrete Inventory at |index|, without charging the Meter.
func (b *Block) Inv(index int) *Inventory { return b.inventories[index] }

// SetName renames the Block.
func (b *Block) SetName(name string) { b.name = name }

// Inventory is an in-memory host.Inventory.
type Inventory struct {
	block   *Block
	index   int
	max     float64
	port    string
	accepts map[string]bool // nil accepts all types.
	items   []host.ItemStack
}

func (inv *Inventory) CurrentVolume() float64 {
	inv.block.world.Meter.charge(1)
	return inv.currentVolume()
}

func (inv *Inventory) MaxVolume() float64 {
	inv.block.world.Meter.charge(1)
	return inv.max
}

func (inv *Inventory) CanAccept(itemType string) bool {
	inv.block.world.Meter.charge(1)
	return inv.canAccept(itemType)
}

func (inv *Inventory) IsConnectedTo(other host.Inventory) bool {
	inv.block.world.Meter.charge(1)

	var o, ok = other.(*Inventory)
	if !ok {
		return false
	} else if o == inv {
		return true
	} else if inv.port != "" && inv.port == o.port {
		return true
	}
	_, ok = inv.block.world.links[[2]*Inventory{inv, o}]
	return ok
}

func (inv *Inventory) Items() []host.ItemStack {
	inv.block.world.Meter.charge(1)
	return append([]host.ItemStack(nil), inv.items...)
}

func (inv *Inventory) TransferItem(dst host.Inventory, srcIndex, dstIndex int, amount float64) bool {
	var w = inv.block.world
	w.Meter.charge(1)

	var to, ok = dst.(*Inventory)
	if !ok || srcIndex < 0 || srcIndex >= len(inv.items) || amount <= 0 || dstIndex < 0 {
		return false
	}
	var stack = inv.items[srcIndex]
	if !to.canAccept(stack.Type) {
		return false
	}
	amount = math.Min(amount, stack.Amount)

	var entry, known = w.Catalog.Lookup(stack.Type)
	var stackable = !known || entry.Stackable

	if to != inv {
		// Move only what fits within the destination.
		var unit = w.unitVolume(stack.Type)
		if free := to.max - to.currentVolume(); amount*unit > free+1e-9 {
			amount = free / unit
			if known && entry.Quantization == catalog.Discrete {
				amount = math.Floor(amount)
			}
		}
		if amount <= 0 {
			return false
		}
	}

	if amount >= stack.Amount-1e-9 {
		amount = stack.Amount
		inv.items = append(inv.items[:srcIndex], inv.items[srcIndex+1:]...)
	} else {
		inv.items[srcIndex].Amount -= amount
	}

	if dstIndex < len(to.items) && stackable && to.items[dstIndex].Type == stack.Type {
		to.items[dstIndex].Amount += amount
		return true
	}
	if dstIndex > len(to.items) {
		dstIndex = len(to.items)
	}
	to.items = append(to.items, host.ItemStack{})
	copy(to.items[dstIndex+1:], to.items[dstIndex:])
	to.items[dstIndex] = host.ItemStack{Type: stack.Type, Amount: amount}

	return true
}

// Stacks returns the stacks of the Inventory without charging the Meter.
func (inv *Inventory) Stacks() []host.ItemStack { return inv.items }

// SetStacks replaces the stacks of the Inventory.
func (inv *Inventory) SetStacks(items ...host.ItemStack) { inv.items = items }

// Volume returns the current volume without charging the Meter.
func (inv *Inventory) Volume() float64 { return inv.currentVolume() }

func (inv *Inventory) currentVolume() float64 {
	var sum float64
	for _, s := range inv.items {
		sum += s.Amount * inv.block.world.unitVolume(s.Type)
	}
	return sum
}

func (inv *Inventory) canAccept(itemType string) bool {
	return inv.accepts == nil || inv.accepts[itemType]
}

// Display is an in-memory host.Display which retains the last written text.
type Display struct {
	Text   string
	Writes int
}

func (d *Display) WriteText(text string) {
	d.Text = text
	d.Writes++
}

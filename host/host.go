// Package host defines the capability contract which the balancing engine
// requires of its host environment. The host owns every block, inventory and
// item; the engine only observes them and requests item transfers. All calls
// are synchronous and complete within the current tick.
//
// Host-supplied entities may vanish or move between ticks. The engine never
// retains a Block or Inventory across cycles: it retains an EntityID and
// re-resolves it through Host.Resolve.
package host

// EntityID is the persistent identity of a Block.
type EntityID int64

// Block type identifiers which the engine knows how to categorize. Blocks of
// other types may still participate in explicitly named groups.
const (
	TypeCargoContainer = "CargoContainer"
	TypeRefinery       = "Refinery"
	TypeReactor        = "Reactor"
	TypeGasGenerator   = "OxygenGenerator"
	TypeTurret         = "LargeGatlingTurret"
)

// Host enumerates and resolves Blocks, and exposes per-tick facilities.
type Host interface {
	// Blocks returns all candidate Blocks having at least one inventory.
	Blocks() []Block
	// Resolve a previously observed Block by its EntityID. Resolve returns
	// false if the Block no longer exists or is unreachable.
	Resolve(EntityID) (Block, bool)
	// Budget of compute for the current tick.
	Budget() Budget
	// ConfigText is the raw configuration blob of the engine.
	ConfigText() string
	// Display resolves a named text surface.
	Display(name string) (Display, bool)
}

// Block is a host entity which owns inventories.
type Block interface {
	ID() EntityID
	// Name is the user-editable display name of the Block.
	Name() string
	// TypeID is the block type, eg TypeCargoContainer.
	TypeID() string
	// Definition identifies the concrete model of the Block. Blocks sharing a
	// Definition have inventories which accept the same item types.
	Definition() string
	// Grid is the name of the construct the Block belongs to.
	Grid() string
	// UsesConveyor is true if the Block draws from and pushes to its
	// conveyor ports.
	UsesConveyor() bool
	// InventoryCount is the number of inventories of the Block.
	InventoryCount() int
	// Inventory returns the inventory at |index|.
	Inventory(index int) Inventory
}

// Inventory is a volume-bounded ordered list of ItemStacks.
type Inventory interface {
	// CurrentVolume occupied by items, in cubic meters.
	CurrentVolume() float64
	// MaxVolume of the inventory, in cubic meters.
	MaxVolume() float64
	// CanAccept returns whether the inventory could ever hold |itemType|.
	CanAccept(itemType string) bool
	// IsConnectedTo returns whether items may be conveyed from this
	// inventory to |other|.
	IsConnectedTo(other Inventory) bool
	// Items returns the current stacks of the inventory, in slot order.
	Items() []ItemStack
	// TransferItem moves |amount| of the stack at |srcIndex| into |dst| at
	// |dstIndex|. If |dstIndex| addresses a stack of the same type, the
	// amount merges into it; otherwise a new stack is inserted at |dstIndex|
	// (or appended, if |dstIndex| is beyond the last slot). |dst| may be the
	// inventory itself, in which case the stack is relocated. TransferItem
	// returns false if nothing was moved.
	TransferItem(dst Inventory, srcIndex, dstIndex int, amount float64) bool
}

// ItemStack is an amount of a single item type within an inventory slot.
type ItemStack struct {
	Type   string
	Amount float64
}

// Budget is a per-tick compute allowance.
type Budget interface {
	// Used is the compute consumed so far in this tick.
	Used() int
	// Limit is the total compute allowance of a tick.
	Limit() int
}

// Remaining returns the unconsumed portion of the Budget.
func Remaining(b Budget) int { return b.Limit() - b.Used() }

// Display is a text surface.
type Display interface {
	WriteText(text string)
}

package inventory

import "strings"

// Equipment is a container whose slots each accept one item category.
type Equipment struct {
	*Container
	categories []string
}

func NewEquipment(categories []string) *Equipment {
	cats := make([]string, len(categories))
	copy(cats, categories)
	return &Equipment{Container: NewContainer(len(cats)), categories: cats}
}

// Category returns the required category prefix for slot i.
func (e *Equipment) Category(i int) string {
	if !e.inBounds(i) {
		return ""
	}
	return e.categories[i]
}

// Fits reports whether key may be placed in slot i by a player of the given level.
func (e *Equipment) Fits(templates Templates, key string, i, level int) bool {
	if !e.inBounds(i) {
		return false
	}
	tpl, ok := templates.Item(key)
	if !ok || !tpl.Equipment() {
		return false
	}
	return strings.HasPrefix(tpl.Category, e.categories[i]) && level >= tpl.MinLevel
}

// SlotFor finds the first slot that accepts key, preferring empty ones.
func (e *Equipment) SlotFor(templates Templates, key string, level int) (int, bool) {
	found := -1
	for i := range e.categories {
		if !e.Fits(templates, key, i, level) {
			continue
		}
		if !e.slots[i].Valid {
			return i, true
		}
		if found < 0 {
			found = i
		}
	}
	return found, found >= 0
}

// SwapInventoryEquip exchanges inventory slot invIndex with equipment slot
// eqIndex. The inventory item, if any, must fit the equipment slot; an empty
// inventory slot turns the swap into an unequip.
func SwapInventoryEquip(templates Templates, inv *Container, eq *Equipment, invIndex, eqIndex, level int) bool {
	if !inv.inBounds(invIndex) || !eq.inBounds(eqIndex) {
		return false
	}
	incoming := inv.slots[invIndex]
	outgoing := eq.slots[eqIndex]
	if !incoming.Valid && !outgoing.Valid {
		return false
	}
	if incoming.Valid && !eq.Fits(templates, incoming.Key, eqIndex, level) {
		return false
	}
	inv.slots[invIndex], eq.slots[eqIndex] = outgoing, incoming
	return true
}

// Equip moves a valid inventory item into an equipment slot, swapping out
// whatever was equipped there.
func Equip(templates Templates, inv *Container, eq *Equipment, invIndex, eqIndex, level int) bool {
	if _, ok := inv.At(invIndex); !ok {
		return false
	}
	return SwapInventoryEquip(templates, inv, eq, invIndex, eqIndex, level)
}

// Unequip moves an equipped item into an empty inventory slot.
func Unequip(templates Templates, inv *Container, eq *Equipment, eqIndex, invIndex int) bool {
	if _, ok := eq.At(eqIndex); !ok {
		return false
	}
	if _, occupied := inv.At(invIndex); occupied {
		return false
	}
	return SwapInventoryEquip(templates, inv, eq, invIndex, eqIndex, 0)
}

// EquipmentFromSlots restores persisted equipment onto the given layout.
func EquipmentFromSlots(categories []string, slots []Item) *Equipment {
	e := NewEquipment(categories)
	e.Container = FromSlots(len(categories), slots)
	return e
}

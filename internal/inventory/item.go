package inventory

import "realm/internal/catalog"

// Templates resolves item keys to their static definitions.
type Templates interface {
	Item(key string) (catalog.Item, bool)
}

// Item is a value copied by slot. A slot holding an item with Valid false is
// empty; its other fields carry no meaning.
type Item struct {
	Key    string `json:"key,omitempty"`
	Amount int    `json:"amount,omitempty"`
	Valid  bool   `json:"valid"`
}

func NewItem(key string, amount int) Item {
	return Item{Key: key, Amount: amount, Valid: true}
}

// Empty is the sentinel for an unoccupied slot.
var Empty = Item{}

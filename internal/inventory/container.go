package inventory

// Container is a fixed-length sequence of slots. The slot index is the
// identity clients use, so no operation ever shifts untouched slots.
type Container struct {
	slots []Item
}

func NewContainer(size int) *Container {
	return &Container{slots: make([]Item, size)}
}

// FromSlots restores a container from persisted slots. Slots holding an
// invalid or empty stack come back as empty.
func FromSlots(size int, slots []Item) *Container {
	c := NewContainer(size)
	for i := 0; i < size && i < len(slots); i++ {
		if slots[i].Valid && slots[i].Amount > 0 {
			c.slots[i] = slots[i]
		}
	}
	return c
}

func (c *Container) Len() int { return len(c.slots) }

// At returns the slot content and whether it holds a valid item.
func (c *Container) At(i int) (Item, bool) {
	if !c.inBounds(i) {
		return Empty, false
	}
	return c.slots[i], c.slots[i].Valid
}

// Slots returns a copy of every slot.
func (c *Container) Slots() []Item {
	out := make([]Item, len(c.slots))
	copy(out, c.slots)
	return out
}

func (c *Container) Set(i int, it Item) bool {
	if !c.inBounds(i) {
		return false
	}
	if !it.Valid || it.Amount <= 0 {
		it = Empty
	}
	c.slots[i] = it
	return true
}

func (c *Container) Clear(i int) bool {
	return c.Set(i, Empty)
}

// Free counts empty slots.
func (c *Container) Free() int {
	n := 0
	for _, s := range c.slots {
		if !s.Valid {
			n++
		}
	}
	return n
}

// FreeIndices lists empty slot indices in ascending order.
func (c *Container) FreeIndices() []int {
	var out []int
	for i, s := range c.slots {
		if !s.Valid {
			out = append(out, i)
		}
	}
	return out
}

// Count sums the amount of every stack with the given key.
func (c *Container) Count(key string) int {
	n := 0
	for _, s := range c.slots {
		if s.Valid && s.Key == key {
			n += s.Amount
		}
	}
	return n
}

// CanAdd reports whether amount units of key fit, counting room on existing
// stacks first.
func (c *Container) CanAdd(templates Templates, key string, amount int) bool {
	tpl, ok := templates.Item(key)
	if !ok || amount <= 0 {
		return false
	}
	room := 0
	for _, s := range c.slots {
		switch {
		case !s.Valid:
			room += tpl.MaxStack
		case s.Key == key:
			room += tpl.MaxStack - s.Amount
		}
		if room >= amount {
			return true
		}
	}
	return false
}

// Add stacks onto existing slots of the same key, then fills empty slots. It
// is all-or-nothing.
func (c *Container) Add(templates Templates, key string, amount int) bool {
	if !c.CanAdd(templates, key, amount) {
		return false
	}
	tpl, _ := templates.Item(key)
	for i := range c.slots {
		s := &c.slots[i]
		if s.Valid && s.Key == key && s.Amount < tpl.MaxStack {
			put := min(amount, tpl.MaxStack-s.Amount)
			s.Amount += put
			amount -= put
		}
		if amount == 0 {
			return true
		}
	}
	for i := range c.slots {
		if !c.slots[i].Valid {
			put := min(amount, tpl.MaxStack)
			c.slots[i] = NewItem(key, put)
			amount -= put
		}
		if amount == 0 {
			return true
		}
	}
	return amount == 0
}

// Remove takes amount units of key from the container, emptying stacks from
// the front. It is all-or-nothing.
func (c *Container) Remove(key string, amount int) bool {
	if amount <= 0 || c.Count(key) < amount {
		return false
	}
	for i := range c.slots {
		s := &c.slots[i]
		if !s.Valid || s.Key != key {
			continue
		}
		take := min(amount, s.Amount)
		c.Consume(i, take)
		amount -= take
		if amount == 0 {
			break
		}
	}
	return true
}

// Consume decreases the stack at i by n. A stack reaching zero clears the
// slot's validity flag in place.
func (c *Container) Consume(i, n int) bool {
	s, ok := c.At(i)
	if !ok || n <= 0 || n > s.Amount {
		return false
	}
	s.Amount -= n
	if s.Amount == 0 {
		s = Empty
	}
	c.slots[i] = s
	return true
}

// Swap exchanges two slots. Either slot may be empty.
func (c *Container) Swap(i, j int) bool {
	if !c.inBounds(i) || !c.inBounds(j) || i == j {
		return false
	}
	c.slots[i], c.slots[j] = c.slots[j], c.slots[i]
	return true
}

// Split moves floor(amount/2) from slot i into the empty slot j.
func (c *Container) Split(i, j int) bool {
	if !c.inBounds(i) || !c.inBounds(j) || i == j {
		return false
	}
	from := c.slots[i]
	if !from.Valid || from.Amount < 2 || c.slots[j].Valid {
		return false
	}
	half := from.Amount / 2
	from.Amount -= half
	c.slots[i] = from
	c.slots[j] = NewItem(from.Key, half)
	return true
}

// Merge moves as much of slot from onto slot to as the template's max stack
// allows. The remainder stays in from.
func (c *Container) Merge(templates Templates, from, to int) bool {
	if !c.inBounds(from) || !c.inBounds(to) || from == to {
		return false
	}
	src, dst := c.slots[from], c.slots[to]
	if !src.Valid || !dst.Valid || src.Key != dst.Key {
		return false
	}
	tpl, ok := templates.Item(src.Key)
	if !ok {
		return false
	}
	put := min(src.Amount, tpl.MaxStack-dst.Amount)
	if put <= 0 {
		return false
	}
	dst.Amount += put
	c.slots[to] = dst
	return c.Consume(from, put)
}

func (c *Container) inBounds(i int) bool {
	return i >= 0 && i < len(c.slots)
}

package inventory

import (
	"testing"

	"pgregory.net/rapid"

	"realm/internal/catalog"
)

type fakeTemplates map[string]catalog.Item

func (f fakeTemplates) Item(key string) (catalog.Item, bool) {
	it, ok := f[key]
	return it, ok
}

func testTemplates() fakeTemplates {
	return fakeTemplates{
		"Potion": {Name: "Potion", Category: "Potion", MaxStack: 10},
		"Pelt":   {Name: "Pelt", Category: "Material", MaxStack: 50},
		"Sword":  {Name: "Sword", Category: "EquipmentWeapon", MaxStack: 1, MinLevel: 3},
		"Cap":    {Name: "Cap", Category: "EquipmentHead", MaxStack: 1},
	}
}

func TestSwapPreservesOtherSlots(t *testing.T) {
	c := NewContainer(4)
	c.Set(0, NewItem("Potion", 3))
	c.Set(2, NewItem("Pelt", 7))
	c.Set(3, NewItem("Cap", 1))

	if !c.Swap(0, 1) {
		t.Fatalf("expected swap to succeed")
	}
	if it, ok := c.At(1); !ok || it.Key != "Potion" || it.Amount != 3 {
		t.Fatalf("unexpected slot 1: %+v", it)
	}
	if _, ok := c.At(0); ok {
		t.Fatalf("expected slot 0 empty")
	}
	if it, _ := c.At(2); it.Key != "Pelt" {
		t.Fatalf("untouched slot moved: %+v", it)
	}
	if c.Swap(0, 9) || c.Swap(-1, 0) || c.Swap(1, 1) {
		t.Fatalf("expected out-of-range or self swaps to be rejected")
	}
}

func TestSplitHalvesStack(t *testing.T) {
	c := NewContainer(3)
	c.Set(0, NewItem("Pelt", 7))

	if !c.Split(0, 1) {
		t.Fatalf("expected split to succeed")
	}
	a, _ := c.At(0)
	b, _ := c.At(1)
	if a.Amount != 4 || b.Amount != 3 || b.Key != "Pelt" {
		t.Fatalf("unexpected split result %+v %+v", a, b)
	}
	if c.Split(0, 1) {
		t.Fatalf("expected split into occupied slot to be rejected")
	}
	c.Set(2, NewItem("Pelt", 1))
	if c.Split(2, 0) {
		t.Fatalf("expected split of single item to be rejected")
	}
}

func TestMergeKeepsRemainderInSource(t *testing.T) {
	tpl := testTemplates()
	c := NewContainer(2)
	c.Set(0, NewItem("Potion", 6))
	c.Set(1, NewItem("Potion", 7))

	if !c.Merge(tpl, 0, 1) {
		t.Fatalf("expected merge to succeed")
	}
	src, _ := c.At(0)
	dst, _ := c.At(1)
	if dst.Amount != 10 || src.Amount != 3 {
		t.Fatalf("expected 10/3, got dst=%d src=%d", dst.Amount, src.Amount)
	}
	if c.Merge(tpl, 0, 1) {
		t.Fatalf("expected merge onto full stack to be rejected")
	}
}

func TestMergeRejectsDifferentKeys(t *testing.T) {
	c := NewContainer(2)
	c.Set(0, NewItem("Potion", 1))
	c.Set(1, NewItem("Pelt", 1))
	if c.Merge(testTemplates(), 0, 1) {
		t.Fatalf("expected merge of different keys to be rejected")
	}
}

func TestMergeLaw(t *testing.T) {
	tpl := testTemplates()
	rapid.Check(t, func(t *rapid.T) {
		from := rapid.IntRange(1, 10).Draw(t, "from")
		to := rapid.IntRange(1, 9).Draw(t, "to")

		c := NewContainer(2)
		c.Set(0, NewItem("Potion", from))
		c.Set(1, NewItem("Potion", to))
		c.Merge(tpl, 0, 1)

		dst, _ := c.At(1)
		want := min(from+to, 10)
		if dst.Amount != want {
			t.Fatalf("expected merged amount %d, got %d", want, dst.Amount)
		}
		if got := c.Count("Potion"); got != from+to {
			t.Fatalf("merge changed total from %d to %d", from+to, got)
		}
	})
}

func TestConsumeClearsValidityInPlace(t *testing.T) {
	c := NewContainer(3)
	c.Set(0, NewItem("Potion", 1))
	c.Set(1, NewItem("Pelt", 2))

	if !c.Consume(0, 1) {
		t.Fatalf("expected consume to succeed")
	}
	if _, ok := c.At(0); ok {
		t.Fatalf("expected slot 0 to be empty")
	}
	if it, ok := c.At(1); !ok || it.Key != "Pelt" {
		t.Fatalf("expected slot 1 to keep its index, got %+v", it)
	}
	if c.Consume(1, 3) {
		t.Fatalf("expected over-consume to be rejected")
	}
}

func TestAddStacksThenFills(t *testing.T) {
	tpl := testTemplates()
	c := NewContainer(3)
	c.Set(1, NewItem("Potion", 8))

	if !c.Add(tpl, "Potion", 5) {
		t.Fatalf("expected add to succeed")
	}
	a, _ := c.At(0)
	b, _ := c.At(1)
	if b.Amount != 10 || a.Amount != 3 {
		t.Fatalf("unexpected stacks %+v %+v", a, b)
	}
	if c.Add(tpl, "Potion", 18) {
		t.Fatalf("expected add beyond capacity to be rejected")
	}
	if c.Count("Potion") != 13 {
		t.Fatalf("failed add must not mutate, count=%d", c.Count("Potion"))
	}
}

func TestRemoveAllOrNothing(t *testing.T) {
	c := NewContainer(3)
	c.Set(0, NewItem("Pelt", 2))
	c.Set(2, NewItem("Pelt", 3))

	if c.Remove("Pelt", 6) {
		t.Fatalf("expected remove beyond count to be rejected")
	}
	if !c.Remove("Pelt", 4) {
		t.Fatalf("expected remove to succeed")
	}
	if _, ok := c.At(0); ok {
		t.Fatalf("expected first stack to be emptied")
	}
	if it, _ := c.At(2); it.Amount != 1 {
		t.Fatalf("expected 1 left, got %d", it.Amount)
	}
}

func TestEquipValidatesCategoryAndLevel(t *testing.T) {
	tpl := testTemplates()
	inv := NewContainer(3)
	inv.Set(0, NewItem("Sword", 1))
	inv.Set(1, NewItem("Potion", 2))
	eq := NewEquipment([]string{"EquipmentWeapon", "EquipmentHead"})

	if Equip(tpl, inv, eq, 0, 0, 2) {
		t.Fatalf("expected level gate to reject equip")
	}
	if Equip(tpl, inv, eq, 0, 1, 5) {
		t.Fatalf("expected category mismatch to reject equip")
	}
	if Equip(tpl, inv, eq, 1, 0, 5) {
		t.Fatalf("expected non-equipment to be rejected")
	}
	if !Equip(tpl, inv, eq, 0, 0, 5) {
		t.Fatalf("expected equip to succeed")
	}
	if _, ok := inv.At(0); ok {
		t.Fatalf("expected inventory slot to be empty after equip")
	}
	if !Unequip(tpl, inv, eq, 0, 2) {
		t.Fatalf("expected unequip into free slot to succeed")
	}
	if it, ok := inv.At(2); !ok || it.Key != "Sword" {
		t.Fatalf("expected sword in slot 2, got %+v", it)
	}
	if Unequip(tpl, inv, eq, 0, 2) {
		t.Fatalf("expected unequip of empty slot to be rejected")
	}
}

func TestEquipSwapsOutCurrentItem(t *testing.T) {
	tpl := testTemplates()
	inv := NewContainer(2)
	inv.Set(0, NewItem("Cap", 1))
	eq := NewEquipment([]string{"EquipmentHead"})
	eq.Set(0, NewItem("Cap", 1))

	if !Equip(tpl, inv, eq, 0, 0, 1) {
		t.Fatalf("expected equip swap to succeed")
	}
	if _, ok := inv.At(0); !ok {
		t.Fatalf("expected previous cap back in inventory")
	}
}

func TestFromSlotsDropsInvalid(t *testing.T) {
	c := FromSlots(3, []Item{NewItem("Pelt", 0), {Key: "Pelt", Amount: 4}, NewItem("Pelt", 2), NewItem("Pelt", 9)})
	if c.Len() != 3 || c.Free() != 2 {
		t.Fatalf("expected 3 slots with 2 free, got len=%d free=%d", c.Len(), c.Free())
	}
}

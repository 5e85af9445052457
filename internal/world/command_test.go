package world

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"realm/internal/inventory"
)

func openTrade(t *testing.T, w *World, c *clock, a, b *Player) {
	t.Helper()
	w.Enqueue(a.id, Command{Name: CmdTradeRequest, Target: b.id})
	c.step(w)
	if b.tradeRequestFrom != a.name {
		t.Fatalf("invitation not stored")
	}
	w.Enqueue(b.id, Command{Name: CmdTradeAcceptRequest})
	c.step(w)
	if a.state != StateTrading || b.state != StateTrading {
		t.Fatalf("expected both TRADING, got %s and %s", a.state, b.state)
	}
	if a.trade == nil || a.trade != b.trade {
		t.Fatalf("players must share one session")
	}
}

func TestTradeExchange(t *testing.T) {
	w, c := newTestWorld(t, never())
	a := join(t, w, "alice", 0, 0, c.now)
	b := join(t, w, "bob", 1, 0, c.now)
	openTrade(t, w, c, a, b)

	w.Enqueue(a.id, Command{Name: CmdTradeOfferItem, Index: 0, To: 0})
	w.Enqueue(a.id, Command{Name: CmdTradeOfferGold, Amount: 30})
	w.Enqueue(b.id, Command{Name: CmdTradeOfferGold, Amount: 10})
	w.Enqueue(a.id, Command{Name: CmdTradeLock})
	w.Enqueue(b.id, Command{Name: CmdTradeLock})
	w.Enqueue(a.id, Command{Name: CmdTradeAccept})
	w.Enqueue(b.id, Command{Name: CmdTradeAccept})
	c.step(w)

	if a.gold != 80 || b.gold != 120 {
		t.Fatalf("unexpected gold alice=%d bob=%d", a.gold, b.gold)
	}
	if a.inv.Count("Potion") != 0 || b.inv.Count("Potion") != 4 {
		t.Fatalf("unexpected potions alice=%d bob=%d", a.inv.Count("Potion"), b.inv.Count("Potion"))
	}
	if a.state != StateIdle || b.state != StateIdle {
		t.Fatalf("expected both IDLE, got %s and %s", a.state, b.state)
	}
	c.step(w)
	if a.state != StateIdle || b.state != StateIdle {
		t.Fatalf("pair re-entered a trade: %s %s", a.state, b.state)
	}
}

func TestTradeAbortedByDisconnect(t *testing.T) {
	w, c := newTestWorld(t, never())
	a := join(t, w, "alice", 0, 0, c.now)
	b := join(t, w, "bob", 1, 0, c.now)
	openTrade(t, w, c, a, b)

	w.Enqueue(a.id, Command{Name: CmdTradeOfferGold, Amount: 50})
	w.Enqueue(a.id, Command{Name: CmdTradeLock})
	w.Enqueue(b.id, Command{Name: CmdTradeLock})
	w.Enqueue(b.id, Command{Name: CmdTradeAccept})
	c.step(w)

	snap, ok := w.Leave(b.id, c.now)
	if !ok {
		t.Fatalf("leave failed")
	}
	w.Enqueue(a.id, Command{Name: CmdTradeAccept})
	c.step(w)
	if a.state != StateIdle || a.trade != nil {
		t.Fatalf("expected alice IDLE without session, got %s", a.state)
	}
	if a.gold != 100 || snap.Gold != 100 || a.inv.Count("Potion") != 2 {
		t.Fatalf("disconnect moved goods: alice=%d bob=%d", a.gold, snap.Gold)
	}
}

func TestTradeEndsWhenPartnerDies(t *testing.T) {
	w, c := newTestWorld(t, never())
	a := join(t, w, "alice", 0, 0, c.now)
	b := join(t, w, "bob", 1, 0, c.now)
	openTrade(t, w, c, a, b)

	w.Enqueue(a.id, Command{Name: CmdTradeOfferGold, Amount: 40})
	c.step(w)
	b.health = 0
	c.step(w)
	if b.state != StateDead || b.trade != nil {
		t.Fatalf("expected bob DEAD without session, got %s", b.state)
	}
	if a.state != StateIdle || a.trade != nil {
		t.Fatalf("expected alice IDLE without session, got %s", a.state)
	}
	if a.gold != 100 || b.gold != 100 {
		t.Fatalf("death moved goods: alice=%d bob=%d", a.gold, b.gold)
	}
}

func TestTradeEndsWhenPartnerVanishes(t *testing.T) {
	w, c := newTestWorld(t, never())
	a := join(t, w, "alice", 0, 0, c.now)
	b := join(t, w, "bob", 1, 0, c.now)
	openTrade(t, w, c, a, b)

	w.remove(b.id)
	delete(w.byName, b.name)
	c.step(w)
	if a.state != StateIdle || a.trade != nil {
		t.Fatalf("expected alice IDLE without session, got %s", a.state)
	}
}

func TestTradeCancelledByCommand(t *testing.T) {
	w, c := newTestWorld(t, never())
	a := join(t, w, "alice", 0, 0, c.now)
	b := join(t, w, "bob", 1, 0, c.now)
	openTrade(t, w, c, a, b)

	w.Enqueue(b.id, Command{Name: CmdCancel})
	c.step(w)
	if b.state != StateIdle {
		t.Fatalf("expected bob IDLE after cancel, got %s", b.state)
	}
	// alice ticks before bob, so she notices the closed session one tick later
	c.step(w)
	if a.state != StateIdle || b.state != StateIdle {
		t.Fatalf("expected both IDLE after cancel, got %s and %s", a.state, b.state)
	}
}

func TestTradeRequestNeedsRange(t *testing.T) {
	w, c := newTestWorld(t, never())
	a := join(t, w, "alice", 0, 0, c.now)
	b := join(t, w, "bob", 10, 0, c.now)
	w.Enqueue(a.id, Command{Name: CmdTradeRequest, Target: b.id})
	c.step(w)
	if b.tradeRequestFrom != "" {
		t.Fatalf("invitation accepted out of range")
	}
}

func TestInventoryCommandsRejectedWhileTrading(t *testing.T) {
	w, c := newTestWorld(t, never())
	a := join(t, w, "alice", 0, 0, c.now)
	b := join(t, w, "bob", 1, 0, c.now)
	openTrade(t, w, c, a, b)

	w.Enqueue(a.id, Command{Name: CmdSwapInventory, Index: 0, To: 3})
	c.step(w)
	if it, _ := a.inv.At(0); it.Key != "Potion" {
		t.Fatalf("inventory changed during trade")
	}
}

func TestEquipRecomputesStats(t *testing.T) {
	w, c := newTestWorld(t, never())
	p := join(t, w, "alice", 0, 0, c.now)
	p.inv.Set(3, inventory.NewItem("Sword", 1))

	w.Enqueue(p.id, Command{Name: CmdEquip, Index: 3, To: 0})
	c.step(w)
	if d := w.derived(p); d.Damage != 15 {
		t.Fatalf("expected damage 15 with sword, got %d", d.Damage)
	}
	w.Enqueue(p.id, Command{Name: CmdEquip, Index: 0, To: 0})
	c.step(w)
	if it, _ := p.equipment.At(0); it.Key != "Sword" {
		t.Fatalf("potion must not fit the weapon slot")
	}
	w.Enqueue(p.id, Command{Name: CmdUnequip, Index: 0, To: 3})
	c.step(w)
	if d := w.derived(p); d.Damage != 10 {
		t.Fatalf("expected damage 10 after unequip, got %d", d.Damage)
	}
}

func TestUseItemHealsAndConsumes(t *testing.T) {
	w, c := newTestWorld(t, never())
	p := join(t, w, "alice", 0, 0, c.now)
	p.health = 60

	w.Enqueue(p.id, Command{Name: CmdUseItem, Index: 0})
	c.step(w)
	if p.health != 90 || p.inv.Count("Potion") != 1 {
		t.Fatalf("unexpected health %d potions %d", p.health, p.inv.Count("Potion"))
	}
	w.Enqueue(p.id, Command{Name: CmdUseItem, Index: 0})
	c.step(w)
	if p.health != 100 {
		t.Fatalf("healing must clamp to max, got %d", p.health)
	}
	if _, ok := p.inv.At(0); ok {
		t.Fatalf("emptied stack must clear the slot")
	}
}

func TestNpcBuyAndSell(t *testing.T) {
	w, c := newTestWorld(t, never())
	n := w.spawnNpc("Vendor", mgl64.Vec3{1, 0, 0})
	p := join(t, w, "alice", 0, 0, c.now)

	w.Enqueue(p.id, Command{Name: CmdSetTarget, Target: n.id})
	w.Enqueue(p.id, Command{Name: CmdNpcBuy, Index: 0, Amount: 3})
	c.step(w)
	if p.gold != 70 || p.inv.Count("Potion") != 5 {
		t.Fatalf("buy: gold %d potions %d", p.gold, p.inv.Count("Potion"))
	}

	w.Enqueue(p.id, Command{Name: CmdNpcBuy, Index: 0, Amount: 100})
	c.step(w)
	if p.gold != 70 {
		t.Fatalf("unaffordable purchase charged gold")
	}

	w.Enqueue(p.id, Command{Name: CmdNpcSell, Index: 0, Amount: 2})
	c.step(w)
	if p.gold != 78 || p.inv.Count("Potion") != 3 {
		t.Fatalf("sell: gold %d potions %d", p.gold, p.inv.Count("Potion"))
	}
}

func TestQuestLifecycle(t *testing.T) {
	w, c := newTestWorld(t, never())
	n := w.spawnNpc("Vendor", mgl64.Vec3{1, 0, 0})
	p := join(t, w, "alice", 0, 0, c.now)

	w.Enqueue(p.id, Command{Name: CmdSetTarget, Target: n.id})
	w.Enqueue(p.id, Command{Name: CmdQuestAccept, Key: "Hunt"})
	w.Enqueue(p.id, Command{Name: CmdQuestAccept, Key: "Hunt"})
	c.step(w)
	if len(p.quests) != 1 {
		t.Fatalf("expected one quest instance, got %d", len(p.quests))
	}

	w.Enqueue(p.id, Command{Name: CmdQuestComplete, Key: "Hunt"})
	c.step(w)
	if p.quests[0].Completed {
		t.Fatalf("quest completed without progress")
	}

	for i := 0; i < 5; i++ {
		w.countKill(p, "Rat")
	}
	if p.quests[0].Progress != 2 {
		t.Fatalf("progress must clamp to the kill amount, got %d", p.quests[0].Progress)
	}
	w.Enqueue(p.id, Command{Name: CmdQuestComplete, Key: "Hunt"})
	c.step(w)
	if !p.quests[0].Completed || p.gold != 110 || p.experience != 20 || p.inv.Count("Potion") != 3 {
		t.Fatalf("rewards not granted: %+v gold %d exp %d", p.quests[0], p.gold, p.experience)
	}
	w.Enqueue(p.id, Command{Name: CmdQuestAccept, Key: "Hunt"})
	c.step(w)
	if len(p.quests) != 1 {
		t.Fatalf("completed quests cannot be taken again")
	}
}

func TestLootFromDeadMonster(t *testing.T) {
	w, c := newTestWorld(t, never())
	m := w.spawnMonster("Rat", mgl64.Vec3{1, 0, 0})
	p := join(t, w, "alice", 0, 0, c.now)
	m.health = 0
	c.step(w)

	w.Enqueue(p.id, Command{Name: CmdSetTarget, Target: m.id})
	w.Enqueue(p.id, Command{Name: CmdLootGold})
	w.Enqueue(p.id, Command{Name: CmdLootItem, Index: 0})
	c.step(w)
	if p.gold != 103 || m.lootGold != 0 {
		t.Fatalf("gold not looted: player %d monster %d", p.gold, m.lootGold)
	}
	if p.inv.Count("Pelt") != 1 || m.loot.Count("Pelt") != 0 {
		t.Fatalf("item not looted")
	}
}

func TestAttributePoints(t *testing.T) {
	w, c := newTestWorld(t, never())
	p := join(t, w, "alice", 0, 0, c.now)
	w.Enqueue(p.id, Command{Name: CmdIncreaseStrength})
	c.step(w)
	if p.attributes.Strength != 0 {
		t.Fatalf("level 1 has no points to spend")
	}
	p.lvl = 2
	w.Enqueue(p.id, Command{Name: CmdIncreaseStrength})
	w.Enqueue(p.id, Command{Name: CmdIncreaseIntelligence})
	c.step(w)
	if p.attributes.Strength != 1 || p.attributes.Intelligence != 0 {
		t.Fatalf("unexpected attributes %+v", p.attributes)
	}
	if d := w.derived(p); d.HealthMax != 130 {
		t.Fatalf("expected strength to raise max health to 130, got %d", d.HealthMax)
	}
}

func TestLevelUpCarriesRemainder(t *testing.T) {
	w, c := newTestWorld(t, never())
	p := join(t, w, "alice", 0, 0, c.now)
	p.experience = 350
	w.levelUp(p)
	if p.lvl != 3 || p.experience != 50 {
		t.Fatalf("expected level 3 with 50 left, got %d / %d", p.lvl, p.experience)
	}
	if p.health != 140 {
		t.Fatalf("level up restores health, got %d", p.health)
	}
}

func TestSnapshotReanchorsTimers(t *testing.T) {
	w, c := newTestWorld(t, never())
	p := join(t, w, "alice", 0, 0, c.now)
	p.skills[1].CooldownEnd = c.now.Add(10 * time.Second)
	p.quests = append(p.quests, Quest{Key: "Hunt", Progress: 1})

	snap, ok := w.Leave(p.id, c.now.Add(4*time.Second))
	if !ok {
		t.Fatalf("leave failed")
	}
	if snap.Skills[1].Cooldown != 6*time.Second {
		t.Fatalf("expected 6s cooldown left, got %s", snap.Skills[1].Cooldown)
	}

	later := c.now.Add(time.Hour)
	w2, _ := newTestWorld(t, never())
	id, err := w2.Join(snap, later)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	restored, _ := w2.player(id)
	if got := restored.skills[1].CooldownRemaining(later); got != 6*time.Second {
		t.Fatalf("expected 6s after restart, got %s", got)
	}
	if restored.quests[0].Progress != 1 || restored.inv.Count("Potion") != 2 {
		t.Fatalf("progress lost across save: %+v", restored.quests)
	}
}

func TestJoinRejectsDuplicate(t *testing.T) {
	w, c := newTestWorld(t, never())
	join(t, w, "alice", 0, 0, c.now)
	snap, _ := NewCharacter(w.catalog, "acc", "alice", "Fighter")
	if _, err := w.Join(snap, c.now); err == nil {
		t.Fatalf("expected duplicate join to fail")
	}
	if _, err := NewCharacter(w.catalog, "acc", "zed", "Wizard"); err == nil {
		t.Fatalf("expected unknown class to fail")
	}
}

func TestReplicationSendsOnlyChanges(t *testing.T) {
	w, c := newTestWorld(t, never())
	p := join(t, w, "alice", 0, 0, c.now)

	updates := c.step(w)
	if len(updates) != 1 || updates[0].Player != p.id || updates[0].Private == nil {
		t.Fatalf("expected an initial full update, got %+v", updates)
	}
	if len(updates[0].Entities) != 1 || updates[0].Entities[0].ID != p.id {
		t.Fatalf("expected own view in initial update")
	}
	if updates := c.step(w); len(updates) != 0 {
		t.Fatalf("expected no update for an unchanged world, got %+v", updates)
	}

	m := w.spawnMonster("Rat", mgl64.Vec3{10, 0, 0})
	updates = c.step(w)
	if len(updates) != 1 || len(updates[0].Entities) != 1 || updates[0].Entities[0].ID != m.id {
		t.Fatalf("expected the new monster only, got %+v", updates)
	}

	m.position = mgl64.Vec3{100, 0, 0}
	m.spawn = m.position
	updates = c.step(w)
	if len(updates) != 1 || len(updates[0].Removed) != 1 || updates[0].Removed[0] != m.id {
		t.Fatalf("expected monster removal, got %+v", updates)
	}
}

func TestSnapshotsCoverOnlinePlayers(t *testing.T) {
	w, c := newTestWorld(t, never())
	join(t, w, "alice", 0, 0, c.now)
	join(t, w, "bob", 5, 0, c.now)
	w.spawnMonster("Rat", mgl64.Vec3{20, 0, 0})
	snaps := w.Snapshots(c.now)
	if len(snaps) != 2 || snaps[0].Name != "alice" || snaps[1].Name != "bob" {
		t.Fatalf("unexpected snapshots %+v", snaps)
	}
}

func TestResyncResendsFullState(t *testing.T) {
	w, c := newTestWorld(t, never())
	p := join(t, w, "alice", 0, 0, c.now)
	c.step(w)
	if updates := c.step(w); len(updates) != 0 {
		t.Fatalf("expected a quiet world, got %+v", updates)
	}

	w.Resync(p.id)
	updates := c.step(w)
	if len(updates) != 1 || updates[0].Private == nil || len(updates[0].Entities) != 1 {
		t.Fatalf("expected a full update after resync, got %+v", updates)
	}
	w.Resync("nobody")
	if _, ok := w.views["nobody"]; ok {
		t.Fatalf("resync must not create views for unknown players")
	}
}

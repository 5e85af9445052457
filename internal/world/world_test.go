package world

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"realm/internal/catalog"
)

const testCatalog = `{
  "levels": [
    {"health_max": 100, "mana_max": 50, "damage": 10, "defense": 1, "experience_max": 100},
    {"health_max": 120, "mana_max": 60, "damage": 12, "defense": 2, "experience_max": 200},
    {"health_max": 140, "mana_max": 70, "damage": 14, "defense": 3, "experience_max": 300}
  ],
  "items": [
    {"name": "Potion", "category": "Potion", "max_stack": 10, "buy_price": 10, "sell_price": 4, "tradable": true, "usable": true, "heal_health": 30},
    {"name": "Pelt", "category": "Material", "max_stack": 50, "sell_price": 3, "tradable": true},
    {"name": "Sword", "category": "EquipmentWeapon", "max_stack": 1, "tradable": true, "bonus": {"damage": 5}},
    {"name": "Ring", "category": "EquipmentRing", "max_stack": 1}
  ],
  "skills": [
    {"name": "Attack", "category": "offensive", "cast_time": 1, "cast_range": 2, "damages": [0], "mana_costs": [0], "learn_default": true, "followup_default_attack": true},
    {"name": "Heal", "category": "heal", "cast_time": 1, "cooldown": 5, "cast_range": 8, "heals": [30], "mana_costs": [5], "learn_default": true},
    {"name": "Bite", "category": "offensive", "cast_time": 1, "cast_range": 2, "damages": [0], "mana_costs": [0]},
    {"name": "Offender", "category": "buff", "buff_time": 60},
    {"name": "Murderer", "category": "buff", "buff_time": 300}
  ],
  "quests": [
    {"name": "Hunt", "required_level": 1, "kill_target": "Rat", "kill_amount": 2, "reward_gold": 10, "reward_experience": 20, "reward_item": "Potion"}
  ],
  "monsters": [
    {"name": "Rat", "level": 1, "health": 30, "damage": 4, "speed": 2, "skills": ["Bite"], "follow_distance": 15, "aggro_radius": 5, "move_probability": 0.5, "move_distance": 4, "death_time": 5, "respawn": true, "respawn_time": 10, "reward_experience": 50, "reward_skill_experience": 10, "loot_gold_min": 2, "loot_gold_max": 4, "loot": [{"item": "Pelt", "probability": 1.0}]}
  ],
  "npcs": [
    {"name": "Vendor", "vendor": ["Potion"], "quests": ["Hunt"]}
  ],
  "classes": [
    {"name": "Fighter", "speed": 5, "start": {"x": 0, "y": 0, "z": 0}, "spawn_points": [{"x": 0, "y": 0, "z": 0}, {"x": 50, "y": 0, "z": 0}], "skills": ["Attack", "Heal"], "start_items": [{"item": "Potion", "amount": 2}], "start_gold": 100, "equipment": ["EquipmentWeapon"], "inventory_size": 6}
  ]
}`

var t0 = time.Unix(1_700_000_000, 0)

const tick = 50 * time.Millisecond

// scriptedRandom replays values in order and then repeats the last one.
type scriptedRandom struct {
	values []float64
	n      int
}

func (r *scriptedRandom) Float64() float64 {
	v := r.values[0]
	if len(r.values) > 1 {
		r.values = r.values[1:]
	}
	return v
}

func (r *scriptedRandom) IntN(n int) int { return min(r.n, n-1) }

func never() *scriptedRandom { return &scriptedRandom{values: []float64{0.99}, n: 1} }

type clock struct{ now time.Time }

func (c *clock) step(w *World) []Update {
	c.now = c.now.Add(tick)
	return w.Step(c.now)
}

func (c *clock) advance(w *World, d time.Duration) []Update {
	c.now = c.now.Add(d)
	return w.Step(c.now)
}

func newTestWorld(t *testing.T, rng Random) (*World, *clock) {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	l, _ := test.NewNullLogger()
	n := 0
	w := New(cat, Options{
		Logger: l,
		Random: rng,
		NewID: func() string {
			n++
			return fmt.Sprintf("e%d", n)
		},
	})
	c := &clock{now: t0}
	w.Step(c.now)
	return w, c
}

func join(t *testing.T, w *World, name string, x, z float64, now time.Time) *Player {
	t.Helper()
	snap, err := NewCharacter(w.catalog, "acc-"+name, name, "Fighter")
	if err != nil {
		t.Fatalf("new character: %v", err)
	}
	snap.Position = catalog.Position{X: x, Z: z}
	id, err := w.Join(snap, now)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	p, _ := w.player(id)
	return p
}

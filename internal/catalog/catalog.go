package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Skill categories.
const (
	CategoryOffensive = "offensive"
	CategoryBuff      = "buff"
	CategoryHeal      = "heal"
)

// Bonus is a flat stat contribution from an item or a buff.
type Bonus struct {
	Health  int `json:"health"`
	Mana    int `json:"mana"`
	Damage  int `json:"damage"`
	Defense int `json:"defense"`
}

// Add returns the component-wise sum.
func (b Bonus) Add(o Bonus) Bonus {
	return Bonus{
		Health:  b.Health + o.Health,
		Mana:    b.Mana + o.Mana,
		Damage:  b.Damage + o.Damage,
		Defense: b.Defense + o.Defense,
	}
}

type Item struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	MaxStack  int    `json:"max_stack"`
	BuyPrice  int64  `json:"buy_price"`
	SellPrice int64  `json:"sell_price"`
	Tradable  bool   `json:"tradable"`
	MinLevel  int    `json:"min_level"`
	Bonus     Bonus  `json:"bonus"`
	// Usable items heal on use and are consumed one at a time.
	Usable     bool `json:"usable"`
	HealHealth int  `json:"heal_health"`
	HealMana   int  `json:"heal_mana"`
}

// Equipment reports whether the item can go into an equipment slot.
func (i Item) Equipment() bool {
	return strings.HasPrefix(i.Category, "Equipment")
}

type Skill struct {
	Name                  string  `json:"name"`
	Category              string  `json:"category"`
	MaxLevel              int     `json:"max_level"`
	CastTime              float64 `json:"cast_time"`
	Cooldown              float64 `json:"cooldown"`
	CastRange             float64 `json:"cast_range"`
	AoeRadius             float64 `json:"aoe_radius"`
	BuffTime              float64 `json:"buff_time"`
	ManaCosts             []int   `json:"mana_costs"`
	Damages               []int   `json:"damages"`
	Heals                 []int   `json:"heals"`
	Bonuses               []Bonus `json:"bonuses"`
	RequiredLevels        []int   `json:"required_levels"`
	RequiredSkillExp      []int64 `json:"required_skill_exp"`
	Predecessor           string  `json:"predecessor"`
	PredecessorLevel      int     `json:"predecessor_level"`
	LearnDefault          bool    `json:"learn_default"`
	FollowupDefaultAttack bool    `json:"followup_default_attack"`
}

// Offensive skills target hostile entities and are interrupted when the
// target disappears or dies.
func (s Skill) Offensive() bool { return s.Category == CategoryOffensive }

func (s Skill) CastDuration() time.Duration     { return seconds(s.CastTime) }
func (s Skill) CooldownDuration() time.Duration { return seconds(s.Cooldown) }
func (s Skill) BuffDuration() time.Duration     { return seconds(s.BuffTime) }

// ManaCost, Damage, Heal, BonusAt, RequiredLevel and RequiredSkillExperience
// index the per-level arrays. Level is 1-based; values past the end of an
// array repeat the last entry.
func (s Skill) ManaCost(level int) int      { return atLevel(s.ManaCosts, level) }
func (s Skill) Damage(level int) int        { return atLevel(s.Damages, level) }
func (s Skill) Heal(level int) int          { return atLevel(s.Heals, level) }
func (s Skill) RequiredLevel(level int) int { return atLevel(s.RequiredLevels, level) }

func (s Skill) RequiredSkillExperience(level int) int64 {
	return atLevel(s.RequiredSkillExp, level)
}

func (s Skill) BonusAt(level int) Bonus {
	return atLevel(s.Bonuses, level)
}

type Quest struct {
	Name             string `json:"name"`
	RequiredLevel    int    `json:"required_level"`
	Predecessor      string `json:"predecessor"`
	KillTarget       string `json:"kill_target"`
	KillAmount       int    `json:"kill_amount"`
	RewardGold       int64  `json:"reward_gold"`
	RewardExperience int64  `json:"reward_experience"`
	RewardItem       string `json:"reward_item"`
}

type LootEntry struct {
	Item        string  `json:"item"`
	Probability float64 `json:"probability"`
}

type Monster struct {
	Name                  string      `json:"name"`
	Level                 int         `json:"level"`
	Health                int         `json:"health"`
	Mana                  int         `json:"mana"`
	Damage                int         `json:"damage"`
	Defense               int         `json:"defense"`
	Speed                 float64     `json:"speed"`
	Skills                []string    `json:"skills"`
	FollowDistance        float64     `json:"follow_distance"`
	AggroRadius           float64     `json:"aggro_radius"`
	MoveProbability       float64     `json:"move_probability"`
	MoveDistance          float64     `json:"move_distance"`
	DeathTime             float64     `json:"death_time"`
	Respawn               bool        `json:"respawn"`
	RespawnTime           float64     `json:"respawn_time"`
	RewardExperience      int64       `json:"reward_experience"`
	RewardSkillExperience int64       `json:"reward_skill_experience"`
	LootGoldMin           int64       `json:"loot_gold_min"`
	LootGoldMax           int64       `json:"loot_gold_max"`
	Loot                  []LootEntry `json:"loot"`
}

func (m Monster) DeathDuration() time.Duration   { return seconds(m.DeathTime) }
func (m Monster) RespawnDuration() time.Duration { return seconds(m.RespawnTime) }

type Npc struct {
	Name   string   `json:"name"`
	Vendor []string `json:"vendor"`
	Quests []string `json:"quests"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Class struct {
	Name          string      `json:"name"`
	Speed         float64     `json:"speed"`
	Start         Position    `json:"start"`
	SpawnPoints   []Position  `json:"spawn_points"`
	Skills        []string    `json:"skills"`
	StartItems    []ItemGrant `json:"start_items"`
	StartGold     int64       `json:"start_gold"`
	Equipment     []string    `json:"equipment"`
	InventorySize int         `json:"inventory_size"`
}

type ItemGrant struct {
	Item   string `json:"item"`
	Amount int    `json:"amount"`
}

// Level is one row of the player level table.
type Level struct {
	HealthMax     int   `json:"health_max"`
	ManaMax       int   `json:"mana_max"`
	Damage        int   `json:"damage"`
	Defense       int   `json:"defense"`
	ExperienceMax int64 `json:"experience_max"`
}

// Spawn places a monster or npc in the world at startup.
type Spawn struct {
	Monster  string   `json:"monster,omitempty"`
	Npc      string   `json:"npc,omitempty"`
	Position Position `json:"position"`
}

// Catalog is the read-only set of templates. It is built once at startup and
// shared by every runtime instance.
type Catalog struct {
	items    map[string]Item
	skills   map[string]Skill
	quests   map[string]Quest
	monsters map[string]Monster
	npcs     map[string]Npc
	classes  map[string]Class
	levels   []Level
	spawns   []Spawn
}

type document struct {
	Items    []Item    `json:"items"`
	Skills   []Skill   `json:"skills"`
	Quests   []Quest   `json:"quests"`
	Monsters []Monster `json:"monsters"`
	Npcs     []Npc     `json:"npcs"`
	Classes  []Class   `json:"classes"`
	Levels   []Level   `json:"levels"`
	Spawns   []Spawn   `json:"spawns"`
}

// Load reads a catalog document from disk.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse builds a catalog from JSON and checks that cross references resolve.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	c := &Catalog{
		items:    make(map[string]Item, len(doc.Items)),
		skills:   make(map[string]Skill, len(doc.Skills)),
		quests:   make(map[string]Quest, len(doc.Quests)),
		monsters: make(map[string]Monster, len(doc.Monsters)),
		npcs:     make(map[string]Npc, len(doc.Npcs)),
		classes:  make(map[string]Class, len(doc.Classes)),
		levels:   doc.Levels,
		spawns:   doc.Spawns,
	}
	for _, it := range doc.Items {
		if it.MaxStack <= 0 {
			it.MaxStack = 1
		}
		c.items[it.Name] = it
	}
	for _, s := range doc.Skills {
		if s.MaxLevel <= 0 {
			s.MaxLevel = 1
		}
		c.skills[s.Name] = s
	}
	for _, q := range doc.Quests {
		c.quests[q.Name] = q
	}
	for _, m := range doc.Monsters {
		c.monsters[m.Name] = m
	}
	for _, n := range doc.Npcs {
		c.npcs[n.Name] = n
	}
	for _, cl := range doc.Classes {
		c.classes[cl.Name] = cl
	}
	if len(c.levels) == 0 {
		return nil, fmt.Errorf("catalog: level table is empty")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	for _, s := range c.skills {
		if s.Predecessor != "" {
			if _, ok := c.skills[s.Predecessor]; !ok {
				return fmt.Errorf("catalog: skill %s requires unknown skill %s", s.Name, s.Predecessor)
			}
		}
	}
	for _, q := range c.quests {
		if q.Predecessor != "" {
			if _, ok := c.quests[q.Predecessor]; !ok {
				return fmt.Errorf("catalog: quest %s follows unknown quest %s", q.Name, q.Predecessor)
			}
		}
		if q.KillTarget != "" {
			if _, ok := c.monsters[q.KillTarget]; !ok {
				return fmt.Errorf("catalog: quest %s targets unknown monster %s", q.Name, q.KillTarget)
			}
		}
		if q.RewardItem != "" {
			if _, ok := c.items[q.RewardItem]; !ok {
				return fmt.Errorf("catalog: quest %s rewards unknown item %s", q.Name, q.RewardItem)
			}
		}
	}
	for _, m := range c.monsters {
		for _, s := range m.Skills {
			if _, ok := c.skills[s]; !ok {
				return fmt.Errorf("catalog: monster %s references unknown skill %s", m.Name, s)
			}
		}
		for _, l := range m.Loot {
			if _, ok := c.items[l.Item]; !ok {
				return fmt.Errorf("catalog: monster %s drops unknown item %s", m.Name, l.Item)
			}
		}
	}
	for _, cl := range c.classes {
		for _, s := range cl.Skills {
			if _, ok := c.skills[s]; !ok {
				return fmt.Errorf("catalog: class %s references unknown skill %s", cl.Name, s)
			}
		}
		for _, g := range cl.StartItems {
			if _, ok := c.items[g.Item]; !ok {
				return fmt.Errorf("catalog: class %s starts with unknown item %s", cl.Name, g.Item)
			}
		}
	}
	for _, n := range c.npcs {
		for _, q := range n.Quests {
			if _, ok := c.quests[q]; !ok {
				return fmt.Errorf("catalog: npc %s offers unknown quest %s", n.Name, q)
			}
		}
		for _, it := range n.Vendor {
			if _, ok := c.items[it]; !ok {
				return fmt.Errorf("catalog: npc %s sells unknown item %s", n.Name, it)
			}
		}
	}
	for _, sp := range c.spawns {
		if sp.Monster != "" {
			if _, ok := c.monsters[sp.Monster]; !ok {
				return fmt.Errorf("catalog: spawn references unknown monster %s", sp.Monster)
			}
		}
		if sp.Npc != "" {
			if _, ok := c.npcs[sp.Npc]; !ok {
				return fmt.Errorf("catalog: spawn references unknown npc %s", sp.Npc)
			}
		}
	}
	return nil
}

func (c *Catalog) Item(key string) (Item, bool) {
	it, ok := c.items[key]
	return it, ok
}

func (c *Catalog) Skill(key string) (Skill, bool) {
	s, ok := c.skills[key]
	return s, ok
}

func (c *Catalog) Quest(key string) (Quest, bool) {
	q, ok := c.quests[key]
	return q, ok
}

func (c *Catalog) Monster(key string) (Monster, bool) {
	m, ok := c.monsters[key]
	return m, ok
}

func (c *Catalog) Npc(key string) (Npc, bool) {
	n, ok := c.npcs[key]
	return n, ok
}

func (c *Catalog) Class(key string) (Class, bool) {
	cl, ok := c.classes[key]
	return cl, ok
}

// Level returns the row for a 1-based level, clamped to the table.
func (c *Catalog) Level(level int) Level {
	return atLevel(c.levels, level)
}

func (c *Catalog) MaxLevel() int { return len(c.levels) }

func (c *Catalog) Spawns() []Spawn {
	out := make([]Spawn, len(c.spawns))
	copy(out, c.spawns)
	return out
}

func atLevel[T any](values []T, level int) T {
	var zero T
	if len(values) == 0 {
		return zero
	}
	i := level - 1
	if i < 0 {
		i = 0
	}
	if i >= len(values) {
		i = len(values) - 1
	}
	return values[i]
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

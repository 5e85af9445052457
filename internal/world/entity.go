package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"realm/internal/catalog"
	"realm/internal/combat"
	"realm/internal/inventory"
	"realm/internal/skills"
	"realm/internal/stats"
	"realm/internal/trade"
)

// Entity is the state every kind shares.
type Entity struct {
	id       string
	name     string
	kind     combat.Kind
	state    State
	position mgl64.Vec3
	speed    float64
	health   int
	mana     int
	// target is looked up by id every tick; it may have left the world.
	target       string
	currentSkill int
	skills       []skills.Skill
	buffs        []skills.Buff
	inbox        Inbox
	agent        agent
}

func newEntity(id, name string, kind combat.Kind, pos mgl64.Vec3, speed float64) Entity {
	return Entity{
		id:           id,
		name:         name,
		kind:         kind,
		state:        StateIdle,
		position:     pos,
		speed:        speed,
		currentSkill: -1,
		inbox:        Inbox{},
	}
}

func (e *Entity) ID() string           { return e.id }
func (e *Entity) Name() string         { return e.name }
func (e *Entity) Kind() combat.Kind    { return e.kind }
func (e *Entity) State() State         { return e.state }
func (e *Entity) Position() mgl64.Vec3 { return e.position }
func (e *Entity) Health() int          { return e.health }
func (e *Entity) Mana() int            { return e.mana }
func (e *Entity) Target() string       { return e.target }
func (e *Entity) Alive() bool          { return e.health > 0 }

func (e *Entity) base() *Entity { return e }

func (e *Entity) distanceTo(o *Entity) float64 {
	return e.position.Sub(o.position).Len()
}

// actor is implemented by *Player, *Monster and *Npc.
type actor interface {
	base() *Entity
	level() int
}

// Player is a connected character.
type Player struct {
	Entity
	account         string
	class           string
	lvl             int
	experience      int64
	skillExperience int64
	gold            int64
	attributes      stats.Attributes
	inv             *inventory.Container
	equipment       *inventory.Equipment
	quests          []Quest

	tradeRequestFrom string
	trade            *trade.Session
}

func (p *Player) level() int                      { return p.lvl }
func (p *Player) Level() int                      { return p.lvl }
func (p *Player) Account() string                 { return p.account }
func (p *Player) Inventory() *inventory.Container { return p.inv }
func (p *Player) Equipment() *inventory.Equipment { return p.equipment }
func (p *Player) Gold() int64                     { return p.gold }
func (p *Player) SetGold(gold int64)              { p.gold = max(gold, 0) }
func (p *Player) Experience() int64               { return p.experience }
func (p *Player) SkillExperience() int64          { return p.skillExperience }
func (p *Player) Quests() []Quest                 { return append([]Quest(nil), p.quests...) }
func (p *Player) Skills() []skills.Skill          { return append([]skills.Skill(nil), p.skills...) }
func (p *Player) TradeSession() *trade.Session    { return p.trade }
func (p *Player) TradeRequestFrom() string        { return p.tradeRequestFrom }
func (p *Player) Attributes() stats.Attributes    { return p.attributes }
func (p *Player) Buffs() []skills.Buff            { return append([]skills.Buff(nil), p.buffs...) }

// Monster is a catalog-driven hostile entity.
type Monster struct {
	Entity
	template catalog.Monster
	spawn    mgl64.Vec3
	deathAt  time.Time
	// hidden monsters wait out their respawn delay invisible and inert.
	hidden    bool
	respawnAt time.Time
	lootGold  int64
	loot      *inventory.Container
}

func (m *Monster) level() int             { return m.template.Level }
func (m *Monster) Template() string       { return m.template.Name }
func (m *Monster) Hidden() bool           { return m.hidden }
func (m *Monster) LootGold() int64        { return m.lootGold }
func (m *Monster) Loot() []inventory.Item { return m.loot.Slots() }

// Npc is an invulnerable vendor and quest giver.
type Npc struct {
	Entity
	template catalog.Npc
}

func (n *Npc) level() int { return 1 }

// Quest is a player's progress on one quest template.
type Quest struct {
	Key       string `json:"key"`
	Progress  int    `json:"progress"`
	Completed bool   `json:"completed"`
}

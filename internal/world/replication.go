package world

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"realm/internal/combat"
	"realm/internal/inventory"
	"realm/internal/skills"
	"realm/internal/stats"
	"realm/internal/trade"
)

// View is the public state of an entity as other players see it. It is
// comparable so unchanged entities can be skipped.
type View struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      string     `json:"kind"`
	State     string     `json:"state"`
	Position  mgl64.Vec3 `json:"position"`
	Health    int        `json:"health"`
	HealthMax int        `json:"health_max"`
	Mana      int        `json:"mana"`
	ManaMax   int        `json:"mana_max"`
	Level     int        `json:"level"`
	Target    string     `json:"target,omitempty"`
	Casting   string     `json:"casting,omitempty"`
	Offender  bool       `json:"offender,omitempty"`
	Murderer  bool       `json:"murderer,omitempty"`
	LootGold  int64      `json:"loot_gold,omitempty"`
}

type SkillView struct {
	Key      string  `json:"key"`
	Learned  bool    `json:"learned"`
	Level    int     `json:"level"`
	Cast     float64 `json:"cast"`
	Cooldown float64 `json:"cooldown"`
	Buff     float64 `json:"buff"`
}

type BuffView struct {
	Key       string  `json:"key"`
	Level     int     `json:"level"`
	Remaining float64 `json:"remaining"`
}

type TradeView struct {
	Partner string           `json:"partner"`
	Mine    trade.Offer      `json:"mine"`
	Theirs  trade.Offer      `json:"theirs"`
	Items   []inventory.Item `json:"items"`
}

// PrivateView is only sent to the player it describes.
type PrivateView struct {
	Gold             int64            `json:"gold"`
	Experience       int64            `json:"experience"`
	ExperienceMax    int64            `json:"experience_max"`
	SkillExperience  int64            `json:"skill_experience"`
	Attributes       stats.Attributes `json:"attributes"`
	AttributePoints  int              `json:"attribute_points"`
	Damage           int              `json:"damage"`
	Defense          int              `json:"defense"`
	Inventory        []inventory.Item `json:"inventory"`
	Equipment        []inventory.Item `json:"equipment"`
	Skills           []SkillView      `json:"skills"`
	Buffs            []BuffView       `json:"buffs,omitempty"`
	Quests           []Quest          `json:"quests,omitempty"`
	TradeRequestFrom string           `json:"trade_request_from,omitempty"`
	Trade            *TradeView       `json:"trade,omitempty"`
	Loot             []inventory.Item `json:"loot,omitempty"`
}

// Update is the delta one player receives after a tick.
type Update struct {
	Player   string       `json:"-"`
	Entities []View       `json:"entities,omitempty"`
	Removed  []string     `json:"removed,omitempty"`
	Private  *PrivateView `json:"private,omitempty"`
}

type observer struct {
	seen    map[string]View
	private []byte
}

func newObserver() *observer {
	return &observer{seen: make(map[string]View)}
}

func (w *World) view(a actor) View {
	e := a.base()
	d := w.derived(a)
	v := View{
		ID:        e.id,
		Name:      e.name,
		Kind:      e.kind.String(),
		State:     e.state.String(),
		Position:  e.position,
		Health:    e.health,
		HealthMax: d.HealthMax,
		Mana:      e.mana,
		ManaMax:   d.ManaMax,
		Level:     a.level(),
		Target:    e.target,
		Offender:  skills.Has(e.buffs, combat.OffenderStatus, w.now),
		Murderer:  skills.Has(e.buffs, combat.MurdererStatus, w.now),
	}
	if e.currentSkill >= 0 && e.currentSkill < len(e.skills) {
		v.Casting = e.skills[e.currentSkill].Key
	}
	if m, ok := a.(*Monster); ok && !m.Alive() {
		v.LootGold = m.lootGold
	}
	return v
}

func (w *World) privateView(p *Player) PrivateView {
	d := w.derived(p)
	v := PrivateView{
		Gold:             p.gold,
		Experience:       p.experience,
		ExperienceMax:    w.catalog.Level(p.lvl).ExperienceMax,
		SkillExperience:  p.skillExperience,
		Attributes:       p.attributes,
		AttributePoints:  p.AttributePoints(),
		Damage:           d.Damage,
		Defense:          d.Defense,
		Inventory:        p.inv.Slots(),
		Equipment:        p.equipment.Slots(),
		Quests:           p.Quests(),
		TradeRequestFrom: p.tradeRequestFrom,
	}
	for _, s := range p.skills {
		r := s.Remaining(w.now)
		v.Skills = append(v.Skills, SkillView{
			Key:      s.Key,
			Learned:  s.Learned,
			Level:    s.Level,
			Cast:     r.Cast.Seconds(),
			Cooldown: r.Cooldown.Seconds(),
			Buff:     r.Buff.Seconds(),
		})
	}
	for _, b := range p.buffs {
		v.Buffs = append(v.Buffs, BuffView{Key: b.Key, Level: b.Level, Remaining: b.Remaining(w.now).Seconds()})
	}
	if p.state == StateTrading && p.trade != nil {
		partnerName := p.trade.Other(p.name)
		mine, _ := p.trade.Offer(p.name)
		theirs, _ := p.trade.Offer(partnerName)
		tv := &TradeView{Partner: partnerName, Mine: mine, Theirs: theirs}
		if partner, ok := w.byName[partnerName]; ok {
			for _, idx := range theirs.Items {
				it, _ := partner.inv.At(idx)
				tv.Items = append(tv.Items, it)
			}
		}
		v.Trade = tv
	}
	if m, ok := w.lootable(p); ok {
		v.Loot = m.loot.Slots()
	}
	return v
}

// replicate computes each player's delta since its previous update.
func (w *World) replicate() []Update {
	var out []Update
	for _, id := range w.order {
		p, ok := w.entities[id].(*Player)
		if !ok {
			continue
		}
		obs, ok := w.views[p.id]
		if !ok {
			obs = newObserver()
			w.views[p.id] = obs
		}
		u := Update{Player: p.id}
		inRange := make(map[string]bool)
		for _, oid := range w.order {
			a := w.entities[oid]
			if m, ok := a.(*Monster); ok && m.hidden {
				continue
			}
			if oid != p.id && a.base().distanceTo(&p.Entity) > InterestRadius {
				continue
			}
			inRange[oid] = true
			v := w.view(a)
			if old, ok := obs.seen[oid]; !ok || old != v {
				u.Entities = append(u.Entities, v)
				obs.seen[oid] = v
			}
		}
		for oid := range obs.seen {
			if !inRange[oid] {
				u.Removed = append(u.Removed, oid)
				delete(obs.seen, oid)
			}
		}
		sort.Strings(u.Removed)

		priv := w.privateView(p)
		raw, err := json.Marshal(priv)
		if err == nil && !bytes.Equal(raw, obs.private) {
			u.Private = &priv
			obs.private = raw
		}
		if len(u.Entities) > 0 || len(u.Removed) > 0 || u.Private != nil {
			out = append(out, u)
		}
	}
	return out
}

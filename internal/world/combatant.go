package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"realm/internal/catalog"
	"realm/internal/combat"
	"realm/internal/skills"
	"realm/internal/stats"
)

// derived recomputes an entity's effective stats from scratch.
func (w *World) derived(a actor) stats.Derived {
	switch e := a.(type) {
	case *Player:
		base := stats.FromLevel(w.catalog.Level(e.lvl))
		var gear []catalog.Bonus
		for _, it := range e.equipment.Slots() {
			if !it.Valid {
				continue
			}
			if tpl, ok := w.catalog.Item(it.Key); ok {
				gear = append(gear, tpl.Bonus)
			}
		}
		buffs := skills.ActiveBonus(w.catalog, e.skills, e.buffs, w.now)
		return stats.Compute(base, gear, buffs, e.attributes)
	case *Monster:
		t := e.template
		base := catalog.Bonus{Health: t.Health, Mana: t.Mana, Damage: t.Damage, Defense: t.Defense}
		return stats.Compute(base, nil, skills.ActiveBonus(w.catalog, e.skills, e.buffs, w.now), stats.Attributes{})
	case *Npc:
		return stats.Derived{HealthMax: 1}
	}
	panic("world: derived stats for unknown entity type")
}

// clampVitals keeps health and mana within the current maximums.
func (w *World) clampVitals(a actor) {
	d := w.derived(a)
	e := a.base()
	e.health = min(e.health, d.HealthMax)
	e.mana = min(e.mana, d.ManaMax)
}

// canAttack is the capability matrix: players fight monsters and other
// players, monsters fight players, npcs fight nobody.
func (w *World) canAttack(attacker, victim actor) bool {
	if attacker == nil || victim == nil {
		return false
	}
	a, v := attacker.base(), victim.base()
	if a.id == v.id || !a.Alive() || !v.Alive() {
		return false
	}
	if m, ok := victim.(*Monster); ok && m.hidden {
		return false
	}
	switch attacker.(type) {
	case *Player:
		return v.kind == combat.KindMonster || v.kind == combat.KindPlayer
	case *Monster:
		return v.kind == combat.KindPlayer
	case *Npc:
		return false
	}
	return false
}

// combatant adapts an entity to the combat resolver.
type combatant struct {
	w *World
	a actor
}

func (c combatant) ID() string           { return c.a.base().id }
func (c combatant) Kind() combat.Kind    { return c.a.base().kind }
func (c combatant) Position() mgl64.Vec3 { return c.a.base().position }
func (c combatant) Alive() bool          { return c.a.base().Alive() }
func (c combatant) Defense() int         { return c.w.derived(c.a).Defense }

func (c combatant) ApplyDamage(amount int) {
	if _, ok := c.a.(*Npc); ok {
		return
	}
	e := c.a.base()
	e.health = max(e.health-amount, 0)
}

func (c combatant) CanAttack(v combat.Victim) bool {
	victim, ok := c.w.entities[v.ID()]
	return ok && c.w.canAttack(c.a, victim)
}

// InRadius implements combat.Space in insertion order.
func (w *World) InRadius(center mgl64.Vec3, radius float64) []combat.Victim {
	var out []combat.Victim
	for _, id := range w.order {
		a := w.entities[id]
		if m, ok := a.(*Monster); ok && m.hidden {
			continue
		}
		if a.base().position.Sub(center).Len() <= radius {
			out = append(out, combatant{w: w, a: a})
		}
	}
	return out
}

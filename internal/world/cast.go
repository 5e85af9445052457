package world

import (
	"time"

	"realm/internal/catalog"
	"realm/internal/combat"
)

type castCheck uint8

const (
	castOK castCheck = iota
	castCooldown
	castRejected
)

// checkSelf validates the caster side of a cast of skill idx.
func (w *World) checkSelf(a actor, idx int) (catalog.Skill, castCheck) {
	e := a.base()
	if idx < 0 || idx >= len(e.skills) || !e.Alive() {
		return catalog.Skill{}, castRejected
	}
	s := e.skills[idx]
	if !s.Learned {
		return catalog.Skill{}, castRejected
	}
	tpl, ok := w.catalog.Skill(s.Key)
	if !ok || e.mana < tpl.ManaCost(s.Level) {
		return catalog.Skill{}, castRejected
	}
	if !s.Ready(w.now) {
		return tpl, castCooldown
	}
	return tpl, castOK
}

// castTarget resolves who a skill affects. Offensive skills need an
// attackable target; heals fall back to the caster; buffs are self-only.
func (w *World) castTarget(a actor, tpl catalog.Skill) (actor, bool) {
	e := a.base()
	switch tpl.Category {
	case catalog.CategoryOffensive:
		t, ok := w.visible(e.target)
		if !ok || !w.canAttack(a, t) {
			return nil, false
		}
		return t, true
	case catalog.CategoryHeal:
		if t, ok := w.visible(e.target); ok {
			if p, isPlayer := t.(*Player); isPlayer && p.Alive() {
				return t, true
			}
		}
	}
	return a, true
}

func (w *World) inCastRange(a, target actor, tpl catalog.Skill) bool {
	if a.base().id == target.base().id {
		return true
	}
	return a.base().distanceTo(target.base()) <= tpl.CastRange
}

func (w *World) startCast(a actor, idx int, tpl catalog.Skill) {
	e := a.base()
	e.agent.stop()
	e.currentSkill = idx
	e.skills[idx].StartCast(tpl, w.now)
}

// interrupt aborts the running cast without starting its cooldown.
func (w *World) interrupt(a actor) {
	e := a.base()
	if e.currentSkill >= 0 && e.currentSkill < len(e.skills) {
		e.skills[e.currentSkill].Interrupt(w.now)
	}
	e.currentSkill = -1
}

// currentTemplate returns the template of the skill being cast.
func (w *World) currentTemplate(a actor) (catalog.Skill, bool) {
	e := a.base()
	if e.currentSkill < 0 || e.currentSkill >= len(e.skills) {
		return catalog.Skill{}, false
	}
	return w.catalog.Skill(e.skills[e.currentSkill].Key)
}

func (w *World) casting(a actor) bool {
	e := a.base()
	return e.currentSkill >= 0 && e.currentSkill < len(e.skills) && e.skills[e.currentSkill].Casting(w.now)
}

// finishCast applies the effect of the current skill. The target and mana
// are checked again since either may have changed during the cast.
func (w *World) finishCast(a actor) {
	e := a.base()
	idx := e.currentSkill
	e.currentSkill = -1
	if idx < 0 || idx >= len(e.skills) {
		return
	}
	s := &e.skills[idx]
	tpl, ok := w.catalog.Skill(s.Key)
	if !ok {
		return
	}
	target, ok := w.castTarget(a, tpl)
	cost := tpl.ManaCost(s.Level)
	if !ok || e.mana < cost {
		return
	}
	e.mana -= cost
	s.FinishCast(tpl, w.now)

	switch tpl.Category {
	case catalog.CategoryOffensive:
		amount := w.derived(a).Damage + tpl.Damage(s.Level)
		hits := combat.DealDamageAt(w, combatant{w: w, a: a}, combatant{w: w, a: target}, amount, tpl.AoeRadius)
		for _, h := range hits {
			if victim, ok := w.entities[h.Victim.ID()]; ok {
				w.onHit(a, victim, h)
			}
		}
	case catalog.CategoryHeal:
		t := target.base()
		t.health = min(t.health+tpl.Heal(s.Level), w.derived(target).HealthMax)
	case catalog.CategoryBuff:
		w.clampVitals(a)
	}
}

func (w *World) onHit(attacker, victim actor, h combat.Hit) {
	switch v := victim.(type) {
	case *Monster:
		w.aggro(v, attacker)
	case *Player:
		if p, ok := attacker.(*Player); ok {
			p.buffs = combat.Reputation(p.buffs, v.buffs, h.Killed,
				w.statusDuration(combat.OffenderStatus, time.Minute),
				w.statusDuration(combat.MurdererStatus, 5*time.Minute), w.now)
		}
	}
	if h.Killed {
		w.onKill(attacker, victim)
	}
}

func (w *World) statusDuration(key string, fallback time.Duration) time.Duration {
	if tpl, ok := w.catalog.Skill(key); ok && tpl.BuffTime > 0 {
		return tpl.BuffDuration()
	}
	return fallback
}

// onKill grants rewards for a monster kill.
func (w *World) onKill(attacker, victim actor) {
	p, ok := attacker.(*Player)
	if !ok {
		return
	}
	m, ok := victim.(*Monster)
	if !ok {
		return
	}
	p.experience += combat.BalanceExpReward(m.template.RewardExperience, p.lvl, m.template.Level)
	p.skillExperience += combat.BalanceExpReward(m.template.RewardSkillExperience, p.lvl, m.template.Level)
	w.countKill(p, m.template.Name)
	w.levelUp(p)
}

// levelUp spends experience on levels while enough is banked.
func (w *World) levelUp(p *Player) {
	for p.lvl < w.catalog.MaxLevel() {
		need := w.catalog.Level(p.lvl).ExperienceMax
		if p.experience < need {
			return
		}
		p.experience -= need
		p.lvl++
		d := w.derived(p)
		p.health = d.HealthMax
		p.mana = d.ManaMax
		w.l.WithField("character", p.name).Infof("Character [%s] reached level [%d].", p.name, p.lvl)
	}
	p.experience = min(p.experience, w.catalog.Level(p.lvl).ExperienceMax)
}

package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func (w *World) updateMonster(m *Monster, dt float64) {
	switch m.state {
	case StateIdle:
		m.state = w.monsterIdle(m, dt)
	case StateMoving:
		m.state = w.monsterMoving(m)
	case StateCasting:
		m.state = w.monsterCasting(m)
	case StateDead:
		m.state = w.monsterDead(m)
	case StateTrading:
		panic(fmt.Sprintf("world: monster %s cannot trade", m.id))
	default:
		panic(fmt.Sprintf("world: monster %s in invalid state %d", m.id, m.state))
	}
}

// monsterTarget classifies the current target.
type targetStatus uint8

const (
	targetNone targetStatus = iota
	targetGone
	targetDead
	targetTooFar
	targetValid
)

func (w *World) monsterTarget(m *Monster) (actor, targetStatus) {
	if m.target == "" {
		return nil, targetNone
	}
	t, ok := w.visible(m.target)
	if !ok {
		return nil, targetGone
	}
	if !t.base().Alive() {
		return t, targetDead
	}
	if t.base().position.Sub(m.spawn).Len() > m.template.FollowDistance {
		return t, targetTooFar
	}
	return t, targetValid
}

func (w *World) monsterIdle(m *Monster, dt float64) State {
	if !m.Alive() {
		return w.monsterDie(m)
	}
	target, status := w.monsterTarget(m)
	switch status {
	case targetGone, targetDead:
		m.target = ""
		return StateIdle
	case targetTooFar:
		m.target = ""
		m.agent.moveTo(m.spawn, 0)
		return StateMoving
	case targetValid:
		return w.engage(m, target, StateIdle)
	case targetNone:
	}
	if w.rng.Float64() < m.template.MoveProbability*dt {
		m.agent.moveTo(w.wanderPoint(m), 0)
		return StateMoving
	}
	return StateIdle
}

func (w *World) monsterMoving(m *Monster) State {
	if !m.Alive() {
		return w.monsterDie(m)
	}
	if !m.agent.moving {
		return StateIdle
	}
	target, status := w.monsterTarget(m)
	switch status {
	case targetGone, targetDead:
		m.target = ""
		m.agent.stop()
		return StateIdle
	case targetTooFar:
		m.target = ""
		m.agent.moveTo(m.spawn, 0)
		return StateMoving
	case targetValid:
		return w.engage(m, target, StateMoving)
	case targetNone:
	}
	return StateMoving
}

func (w *World) monsterCasting(m *Monster) State {
	if !m.Alive() {
		return w.monsterDie(m)
	}
	tpl, ok := w.currentTemplate(m)
	if !ok {
		w.interrupt(m)
		return StateIdle
	}
	if tpl.Offensive() {
		_, status := w.monsterTarget(m)
		if status == targetGone || status == targetDead || status == targetNone {
			w.interrupt(m)
			m.target = ""
			return StateIdle
		}
	}
	if !w.casting(m) {
		w.finishCast(m)
		return StateIdle
	}
	return StateCasting
}

func (w *World) monsterDead(m *Monster) State {
	if m.hidden {
		if !w.now.Before(m.respawnAt) {
			w.respawnMonster(m)
			return StateIdle
		}
		return StateDead
	}
	if w.now.Sub(m.deathAt) < m.template.DeathDuration() {
		return StateDead
	}
	if !m.template.Respawn {
		w.remove(m.id)
		return StateDead
	}
	m.hidden = true
	m.respawnAt = w.now.Add(m.template.RespawnDuration())
	m.lootGold = 0
	m.loot = newLoot()
	return StateDead
}

// engage casts the next ready skill at target when in range, otherwise
// walks toward it.
func (w *World) engage(m *Monster, target actor, current State) State {
	if len(m.skills) == 0 {
		return current
	}
	idx := w.nextMonsterSkill(m)
	rangeSkill, _ := w.catalog.Skill(m.skills[max(idx, 0)].Key)
	if !w.inCastRange(m, target, rangeSkill) {
		m.agent.moveTo(target.base().position, rangeSkill.CastRange*castRangeFactor)
		return StateMoving
	}
	if idx < 0 {
		m.agent.stop()
		return StateIdle
	}
	w.startCast(m, idx, rangeSkill)
	return StateCasting
}

// nextMonsterSkill returns the first skill ready to cast, or -1.
func (w *World) nextMonsterSkill(m *Monster) int {
	for i := range m.skills {
		if _, check := w.checkSelf(m, i); check == castOK {
			return i
		}
	}
	return -1
}

// wanderPoint picks a uniform point on the ground disc around the spawn.
func (w *World) wanderPoint(m *Monster) mgl64.Vec3 {
	angle := w.rng.Float64() * 2 * math.Pi
	r := m.template.MoveDistance * math.Sqrt(w.rng.Float64())
	return m.spawn.Add(mgl64.Vec3{math.Cos(angle) * r, 0, math.Sin(angle) * r})
}

func (w *World) monsterDie(m *Monster) State {
	w.interrupt(m)
	m.agent.stop()
	m.inbox.Clear()
	m.target = ""
	m.buffs = nil
	m.deathAt = w.now
	w.rollLoot(m)
	return StateDead
}

func (w *World) rollLoot(m *Monster) {
	t := m.template
	m.lootGold = t.LootGoldMin
	if t.LootGoldMax > t.LootGoldMin {
		m.lootGold += int64(w.rng.IntN(int(t.LootGoldMax-t.LootGoldMin) + 1))
	}
	for _, entry := range t.Loot {
		if w.rng.Float64() < entry.Probability {
			m.loot.Add(w.catalog, entry.Item, 1)
		}
	}
}

func (w *World) respawnMonster(m *Monster) {
	m.hidden = false
	m.position = m.spawn
	m.agent.stop()
	m.target = ""
	m.lootGold = 0
	m.loot = newLoot()
	d := w.derived(m)
	m.health = d.HealthMax
	m.mana = d.ManaMax
}

// perceive lets m acquire the nearest attackable player in its aggro radius.
func (w *World) perceive(m *Monster) {
	if !m.Alive() || m.hidden {
		return
	}
	var nearest *Player
	best := m.template.AggroRadius
	for _, id := range w.order {
		p, ok := w.entities[id].(*Player)
		if !ok || !w.canAttack(m, p) {
			continue
		}
		if d := m.distanceTo(&p.Entity); d < best || nearest == nil && d <= best {
			nearest, best = p, d
		}
	}
	if nearest != nil {
		w.aggro(m, nearest)
	}
}

// aggro switches m to candidate when m has no live target, or when the
// candidate is clearly closer than the current one.
func (w *World) aggro(m *Monster, candidate actor) {
	if !w.canAttack(m, candidate) {
		return
	}
	c := candidate.base()
	current, ok := w.visible(m.target)
	if !ok || !current.base().Alive() {
		m.target = c.id
		return
	}
	if current.base().id == c.id {
		return
	}
	if m.distanceTo(c) < m.distanceTo(current.base())*aggroSwitchFactor {
		m.target = c.id
	}
}

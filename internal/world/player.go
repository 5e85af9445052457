package world

import (
	"fmt"
	"time"

	"realm/internal/combat"
	"realm/internal/trade"
)

// updatePlayer evaluates the predicates of p's current state in priority
// order. The first one that holds performs its transition and returns.
func (w *World) updatePlayer(p *Player) State {
	switch p.state {
	case StateIdle:
		return w.playerIdle(p)
	case StateMoving:
		return w.playerMoving(p)
	case StateCasting:
		return w.playerCasting(p)
	case StateTrading:
		return w.playerTrading(p)
	case StateDead:
		return w.playerDead(p)
	}
	panic(fmt.Sprintf("world: player %s in invalid state %d", p.name, p.state))
}

func (w *World) playerIdle(p *Player) State {
	if !p.Alive() {
		return w.playerDie(p)
	}
	if _, ok := p.inbox.Take(IntentCancel); ok {
		w.cancelAction(p)
		return StateIdle
	}
	if other, ok := w.tradeStarted(p); ok {
		return w.enterTrade(p, other)
	}
	if in, ok := p.inbox.Take(IntentNavigate); ok {
		p.agent.moveTo(in.Destination, in.StoppingDistance)
		return StateMoving
	}
	if in, ok := p.inbox.Take(IntentSkill); ok {
		return w.requestSkill(p, in, StateIdle)
	}
	return StateIdle
}

func (w *World) playerMoving(p *Player) State {
	if !p.Alive() {
		return w.playerDie(p)
	}
	if !p.agent.moving {
		return StateIdle
	}
	if _, ok := p.inbox.Take(IntentCancel); ok {
		p.agent.stop()
		w.cancelAction(p)
		return StateIdle
	}
	if other, ok := w.tradeStarted(p); ok {
		return w.enterTrade(p, other)
	}
	if in, ok := p.inbox.Take(IntentNavigate); ok {
		p.agent.moveTo(in.Destination, in.StoppingDistance)
		return StateMoving
	}
	if in, ok := p.inbox.Take(IntentSkill); ok {
		return w.requestSkill(p, in, StateMoving)
	}
	return StateMoving
}

func (w *World) playerCasting(p *Player) State {
	if !p.Alive() {
		return w.playerDie(p)
	}
	if in, ok := p.inbox.Take(IntentNavigate); ok {
		w.interrupt(p)
		p.agent.moveTo(in.Destination, in.StoppingDistance)
		return StateMoving
	}
	if _, ok := p.inbox.Take(IntentCancel); ok {
		w.interrupt(p)
		w.cancelAction(p)
		return StateIdle
	}
	if other, ok := w.tradeStarted(p); ok {
		w.interrupt(p)
		return w.enterTrade(p, other)
	}
	tpl, ok := w.currentTemplate(p)
	if !ok {
		w.interrupt(p)
		return StateIdle
	}
	if tpl.Offensive() {
		target, ok := w.visible(p.target)
		if !ok {
			w.interrupt(p)
			p.target = ""
			return StateIdle
		}
		if !target.base().Alive() {
			w.interrupt(p)
			return StateIdle
		}
	}
	if !w.casting(p) {
		w.finishCast(p)
		return w.chainSkill(p, tpl.FollowupDefaultAttack)
	}
	return StateCasting
}

func (w *World) playerTrading(p *Player) State {
	if !p.Alive() {
		return w.playerDie(p)
	}
	if _, ok := p.inbox.Take(IntentCancel); ok {
		w.cancelTrade(p)
		return StateIdle
	}
	if p.trade == nil || p.trade.Closed() {
		w.leaveTrade(p)
		return StateIdle
	}
	partner, ok := w.byName[p.trade.Other(p.name)]
	if !ok {
		w.cancelTrade(p)
		return StateIdle
	}
	if !partner.Alive() {
		w.cancelTrade(p)
		return StateIdle
	}
	return StateTrading
}

func (w *World) playerDead(p *Player) State {
	if _, ok := p.inbox.Take(IntentRespawn); ok {
		w.revive(p)
		return StateIdle
	}
	return StateDead
}

// requestSkill starts casting when the target is in range, otherwise walks
// toward it and keeps the request pending.
func (w *World) requestSkill(p *Player, in Intent, current State) State {
	tpl, check := w.checkSelf(p, in.Skill)
	switch check {
	case castRejected:
		return current
	case castCooldown:
		p.inbox.Post(in)
		return current
	case castOK:
	}
	target, ok := w.castTarget(p, tpl)
	if !ok {
		return current
	}
	if w.inCastRange(p, target, tpl) {
		w.startCast(p, in.Skill, tpl)
		return StateCasting
	}
	p.inbox.Post(in)
	p.agent.moveTo(target.base().position, tpl.CastRange*castRangeFactor)
	return StateMoving
}

// chainSkill picks what follows a finished cast: a queued request first,
// then the default attack if the finished skill asks for it. The default
// attack is the first skill of the class.
func (w *World) chainSkill(p *Player, followup bool) State {
	if in, ok := p.inbox.Take(IntentSkill); ok {
		return w.requestSkill(p, in, StateIdle)
	}
	if followup && len(p.skills) > 0 {
		if t, ok := w.visible(p.target); ok && w.canAttack(p, t) {
			return w.requestSkill(p, Intent{Kind: IntentSkill, Skill: 0}, StateIdle)
		}
	}
	return StateIdle
}

func (w *World) cancelAction(p *Player) {
	p.inbox.Take(IntentSkill)
	p.target = ""
}

func (w *World) playerDie(p *Player) State {
	w.interrupt(p)
	p.agent.stop()
	p.inbox.Clear()
	p.target = ""
	p.buffs = nil
	for i := range p.skills {
		p.skills[i].BuffEnd = time.Time{}
	}
	loss := combat.DeathExperienceLoss(p.experience, w.catalog.Level(p.lvl).ExperienceMax, DeathExperienceLoss)
	p.experience -= loss
	w.cancelTrade(p)
	w.l.WithField("character", p.name).Infof("Character [%s] died and lost [%d] experience.", p.name, loss)
	return StateDead
}

// revive puts p back at the nearest spawn point of its class.
func (w *World) revive(p *Player) {
	cls, _ := w.catalog.Class(p.class)
	dest := vec(cls.Start)
	best := -1.0
	for _, sp := range cls.SpawnPoints {
		d := vec(sp).Sub(p.position).Len()
		if best < 0 || d < best {
			best, dest = d, vec(sp)
		}
	}
	p.position = dest
	p.agent.stop()
	p.health = max(int(float64(w.derived(p).HealthMax)*RespawnHealth), 1)
}

// tradeStarted reports whether p and the player that invited p have
// invited each other and may trade now.
func (w *World) tradeStarted(p *Player) (*Player, bool) {
	if p.trade != nil && p.trade.Closed() {
		p.trade = nil
	}
	if p.tradeRequestFrom == "" {
		return nil, false
	}
	other, ok := w.byName[p.tradeRequestFrom]
	if !ok || other.tradeRequestFrom != p.name {
		return nil, false
	}
	if !p.Alive() || !other.Alive() || p.distanceTo(&other.Entity) > InteractionRange {
		return nil, false
	}
	if p.trade != nil {
		return other, p.trade.Other(p.name) == other.name
	}
	if other.trade != nil && !other.trade.Closed() {
		return nil, false
	}
	return other, true
}

// enterTrade moves p into TRADING. The first of the pair to get here opens
// the session for both.
func (w *World) enterTrade(p, other *Player) State {
	if p.trade == nil {
		s := trade.NewSession(w.catalog, p.name, other.name)
		p.trade = s
		other.trade = s
		w.l.Infof("Trade opened between [%s] and [%s].", p.name, other.name)
	}
	p.agent.stop()
	p.target = other.id
	return StateTrading
}

// cancelTrade closes p's session and withdraws both invitations so the
// pair does not drop straight back into a new trade.
func (w *World) cancelTrade(p *Player) {
	if p.trade != nil {
		if other, ok := w.byName[p.trade.Other(p.name)]; ok && other.tradeRequestFrom == p.name {
			other.tradeRequestFrom = ""
		}
		if !p.trade.Closed() {
			p.trade.Cancel()
			w.l.Infof("Trade of [%s] cancelled.", p.name)
		}
	}
	w.leaveTrade(p)
}

func (w *World) leaveTrade(p *Player) {
	p.trade = nil
	p.tradeRequestFrom = ""
}

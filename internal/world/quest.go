package world

import (
	"slices"

	"realm/internal/catalog"
)

func questIndex(list []Quest, key string) int {
	return slices.IndexFunc(list, func(q Quest) bool { return q.Key == key })
}

// offers reports whether n hands out quest key.
func (n *Npc) offers(key string) bool {
	return slices.Contains(n.template.Quests, key)
}

// canAcceptQuest: one instance per template ever, level gate, and a
// completed predecessor.
func (w *World) canAcceptQuest(p *Player, tpl catalog.Quest) bool {
	if questIndex(p.quests, tpl.Name) >= 0 || p.lvl < tpl.RequiredLevel {
		return false
	}
	if tpl.Predecessor == "" {
		return true
	}
	i := questIndex(p.quests, tpl.Predecessor)
	return i >= 0 && p.quests[i].Completed
}

func (w *World) acceptQuest(p *Player, key string) {
	n, ok := w.npcInReach(p)
	if !ok || !n.offers(key) {
		return
	}
	tpl, ok := w.catalog.Quest(key)
	if !ok || !w.canAcceptQuest(p, tpl) {
		return
	}
	p.quests = append(p.quests, Quest{Key: key})
}

func (w *World) completeQuest(p *Player, key string) {
	n, ok := w.npcInReach(p)
	if !ok || !n.offers(key) {
		return
	}
	tpl, ok := w.catalog.Quest(key)
	i := questIndex(p.quests, key)
	if !ok || i < 0 || p.quests[i].Completed || p.quests[i].Progress < tpl.KillAmount {
		return
	}
	if tpl.RewardItem != "" && !p.inv.Add(w.catalog, tpl.RewardItem, 1) {
		return
	}
	p.quests[i].Completed = true
	p.gold += tpl.RewardGold
	p.experience += tpl.RewardExperience
	w.levelUp(p)
	w.l.WithField("character", p.name).Infof("Character [%s] completed quest [%s].", p.name, key)
}

// countKill advances every open kill quest for monster, clamped to the
// required amount.
func (w *World) countKill(p *Player, monster string) {
	for i := range p.quests {
		q := &p.quests[i]
		if q.Completed {
			continue
		}
		tpl, ok := w.catalog.Quest(q.Key)
		if !ok || tpl.KillTarget != monster {
			continue
		}
		q.Progress = min(q.Progress+1, tpl.KillAmount)
	}
}

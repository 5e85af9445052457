package world

import (
	"fmt"
	"time"

	"realm/internal/catalog"
	"realm/internal/combat"
	"realm/internal/data"
	"realm/internal/inventory"
	"realm/internal/skills"
)

// NewCharacter builds the starting snapshot for a fresh character of class.
func NewCharacter(cat *catalog.Catalog, account, name, class string) (data.CharacterSnapshot, error) {
	cls, ok := cat.Class(class)
	if !ok {
		return data.CharacterSnapshot{}, fmt.Errorf("%s: %w", class, ErrUnknownClass)
	}
	lvl := cat.Level(1)
	inv := inventory.NewContainer(cls.InventorySize)
	for _, g := range cls.StartItems {
		inv.Add(cat, g.Item, g.Amount)
	}
	snap := data.CharacterSnapshot{
		Account:   account,
		Name:      name,
		Class:     cls.Name,
		Position:  cls.Start,
		Level:     1,
		Gold:      cls.StartGold,
		Health:    lvl.HealthMax,
		Mana:      lvl.ManaMax,
		Inventory: inv.Slots(),
		Equipment: make([]inventory.Item, len(cls.Equipment)),
	}
	for _, key := range cls.Skills {
		tpl, _ := cat.Skill(key)
		s := skills.New(key, tpl.LearnDefault)
		snap.Skills = append(snap.Skills, data.SkillState{Key: key, Learned: s.Learned, Level: s.Level})
	}
	return snap, nil
}

func (w *World) restorePlayer(snap data.CharacterSnapshot, now time.Time) (*Player, error) {
	cls, ok := w.catalog.Class(snap.Class)
	if !ok {
		return nil, fmt.Errorf("%s: %w", snap.Class, ErrUnknownClass)
	}
	p := &Player{
		Entity:          newEntity(w.newID(), snap.Name, combat.KindPlayer, vec(snap.Position), cls.Speed),
		account:         snap.Account,
		class:           cls.Name,
		lvl:             min(max(snap.Level, 1), w.catalog.MaxLevel()),
		experience:      max(snap.Experience, 0),
		skillExperience: max(snap.SkillExperience, 0),
		gold:            max(snap.Gold, 0),
		attributes:      snap.Attributes,
		inv:             inventory.FromSlots(cls.InventorySize, snap.Inventory),
		equipment:       inventory.EquipmentFromSlots(cls.Equipment, snap.Equipment),
	}

	saved := make(map[string]data.SkillState, len(snap.Skills))
	for _, s := range snap.Skills {
		saved[s.Key] = s
	}
	// The class decides which skills exist; saved state is matched by key.
	for _, key := range cls.Skills {
		tpl, _ := w.catalog.Skill(key)
		s, ok := saved[key]
		if !ok {
			p.skills = append(p.skills, skills.New(key, tpl.LearnDefault))
			continue
		}
		level := s.Level
		if s.Learned {
			level = min(max(level, 1), tpl.MaxLevel)
		}
		p.skills = append(p.skills, skills.Restore(key, s.Learned, level, skills.Remaining{
			Cast:     s.Cast,
			Cooldown: s.Cooldown,
			Buff:     s.Buff,
		}, now))
	}
	for _, b := range snap.Buffs {
		if b.Remaining > 0 {
			p.buffs = append(p.buffs, skills.Buff{Key: b.Key, Level: b.Level, End: now.Add(b.Remaining)})
		}
	}
	for _, q := range snap.Quests {
		if questIndex(p.quests, q.Key) < 0 {
			p.quests = append(p.quests, Quest{Key: q.Key, Progress: max(q.Progress, 0), Completed: q.Completed})
		}
	}

	w.now = now
	p.health = snap.Health
	p.mana = max(snap.Mana, 0)
	w.clampVitals(p)
	if p.health <= 0 {
		p.health = 0
		p.state = StateDead
	}
	return p, nil
}

func (w *World) snapshot(p *Player, now time.Time) data.CharacterSnapshot {
	snap := data.CharacterSnapshot{
		Account:         p.account,
		Name:            p.name,
		Class:           p.class,
		Position:        position(p.position),
		Level:           p.lvl,
		Experience:      p.experience,
		SkillExperience: p.skillExperience,
		Gold:            p.gold,
		Health:          p.health,
		Mana:            p.mana,
		Attributes:      p.attributes,
		Inventory:       p.inv.Slots(),
		Equipment:       p.equipment.Slots(),
	}
	for _, s := range p.skills {
		r := s.Remaining(now)
		snap.Skills = append(snap.Skills, data.SkillState{
			Key:      s.Key,
			Learned:  s.Learned,
			Level:    s.Level,
			Cast:     r.Cast,
			Cooldown: r.Cooldown,
			Buff:     r.Buff,
		})
	}
	for _, b := range p.buffs {
		if r := b.Remaining(now); r > 0 {
			snap.Buffs = append(snap.Buffs, data.BuffState{Key: b.Key, Level: b.Level, Remaining: r})
		}
	}
	for _, q := range p.quests {
		snap.Quests = append(snap.Quests, data.QuestState{Key: q.Key, Progress: q.Progress, Completed: q.Completed})
	}
	return snap
}

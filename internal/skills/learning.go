package skills

import "realm/internal/catalog"

// Learner is the progression state a player spends skill experience from.
type Learner struct {
	Level           int
	SkillExperience int64
}

// Index returns the position of key in list or -1.
func Index(list []Skill, key string) int {
	for i, s := range list {
		if s.Key == key {
			return i
		}
	}
	return -1
}

func predecessorMet(list []Skill, tpl catalog.Skill) bool {
	if tpl.Predecessor == "" {
		return true
	}
	i := Index(list, tpl.Predecessor)
	if i < 0 {
		return false
	}
	return list[i].Learned && list[i].Level >= max(tpl.PredecessorLevel, 1)
}

// CanLearn checks the thresholds for learning list[i] at level 1.
func CanLearn(list []Skill, i int, tpl catalog.Skill, who Learner) bool {
	if i < 0 || i >= len(list) || list[i].Learned {
		return false
	}
	return who.Level >= tpl.RequiredLevel(1) &&
		who.SkillExperience >= tpl.RequiredSkillExperience(1) &&
		predecessorMet(list, tpl)
}

// Learn marks list[i] learned and deducts the skill experience cost exactly
// once. Nothing is deducted when a threshold is not met.
func Learn(list []Skill, i int, tpl catalog.Skill, who *Learner) bool {
	if !CanLearn(list, i, tpl, *who) {
		return false
	}
	who.SkillExperience -= tpl.RequiredSkillExperience(1)
	list[i].Learned = true
	list[i].Level = 1
	return true
}

// CanUpgrade checks the thresholds for raising list[i] by one level.
func CanUpgrade(list []Skill, i int, tpl catalog.Skill, who Learner) bool {
	if i < 0 || i >= len(list) || !list[i].Learned || list[i].Level >= tpl.MaxLevel {
		return false
	}
	next := list[i].Level + 1
	return who.Level >= tpl.RequiredLevel(next) &&
		who.SkillExperience >= tpl.RequiredSkillExperience(next)
}

func Upgrade(list []Skill, i int, tpl catalog.Skill, who *Learner) bool {
	if !CanUpgrade(list, i, tpl, *who) {
		return false
	}
	next := list[i].Level + 1
	who.SkillExperience -= tpl.RequiredSkillExperience(next)
	list[i].Level = next
	return true
}

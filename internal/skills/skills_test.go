package skills

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"realm/internal/catalog"
)

type fakeTemplates map[string]catalog.Skill

func (f fakeTemplates) Skill(key string) (catalog.Skill, bool) {
	s, ok := f[key]
	return s, ok
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fireball() catalog.Skill {
	return catalog.Skill{
		Name:             "Fireball",
		Category:         catalog.CategoryOffensive,
		MaxLevel:         3,
		CastTime:         2,
		Cooldown:         5,
		RequiredLevels:   []int{2, 4, 6},
		RequiredSkillExp: []int64{20, 60, 120},
	}
}

func TestTimersClampAtZero(t *testing.T) {
	s := New("Fireball", true)
	s.StartCast(fireball(), epoch)

	if got := s.CastRemaining(epoch.Add(500 * time.Millisecond)); got != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s remaining, got %v", got)
	}
	if got := s.CastRemaining(epoch.Add(time.Minute)); got != 0 {
		t.Fatalf("expected clamp to zero, got %v", got)
	}
	s.FinishCast(fireball(), epoch.Add(2*time.Second))
	if s.Ready(epoch.Add(3 * time.Second)) {
		t.Fatalf("expected cooldown to be running")
	}
	if !s.Ready(epoch.Add(7 * time.Second)) {
		t.Fatalf("expected cooldown to have elapsed")
	}
	if s.BuffActive(epoch.Add(3 * time.Second)) {
		t.Fatalf("offensive skills must not start a buff timer")
	}
}

func TestRemainingRoundTripReanchors(t *testing.T) {
	s := Skill{Key: "Stone Skin", Learned: true, Level: 2, CooldownEnd: epoch.Add(10 * time.Second), BuffEnd: epoch.Add(4 * time.Second)}
	r := s.Remaining(epoch.Add(time.Second))

	later := epoch.Add(48 * time.Hour)
	restored := Restore(s.Key, s.Learned, s.Level, r, later)
	if restored.CooldownRemaining(later) != 9*time.Second {
		t.Fatalf("expected 9s cooldown, got %v", restored.CooldownRemaining(later))
	}
	if restored.BuffRemaining(later) != 3*time.Second {
		t.Fatalf("expected 3s buff, got %v", restored.BuffRemaining(later))
	}
	if restored.CastRemaining(later) != 0 {
		t.Fatalf("expected no cast")
	}
}

func TestInterruptSkipsCooldown(t *testing.T) {
	s := New("Fireball", true)
	s.StartCast(fireball(), epoch)
	s.Interrupt(epoch.Add(time.Second))
	if s.Casting(epoch.Add(time.Second)) {
		t.Fatalf("expected cast to end")
	}
	if !s.Ready(epoch.Add(time.Second)) {
		t.Fatalf("interrupt must not start cooldown")
	}
}

func TestLearnRequiresThresholds(t *testing.T) {
	list := []Skill{New("Fireball", false)}
	who := Learner{Level: 1, SkillExperience: 100}
	if Learn(list, 0, fireball(), &who) {
		t.Fatalf("expected level gate")
	}
	who = Learner{Level: 2, SkillExperience: 19}
	if Learn(list, 0, fireball(), &who) {
		t.Fatalf("expected skill experience gate")
	}
	if who.SkillExperience != 19 {
		t.Fatalf("failed learn must not deduct, got %d", who.SkillExperience)
	}
	who.SkillExperience = 25
	if !Learn(list, 0, fireball(), &who) {
		t.Fatalf("expected learn to succeed")
	}
	if who.SkillExperience != 5 || list[0].Level != 1 || !list[0].Learned {
		t.Fatalf("unexpected state after learn: %+v %+v", who, list[0])
	}
	if Learn(list, 0, fireball(), &who) {
		t.Fatalf("expected second learn to be rejected")
	}
}

func TestUpgradeStopsAtMaxLevel(t *testing.T) {
	list := []Skill{{Key: "Fireball", Learned: true, Level: 3}}
	who := Learner{Level: 10, SkillExperience: 1000}
	if Upgrade(list, 0, fireball(), &who) {
		t.Fatalf("expected max level to block upgrade")
	}
	if who.SkillExperience != 1000 {
		t.Fatalf("rejected upgrade deducted experience")
	}
}

func TestPredecessorGate(t *testing.T) {
	tpl := catalog.Skill{Name: "Stone Skin", MaxLevel: 1, Predecessor: "Heal", PredecessorLevel: 1}
	list := []Skill{New("Heal", false), New("Stone Skin", false)}
	who := Learner{Level: 10}
	if CanLearn(list, 1, tpl, who) {
		t.Fatalf("expected predecessor gate")
	}
	list[0] = New("Heal", true)
	if !CanLearn(list, 1, tpl, who) {
		t.Fatalf("expected learn once predecessor is known")
	}
}

func TestSkillExperienceNeverGoesNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		exp := rapid.Int64Range(0, 200).Draw(t, "exp")
		level := rapid.IntRange(1, 10).Draw(t, "level")
		list := []Skill{New("Fireball", false)}
		who := Learner{Level: level, SkillExperience: exp}

		ok := Learn(list, 0, fireball(), &who)
		for ok {
			ok = Upgrade(list, 0, fireball(), &who)
		}
		if who.SkillExperience < 0 {
			t.Fatalf("skill experience went negative: %d", who.SkillExperience)
		}
		spent := exp - who.SkillExperience
		var want int64
		for l := 1; l <= list[0].Level; l++ {
			want += fireball().RequiredSkillExperience(l)
		}
		if spent != want {
			t.Fatalf("expected %d spent for level %d, got %d", want, list[0].Level, spent)
		}
	})
}

func TestActiveBonusSumsSkillsAndBuffs(t *testing.T) {
	tpl := fakeTemplates{
		"Stone Skin": {Name: "Stone Skin", Category: catalog.CategoryBuff, Bonuses: []catalog.Bonus{{Defense: 5}, {Defense: 9}}},
		"Blessing":   {Name: "Blessing", Category: catalog.CategoryBuff, Bonuses: []catalog.Bonus{{Health: 30}}},
	}
	list := []Skill{{Key: "Stone Skin", Learned: true, Level: 2, BuffEnd: epoch.Add(time.Minute)}}
	buffs := []Buff{{Key: "Blessing", Level: 1, End: epoch.Add(time.Second)}, {Key: "Blessing", Level: 1, End: epoch.Add(-time.Second)}}

	got := ActiveBonus(tpl, list, buffs, epoch)
	if got.Defense != 9 || got.Health != 30 {
		t.Fatalf("unexpected bonus %+v", got)
	}
}

func TestAddOrRefreshExtends(t *testing.T) {
	list := AddOrRefresh(nil, Buff{Key: "Offender", Level: 1, End: epoch.Add(time.Minute)})
	list = AddOrRefresh(list, Buff{Key: "Offender", Level: 1, End: epoch.Add(2 * time.Minute)})
	if len(list) != 1 || !list[0].End.Equal(epoch.Add(2*time.Minute)) {
		t.Fatalf("expected refreshed single buff, got %+v", list)
	}
	list = Prune(list, epoch.Add(3*time.Minute))
	if len(list) != 0 {
		t.Fatalf("expected expired buff to be pruned")
	}
}

package skills

import (
	"time"

	"realm/internal/catalog"
)

// Templates resolves skill keys to their static definitions.
type Templates interface {
	Skill(key string) (catalog.Skill, bool)
}

// Skill is a per-entity skill instance. The three timers are absolute expiry
// instants; see Remaining and Restore for the persistence form.
type Skill struct {
	Key         string
	Learned     bool
	Level       int
	CastEnd     time.Time
	CooldownEnd time.Time
	BuffEnd     time.Time
}

// Remaining holds the time left on each timer, clamped at zero.
type Remaining struct {
	Cast     time.Duration `json:"cast"`
	Cooldown time.Duration `json:"cooldown"`
	Buff     time.Duration `json:"buff"`
}

func New(key string, learned bool) Skill {
	level := 0
	if learned {
		level = 1
	}
	return Skill{Key: key, Learned: learned, Level: level}
}

func left(end, now time.Time) time.Duration {
	if d := end.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (s Skill) CastRemaining(now time.Time) time.Duration     { return left(s.CastEnd, now) }
func (s Skill) CooldownRemaining(now time.Time) time.Duration { return left(s.CooldownEnd, now) }
func (s Skill) BuffRemaining(now time.Time) time.Duration     { return left(s.BuffEnd, now) }

func (s Skill) Remaining(now time.Time) Remaining {
	return Remaining{
		Cast:     s.CastRemaining(now),
		Cooldown: s.CooldownRemaining(now),
		Buff:     s.BuffRemaining(now),
	}
}

// Restore re-anchors persisted remaining durations to now.
func Restore(key string, learned bool, level int, r Remaining, now time.Time) Skill {
	return Skill{
		Key:         key,
		Learned:     learned,
		Level:       level,
		CastEnd:     now.Add(r.Cast),
		CooldownEnd: now.Add(r.Cooldown),
		BuffEnd:     now.Add(r.Buff),
	}
}

func (s Skill) Ready(now time.Time) bool      { return s.CooldownRemaining(now) == 0 }
func (s Skill) Casting(now time.Time) bool    { return s.CastRemaining(now) > 0 }
func (s Skill) BuffActive(now time.Time) bool { return s.BuffRemaining(now) > 0 }

// StartCast stamps the cast timer.
func (s *Skill) StartCast(tpl catalog.Skill, now time.Time) {
	s.CastEnd = now.Add(tpl.CastDuration())
}

// FinishCast starts the cooldown and, for buffs, the buff timer.
func (s *Skill) FinishCast(tpl catalog.Skill, now time.Time) {
	s.CooldownEnd = now.Add(tpl.CooldownDuration())
	if tpl.Category == catalog.CategoryBuff {
		s.BuffEnd = now.Add(tpl.BuffDuration())
	}
}

// Interrupt ends a cast early without starting the cooldown.
func (s *Skill) Interrupt(now time.Time) {
	if s.CastEnd.After(now) {
		s.CastEnd = now
	}
}

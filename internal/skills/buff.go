package skills

import (
	"time"

	"realm/internal/catalog"
)

// Buff is a timed effect applied to an entity by someone else, or by the
// server as a status such as Offender.
type Buff struct {
	Key   string
	Level int
	End   time.Time
}

func (b Buff) Remaining(now time.Time) time.Duration { return left(b.End, now) }
func (b Buff) Active(now time.Time) bool             { return b.Remaining(now) > 0 }

// AddOrRefresh inserts a buff or extends an existing one with the same key.
func AddOrRefresh(list []Buff, b Buff) []Buff {
	for i := range list {
		if list[i].Key == b.Key {
			if b.End.After(list[i].End) {
				list[i].End = b.End
			}
			list[i].Level = max(list[i].Level, b.Level)
			return list
		}
	}
	return append(list, b)
}

// Prune drops expired buffs in place.
func Prune(list []Buff, now time.Time) []Buff {
	out := list[:0]
	for _, b := range list {
		if b.Active(now) {
			out = append(out, b)
		}
	}
	return out
}

// Has reports whether an active buff with key exists.
func Has(list []Buff, key string, now time.Time) bool {
	for _, b := range list {
		if b.Key == key && b.Active(now) {
			return true
		}
	}
	return false
}

// ActiveBonus sums the bonuses of active self-buff skills and external buffs.
func ActiveBonus(templates Templates, list []Skill, buffs []Buff, now time.Time) catalog.Bonus {
	var total catalog.Bonus
	for _, s := range list {
		if !s.Learned || !s.BuffActive(now) {
			continue
		}
		if tpl, ok := templates.Skill(s.Key); ok {
			total = total.Add(tpl.BonusAt(s.Level))
		}
	}
	for _, b := range buffs {
		if !b.Active(now) {
			continue
		}
		if tpl, ok := templates.Skill(b.Key); ok {
			total = total.Add(tpl.BonusAt(b.Level))
		}
	}
	return total
}

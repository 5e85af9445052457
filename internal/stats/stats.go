// Package stats computes derived entity stats. Nothing here is cached: callers
// recompute on every read so equipment and buff changes are never stale.
package stats

import "realm/internal/catalog"

// Per-point attribute bonuses.
const (
	HealthPerStrength   = 10
	ManaPerIntelligence = 10
	DamagePerStrength   = 1
)

// Attributes are the points a player spends on level up.
type Attributes struct {
	Strength     int `json:"strength"`
	Intelligence int `json:"intelligence"`
}

func (a Attributes) Spent() int { return a.Strength + a.Intelligence }

// Bonus converts attribute points to stat contributions.
func (a Attributes) Bonus() catalog.Bonus {
	return catalog.Bonus{
		Health: a.Strength * HealthPerStrength,
		Mana:   a.Intelligence * ManaPerIntelligence,
		Damage: a.Strength * DamagePerStrength,
	}
}

// Derived is the effective stat block of an entity.
type Derived struct {
	HealthMax int `json:"health_max"`
	ManaMax   int `json:"mana_max"`
	Damage    int `json:"damage"`
	Defense   int `json:"defense"`
}

// Compute sums base, equipment, buff and attribute contributions.
func Compute(base catalog.Bonus, equipment []catalog.Bonus, buffs catalog.Bonus, attrs Attributes) Derived {
	total := base.Add(buffs).Add(attrs.Bonus())
	for _, b := range equipment {
		total = total.Add(b)
	}
	return Derived{
		HealthMax: max(total.Health, 1),
		ManaMax:   max(total.Mana, 0),
		Damage:    max(total.Damage, 0),
		Defense:   max(total.Defense, 0),
	}
}

// FromLevel turns a level table row into a base bonus.
func FromLevel(l catalog.Level) catalog.Bonus {
	return catalog.Bonus{Health: l.HealthMax, Mana: l.ManaMax, Damage: l.Damage, Defense: l.Defense}
}

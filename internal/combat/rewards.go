package combat

import (
	"math"
	"time"

	"realm/internal/skills"
)

// Reputation statuses, implemented as timed buffs.
const (
	OffenderStatus = "Offender"
	MurdererStatus = "Murderer"
)

// BalanceExpReward scales reward by the level difference between victim and
// attacker, clamped to ±10 levels at 10% per level.
func BalanceExpReward(reward int64, attackerLevel, victimLevel int) int64 {
	diff := min(max(victimLevel-attackerLevel, -10), 10)
	// Integer tenths keep the curve exact; 10+diff is never negative.
	return reward * int64(10+diff) / 10
}

// DeathExperienceLoss is the experience a player loses on death.
func DeathExperienceLoss(experience, experienceMax int64, percent float64) int64 {
	loss := int64(math.Floor(float64(experienceMax) * percent))
	return min(loss, experience)
}

// Innocent players carry neither reputation status.
func Innocent(buffs []skills.Buff, now time.Time) bool {
	return !skills.Has(buffs, OffenderStatus, now) && !skills.Has(buffs, MurdererStatus, now)
}

// Reputation computes the status buffs an attacker gains against a player
// victim. Attacking an innocent marks an offender; killing one marks a
// murderer. Murderers are not additionally marked offenders.
func Reputation(attacker, victim []skills.Buff, killed bool, offender, murderer time.Duration, now time.Time) []skills.Buff {
	if !Innocent(victim, now) {
		return attacker
	}
	if killed {
		return skills.AddOrRefresh(attacker, skills.Buff{Key: MurdererStatus, Level: 1, End: now.Add(murderer)})
	}
	if skills.Has(attacker, MurdererStatus, now) {
		return attacker
	}
	return skills.AddOrRefresh(attacker, skills.Buff{Key: OffenderStatus, Level: 1, End: now.Add(offender)})
}

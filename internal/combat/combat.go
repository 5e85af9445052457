package combat

import "github.com/go-gl/mathgl/mgl64"

// Kind is the capability set an entity belongs to.
type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindMonster
	KindNpc
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMonster:
		return "monster"
	case KindNpc:
		return "npc"
	}
	return "unknown"
}

// Victim is anything that can take damage.
type Victim interface {
	ID() string
	Kind() Kind
	Position() mgl64.Vec3
	Alive() bool
	Defense() int
	ApplyDamage(amount int)
}

type Attacker interface {
	ID() string
	CanAttack(v Victim) bool
}

// Space answers area queries. Results must come back in a stable order.
type Space interface {
	InRadius(center mgl64.Vec3, radius float64) []Victim
}

// Hit records one application of damage.
type Hit struct {
	Victim Victim
	Damage int
	Killed bool
}

// Mitigate applies defense. A landed hit always deals at least one point.
func Mitigate(amount, defense int) int {
	return max(amount-defense, 1)
}

// DealDamageAt damages target and, when aoeRadius is positive, every other
// living entity of the target's kind within the radius that source may attack.
func DealDamageAt(space Space, source Attacker, target Victim, amount int, aoeRadius float64) []Hit {
	var hits []Hit
	if target == nil || !target.Alive() {
		return hits
	}
	hits = append(hits, strike(target, amount))

	if aoeRadius <= 0 || space == nil {
		return hits
	}
	for _, v := range space.InRadius(target.Position(), aoeRadius) {
		if v.ID() == target.ID() || v.ID() == source.ID() {
			continue
		}
		if !v.Alive() || v.Kind() != target.Kind() || !source.CanAttack(v) {
			continue
		}
		hits = append(hits, strike(v, amount))
	}
	return hits
}

func strike(v Victim, amount int) Hit {
	dmg := Mitigate(amount, v.Defense())
	v.ApplyDamage(dmg)
	return Hit{Victim: v, Damage: dmg, Killed: !v.Alive()}
}

package world

import "github.com/go-gl/mathgl/mgl64"

// Navigator moves an entity toward a destination. Implementations may route
// around obstacles; the default walks a straight line.
type Navigator interface {
	Advance(from, to mgl64.Vec3, step, stoppingDistance float64) mgl64.Vec3
}

type straightLine struct{}

func (straightLine) Advance(from, to mgl64.Vec3, step, stoppingDistance float64) mgl64.Vec3 {
	delta := to.Sub(from)
	dist := delta.Len()
	remaining := dist - stoppingDistance
	if remaining <= 0 || dist == 0 {
		return from
	}
	return from.Add(delta.Mul(min(step, remaining) / dist))
}

// agent is the per-entity navigation state.
type agent struct {
	destination      mgl64.Vec3
	stoppingDistance float64
	moving           bool
}

func (a *agent) moveTo(dest mgl64.Vec3, stoppingDistance float64) {
	a.destination = dest
	a.stoppingDistance = max(stoppingDistance, 0)
	a.moving = true
}

func (a *agent) stop() { a.moving = false }

// arrivalEpsilon absorbs float error when comparing against the stopping
// distance.
const arrivalEpsilon = 1e-6

// advance moves e along its path for dt seconds.
func (w *World) advance(e *Entity, dt float64) {
	if !e.agent.moving {
		return
	}
	e.position = w.nav.Advance(e.position, e.agent.destination, e.speed*dt, e.agent.stoppingDistance)
	if e.position.Sub(e.agent.destination).Len() <= e.agent.stoppingDistance+arrivalEpsilon {
		e.agent.stop()
	}
}

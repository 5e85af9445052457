// Package world hosts the authoritative simulation. A single World owns
// every entity; Step advances all of them by one tick.
package world

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"realm/internal/catalog"
	"realm/internal/combat"
	"realm/internal/data"
	"realm/internal/inventory"
	"realm/internal/skills"
)

const (
	// InteractionRange bounds looting, vendors, quest givers and trade.
	InteractionRange = 4.0
	// InterestRadius is how far a player sees other entities.
	InterestRadius = 30.0
	// RespawnHealth is the fraction of max health restored on revive.
	RespawnHealth = 0.5
	// DeathExperienceLoss is the fraction of the level's experience lost on death.
	DeathExperienceLoss = 0.05
	// aggroSwitchFactor: a new aggro target must be this much closer.
	aggroSwitchFactor = 0.8
	// castRangeFactor scales the stopping distance when walking into range.
	castRangeFactor = 0.8
	lootSlots       = 6
)

var (
	ErrAlreadyOnline = errors.New("character already in world")
	ErrUnknownClass  = errors.New("unknown class")
)

// Options carries the injectable collaborators. Zero values get defaults.
type Options struct {
	Logger    logrus.FieldLogger
	Random    Random
	Navigator Navigator
	NewID     func() string
}

type queued struct {
	player string
	cmd    Command
}

// World is safe for concurrent use. Enqueue may be called from any
// goroutine; Step, Join, Leave and Snapshots serialize on the world lock.
type World struct {
	mu      sync.Mutex
	l       logrus.FieldLogger
	catalog *catalog.Catalog
	rng     Random
	nav     Navigator
	newID   func() string

	order    []string
	entities map[string]actor
	byName   map[string]*Player

	queueMu sync.Mutex
	queue   []queued

	now      time.Time
	lastStep time.Time
	views    map[string]*observer
}

func New(cat *catalog.Catalog, opts Options) *World {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Random == nil {
		opts.Random = NewRandom("realm")
	}
	if opts.Navigator == nil {
		opts.Navigator = straightLine{}
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	w := &World{
		l:        opts.Logger,
		catalog:  cat,
		rng:      opts.Random,
		nav:      opts.Navigator,
		newID:    opts.NewID,
		entities: make(map[string]actor),
		byName:   make(map[string]*Player),
		views:    make(map[string]*observer),
	}
	return w
}

// Populate places every catalog spawn into the world.
func (w *World) Populate(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
	for _, s := range w.catalog.Spawns() {
		pos := vec(s.Position)
		switch {
		case s.Monster != "":
			w.spawnMonster(s.Monster, pos)
		case s.Npc != "":
			w.spawnNpc(s.Npc, pos)
		}
	}
}

func vec(p catalog.Position) mgl64.Vec3 { return mgl64.Vec3{p.X, p.Y, p.Z} }

func position(v mgl64.Vec3) catalog.Position { return catalog.Position{X: v[0], Y: v[1], Z: v[2]} }

func (w *World) add(a actor) {
	id := a.base().id
	w.entities[id] = a
	w.order = append(w.order, id)
}

func (w *World) remove(id string) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	delete(w.entities, id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *World) spawnMonster(key string, pos mgl64.Vec3) *Monster {
	tpl, ok := w.catalog.Monster(key)
	if !ok {
		w.l.Warnf("Unknown monster template [%s].", key)
		return nil
	}
	m := &Monster{
		Entity:   newEntity(w.newID(), tpl.Name, combat.KindMonster, pos, tpl.Speed),
		template: tpl,
		spawn:    pos,
		loot:     newLoot(),
	}
	for _, s := range tpl.Skills {
		m.skills = append(m.skills, skills.New(s, true))
	}
	m.health = tpl.Health
	m.mana = tpl.Mana
	w.add(m)
	return m
}

func newLoot() *inventory.Container { return inventory.NewContainer(lootSlots) }

func (w *World) spawnNpc(key string, pos mgl64.Vec3) *Npc {
	tpl, ok := w.catalog.Npc(key)
	if !ok {
		w.l.Warnf("Unknown npc template [%s].", key)
		return nil
	}
	n := &Npc{
		Entity:   newEntity(w.newID(), tpl.Name, combat.KindNpc, pos, 0),
		template: tpl,
	}
	n.health = 1
	w.add(n)
	return n
}

// Join places a persisted character into the world and returns its entity id.
func (w *World) Join(snap data.CharacterSnapshot, now time.Time) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byName[snap.Name]; ok {
		return "", fmt.Errorf("%s: %w", snap.Name, ErrAlreadyOnline)
	}
	p, err := w.restorePlayer(snap, now)
	if err != nil {
		return "", err
	}
	w.add(p)
	w.byName[p.name] = p
	w.views[p.id] = newObserver()
	w.l.WithField("character", p.name).Infof("Character [%s] entered the world.", p.name)
	return p.id, nil
}

// Leave removes a player and returns its final snapshot. A running trade is
// cancelled without moving anything.
func (w *World) Leave(id string, now time.Time) (data.CharacterSnapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.player(id)
	if !ok {
		return data.CharacterSnapshot{}, false
	}
	w.cancelTrade(p)
	for _, name := range w.order {
		if other, ok := w.entities[name].(*Player); ok && other.tradeRequestFrom == p.name {
			other.tradeRequestFrom = ""
		}
	}
	snap := w.snapshot(p, now)
	w.remove(id)
	delete(w.byName, p.name)
	delete(w.views, id)
	w.l.WithField("character", p.name).Infof("Character [%s] left the world.", p.name)
	return snap, true
}

// Resync forgets what player id has been sent, so its next update carries
// the full visible state again. Call it when an update was lost.
func (w *World) Resync(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.player(id); ok {
		w.views[id] = newObserver()
	}
}

// Snapshots captures every online player under the world lock so a save-all
// never observes half of a trade.
func (w *World) Snapshots(now time.Time) []data.CharacterSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]data.CharacterSnapshot, 0, len(w.byName))
	for _, id := range w.order {
		if p, ok := w.entities[id].(*Player); ok {
			out = append(out, w.snapshot(p, now))
		}
	}
	return out
}

// Enqueue hands a client command to the next tick.
func (w *World) Enqueue(playerID string, cmd Command) {
	w.queueMu.Lock()
	w.queue = append(w.queue, queued{player: playerID, cmd: cmd})
	w.queueMu.Unlock()
}

func (w *World) drain() []queued {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	q := w.queue
	w.queue = nil
	return q
}

// Step advances the world to now and returns the replication updates for
// every online player.
func (w *World) Step(now time.Time) []Update {
	w.mu.Lock()
	defer w.mu.Unlock()

	dt := 0.0
	if !w.lastStep.IsZero() {
		dt = now.Sub(w.lastStep).Seconds()
	}
	w.lastStep = now
	w.now = now

	for _, q := range w.drain() {
		w.apply(q.player, q.cmd)
	}

	ids := append([]string(nil), w.order...)
	for _, id := range ids {
		if a, ok := w.entities[id]; ok {
			w.advance(a.base(), dt)
		}
	}
	for _, id := range ids {
		a, ok := w.entities[id]
		if !ok {
			continue
		}
		switch e := a.(type) {
		case *Player:
			e.buffs = skills.Prune(e.buffs, now)
			e.state = w.updatePlayer(e)
		case *Monster:
			e.buffs = skills.Prune(e.buffs, now)
			w.perceive(e)
			w.updateMonster(e, dt)
		case *Npc:
			e.state = StateIdle
		}
	}
	return w.replicate()
}

func (w *World) entity(id string) (actor, bool) {
	a, ok := w.entities[id]
	return a, ok
}

func (w *World) player(id string) (*Player, bool) {
	p, ok := w.entities[id].(*Player)
	return p, ok
}

// Player returns the online player with the given entity id. The returned
// value must only be read while no Step is running.
func (w *World) Player(id string) (*Player, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.player(id)
}

// visible reports whether id refers to an entity others can interact with.
func (w *World) visible(id string) (actor, bool) {
	a, ok := w.entities[id]
	if !ok {
		return nil, false
	}
	if m, ok := a.(*Monster); ok && m.hidden {
		return nil, false
	}
	return a, true
}

package world

import "github.com/go-gl/mathgl/mgl64"

// IntentKind names the edge-triggered requests an FSM consumes.
type IntentKind uint8

const (
	IntentNavigate IntentKind = iota + 1
	IntentSkill
	IntentCancel
	IntentRespawn
)

// Intent is the latest payload for its kind.
type Intent struct {
	Kind             IntentKind
	Destination      mgl64.Vec3
	StoppingDistance float64
	Skill            int
}

// Inbox holds at most one pending intent per kind. Posting the same kind
// again overwrites, so duplicates coalesce.
type Inbox map[IntentKind]Intent

func (in Inbox) Post(i Intent) { in[i.Kind] = i }

// Take reads and clears the intent of kind k.
func (in Inbox) Take(k IntentKind) (Intent, bool) {
	i, ok := in[k]
	if ok {
		delete(in, k)
	}
	return i, ok
}

func (in Inbox) Peek(k IntentKind) (Intent, bool) {
	i, ok := in[k]
	return i, ok
}

func (in Inbox) Has(k IntentKind) bool {
	_, ok := in[k]
	return ok
}

func (in Inbox) Clear() {
	for k := range in {
		delete(in, k)
	}
}

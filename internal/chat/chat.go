package chat

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const (
	TypeSay     = "say"
	TypeWhisper = "whisper"

	maxTextLength = 256
)

// Message is a chat line. From is always filled in by the server.
type Message struct {
	Type string `json:"type"`
	To   string `json:"to,omitempty"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

// Recipient is anything that can receive chat lines, usually a session.
// Deliver must not block.
type Recipient interface {
	Deliver(msg Message) bool
}

// Hub relays messages between online characters.
type Hub struct {
	l       logrus.FieldLogger
	mu      sync.Mutex
	members map[string]Recipient
}

func NewHub(l logrus.FieldLogger) *Hub {
	return &Hub{l: l, members: make(map[string]Recipient)}
}

func (h *Hub) Join(name string, r Recipient) {
	h.mu.Lock()
	h.members[name] = r
	h.mu.Unlock()
	h.l.Debugf("Character [%s] joined chat.", name)
}

// Leave removes name only if it still maps to r.
func (h *Hub) Leave(name string, r Recipient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.members[name]; ok && cur == r {
		delete(h.members, name)
	}
}

// Send routes msg from the named character. It returns false when the
// message was dropped: empty text, unknown type or an offline whisper target.
func (h *Hub) Send(from string, msg Message) bool {
	msg.From = from
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return false
	}
	if len(msg.Text) > maxTextLength {
		cut := maxTextLength
		for cut > 0 && !utf8.RuneStart(msg.Text[cut]) {
			cut--
		}
		msg.Text = msg.Text[:cut]
	}

	switch msg.Type {
	case TypeSay:
		msg.To = ""
		for _, r := range h.recipients() {
			r.Deliver(msg)
		}
		return true
	case TypeWhisper:
		h.mu.Lock()
		target, ok := h.members[msg.To]
		h.mu.Unlock()
		if !ok {
			return false
		}
		return target.Deliver(msg)
	default:
		h.l.Debugf("Dropping chat message of unknown type [%s] from [%s].", msg.Type, from)
		return false
	}
}

// recipients returns members ordered by name.
func (h *Hub) recipients() []Recipient {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.members))
	for n := range h.members {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]Recipient, 0, len(names))
	for _, n := range names {
		out = append(out, h.members[n])
	}
	return out
}

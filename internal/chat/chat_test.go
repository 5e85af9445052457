package chat

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus/hooks/test"
)

type inbox struct {
	got []Message
}

func (i *inbox) Deliver(msg Message) bool {
	i.got = append(i.got, msg)
	return true
}

func testHub() *Hub {
	l, _ := test.NewNullLogger()
	return NewHub(l)
}

func TestSayReachesEveryone(t *testing.T) {
	h := testHub()
	a, b := &inbox{}, &inbox{}
	h.Join("alice", a)
	h.Join("bob", b)

	if !h.Send("alice", Message{Type: TypeSay, To: "ignored", From: "forged", Text: " hello "}) {
		t.Fatalf("expected say to be relayed")
	}
	for _, in := range []*inbox{a, b} {
		if len(in.got) != 1 || in.got[0].From != "alice" || in.got[0].Text != "hello" || in.got[0].To != "" {
			t.Fatalf("unexpected delivery %+v", in.got)
		}
	}
}

func TestWhisperOnlyReachesTarget(t *testing.T) {
	h := testHub()
	a, b := &inbox{}, &inbox{}
	h.Join("alice", a)
	h.Join("bob", b)

	if !h.Send("alice", Message{Type: TypeWhisper, To: "bob", Text: "psst"}) {
		t.Fatalf("expected whisper to be delivered")
	}
	if len(b.got) != 1 || len(a.got) != 0 {
		t.Fatalf("unexpected deliveries a=%v b=%v", a.got, b.got)
	}
	if h.Send("alice", Message{Type: TypeWhisper, To: "carol", Text: "psst"}) {
		t.Fatalf("expected whisper to offline target to fail")
	}
}

func TestDropsEmptyAndUnknown(t *testing.T) {
	h := testHub()
	a := &inbox{}
	h.Join("alice", a)

	if h.Send("alice", Message{Type: TypeSay, Text: "   "}) {
		t.Fatalf("expected empty text to be dropped")
	}
	if h.Send("alice", Message{Type: "shout", Text: "hi"}) {
		t.Fatalf("expected unknown type to be dropped")
	}
	h.Send("alice", Message{Type: TypeSay, Text: strings.Repeat("x", 1000)})
	if len(a.got) != 1 || len(a.got[0].Text) != maxTextLength {
		t.Fatalf("expected one truncated message, got %d", len(a.got))
	}
}

func TestTruncationKeepsWholeRunes(t *testing.T) {
	h := testHub()
	a := &inbox{}
	h.Join("alice", a)

	h.Send("alice", Message{Type: TypeSay, Text: "x" + strings.Repeat("é", 200)})
	if len(a.got) != 1 {
		t.Fatalf("expected one message, got %d", len(a.got))
	}
	text := a.got[0].Text
	if !utf8.ValidString(text) || len(text) != maxTextLength-1 {
		t.Fatalf("expected valid text of %d bytes, got %d bytes", maxTextLength-1, len(text))
	}
}

func TestLeaveIgnoresStaleRecipient(t *testing.T) {
	h := testHub()
	old, cur := &inbox{}, &inbox{}
	h.Join("alice", old)
	h.Join("alice", cur)
	h.Leave("alice", old)

	h.Send("bob", Message{Type: TypeWhisper, To: "alice", Text: "hi"})
	if len(cur.got) != 1 {
		t.Fatalf("expected current session to stay registered")
	}
	h.Leave("alice", cur)
	if h.Send("bob", Message{Type: TypeWhisper, To: "alice", Text: "hi"}) {
		t.Fatalf("expected alice to be gone")
	}
}

// Package trade implements the two-party trade negotiation: offer editing,
// locking, the latched double accept and the atomic exchange.
package trade

import (
	"errors"
	"fmt"

	"realm/internal/inventory"
)

// OfferSlots is the number of inventory references a single offer may hold.
const OfferSlots = 6

var (
	ErrOfferInvalid = errors.New("trade offer no longer valid")
	ErrNoSpace      = errors.New("not enough free inventory slots")
	ErrNotReady     = errors.New("trade not accepted by both parties")
)

type Status uint8

const (
	StatusFree Status = iota
	StatusLocked
	StatusAccepted
)

func (s Status) String() string {
	switch s {
	case StatusFree:
		return "free"
	case StatusLocked:
		return "locked"
	case StatusAccepted:
		return "accepted"
	}
	return "unknown"
}

// Offer is one side's current proposal. Items holds inventory indices, -1
// marks an unused offer slot.
type Offer struct {
	Gold   int64           `json:"gold"`
	Items  [OfferSlots]int `json:"items"`
	Status Status          `json:"status"`
}

func newOffer() Offer {
	o := Offer{}
	for i := range o.Items {
		o.Items[i] = -1
	}
	return o
}

// Count is the number of offer slots in use.
func (o Offer) Count() int {
	n := 0
	for _, idx := range o.Items {
		if idx >= 0 {
			n++
		}
	}
	return n
}

// Participant is a player taking part in the exchange.
type Participant interface {
	Name() string
	Inventory() *inventory.Container
	Gold() int64
	SetGold(gold int64)
}

// Session is shared by both traders for the lifetime of a negotiation.
// It is not safe for concurrent use; the world tick owns it.
type Session struct {
	templates inventory.Templates
	parties   [2]string
	offers    [2]Offer
	closed    bool
}

func NewSession(templates inventory.Templates, a, b string) *Session {
	return &Session{
		templates: templates,
		parties:   [2]string{a, b},
		offers:    [2]Offer{newOffer(), newOffer()},
	}
}

func (s *Session) Parties() [2]string { return s.parties }

// Other returns the counterpart of name, or "" if name is not a party.
func (s *Session) Other(name string) string {
	switch s.side(name) {
	case 0:
		return s.parties[1]
	case 1:
		return s.parties[0]
	}
	return ""
}

func (s *Session) Offer(name string) (Offer, bool) {
	i := s.side(name)
	if i < 0 {
		return Offer{}, false
	}
	return s.offers[i], true
}

func (s *Session) Closed() bool { return s.closed }

// Cancel ends the negotiation without moving anything.
func (s *Session) Cancel() { s.closed = true }

func (s *Session) side(name string) int {
	for i, p := range s.parties {
		if p == name {
			return i
		}
	}
	return -1
}

func (s *Session) editable(name string) (*Offer, bool) {
	i := s.side(name)
	if i < 0 || s.closed || s.offers[i].Status != StatusFree {
		return nil, false
	}
	return &s.offers[i], true
}

// OfferGold sets the offered gold, clamped to what the party currently owns.
func (s *Session) OfferGold(name string, amount, owned int64) bool {
	o, ok := s.editable(name)
	if !ok || amount < 0 {
		return false
	}
	o.Gold = min(amount, owned)
	return true
}

// OfferItem places inventory index invIndex into offer slot offerSlot.
func (s *Session) OfferItem(name string, offerSlot, invIndex int, inv *inventory.Container) bool {
	o, ok := s.editable(name)
	if !ok || offerSlot < 0 || offerSlot >= OfferSlots {
		return false
	}
	if !s.tradable(inv, invIndex) {
		return false
	}
	for i, idx := range o.Items {
		if idx == invIndex && i != offerSlot {
			return false
		}
	}
	o.Items[offerSlot] = invIndex
	return true
}

func (s *Session) ClearItem(name string, offerSlot int) bool {
	o, ok := s.editable(name)
	if !ok || offerSlot < 0 || offerSlot >= OfferSlots {
		return false
	}
	o.Items[offerSlot] = -1
	return true
}

// Lock freezes the party's offer until the trade ends.
func (s *Session) Lock(name string) bool {
	o, ok := s.editable(name)
	if !ok {
		return false
	}
	o.Status = StatusLocked
	return true
}

// Accept latches the party's acceptance once both offers are locked. It
// reports true when both sides have accepted and the exchange should run.
func (s *Session) Accept(name string) bool {
	i := s.side(name)
	if i < 0 || s.closed {
		return false
	}
	other := 1 - i
	if s.offers[i].Status == StatusFree || s.offers[other].Status == StatusFree {
		return false
	}
	s.offers[i].Status = StatusAccepted
	return s.offers[other].Status == StatusAccepted
}

func (s *Session) tradable(inv *inventory.Container, invIndex int) bool {
	it, ok := inv.At(invIndex)
	if !ok {
		return false
	}
	tpl, ok := s.templates.Item(it.Key)
	return ok && tpl.Tradable
}

func (s *Session) validate(o Offer, p Participant) error {
	if o.Gold < 0 || o.Gold > p.Gold() {
		return fmt.Errorf("%s offers %d gold: %w", p.Name(), o.Gold, ErrOfferInvalid)
	}
	for _, idx := range o.Items {
		if idx >= 0 && !s.tradable(p.Inventory(), idx) {
			return fmt.Errorf("%s offers slot %d: %w", p.Name(), idx, ErrOfferInvalid)
		}
	}
	return nil
}

// Commit performs the exchange between a and b. Both offers and both
// receivers' free capacity are checked again at this exact moment. On any
// failure nothing is moved. The session is closed either way.
func (s *Session) Commit(a, b Participant) error {
	if s.closed {
		return ErrNotReady
	}
	ia, ib := s.side(a.Name()), s.side(b.Name())
	if ia < 0 || ib < 0 || ia == ib {
		return fmt.Errorf("participants %s and %s: %w", a.Name(), b.Name(), ErrOfferInvalid)
	}
	oa, ob := s.offers[ia], s.offers[ib]
	if oa.Status != StatusAccepted || ob.Status != StatusAccepted {
		return ErrNotReady
	}
	s.closed = true

	if err := s.validate(oa, a); err != nil {
		return err
	}
	if err := s.validate(ob, b); err != nil {
		return err
	}
	if a.Inventory().Free()+oa.Count() < ob.Count() {
		return fmt.Errorf("%s: %w", a.Name(), ErrNoSpace)
	}
	if b.Inventory().Free()+ob.Count() < oa.Count() {
		return fmt.Errorf("%s: %w", b.Name(), ErrNoSpace)
	}

	fromA := extract(a.Inventory(), oa)
	fromB := extract(b.Inventory(), ob)
	place(a.Inventory(), fromB)
	place(b.Inventory(), fromA)

	a.SetGold(a.Gold() - oa.Gold + ob.Gold)
	b.SetGold(b.Gold() - ob.Gold + oa.Gold)
	return nil
}

func extract(inv *inventory.Container, o Offer) []inventory.Item {
	var held []inventory.Item
	for _, idx := range o.Items {
		if idx < 0 {
			continue
		}
		it, _ := inv.At(idx)
		held = append(held, it)
		inv.Clear(idx)
	}
	return held
}

func place(inv *inventory.Container, items []inventory.Item) {
	free := inv.FreeIndices()
	for i, it := range items {
		inv.Set(free[i], it)
	}
}

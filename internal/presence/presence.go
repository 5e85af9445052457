// Package presence tracks which accounts hold a live session and which
// character each one is playing.
package presence

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrAlreadyOnline = errors.New("account already online")

// Status mirrors the online flag into persistence so other tools can see it.
type Status interface {
	SetOnline(ctx context.Context, account string, online bool) error
}

type Registry struct {
	l      logrus.FieldLogger
	status Status

	mu     sync.Mutex
	online map[string]string // account -> character, "" while selecting
}

func NewRegistry(l logrus.FieldLogger, status Status) *Registry {
	return &Registry{l: l, status: status, online: make(map[string]string)}
}

// Claim marks account as online. A second session for the same account is
// rejected.
func (r *Registry) Claim(ctx context.Context, account string) error {
	r.mu.Lock()
	if _, ok := r.online[account]; ok {
		r.mu.Unlock()
		return ErrAlreadyOnline
	}
	r.online[account] = ""
	r.mu.Unlock()

	if err := r.status.SetOnline(ctx, account, true); err != nil {
		r.l.WithError(err).Warnf("Unable to mark account [%s] online.", account)
	}
	return nil
}

func (r *Registry) Release(ctx context.Context, account string) {
	r.mu.Lock()
	_, ok := r.online[account]
	delete(r.online, account)
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := r.status.SetOnline(ctx, account, false); err != nil {
		r.l.WithError(err).Warnf("Unable to mark account [%s] offline.", account)
	}
}

// Play records the character an online account entered the world with.
func (r *Registry) Play(account, character string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.online[account]; ok {
		r.online[account] = character
	}
}

// Character returns the character account is playing, if any.
func (r *Registry) Character(account string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.online[account]
	return c, ok && c != ""
}

func (r *Registry) Online() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.online)
}

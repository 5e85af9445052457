package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . Store

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// Account is a login identity. A single account may own several characters.
type Account struct {
	Name         string
	PasswordHash string
	Online       bool
	CreatedAt    time.Time
}

// Store persists accounts and characters. Save is an idempotent overwrite.
type Store interface {
	CreateAccount(ctx context.Context, name, passwordHash string) error
	Account(ctx context.Context, name string) (Account, error)
	SetOnline(ctx context.Context, account string, online bool) error
	Characters(ctx context.Context, account string) ([]Summary, error)
	CreateCharacter(ctx context.Context, snap CharacterSnapshot) error
	Load(ctx context.Context, account, name string) (CharacterSnapshot, error)
	Save(ctx context.Context, snap CharacterSnapshot) error
}

func encode(snap CharacterSnapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func decode(raw []byte) (CharacterSnapshot, error) {
	var snap CharacterSnapshot
	err := json.Unmarshal(raw, &snap)
	return snap, err
}

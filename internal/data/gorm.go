package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountEntity struct {
	Name         string `gorm:"primaryKey"`
	PasswordHash string `gorm:"not null"`
	Online       bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

func (accountEntity) TableName() string { return "accounts" }

type characterEntity struct {
	Name      string `gorm:"primaryKey"`
	Account   string `gorm:"not null;index"`
	Class     string `gorm:"not null"`
	Level     int    `gorm:"not null"`
	Payload   []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (characterEntity) TableName() string { return "characters" }

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&accountEntity{}, &characterEntity{})
}

// GormStore is the embedded backend used with sqlite.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := Migration(db); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateAccount(ctx context.Context, name, passwordHash string) error {
	e := &accountEntity{Name: name, PasswordHash: passwordHash}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", name, ErrExists)
	}
	return nil
}

func (s *GormStore) Account(ctx context.Context, name string) (Account, error) {
	var e accountEntity
	err := s.db.WithContext(ctx).Where(&accountEntity{Name: name}).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, fmt.Errorf("account %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return Account{}, err
	}
	return Account{Name: e.Name, PasswordHash: e.PasswordHash, Online: e.Online, CreatedAt: e.CreatedAt}, nil
}

func (s *GormStore) SetOnline(ctx context.Context, account string, online bool) error {
	return s.db.WithContext(ctx).Model(&accountEntity{}).Where("name = ?", account).Update("online", online).Error
}

func (s *GormStore) Characters(ctx context.Context, account string) ([]Summary, error) {
	var es []characterEntity
	err := s.db.WithContext(ctx).Where("account = ?", account).Order("name").Find(&es).Error
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(es))
	for _, e := range es {
		out = append(out, Summary{Name: e.Name, Class: e.Class, Level: e.Level})
	}
	return out, nil
}

func (s *GormStore) CreateCharacter(ctx context.Context, snap CharacterSnapshot) error {
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	e := &characterEntity{Name: snap.Name, Account: snap.Account, Class: snap.Class, Level: snap.Level, Payload: payload}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("character %s: %w", snap.Name, ErrExists)
	}
	return nil
}

func (s *GormStore) Load(ctx context.Context, account, name string) (CharacterSnapshot, error) {
	var e characterEntity
	err := s.db.WithContext(ctx).Where("account = ? AND name = ?", account, name).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CharacterSnapshot{}, fmt.Errorf("character %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return CharacterSnapshot{}, err
	}
	return decode(e.Payload)
}

func (s *GormStore) Save(ctx context.Context, snap CharacterSnapshot) error {
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	e := &characterEntity{Name: snap.Name, Account: snap.Account, Class: snap.Class, Level: snap.Level, Payload: payload}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"level", "payload", "updated_at"}),
	}).Create(e).Error
}

// Package auth owns account credentials: registration, password checks and
// the session tokens handed out by the login handshake.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"realm/internal/data"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	maxNameLength     = 16
	minPasswordLength = 4
)

// Accounts is the part of the persistence layer auth needs.
type Accounts interface {
	CreateAccount(ctx context.Context, name, passwordHash string) error
	Account(ctx context.Context, name string) (data.Account, error)
}

type Service struct {
	l        logrus.FieldLogger
	accounts Accounts
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

func NewService(l logrus.FieldLogger, accounts Accounts, secret string, ttl time.Duration) *Service {
	return &Service{
		l:        l,
		accounts: accounts,
		secret:   []byte(secret),
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// ValidName reports whether name is usable as an account or character name.
func ValidName(name string) bool {
	if name == "" || len(name) > maxNameLength {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

func (s *Service) Register(ctx context.Context, name, password string) error {
	if !ValidName(name) || len(password) < minPasswordLength {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	err = s.accounts.CreateAccount(ctx, name, string(hash))
	if errors.Is(err, data.ErrExists) {
		return fmt.Errorf("%s: %w", name, ErrAccountExists)
	}
	return err
}

// Authenticate checks a password. Unknown accounts and wrong passwords are
// reported the same way.
func (s *Service) Authenticate(ctx context.Context, name, password string) error {
	a, err := s.accounts.Account(ctx, name)
	if errors.Is(err, data.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Issue signs a token that lets account log in again without a password.
func (s *Service) Issue(account string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   account,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the account a token was issued for.
func (s *Service) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

type registerRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type registerResponse struct {
	Account string `json:"account"`
	Token   string `json:"token"`
}

// RegisterHandler creates an account and answers with a login token.
func (s *Service) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Account)

	err := s.Register(r.Context(), name, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, "invalid account or password", http.StatusBadRequest)
		return
	case errors.Is(err, ErrAccountExists):
		http.Error(w, "account already exists", http.StatusConflict)
		return
	case err != nil:
		s.l.WithError(err).Errorf("Unable to register account [%s].", name)
		http.Error(w, "failed to create account", http.StatusInternalServerError)
		return
	}

	token, err := s.Issue(name)
	if err != nil {
		s.l.WithError(err).Errorf("Unable to issue token for [%s].", name)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	s.l.WithField("account", name).Infof("Account [%s] registered.", name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(registerResponse{Account: name, Token: token})
}

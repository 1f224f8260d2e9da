// Package verify implements the email-possession verification flow: a
// one-time code is delivered out of band, and a confirmed code yields a
// short-lived proof token that destructive ledger operations require.
package verify

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrUnknownChallenge = errors.New("unknown or expired verification challenge")
	ErrCodeMismatch     = errors.New("verification code does not match")
)

// Sender delivers a one-time code to an email address.
type Sender interface {
	Send(ctx context.Context, email, code string) error
}

// challenge is one pending code. The code itself is never stored, only its
// bcrypt hash.
type challenge struct {
	email     string
	codeHash  []byte
	expiresAt time.Time
}

// Service issues and confirms verification challenges. A failed confirm
// keeps the challenge alive so the user can retry the same code entry;
// expiry or a successful confirm removes it.
type Service struct {
	sender Sender
	tokens *TokenManager
	ttl    time.Duration

	mu         sync.Mutex
	challenges map[string]*challenge
}

// NewService creates a verification service. ttl bounds how long an issued
// code stays confirmable.
func NewService(sender Sender, tokens *TokenManager, ttl time.Duration) *Service {
	return &Service{
		sender:     sender,
		tokens:     tokens,
		ttl:        ttl,
		challenges: make(map[string]*challenge),
	}
}

// Begin generates a 6-digit code, delivers it to the email, and returns the
// challenge ID. Nothing is recorded when delivery fails, so a send error
// leaves no half-open challenge behind.
func (s *Service) Begin(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return "", ErrInvalidEmail
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	if err := s.sender.Send(ctx, email, code); err != nil {
		return "", fmt.Errorf("failed to send verification code: %w", err)
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.challenges[id] = &challenge{
		email:     email,
		codeHash:  hash,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	return id, nil
}

// Confirm checks the code against a pending challenge. On success the
// challenge is consumed and a proof token carrying the verified email is
// returned. A wrong code returns ErrCodeMismatch and keeps the challenge
// for a manual retry.
func (s *Service) Confirm(id, code string) (token, email string, err error) {
	s.mu.Lock()
	ch, ok := s.challenges[id]
	if ok && time.Now().After(ch.expiresAt) {
		delete(s.challenges, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return "", "", ErrUnknownChallenge
	}

	if bcrypt.CompareHashAndPassword(ch.codeHash, []byte(code)) != nil {
		return "", "", ErrCodeMismatch
	}

	s.mu.Lock()
	delete(s.challenges, id)
	s.mu.Unlock()

	token, err = s.tokens.Generate(ch.email)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate proof token: %w", err)
	}
	return token, ch.email, nil
}

// generateCode produces a 6-digit numeric code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

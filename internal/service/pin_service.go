package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"teamvault/internal/platform/crypto"
	"teamvault/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// PinService defines the business logic of the vault PIN gate. The PIN is a
// secondary, low-entropy secret gating the vault screens on the client; any
// "unlocked" state lives on the caller's side only, and every other vault
// operation re-checks identity and permission independently of it.
type PinService interface {
	HasPin(ctx context.Context, userID bson.ObjectID) (bool, error)
	SetPin(ctx context.Context, userID bson.ObjectID, pin string) error
	VerifyPin(ctx context.Context, userID bson.ObjectID, pin string) (bool, error)
	UpdatePin(ctx context.Context, userID bson.ObjectID, oldPin, newPin string) error
}

// pinService is the concrete implementation of the PinService interface.
type pinService struct {
	pins     store.PinStore
	hasher   crypto.PinHasher
	attempts *attemptLimiter
	logger   *zap.Logger
}

// NewPinService creates a new instance of the PIN service. attemptsPerMin and
// burst bound how fast a single user may try PINs; a short numeric PIN cannot
// survive unthrottled guessing.
func NewPinService(pins store.PinStore, hasher crypto.PinHasher, attemptsPerMin float64, burst int, logger *zap.Logger) PinService {
	return &pinService{
		pins:     pins,
		hasher:   hasher,
		attempts: newAttemptLimiter(rate.Limit(attemptsPerMin/60), burst, 30*time.Minute),
		logger:   logger,
	}
}

// HasPin reports whether the user has set a vault PIN.
func (s *pinService) HasPin(ctx context.Context, userID bson.ObjectID) (bool, error) {
	_, err := s.pins.GetHash(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up pin: %w", err)
	}
	return true, nil
}

// SetPin stores the initial PIN for a user. Replacing an existing PIN goes
// through UpdatePin, which demands the old one.
func (s *pinService) SetPin(ctx context.Context, userID bson.ObjectID, pin string) error {
	if _, err := s.pins.GetHash(ctx, userID); err == nil {
		return store.ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up pin: %w", err)
	}

	hash, err := s.hasher.Hash(pin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	if err := s.pins.SetHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to store pin hash: %w", err)
	}
	return nil
}

// VerifyPin checks a PIN against the stored hash. It returns false both for a
// wrong PIN and for a user who never set one; the hash itself never leaves
// this package. Attempts are rate limited per user.
func (s *pinService) VerifyPin(ctx context.Context, userID bson.ObjectID, pin string) (bool, error) {
	if !s.attempts.allow(userID.Hex()) {
		s.logger.Warn("pin attempt rate exceeded", zap.String("user", userID.Hex()))
		return false, ErrPinLocked
	}

	hash, err := s.pins.GetHash(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up pin: %w", err)
	}

	return s.hasher.Compare(hash, pin) == nil, nil
}

// UpdatePin replaces the user's PIN after verifying the old one. A wrong old
// PIN fails with ErrInvalidPin and counts against the attempt limit.
func (s *pinService) UpdatePin(ctx context.Context, userID bson.ObjectID, oldPin, newPin string) error {
	if !s.attempts.allow(userID.Hex()) {
		s.logger.Warn("pin attempt rate exceeded", zap.String("user", userID.Hex()))
		return ErrPinLocked
	}

	hash, err := s.pins.GetHash(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to look up pin: %w", err)
	}

	if s.hasher.Compare(hash, oldPin) != nil {
		return ErrInvalidPin
	}

	newHash, err := s.hasher.Hash(newPin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}
	if err := s.pins.SetHash(ctx, userID, newHash); err != nil {
		return fmt.Errorf("failed to store pin hash: %w", err)
	}
	return nil
}

// attemptLimiter keeps a token-bucket limiter per key and evicts entries that
// have not been seen for a while.
type attemptLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	entries map[string]*attemptBucket
}

type attemptBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newAttemptLimiter(limit rate.Limit, burst int, ttl time.Duration) *attemptLimiter {
	return &attemptLimiter{
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		entries: make(map[string]*attemptBucket),
	}
}

func (m *attemptLimiter) allow(key string) bool {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.entries[key]
	if b == nil {
		b = &attemptBucket{lim: rate.NewLimiter(m.limit, m.burst), lastSeen: now}
		m.entries[key] = b
	}
	b.lastSeen = now

	for k, v := range m.entries {
		if now.Sub(v.lastSeen) > m.ttl {
			delete(m.entries, k)
		}
	}
	return b.lim.Allow()
}

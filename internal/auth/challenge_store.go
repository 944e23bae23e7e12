package auth

import (
	"context"
	"strings"
	"time"

	"authcodelab/internal/cache"
)

const (
	loginChallengeKeyPrefix = "2fa_login:"
	// LoginChallengeTTL bounds the gap between the password step and the
	// second factor.
	LoginChallengeTTL = 5 * time.Minute
)

// ChallengeStoreInterface defines the pending second-factor login store.
type ChallengeStoreInterface interface {
	Open(ctx context.Context, email string) error
	Consume(ctx context.Context, email string) (bool, error)
}

// ChallengeStore records that a user passed the password step and may now
// present a TOTP or backup code. Entries live in Redis.
type ChallengeStore struct {
	cache *cache.Client
	ttl   time.Duration
}

// Ensure ChallengeStore implements ChallengeStoreInterface.
var _ ChallengeStoreInterface = (*ChallengeStore)(nil)

// NewChallengeStore creates a new challenge store.
func NewChallengeStore(cache *cache.Client) *ChallengeStore {
	return &ChallengeStore{cache: cache, ttl: LoginChallengeTTL}
}

// Open starts (or restarts) the challenge window for email.
func (s *ChallengeStore) Open(ctx context.Context, email string) error {
	return s.cache.Set(ctx, challengeKey(email), []byte("1"), s.ttl)
}

// Consume closes the challenge, reporting whether one was open.
func (s *ChallengeStore) Consume(ctx context.Context, email string) (bool, error) {
	data, err := s.cache.Take(ctx, challengeKey(email))
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

func challengeKey(email string) string {
	return loginChallengeKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

package user

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// PasswordHasher defines the hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(ctx context.Context, pw string) (string, error)
	Verify(ctx context.Context, hash, pw string) bool
}

// DefaultBcryptCost matches the work factor existing digests were created with.
const DefaultBcryptCost = 10

// BcryptHasher implementation. Concurrent hash/verify calls are bounded so
// bursts of logins cannot occupy every CPU.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewBcryptHasher returns a hasher with the given cost and at most workers
// concurrent operations. Zero values select DefaultBcryptCost and GOMAXPROCS.
func NewBcryptHasher(cost, workers int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &BcryptHasher{cost: cost, sem: semaphore.NewWeighted(int64(workers))}, nil
}

func (b *BcryptHasher) Hash(ctx context.Context, pw string) (string, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash worker: %w", err)
	}
	defer b.sem.Release(1)
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}

// Verify reports whether pw matches hash. Malformed digests and cancelled
// contexts yield false.
func (b *BcryptHasher) Verify(ctx context.Context, hash, pw string) bool {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer b.sem.Release(1)
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

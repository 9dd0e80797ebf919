package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ResetTokenBytes is the amount of randomness in a reset token.
const ResetTokenBytes = 32

// Hasher computes bcrypt hashes on a bounded number of goroutines at a
// time, so a burst of signups queues up instead of saturating every CPU.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

func NewHasher(cost, workers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers < 1 {
		workers = 1
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(workers))}
}

func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for hash worker: %w", err)
	}
	defer h.sem.Release(1)

	plain := []byte(password)
	defer common.WipeByteArray(plain)

	hash, err := bcrypt.GenerateFromPassword(plain, h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether password matches hash. A mismatch is not an
// error; a malformed hash is.
func (h *Hasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("wait for hash worker: %w", err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

// NewResetToken returns a raw reset token for out-of-band delivery and
// the digest that is the only form ever stored.
func NewResetToken() (raw, digest string, err error) {
	raw, err = common.MakeRandHexString(ResetTokenBytes)
	if err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	return raw, HashResetToken(raw), nil
}

// HashResetToken is SHA-256, hex encoded. Reset tokens carry 256 bits of
// randomness, so an unsalted fast hash is sufficient here.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

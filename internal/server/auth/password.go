package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ThanhLuuv/user-management-backend/internal/cryptox"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hashing algorithms understood by Hasher.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// dummyPassword feeds the decoy verification used when an account is absent.
const dummyPassword = "not-a-real-password"

// Hasher produces and checks slow salted password digests. At most
// concurrency hashes run at once; further callers wait on the semaphore and
// give up when their context is done.
//
// New digests use the configured algorithm. Verification picks the
// algorithm from the digest itself, so bcrypt and argon2id digests can live
// side by side in one store.
type Hasher struct {
	algorithm  string
	bcryptCost int
	argon2     cryptox.Argon2Params
	sem        *semaphore.Weighted

	dummyOnce   sync.Once
	dummyDigest string
}

func NewHasher(algorithm string, bcryptCost, concurrency int) *Hasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Hasher{
		algorithm:  algorithm,
		bcryptCost: bcryptCost,
		argon2:     cryptox.DefaultArgon2Params,
		sem:        semaphore.NewWeighted(int64(concurrency)),
	}
}

// WithArgon2Params overrides the argon2id costs for new digests.
func (h *Hasher) WithArgon2Params(p cryptox.Argon2Params) *Hasher {
	h.argon2 = p
	return h
}

// Hash returns a digest of plaintext. The digest embeds its own salt and cost.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	switch h.algorithm {
	case AlgorithmBcrypt:
		b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(b), nil
	case AlgorithmArgon2id:
		return cryptox.HashArgon2id([]byte(plaintext), h.argon2)
	default:
		return "", fmt.Errorf("unsupported password algorithm %q", h.algorithm)
	}
}

// Verify reports whether plaintext matches digest. Any mismatch, malformed
// digest or cancelled context yields false.
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	switch {
	case cryptox.IsArgon2id(digest):
		ok, err := cryptox.VerifyArgon2id([]byte(plaintext), digest)
		return err == nil && ok
	case strings.HasPrefix(digest, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	default:
		return false
	}
}

// VerifyDummy spends the same effort as Verify against a throwaway digest
// and always returns false. Login calls it for unknown emails.
func (h *Hasher) VerifyDummy(ctx context.Context, plaintext string) bool {
	h.dummyOnce.Do(func() {
		h.dummyDigest, _ = h.Hash(context.Background(), dummyPassword)
	})
	_ = h.Verify(ctx, plaintext, h.dummyDigest)
	return false
}

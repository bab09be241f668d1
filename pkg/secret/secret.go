// Package secret implements the shared-secret gate guarding anonymous
// mutations of places, comments and parties.
//
// The default scheme is unsalted SHA-256 rendered as lowercase hex. It only
// keeps casual strangers out and is not a security boundary. It is kept
// because every stored digest was produced with it.
package secret

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

type Gate interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// New returns the gate for a configured scheme name.
func New(scheme string) (Gate, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemeSHA256:
		return SHA256Gate{}, nil
	case SchemeBcrypt:
		return BcryptGate{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown secret scheme %q", scheme)
	}
}

type SHA256Gate struct{}

func (SHA256Gate) Hash(plain string) (string, error) {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:]), nil
}

func (g SHA256Gate) Verify(plain, digest string) bool {
	h, _ := g.Hash(plain)
	return h == digest
}

// BcryptGate is not compatible with digests written by SHA256Gate.
type BcryptGate struct {
	Cost int
}

func (g BcryptGate) Hash(plain string) (string, error) {
	cost := g.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(b), nil
}

func (BcryptGate) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

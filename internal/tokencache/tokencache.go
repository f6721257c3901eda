// Package tokencache maps opaque bearer tokens to user identity with a
// fixed time-to-live. Tokens have no refresh mechanism; once expired or
// revoked they are gone for good.
package tokencache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"github.com/veridianlabs/sessiond/internal/models"
)

// ErrTokenNotFound covers both unknown and expired tokens; the two cases are
// deliberately indistinguishable to callers.
var ErrTokenNotFound = errors.New("token not found")

// Store is the shared token cache accessed concurrently by all request
// handlers. Implementations must be safe for concurrent use.
type Store interface {
	// Issue generates a fresh opaque token for the user and records the
	// association with the store's TTL.
	Issue(user *models.User) (string, error)
	// Lookup resolves a token to the identity captured at issuance.
	// Returns ErrTokenNotFound for unknown and expired tokens alike.
	Lookup(token string) (*models.User, error)
	// Revoke drops a single token immediately (logout).
	Revoke(token string) error
	// RevokeUser drops every live token issued to the user (mass session
	// invalidation after a uniquifier reset).
	RevokeUser(userID uint) error
	// Stop terminates background eviction. The store is unusable after.
	Stop()
}

// newToken returns a 128-bit random token encoded as 32 hex characters.
func newToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// digest is the value persisted by database-backed stores so that a leaked
// table does not leak usable bearer tokens.
func digest(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

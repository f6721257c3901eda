package tokencache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridianlabs/sessiond/internal/models"
)

func newTestMemoryStore(t *testing.T, ttl time.Duration) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(ttl)
	t.Cleanup(s.Stop)
	return s
}

func TestMemoryIssueAndLookup(t *testing.T) {
	s := newTestMemoryStore(t, time.Hour)
	user := &models.User{ID: 1, Email: "alice@example.com", Active: true}

	token, err := s.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := s.Lookup(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, uint(1), got.ID)
}

func TestMemoryLookupUnknownToken(t *testing.T) {
	s := newTestMemoryStore(t, time.Hour)

	_, err := s.Lookup("not-a-real-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryTokensAreUnique(t *testing.T) {
	s := newTestMemoryStore(t, time.Hour)
	user := &models.User{ID: 1, Email: "alice@example.com"}

	t1, err := s.Issue(user)
	require.NoError(t, err)
	t2, err := s.Issue(user)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestMemoryExpiry(t *testing.T) {
	s := newTestMemoryStore(t, time.Hour)
	user := &models.User{ID: 1, Email: "alice@example.com"}

	token, err := s.Issue(user)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = s.Lookup(token)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// Expired entries are also dropped from the map.
	s.mu.RLock()
	_, ok := s.entries[token]
	s.mu.RUnlock()
	assert.False(t, ok)
}

func TestMemoryRevoke(t *testing.T) {
	s := newTestMemoryStore(t, time.Hour)
	user := &models.User{ID: 1, Email: "alice@example.com"}

	token, err := s.Issue(user)
	require.NoError(t, err)

	require.NoError(t, s.Revoke(token))
	_, err = s.Lookup(token)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// Revoking again is a no-op.
	require.NoError(t, s.Revoke(token))
}

func TestMemoryRevokeUser(t *testing.T) {
	s := newTestMemoryStore(t, time.Hour)
	alice := &models.User{ID: 1, Email: "alice@example.com"}
	bob := &models.User{ID: 2, Email: "bob@example.com"}

	a1, err := s.Issue(alice)
	require.NoError(t, err)
	a2, err := s.Issue(alice)
	require.NoError(t, err)
	b1, err := s.Issue(bob)
	require.NoError(t, err)

	require.NoError(t, s.RevokeUser(alice.ID))

	_, err = s.Lookup(a1)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = s.Lookup(a2)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	got, err := s.Lookup(b1)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)
}

func TestMemorySweep(t *testing.T) {
	s := newTestMemoryStore(t, time.Hour)
	user := &models.User{ID: 1, Email: "alice@example.com"}

	_, err := s.Issue(user)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	s.sweep()

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.entries)
	assert.Empty(t, s.byUser)
}

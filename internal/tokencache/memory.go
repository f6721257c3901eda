package tokencache

import (
	"sync"
	"time"

	"github.com/veridianlabs/sessiond/internal/models"
)

type memoryEntry struct {
	user      models.User
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded in-process token cache. Expired entries are
// rejected on lookup and swept by a janitor goroutine; the two mechanisms
// are externally indistinguishable. Suitable for single-instance
// deployments; horizontally scaled deployments should use DatabaseStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	byUser  map[uint]map[string]struct{}

	ttl  time.Duration
	now  func() time.Time
	done chan struct{}
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		byUser:  make(map[uint]map[string]struct{}),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Issue(user *models.User) (string, error) {
	token := newToken()
	s.mu.Lock()
	s.entries[token] = memoryEntry{user: *user, expiresAt: s.now().Add(s.ttl)}
	if s.byUser[user.ID] == nil {
		s.byUser[user.ID] = make(map[string]struct{})
	}
	s.byUser[user.ID][token] = struct{}{}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Lookup(token string) (*models.User, error) {
	s.mu.RLock()
	entry, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrTokenNotFound
	}
	if s.now().After(entry.expiresAt) {
		// Lazy eviction; the janitor would catch it eventually.
		s.Revoke(token)
		return nil, ErrTokenNotFound
	}
	user := entry.user
	return &user, nil
}

func (s *MemoryStore) Revoke(token string) error {
	s.mu.Lock()
	s.remove(token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RevokeUser(userID uint) error {
	s.mu.Lock()
	for token := range s.byUser[userID] {
		s.remove(token)
	}
	s.mu.Unlock()
	return nil
}

// remove expects s.mu to be held.
func (s *MemoryStore) remove(token string) {
	entry, ok := s.entries[token]
	if !ok {
		return
	}
	delete(s.entries, token)
	if tokens := s.byUser[entry.user.ID]; tokens != nil {
		delete(tokens, token)
		if len(tokens) == 0 {
			delete(s.byUser, entry.user.ID)
		}
	}
}

func (s *MemoryStore) Stop() {
	close(s.done)
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.mu.Lock()
	for token, entry := range s.entries {
		if now.After(entry.expiresAt) {
			s.remove(token)
		}
	}
	s.mu.Unlock()
}

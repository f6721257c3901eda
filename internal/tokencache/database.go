package tokencache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/veridianlabs/sessiond/internal/models"
	"gorm.io/gorm"
)

// DatabaseStore persists token entries in the shared database so that every
// service instance sees the same sessions. Rows hold a SHA-256 digest of the
// token plus an identity snapshot taken at issuance.
type DatabaseStore struct {
	db   *gorm.DB
	ttl  time.Duration
	now  func() time.Time
	done chan struct{}
}

func NewDatabaseStore(db *gorm.DB, ttl time.Duration) *DatabaseStore {
	s := &DatabaseStore{
		db:   db,
		ttl:  ttl,
		now:  time.Now,
		done: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *DatabaseStore) Issue(user *models.User) (string, error) {
	token := newToken()
	record := models.SessionToken{
		ID:         uuid.New(),
		TokenHash:  digest(token),
		UserID:     user.ID,
		Email:      user.Email,
		Uniquifier: user.Uniquifier,
		ExpiresAt:  s.now().Add(s.ttl),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("store session token: %w", err)
	}
	return token, nil
}

func (s *DatabaseStore) Lookup(token string) (*models.User, error) {
	var record models.SessionToken
	err := s.db.Where("token_hash = ? AND expires_at > ?", digest(token), s.now()).
		First(&record).Error
	if err != nil {
		return nil, ErrTokenNotFound
	}
	return &models.User{
		ID:         record.UserID,
		Email:      record.Email,
		Uniquifier: record.Uniquifier,
		Active:     true,
	}, nil
}

func (s *DatabaseStore) Revoke(token string) error {
	return s.db.Where("token_hash = ?", digest(token)).
		Delete(&models.SessionToken{}).Error
}

func (s *DatabaseStore) RevokeUser(userID uint) error {
	return s.db.Where("user_id = ?", userID).
		Delete(&models.SessionToken{}).Error
}

func (s *DatabaseStore) Stop() {
	close(s.done)
}

// sweepLoop deletes expired rows periodically. Lookup already excludes them,
// so the sweep only reclaims space.
func (s *DatabaseStore) sweepLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			result := s.db.Where("expires_at < ?", s.now()).Delete(&models.SessionToken{})
			if result.Error != nil {
				slog.Error("session token sweep failed", "error", result.Error)
			} else if result.RowsAffected > 0 {
				slog.Info("session token sweep completed", "deleted", result.RowsAffected)
			}
		case <-s.done:
			return
		}
	}
}

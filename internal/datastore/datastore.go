// Package datastore provides the abstracted user store. Reads go straight
// to the database. Mutations are staged on a request-scoped Session and
// become durable and visible only when that session's Commit flushes its
// queue in a single transaction; an abandoned session leaves no trace.
package datastore

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/veridianlabs/sessiond/internal/credential"
	"github.com/veridianlabs/sessiond/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates no user matches the given identifier.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateUser indicates the email is already registered. The
	// unique index on users.email is the final authority; Commit returns
	// this when two registrations race past the pre-check.
	ErrDuplicateUser = errors.New("user already exists")
)

type opKind int

const (
	opPut opKind = iota
	opDelete
)

type stagedOp struct {
	kind   opKind
	record any
}

// UserStore manages account records on top of GORM. The store itself is
// safe for concurrent use; mutations go through per-request Sessions.
type UserStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Session opens a unit of work with its own staged-mutation queue. Each
// request gets its own session, so commits and rollbacks never touch
// another request's staged ops.
func (s *UserStore) Session() *Session {
	return &Session{store: s}
}

// FindByEmail returns the user with the exact stored email. No case
// normalization is applied; callers normalize before lookup if they want it.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns the user with the given primary key. The store is
// numerically keyed, so identifiers that cannot be interpreted as a
// non-negative integer (UUIDs, arbitrary strings) miss without touching the
// database.
func (s *UserStore) FindByID(ctx context.Context, id any) (*models.User, error) {
	key, ok := numericKey(id)
	if !ok {
		return nil, ErrNotFound
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// numericKey coerces the supported identifier types to the store's uint key.
// Values that do not fit the platform's uint are rejected, not truncated.
func numericKey(id any) (uint, bool) {
	switch v := id.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case int64:
		if v < 0 || uint64(v) != uint64(uint(v)) {
			return 0, false
		}
		return uint(v), true
	case uint64:
		if uint64(uint(v)) != v {
			return 0, false
		}
		return uint(v), true
	case string:
		n, err := strconv.ParseUint(v, 10, strconv.IntSize)
		if err != nil {
			return 0, false
		}
		return uint(n), true
	case uuid.UUID:
		// UUID identifiers never match a numeric key.
		return 0, false
	default:
		return 0, false
	}
}

// UnifiedSignInSecrets decodes the JSON-encoded method->secret map.
func (s *UserStore) UnifiedSignInSecrets(user *models.User) (map[string]string, error) {
	if len(user.USTOTPSecrets) == 0 {
		return map[string]string{}, nil
	}
	secrets := map[string]string{}
	if err := json.Unmarshal(user.USTOTPSecrets, &secrets); err != nil {
		return nil, fmt.Errorf("decode unified sign-in secrets: %w", err)
	}
	return secrets, nil
}

// Available probes the backing store with a trivial query. Used by the
// health endpoint.
func (s *UserStore) Available(ctx context.Context) (bool, string) {
	if err := s.db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return false, err.Error()
	}
	return true, "database OK"
}

// Session is a request-scoped unit of work. Staged mutations are invisible
// to every reader until Commit, which flushes them in one transaction.
// Sessions from different requests are fully independent; a single session
// is meant for one request and is guarded for incidental concurrent use.
type Session struct {
	store *UserStore

	mu      sync.Mutex
	pending []stagedOp
}

// FindByEmail reads through to the store; staged mutations are not visible.
func (s *Session) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.FindByEmail(ctx, email)
}

// FindByID reads through to the store; staged mutations are not visible.
func (s *Session) FindByID(ctx context.Context, id any) (*models.User, error) {
	return s.store.FindByID(ctx, id)
}

// Create builds a new active user with a hashed password and a fresh
// uniquifier, and stages the insert. The caller must Commit. The record's ID
// is assigned by the database during Commit.
func (s *Session) Create(ctx context.Context, email, plaintext string) (*models.User, error) {
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := credential.Hash(plaintext)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Uniquifier:   newUniquifier(),
	}
	s.Put(user)
	return user, nil
}

// SetPassword hashes the plaintext and stages the updated record.
func (s *Session) SetPassword(user *models.User, plaintext string) error {
	hash, err := credential.Hash(plaintext)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	s.Put(user)
	return nil
}

// Put stages an insert or update of the record.
func (s *Session) Put(record any) {
	s.stage(stagedOp{kind: opPut, record: record})
}

// Delete stages a removal of the record.
func (s *Session) Delete(record any) {
	s.stage(stagedOp{kind: opDelete, record: record})
}

func (s *Session) stage(op stagedOp) {
	s.mu.Lock()
	s.pending = append(s.pending, op)
	s.mu.Unlock()
}

// Commit flushes this session's staged mutations in one transaction. A
// unique-index violation surfaces as ErrDuplicateUser. On any error the
// transaction rolls back and the queue is discarded, leaving the database
// untouched. Other sessions are unaffected either way.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	ops := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	err := s.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			switch op.kind {
			case opPut:
				if err := tx.Save(op.record).Error; err != nil {
					return err
				}
			case opDelete:
				if err := tx.Delete(op.record).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("commit staged mutations: %w", err)
	}
	return nil
}

// ToggleActive flips the user's active flag. Always returns true.
func (s *Session) ToggleActive(user *models.User) bool {
	user.Active = !user.Active
	s.Put(user)
	return true
}

// Deactivate marks the user inactive. Returns true iff a change was staged.
// An inactive user cannot log in even with correct credentials.
func (s *Session) Deactivate(user *models.User) bool {
	if !user.Active {
		return false
	}
	user.Active = false
	s.Put(user)
	return true
}

// Activate marks the user active. Returns true iff a change was staged.
func (s *Session) Activate(user *models.User) bool {
	if user.Active {
		return false
	}
	user.Active = true
	s.Put(user)
	return true
}

// ResetUniquifier replaces the user's uniquifier, logically revoking every
// token issued against the old value. With no arguments a fresh random value
// is generated. Token stores must be purged separately; see
// services.AuthService.ResetUserAccess for the full wiring.
func (s *Session) ResetUniquifier(user *models.User, value ...string) {
	if len(value) > 0 && value[0] != "" {
		user.Uniquifier = value[0]
	} else {
		user.Uniquifier = newUniquifier()
	}
	s.Put(user)
}

// SetTwoFactor writes two-factor enrollment data, staging the record only if
// something actually changed. Empty secret or phone leaves the existing
// value alone.
func (s *Session) SetTwoFactor(user *models.User, primaryMethod, totpSecret, phone string) {
	changed := false
	if user.TFPrimaryMethod == nil || *user.TFPrimaryMethod != primaryMethod {
		user.TFPrimaryMethod = &primaryMethod
		changed = true
	}
	if totpSecret != "" && (user.TFTOTPSecret == nil || *user.TFTOTPSecret != totpSecret) {
		user.TFTOTPSecret = &totpSecret
		changed = true
	}
	if phone != "" && (user.TFPhoneNumber == nil || *user.TFPhoneNumber != phone) {
		user.TFPhoneNumber = &phone
		changed = true
	}
	if changed {
		s.Put(user)
	}
}

// ResetTwoFactor clears all two-factor enrollment data.
func (s *Session) ResetTwoFactor(user *models.User) {
	user.TFPrimaryMethod = nil
	user.TFTOTPSecret = nil
	user.TFPhoneNumber = nil
	s.Put(user)
}

// SetUnifiedSignIn stores a per-method sign-in secret and, if provided, the
// phone number. Like SetTwoFactor it only stages a write when a value
// changes.
func (s *Session) SetUnifiedSignIn(user *models.User, method, totpSecret, phone string) error {
	changed := false
	if totpSecret != "" {
		secrets, err := s.store.UnifiedSignInSecrets(user)
		if err != nil {
			return err
		}
		if secrets[method] != totpSecret {
			secrets[method] = totpSecret
			encoded, err := json.Marshal(secrets)
			if err != nil {
				return fmt.Errorf("encode unified sign-in secrets: %w", err)
			}
			user.USTOTPSecrets = datatypes.JSON(encoded)
			changed = true
		}
	}
	if phone != "" && (user.USPhoneNumber == nil || *user.USPhoneNumber != phone) {
		user.USPhoneNumber = &phone
		changed = true
	}
	if changed {
		s.Put(user)
	}
	return nil
}

// ResetUnifiedSignIn clears all unified sign-in enrollment data.
func (s *Session) ResetUnifiedSignIn(user *models.User) {
	user.USTOTPSecrets = nil
	user.USPhoneNumber = nil
	s.Put(user)
}

func newUniquifier() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/veridianlabs/sessiond/internal/credential"
	"github.com/veridianlabs/sessiond/internal/datastore"
	"github.com/veridianlabs/sessiond/internal/dto"
	"github.com/veridianlabs/sessiond/internal/models"
	"github.com/veridianlabs/sessiond/internal/tokencache"
)

var (
	ErrUserExists         = errors.New("a user with that email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDoesntExist    = errors.New("user doesn't exist")
)

// AuthService orchestrates login, session checks and registration on top of
// the user store and the token cache. Storage errors never cross this
// boundary raw; they are folded into the sentinel errors above.
type AuthService struct {
	users  *datastore.UserStore
	tokens tokencache.Store
}

func NewAuthService(users *datastore.UserStore, tokens tokencache.Store) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login verifies the credentials and issues a session token. Unknown email,
// wrong password and deactivated account all produce ErrInvalidCredentials
// so callers cannot probe which case occurred.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil || !credential.Verify(user.PasswordHash, password) || !user.Active {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		slog.Error("token issuance failed", "error", err, "user_id", user.ID)
		return "", ErrInvalidCredentials
	}
	return token, nil
}

// Check resolves a session token to the identity it was issued for.
func (s *AuthService) Check(token string) (*dto.Identity, error) {
	user, err := s.tokens.Lookup(token)
	if err != nil {
		return nil, ErrUserDoesntExist
	}
	return &dto.Identity{Email: user.Email}, nil
}

// Register creates a new account and issues its first session token. Each
// call stages its insert on its own datastore session; the pre-check keeps
// the common path cheap and the unique index catches races at commit, so
// exactly one of two concurrent registrations succeeds.
func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return "", ErrUserExists
	}

	sess := s.users.Session()
	user, err := sess.Create(ctx, email, password)
	if err != nil {
		if errors.Is(err, datastore.ErrDuplicateUser) {
			return "", ErrUserExists
		}
		return "", err
	}
	if err := sess.Commit(ctx); err != nil {
		if errors.Is(err, datastore.ErrDuplicateUser) {
			return "", ErrUserExists
		}
		return "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		slog.Error("token issuance failed", "error", err, "user_id", user.ID)
		return "", err
	}
	return token, nil
}

// Logout revokes a single session token. Unknown tokens are a no-op.
func (s *AuthService) Logout(token string) error {
	return s.tokens.Revoke(token)
}

// Deactivate disables the account and revokes its live sessions.
func (s *AuthService) Deactivate(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return ErrUserDoesntExist
	}
	sess := s.users.Session()
	if !sess.Deactivate(user) {
		return nil
	}
	if err := sess.Commit(ctx); err != nil {
		return err
	}
	return s.tokens.RevokeUser(user.ID)
}

// Activate re-enables a previously deactivated account.
func (s *AuthService) Activate(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return ErrUserDoesntExist
	}
	sess := s.users.Session()
	if !sess.Activate(user) {
		return nil
	}
	return sess.Commit(ctx)
}

// ResetUserAccess rotates the uniquifier, clears two-factor and unified
// sign-in secrets, and purges every cached session for the user. Intended
// for account-compromise response.
func (s *AuthService) ResetUserAccess(ctx context.Context, user *models.User) error {
	sess := s.users.Session()
	sess.ResetUniquifier(user)
	sess.ResetTwoFactor(user)
	sess.ResetUnifiedSignIn(user)
	if err := sess.Commit(ctx); err != nil {
		return err
	}
	return s.tokens.RevokeUser(user.ID)
}

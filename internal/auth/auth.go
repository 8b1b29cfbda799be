// Package auth implements credential verification and opaque session
// tokens. Passwords are hashed with bcrypt; sessions are random tokens
// stored server-side with a fixed expiry, delivered via an HttpOnly
// cookie or an Authorization bearer header.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/internal/store"
)

// BcryptCost is the hashing work factor for new passwords.
const BcryptCost = 12

// SessionTTL is the lifetime of a login session.
const SessionTTL = 30 * 24 * time.Hour

// Session is the authenticated caller attached to a request context.
type Session struct {
	Token  string
	UserID string
	Role   string
}

// IsAdmin reports whether the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == store.RoleAdmin
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Service manages login sessions against the store.
type Service struct {
	users    store.Users
	sessions store.Sessions
	now      func() time.Time
}

// NewService returns a Service backed by the given store.
func NewService(users store.Users, sessions store.Sessions) *Service {
	return &Service{users: users, sessions: sessions, now: time.Now}
}

// Login verifies credentials and opens a new session. The error is always
// the same generic UnauthorizedError whether the email is unknown or the
// password is wrong, so responses do not reveal which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*store.User, *store.Session, error) {
	invalid := errors.UnauthorizedError("Invalid email or password")

	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return nil, nil, invalid
	}
	if !CheckPassword(user.Password, password) {
		return nil, nil, invalid
	}

	now := s.now()
	sess := &store.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, nil, errors.InternalError("failed to create session").WithCause(err)
	}
	return user, sess, nil
}

// Logout deletes the session for token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// Authenticate resolves a session token to its user. Expired sessions are
// deleted on sight and reported as not found.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	sess, err := s.sessions.SessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, fmt.Errorf("session expired: %w", store.ErrNotFound)
	}
	user, err := s.users.UserByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, UserID: user.ID, Role: user.Role}, nil
}

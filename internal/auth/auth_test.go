package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	svcerrors "github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.SQLite) {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, db), db
}

func registerUser(t *testing.T, db *store.SQLite, email, password, role string) *store.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	u := &store.User{
		ID: uuid.NewString(), Name: "Test User", Email: email,
		Password: hash, Role: role, CreatedAt: now, UpdatedAt: now,
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "Str0ng!pass" {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword(hash, "Str0ng!pass") {
		t.Error("correct password should verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password must not verify")
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	u := registerUser(t, db, "jane@example.com", "Str0ng!pass", store.RoleUser)

	user, sess, err := svc.Login(ctx, "jane@example.com", "Str0ng!pass")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != u.ID || sess.UserID != u.ID {
		t.Errorf("user = %+v, sess = %+v", user, sess)
	}

	got, err := svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != u.ID || got.Role != store.RoleUser || got.IsAdmin() {
		t.Errorf("session = %+v", got)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	registerUser(t, db, "jane@example.com", "Str0ng!pass", store.RoleUser)

	_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "whatever1!")
	_, _, errWrongPw := svc.Login(ctx, "jane@example.com", "wrongpass1!")

	for _, err := range []error{errUnknown, errWrongPw} {
		se := svcerrors.FromError(err)
		if se.HTTPCode != http.StatusUnauthorized {
			t.Errorf("HTTPCode = %d, want 401", se.HTTPCode)
		}
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Error("login failures must not distinguish unknown email from wrong password")
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	registerUser(t, db, "jane@example.com", "Str0ng!pass", store.RoleUser)

	_, sess, err := svc.Login(ctx, "jane@example.com", "Str0ng!pass")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Authenticate(ctx, sess.Token); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	u := registerUser(t, db, "jane@example.com", "Str0ng!pass", store.RoleUser)

	expired := &store.Session{
		Token: uuid.NewString(), UserID: u.ID,
		ExpiresAt: time.Now().Add(-time.Minute), CreatedAt: time.Now().Add(-time.Hour),
	}
	if err := db.CreateSession(ctx, expired); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Authenticate(ctx, expired.Token); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	// Expired sessions are deleted on sight.
	if _, err := db.SessionByToken(ctx, expired.Token); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired session should be removed, err = %v", err)
	}
}

func TestMiddlewareAttachesSession(t *testing.T) {
	svc, db := newTestService(t)
	registerUser(t, db, "admin@example.com", "Str0ng!pass", store.RoleAdmin)
	_, sess, err := svc.Login(context.Background(), "admin@example.com", "Str0ng!pass")
	if err != nil {
		t.Fatal(err)
	}

	var got *Session
	handler := svc.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	// Cookie token.
	r := httptest.NewRequest("GET", "/api/subscriptions", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.Token})
	handler.ServeHTTP(httptest.NewRecorder(), r)
	if got == nil || !got.IsAdmin() {
		t.Fatalf("session = %+v", got)
	}

	// Bearer token.
	got = nil
	r = httptest.NewRequest("GET", "/api/subscriptions", nil)
	r.Header.Set("Authorization", "Bearer "+sess.Token)
	handler.ServeHTTP(httptest.NewRecorder(), r)
	if got == nil || got.UserID != sess.UserID {
		t.Fatalf("session = %+v", got)
	}

	// Invalid token passes through anonymous.
	got = nil
	r = httptest.NewRequest("GET", "/api/subscriptions", nil)
	r.Header.Set("Authorization", "Bearer nope")
	handler.ServeHTTP(httptest.NewRecorder(), r)
	if got != nil {
		t.Fatalf("expected anonymous, got %+v", got)
	}
}

package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/httpkit"
	"github.com/seacatering/mealsvc/internal/auth"
	"github.com/seacatering/mealsvc/internal/store"
	"github.com/seacatering/mealsvc/validate"
)

// handleRegister creates a new account. Duplicate emails are reported as a
// plain 400 to match the frontend's error handling.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeBody(w, r, "Registration failed. Please try again.")
	if !ok {
		return
	}

	reg, errs := validate.RegistrationData(body)
	if len(errs) > 0 {
		s.validationFailed(w, r, errs)
		return
	}

	ctx := r.Context()
	if _, err := s.store.UserByEmail(ctx, reg.Email); err == nil {
		httpkit.JSONProblem(w, r, errors.ValidationError("Email already registered"))
		return
	} else if !stderrors.Is(err, store.ErrNotFound) {
		httpkit.JSONProblem(w, r, errors.InternalError("Registration failed. Please try again.").WithCause(err))
		return
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Registration failed. Please try again.").WithCause(err))
		return
	}

	now := time.Now().UTC()
	user := &store.User{
		ID:        uuid.NewString(),
		Name:      reg.Name,
		Email:     reg.Email,
		Password:  hash,
		Phone:     reg.Phone,
		Role:      store.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Registration failed. Please try again.").WithCause(err))
		return
	}

	httpkit.JSON(w, r, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user": store.UserRef{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
	})
}

// handleLogin verifies credentials and opens a session, delivered as an
// HttpOnly cookie and echoed in the body for non-browser clients.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decodeBody(w, r, "Login failed. Please try again.")
	if !ok {
		return
	}

	email := bodyString(body, "email")
	password := bodyString(body, "password")
	if email == "" || password == "" {
		httpkit.JSONProblem(w, r, errors.ValidationError("Email and password are required"))
		return
	}

	user, sess, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		httpkit.JSONProblem(w, r, errors.FromError(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})

	httpkit.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   sess.Token,
		"user": map[string]any{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// handleLogout invalidates the caller's session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r, "Unauthorized")
	if !ok {
		return
	}
	if !s.checkCSRF(w, r, sess) {
		return
	}

	if err := s.auth.Logout(r.Context(), sess.Token); err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Logout failed").WithCause(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	httpkit.JSON(w, r, http.StatusOK, map[string]any{"message": "Logged out"})
}

// handleCSRFToken issues an anti-forgery token bound to the caller.
func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r, "Unauthorized")
	if !ok {
		return
	}
	token, err := s.signer.Issue(sess.UserID)
	if err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to generate CSRF token").WithCause(err))
		return
	}
	httpkit.JSON(w, r, http.StatusOK, map[string]any{"csrfToken": token})
}

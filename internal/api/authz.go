package api

import "github.com/seacatering/mealsvc/internal/auth"

// canModify reports whether the session may act on a resource owned by
// ownerID: owners and admins only.
func canModify(sess *auth.Session, ownerID string) bool {
	return sess.IsAdmin() || sess.UserID == ownerID
}

// scopeUserFilter applies list scoping. Admins keep whatever filter they
// requested (empty meaning everything); any other caller is pinned to their
// own user ID, silently overriding a filter naming someone else.
func scopeUserFilter(sess *auth.Session, requested string) string {
	if sess.IsAdmin() {
		return requested
	}
	return sess.UserID
}

package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/httpkit"
	"github.com/seacatering/mealsvc/internal/store"
	"github.com/seacatering/mealsvc/validate"
)

// handleCreateSubscription subscribes the caller to a meal plan. A userId in
// the body naming anyone else is rejected rather than honored.
func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r, "Unauthorized")
	if !ok {
		return
	}
	if !s.allowRate(w, r, s.subCreateLimiter, "subscription:"+sess.UserID,
		"Too many subscription requests. Please try again later.") {
		return
	}
	if !s.checkCSRF(w, r, sess) {
		return
	}

	body, ok := s.decodeBody(w, r, "Failed to create subscription")
	if !ok {
		return
	}

	if target := bodyString(body, "userId"); target != "" && target != sess.UserID {
		httpkit.JSONProblem(w, r, errors.ForbiddenError("You can only create subscriptions for yourself"))
		return
	}

	form, errs := validate.SubscriptionData(body)
	if len(errs) > 0 {
		s.validationFailed(w, r, errs)
		return
	}

	ctx := r.Context()
	if _, err := s.store.MealPlanByID(ctx, form.PlanID); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			httpkit.JSONProblem(w, r, errors.ValidationError("Invalid meal plan selected"))
		} else {
			httpkit.JSONProblem(w, r, errors.InternalError("Failed to create subscription").WithCause(err))
		}
		return
	}

	now := time.Now().UTC()
	sub := &store.Subscription{
		ID:           uuid.NewString(),
		UserID:       sess.UserID,
		PlanID:       form.PlanID,
		MealTypes:    form.MealTypes,
		DeliveryDays: form.DeliveryDays,
		Allergies:    form.Allergies,
		Status:       store.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to create subscription").WithCause(err))
		return
	}

	httpkit.JSON(w, r, http.StatusOK, sub)
}

// handleListSubscriptions lists subscriptions joined with plan and owner.
// Non-admin callers only ever see their own, whatever filter they send.
func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r, "Unauthorized")
	if !ok {
		return
	}

	requested, ok := s.cleanQueryParam(w, r, r.URL.Query().Get("userId"), "Failed to fetch subscriptions")
	if !ok {
		return
	}

	subs, err := s.store.ListSubscriptions(r.Context(), scopeUserFilter(sess, requested))
	if err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to fetch subscriptions").WithCause(err))
		return
	}
	httpkit.JSON(w, r, http.StatusOK, subs)
}

// handleUpdateSubscription modifies an existing subscription. Omitted fields
// keep their stored values; the status, when present, must be one of the
// known lifecycle states.
func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r, "Unauthorized")
	if !ok {
		return
	}
	if !s.allowRate(w, r, s.subUpdateLimiter, "subscription-update:"+sess.UserID,
		"Too many update requests. Please try again later.") {
		return
	}
	if !s.checkCSRF(w, r, sess) {
		return
	}

	body, ok := s.decodeBody(w, r, "Failed to update subscription")
	if !ok {
		return
	}

	subID := bodyString(body, "subscriptionId")
	if subID == "" {
		httpkit.JSONProblem(w, r, errors.ValidationError("Subscription ID is required"))
		return
	}

	ctx := r.Context()
	existing, err := s.store.SubscriptionByID(ctx, subID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			httpkit.JSONProblem(w, r, errors.NotFoundError("Subscription not found"))
		} else {
			httpkit.JSONProblem(w, r, errors.InternalError("Failed to update subscription").WithCause(err))
		}
		return
	}
	if !canModify(sess, existing.UserID) {
		httpkit.JSONProblem(w, r, errors.ForbiddenError("You can only update your own subscriptions"))
		return
	}

	// Reuse the stored plan when the body omits it so partial updates
	// validate against a complete form.
	if _, present := body["planId"]; !present {
		if _, legacy := body["plan"]; !legacy {
			body["planId"] = existing.PlanID
		}
	}
	form, errs := validate.SubscriptionData(body)
	if len(errs) > 0 {
		s.validationFailed(w, r, errs)
		return
	}

	if form.PlanID != existing.PlanID {
		if _, err := s.store.MealPlanByID(ctx, form.PlanID); err != nil {
			if stderrors.Is(err, store.ErrNotFound) {
				httpkit.JSONProblem(w, r, errors.ValidationError("Invalid meal plan selected"))
			} else {
				httpkit.JSONProblem(w, r, errors.InternalError("Failed to update subscription").WithCause(err))
			}
			return
		}
	}

	updated := *existing
	updated.PlanID = form.PlanID
	if form.MealTypes != nil {
		updated.MealTypes = form.MealTypes
	}
	if form.DeliveryDays != nil {
		updated.DeliveryDays = form.DeliveryDays
	}
	if _, present := body["allergies"]; present {
		updated.Allergies = form.Allergies
	}
	if status := bodyString(body, "status"); status != "" {
		switch status {
		case store.StatusActive, store.StatusPaused, store.StatusCancelled:
			updated.Status = status
		default:
			httpkit.JSONProblem(w, r, errors.ValidationError("Invalid subscription status"))
			return
		}
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateSubscription(ctx, &updated); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			httpkit.JSONProblem(w, r, errors.NotFoundError("Subscription not found"))
		} else {
			httpkit.JSONProblem(w, r, errors.InternalError("Failed to update subscription").WithCause(err))
		}
		return
	}
	httpkit.JSON(w, r, http.StatusOK, updated)
}

// handleDeleteSubscription removes a subscription named by the id query
// parameter.
func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r, "Unauthorized")
	if !ok {
		return
	}
	if !s.allowRate(w, r, s.subDeleteLimiter, "subscription-delete:"+sess.UserID,
		"Too many delete requests. Please try again later.") {
		return
	}
	if !s.checkCSRF(w, r, sess) {
		return
	}

	subID := r.URL.Query().Get("id")
	if subID == "" {
		httpkit.JSONProblem(w, r, errors.ValidationError("Subscription ID is required"))
		return
	}
	subID, ok = s.cleanQueryParam(w, r, subID, "Failed to delete subscription")
	if !ok {
		return
	}

	ctx := r.Context()
	existing, err := s.store.SubscriptionByID(ctx, subID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			httpkit.JSONProblem(w, r, errors.NotFoundError("Subscription not found"))
		} else {
			httpkit.JSONProblem(w, r, errors.InternalError("Failed to delete subscription").WithCause(err))
		}
		return
	}
	if !canModify(sess, existing.UserID) {
		httpkit.JSONProblem(w, r, errors.ForbiddenError("You can only delete your own subscriptions"))
		return
	}

	if err := s.store.DeleteSubscription(ctx, subID); err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to delete subscription").WithCause(err))
		return
	}
	httpkit.JSON(w, r, http.StatusOK, map[string]any{"message": "Subscription deleted successfully"})
}

// handleAdminListSubscriptions returns every subscription. Mounted behind
// the admin IP filter; still requires an admin session.
func (s *Server) handleAdminListSubscriptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r, "Unauthorized")
	if !ok {
		return
	}
	if !sess.IsAdmin() {
		httpkit.JSONProblem(w, r, errors.ForbiddenError("Admin access required"))
		return
	}

	subs, err := s.store.ListSubscriptions(r.Context(), "")
	if err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to fetch subscriptions").WithCause(err))
		return
	}
	httpkit.JSON(w, r, http.StatusOK, subs)
}

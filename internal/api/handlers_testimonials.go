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

// handleListTestimonials returns all reviews with display names. Public.
func (s *Server) handleListTestimonials(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListTestimonials(r.Context())
	if err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to fetch testimonials").WithCause(err))
		return
	}
	httpkit.JSON(w, r, http.StatusOK, items)
}

// handleCreateTestimonial records the caller's review of a plan. One review
// per user per plan.
func (s *Server) handleCreateTestimonial(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r, "You must be logged in to submit a testimonial")
	if !ok {
		return
	}
	if !s.allowRate(w, r, s.testimonialLimiter, "testimonial:"+sess.UserID,
		"Too many testimonials submitted. Please try again later.") {
		return
	}
	if !s.checkCSRF(w, r, sess) {
		return
	}

	body, ok := s.decodeBody(w, r, "Failed to create testimonial")
	if !ok {
		return
	}

	form, errs := validate.TestimonialData(body)
	if len(errs) > 0 {
		s.validationFailed(w, r, errs)
		return
	}

	ctx := r.Context()
	if _, err := s.store.TestimonialByUserAndPlan(ctx, sess.UserID, form.MealPlanID); err == nil {
		httpkit.JSONProblem(w, r, errors.ConflictError("You have already submitted a testimonial for this meal plan"))
		return
	} else if !stderrors.Is(err, store.ErrNotFound) {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to create testimonial").WithCause(err))
		return
	}

	plan, err := s.store.MealPlanByID(ctx, form.MealPlanID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			httpkit.JSONProblem(w, r, errors.ValidationError("Invalid meal plan selected"))
		} else {
			httpkit.JSONProblem(w, r, errors.InternalError("Failed to create testimonial").WithCause(err))
		}
		return
	}

	t := &store.Testimonial{
		ID:         uuid.NewString(),
		UserID:     sess.UserID,
		MealPlanID: form.MealPlanID,
		Rating:     form.Rating,
		Message:    form.Message,
		Date:       time.Now().UTC(),
	}
	if err := s.store.CreateTestimonial(ctx, t); err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to create testimonial").WithCause(err))
		return
	}

	user, err := s.store.UserByID(ctx, sess.UserID)
	if err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to create testimonial").WithCause(err))
		return
	}

	httpkit.JSON(w, r, http.StatusOK, store.TestimonialDetail{
		Testimonial:  *t,
		UserName:     user.Name,
		MealPlanName: plan.Name,
	})
}

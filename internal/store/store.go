package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record does not exist. Implementations
// wrap it so callers can test with errors.Is.
var ErrNotFound = errors.New("store: not found")

// Users manages account records.
type Users interface {
	CreateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id string) (*User, error)
}

// MealPlans manages the plan catalog.
type MealPlans interface {
	CreateMealPlan(ctx context.Context, p *MealPlan) error
	MealPlanByID(ctx context.Context, id string) (*MealPlan, error)
	ListMealPlans(ctx context.Context) ([]MealPlan, error)
}

// Subscriptions manages subscription records. ListSubscriptions with an
// empty userID returns every subscription, newest first.
type Subscriptions interface {
	CreateSubscription(ctx context.Context, s *Subscription) error
	SubscriptionByID(ctx context.Context, id string) (*Subscription, error)
	ListSubscriptions(ctx context.Context, userID string) ([]SubscriptionDetail, error)
	UpdateSubscription(ctx context.Context, s *Subscription) error
	DeleteSubscription(ctx context.Context, id string) error
}

// Testimonials manages review records.
type Testimonials interface {
	CreateTestimonial(ctx context.Context, t *Testimonial) error
	TestimonialByUserAndPlan(ctx context.Context, userID, mealPlanID string) (*Testimonial, error)
	ListTestimonials(ctx context.Context) ([]TestimonialDetail, error)
}

// Sessions manages login tokens.
type Sessions interface {
	CreateSession(ctx context.Context, s *Session) error
	SessionByToken(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Store is the full persistence surface the API depends on.
type Store interface {
	Users
	MealPlans
	Subscriptions
	Testimonials
	Sessions

	Ping(ctx context.Context) error
	Close() error
}

// Package store defines the persistence layer: domain models, the Store
// interfaces handlers depend on, and the SQLite implementation.
package store

import "time"

// Subscription lifecycle states.
const (
	StatusActive    = "ACTIVE"
	StatusPaused    = "PAUSED"
	StatusCancelled = "CANCELLED"
)

// User roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is a registered account. Password holds the bcrypt hash and is
// never serialized.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MealPlan is a purchasable catering plan.
type MealPlan struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Calories    int       `json:"calories"`
	Duration    string    `json:"duration"`
	Features    []string  `json:"features"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subscription ties a user to a meal plan with delivery preferences.
type Subscription struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	PlanID       string    `json:"planId"`
	MealTypes    []string  `json:"mealTypes"`
	DeliveryDays []string  `json:"deliveryDays"`
	Allergies    string    `json:"allergies"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Testimonial is a user review of a meal plan. One per user per plan.
type Testimonial struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	MealPlanID string    `json:"mealPlanId"`
	Rating     int       `json:"rating"`
	Message    string    `json:"message"`
	Date       time.Time `json:"date"`
}

// Session is an opaque login token with a fixed expiry.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRef is the user projection embedded in list responses.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MealPlanRef is the meal plan projection embedded in list responses.
type MealPlanRef struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// SubscriptionDetail is a subscription joined with its plan and owner.
type SubscriptionDetail struct {
	Subscription
	MealPlan MealPlanRef `json:"mealPlan"`
	User     UserRef     `json:"user"`
}

// TestimonialDetail is a testimonial joined with display names.
type TestimonialDetail struct {
	Testimonial
	UserName     string `json:"userName"`
	MealPlanName string `json:"mealPlanName"`
}

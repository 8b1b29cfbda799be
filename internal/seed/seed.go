// Package seed loads the embedded fixture data into an empty database:
// the plan catalog, a set of demo accounts, and their testimonials. Running
// it against an already-seeded database is a no-op per record.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/seacatering/mealsvc/internal/auth"
	"github.com/seacatering/mealsvc/internal/store"
	"github.com/seacatering/mealsvc/work"
)

//go:embed fixture.yaml
var fixtureYAML []byte

type fixture struct {
	MealPlans    []planFixture        `yaml:"mealPlans"`
	Users        []userFixture        `yaml:"users"`
	Testimonials []testimonialFixture `yaml:"testimonials"`
}

type planFixture struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       float64  `yaml:"price"`
	Calories    int      `yaml:"calories"`
	Duration    string   `yaml:"duration"`
	Features    []string `yaml:"features"`
}

type userFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Password string `yaml:"password"`
}

type testimonialFixture struct {
	User    string    `yaml:"user"` // email
	Plan    string    `yaml:"plan"` // meal plan name
	Rating  int       `yaml:"rating"`
	Message string    `yaml:"message"`
	Date    time.Time `yaml:"date"`
}

// Run seeds st from the embedded fixture. Plans are matched by name and
// users by email, so existing records are kept rather than duplicated.
// Inserts fan out through a bounded worker pool; bcrypt hashing dominates
// the user pass.
func Run(ctx context.Context, st store.Store, logger *slog.Logger) error {
	var fx fixture
	if err := yaml.Unmarshal(fixtureYAML, &fx); err != nil {
		return fmt.Errorf("seed: parse fixture: %w", err)
	}

	planIDs, err := seedPlans(ctx, st, fx.MealPlans)
	if err != nil {
		return err
	}
	userIDs, err := seedUsers(ctx, st, fx.Users)
	if err != nil {
		return err
	}
	created, err := seedTestimonials(ctx, st, fx.Testimonials, userIDs, planIDs)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "database seeded",
		"plans", len(fx.MealPlans),
		"users", len(fx.Users),
		"testimonials", created,
	)
	return nil
}

func seedPlans(ctx context.Context, st store.Store, plans []planFixture) (map[string]string, error) {
	existing, err := st.ListMealPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed: list meal plans: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, p := range existing {
		byName[p.Name] = p.ID
	}

	ids, err := work.Map(ctx, plans, func(ctx context.Context, p planFixture) (string, error) {
		if id, ok := byName[p.Name]; ok {
			return id, nil
		}
		now := time.Now().UTC()
		rec := &store.MealPlan{
			ID:          uuid.NewString(),
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Calories:    p.Calories,
			Duration:    p.Duration,
			Features:    p.Features,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := st.CreateMealPlan(ctx, rec); err != nil {
			return "", fmt.Errorf("seed: create plan %q: %w", p.Name, err)
		}
		return rec.ID, nil
	}, work.Workers(4))
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(plans))
	for i, p := range plans {
		out[p.Name] = ids[i]
	}
	return out, nil
}

func seedUsers(ctx context.Context, st store.Store, users []userFixture) (map[string]string, error) {
	ids, err := work.Map(ctx, users, func(ctx context.Context, u userFixture) (string, error) {
		if existing, err := st.UserByEmail(ctx, u.Email); err == nil {
			return existing.ID, nil
		}
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return "", fmt.Errorf("seed: hash password for %q: %w", u.Email, err)
		}
		now := time.Now().UTC()
		rec := &store.User{
			ID:        uuid.NewString(),
			Name:      u.Name,
			Email:     u.Email,
			Password:  hash,
			Phone:     u.Phone,
			Role:      store.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := st.CreateUser(ctx, rec); err != nil {
			return "", fmt.Errorf("seed: create user %q: %w", u.Email, err)
		}
		return rec.ID, nil
	}, work.Workers(4))
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(users))
	for i, u := range users {
		out[u.Email] = ids[i]
	}
	return out, nil
}

func seedTestimonials(ctx context.Context, st store.Store, items []testimonialFixture, userIDs, planIDs map[string]string) (int, error) {
	created := 0
	for _, t := range items {
		userID, ok := userIDs[t.User]
		if !ok {
			return created, fmt.Errorf("seed: testimonial references unknown user %q", t.User)
		}
		planID, ok := planIDs[t.Plan]
		if !ok {
			return created, fmt.Errorf("seed: testimonial references unknown plan %q", t.Plan)
		}
		if _, err := st.TestimonialByUserAndPlan(ctx, userID, planID); err == nil {
			continue
		}
		rec := &store.Testimonial{
			ID:         uuid.NewString(),
			UserID:     userID,
			MealPlanID: planID,
			Rating:     t.Rating,
			Message:    t.Message,
			Date:       t.Date,
		}
		if err := st.CreateTestimonial(ctx, rec); err != nil {
			return created, fmt.Errorf("seed: create testimonial by %q: %w", t.User, err)
		}
		created++
	}
	return created, nil
}

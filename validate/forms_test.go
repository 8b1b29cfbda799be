package validate

import (
	"reflect"
	"testing"
)

func TestRegistrationData(t *testing.T) {
	reg, errs := RegistrationData(map[string]any{
		"name":     "Jane Doe",
		"email":    "Jane@GoogleMail.com",
		"password": "Str0ng!pass",
	})
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if reg.Name != "Jane Doe" || reg.Email != "jane@gmail.com" || reg.Password != "Str0ng!pass" {
		t.Errorf("reg = %+v", reg)
	}

	// Errors from every field accumulate; passed fields still sanitize.
	reg, errs = RegistrationData(map[string]any{
		"name":     "J",
		"email":    "nope",
		"password": "weak",
	})
	if len(errs) < 3 {
		t.Errorf("want errors from all three fields, got %v", errs)
	}
	if reg.Name != "" || reg.Email != "" {
		t.Errorf("failed fields must stay empty: %+v", reg)
	}

	// Missing fields read as empty strings.
	_, errs = RegistrationData(map[string]any{})
	if len(errs) != 3 {
		t.Errorf("errs = %v", errs)
	}
}

func TestSubscriptionData(t *testing.T) {
	const plan = "d9b2d63d-a233-4123-847a-717d01d2a83c"

	sub, errs := SubscriptionData(map[string]any{
		"planId":       plan,
		"mealTypes":    []any{"breakfast", "dinner", "breakfast"},
		"deliveryDays": []any{"monday", "friday"},
		"allergies":    "  peanuts  ",
	})
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if sub.PlanID != plan {
		t.Errorf("PlanID = %q", sub.PlanID)
	}
	if !reflect.DeepEqual(sub.MealTypes, []string{"breakfast", "dinner"}) {
		t.Errorf("MealTypes = %v", sub.MealTypes)
	}
	if sub.Allergies != "peanuts" {
		t.Errorf("Allergies = %q", sub.Allergies)
	}

	// Legacy "plan" key is accepted.
	sub, errs = SubscriptionData(map[string]any{"plan": plan})
	if len(errs) != 0 || sub.PlanID != plan {
		t.Errorf("legacy key: sub = %+v errs = %v", sub, errs)
	}

	// Optional arrays are skipped entirely when absent.
	sub, errs = SubscriptionData(map[string]any{"planId": plan})
	if len(errs) != 0 || sub.MealTypes != nil || sub.DeliveryDays != nil {
		t.Errorf("sub = %+v errs = %v", sub, errs)
	}

	_, errs = SubscriptionData(map[string]any{
		"planId":       "not-a-uuid",
		"deliveryDays": []any{"funday"},
	})
	if len(errs) != 2 {
		t.Errorf("errs = %v", errs)
	}
}

func TestTestimonialData(t *testing.T) {
	const plan = "d9b2d63d-a233-4123-847a-717d01d2a83c"

	tst, errs := TestimonialData(map[string]any{
		"plan":    plan,
		"rating":  float64(5),
		"message": "<b>Loved</b> it",
	})
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if tst.MealPlanID != plan || tst.Rating != 5 || tst.Message != "Loved it" {
		t.Errorf("tst = %+v", tst)
	}

	_, errs = TestimonialData(map[string]any{
		"plan":    plan,
		"rating":  float64(6),
		"message": "fine",
	})
	if len(errs) != 1 || errs[0] != "Rating must be between 1 and 5" {
		t.Errorf("errs = %v", errs)
	}

	_, errs = TestimonialData(map[string]any{})
	if len(errs) != 2 {
		// Plan ID required + rating not a number; empty message is valid.
		t.Errorf("errs = %v", errs)
	}
}

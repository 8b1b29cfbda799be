package validate

// Allowed values for subscription arrays.
var (
	MealTypes    = []string{"breakfast", "lunch", "dinner"}
	DeliveryDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
)

// Registration is the sanitized output of RegistrationData. Phone is
// optional and empty when absent.
type Registration struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Subscription is the sanitized output of SubscriptionData. MealTypes,
// DeliveryDays, and Allergies are only populated when present in the input.
type Subscription struct {
	PlanID       string
	MealTypes    []string
	DeliveryDays []string
	Allergies    string
}

// Testimonial is the sanitized output of TestimonialData.
type Testimonial struct {
	MealPlanID string
	Rating     int
	Message    string
}

// str reads a string field from a decoded JSON object, treating missing or
// non-string values as empty so the field validator reports "required".
func str(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// RegistrationData validates a registration form. All field errors are
// accumulated; sanitized fields are only set when their validation passed.
func RegistrationData(data map[string]any) (Registration, []string) {
	var (
		out  Registration
		errs []string
	)

	if name, e := Name(str(data, "name")); len(e) > 0 {
		errs = append(errs, e...)
	} else {
		out.Name = name
	}
	if email, e := Email(str(data, "email")); len(e) > 0 {
		errs = append(errs, e...)
	} else {
		out.Email = email
	}
	if password, e := Password(str(data, "password")); len(e) > 0 {
		errs = append(errs, e...)
	} else {
		out.Password = password
	}
	if phone, e := Phone(str(data, "phone")); len(e) > 0 {
		errs = append(errs, e...)
	} else {
		out.Phone = phone
	}
	return out, errs
}

// SubscriptionData validates a subscription form. The plan reference is
// accepted under either the "planId" or legacy "plan" key. Meal types,
// delivery days, and allergies are validated only when present.
func SubscriptionData(data map[string]any) (Subscription, []string) {
	var (
		out  Subscription
		errs []string
	)

	planRef := str(data, "planId")
	if planRef == "" {
		planRef = str(data, "plan")
	}
	if planID, e := ID(planRef, "Plan ID"); len(e) > 0 {
		errs = append(errs, e...)
	} else {
		out.PlanID = planID
	}

	if raw, present := data["mealTypes"]; present && raw != nil {
		if mealTypes, e := StringArray(raw, MealTypes, "Meal types"); len(e) > 0 {
			errs = append(errs, e...)
		} else {
			out.MealTypes = mealTypes
		}
	}

	if raw, present := data["deliveryDays"]; present && raw != nil {
		if days, e := StringArray(raw, DeliveryDays, "Delivery days"); len(e) > 0 {
			errs = append(errs, e...)
		} else {
			out.DeliveryDays = days
		}
	}

	if allergies := str(data, "allergies"); allergies != "" {
		if cleaned, e := Text(allergies, 500, "Allergies"); len(e) > 0 {
			errs = append(errs, e...)
		} else {
			out.Allergies = cleaned
		}
	}

	return out, errs
}

// TestimonialData validates a testimonial form. The plan reference arrives
// under the "plan" key and is stored as the meal plan ID.
func TestimonialData(data map[string]any) (Testimonial, []string) {
	var (
		out  Testimonial
		errs []string
	)

	if planID, e := ID(str(data, "plan"), "Plan ID"); len(e) > 0 {
		errs = append(errs, e...)
	} else {
		out.MealPlanID = planID
	}
	if rating, e := Rating(data["rating"]); len(e) > 0 {
		errs = append(errs, e...)
	} else {
		out.Rating = rating
	}
	if message, e := Text(str(data, "message"), 1000, "Message"); len(e) > 0 {
		errs = append(errs, e...)
	} else {
		out.Message = message
	}
	return out, errs
}

package metrics

import (
	"context"
	"fmt"
	"testing"
)

func TestRecordRequestDoesNotPanicWithoutSDK(t *testing.T) {
	// Without an SDK installed the global meter provider is a no-op; the
	// recorder must still function.
	rec := New("mealsvc", nil)
	rec.RecordRequest(context.Background(), "GET", "200", 0.012)
}

func TestCardinalityCap(t *testing.T) {
	rec := New("mealsvc", nil)
	for i := 0; i < MaxLabelCombinations; i++ {
		if !rec.admit("m", fmt.Sprintf("combo-%d", i)) {
			t.Fatalf("combo %d rejected before cap", i)
		}
	}
	if rec.admit("m", "overflow") {
		t.Fatal("combo beyond cap should be rejected")
	}
	// Previously seen combos remain accepted.
	if !rec.admit("m", "combo-0") {
		t.Fatal("seen combo should stay accepted after cap")
	}
	// Other metrics have their own cap.
	if !rec.admit("other", "fresh") {
		t.Fatal("independent metric should not share the cap")
	}
}

func TestCounterVec(t *testing.T) {
	rec := New("mealsvc", nil)
	cv := rec.Counter("validation_failures_total")
	cv.Add(context.Background(), 1, "endpoint", "register")
	cv.Add(context.Background(), 1, "endpoint", "register")
}

package api

import (
	"net/http"

	"github.com/seacatering/mealsvc/errors"
	"github.com/seacatering/mealsvc/httpkit"
)

// handleListMealPlans returns the plan catalog, name-sorted. Public.
func (s *Server) handleListMealPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.ListMealPlans(r.Context())
	if err != nil {
		httpkit.JSONProblem(w, r, errors.InternalError("Failed to fetch meal plans").WithCause(err))
		return
	}
	httpkit.JSON(w, r, http.StatusOK, plans)
}

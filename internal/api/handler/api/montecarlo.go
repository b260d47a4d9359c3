// internal/api/handler/api/montecarlo.go
package api

import (
	"net/http"

	"github.com/newthinker/crossover/internal/api/response"
)

// MonteCarloHandler resamples a run's daily returns.
type MonteCarloHandler struct {
	svc Service
}

// NewMonteCarloHandler creates a new Monte Carlo handler.
func NewMonteCarloHandler(svc Service) *MonteCarloHandler {
	return &MonteCarloHandler{svc: svc}
}

// Run executes the backtest and simulation synchronously.
func (h *MonteCarloHandler) Run(w http.ResponseWriter, r *http.Request) {
	req := h.svc.NewMonteCarloRequest()
	if err := decodeJSON(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}
	out, err := h.svc.MonteCarlo(r.Context(), req)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}

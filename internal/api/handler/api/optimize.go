// internal/api/handler/api/optimize.go
package api

import (
	"net/http"

	"github.com/newthinker/crossover/internal/api/response"
)

// OptimizeHandler ranks indicator windows.
type OptimizeHandler struct {
	svc Service
}

// NewOptimizeHandler creates a new optimize handler.
func NewOptimizeHandler(svc Service) *OptimizeHandler {
	return &OptimizeHandler{svc: svc}
}

// Run executes the search synchronously.
func (h *OptimizeHandler) Run(w http.ResponseWriter, r *http.Request) {
	req := h.svc.NewOptimizeRequest()
	if err := decodeJSON(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}
	out, err := h.svc.Optimize(r.Context(), req)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}

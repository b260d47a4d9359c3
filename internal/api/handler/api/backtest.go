// internal/api/handler/api/backtest.go
package api

import (
	"net/http"

	"github.com/newthinker/crossover/internal/api/response"
)

// BacktestHandler serves synchronous runs and archived results.
type BacktestHandler struct {
	svc Service
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(svc Service) *BacktestHandler {
	return &BacktestHandler{svc: svc}
}

// Run executes one backtest. ?review=1 adds a model review and ?archive=1
// stores the report.
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	req := h.svc.NewBacktestRequest()
	if err := decodeJSON(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}
	if queryFlag(r, "review") {
		req.Review = true
	}
	if queryFlag(r, "archive") {
		req.Archive = true
	}

	run, err := h.svc.Backtest(r.Context(), req)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, run)
}

// Result returns an archived report by id.
func (h *BacktestHandler) Result(w http.ResponseWriter, r *http.Request) {
	saved, err := h.svc.LoadResult(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, saved)
}

// Results lists archived report ids.
func (h *BacktestHandler) Results(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.ListResults(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"ids": ids, "count": len(ids)})
}

// DeleteResult removes an archived report.
func (h *BacktestHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteResult(r.Context(), r.PathValue("id")); err != nil {
		response.Fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

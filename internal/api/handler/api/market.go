// internal/api/handler/api/market.go
package api

import (
	"net/http"
	"strconv"

	"github.com/newthinker/crossover/internal/api/response"
	"github.com/newthinker/crossover/internal/core"
)

// MarketHandler reports the current crossover reading.
type MarketHandler struct {
	svc Service
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(svc Service) *MarketHandler {
	return &MarketHandler{svc: svc}
}

// Get handles GET /api/market?window=N. Without window the configured
// indicator window is used.
func (h *MarketHandler) Get(w http.ResponseWriter, r *http.Request) {
	window := 0
	if s := r.URL.Query().Get("window"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			response.Fail(w, core.Errorf(core.ErrInvalidParameters, "window %q is not a number", s))
			return
		}
		if n < 2 {
			response.Fail(w, core.Errorf(core.ErrInvalidParameters, "window must be at least 2, got %d", n))
			return
		}
		window = n
	}

	out, err := h.svc.Market(r.Context(), window)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}

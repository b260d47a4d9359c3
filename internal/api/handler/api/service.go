// internal/api/handler/api/service.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/newthinker/crossover/internal/app"
	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/report"
	"github.com/newthinker/crossover/internal/storage/archive"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Service is the part of app.App the handlers drive.
type Service interface {
	NewBacktestRequest() app.BacktestRequest
	NewOptimizeRequest() app.OptimizeRequest
	NewMonteCarloRequest() app.MonteCarloRequest

	Backtest(ctx context.Context, req app.BacktestRequest) (*report.Run, error)
	Optimize(ctx context.Context, req app.OptimizeRequest) (*report.Optimize, error)
	MonteCarlo(ctx context.Context, req app.MonteCarloRequest) (*report.MonteCarlo, error)
	Market(ctx context.Context, window int) (*report.Market, error)
	LoadResult(ctx context.Context, id string) (*archive.SavedResult, error)
	ListResults(ctx context.Context) ([]string, error)
	DeleteResult(ctx context.Context, id string) error
}

var _ Service = (*app.App)(nil)

// decodeJSON overlays the request body onto v, which callers pre-fill with
// defaults. An empty body keeps the defaults; unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return core.WrapError(core.ErrInvalidParameters, err)
	}
	return nil
}

// queryFlag reads a boolean query parameter; "1", "true" and the like are
// true.
func queryFlag(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

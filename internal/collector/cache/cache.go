// Package cache keeps a copy of each symbol's full price history in archive
// storage and serves it while fresh, or when the upstream source fails.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/crossover/internal/collector"
	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/storage/archive"
	"go.uber.org/zap"
)

// DefaultTTL is how long a cached series is served without refetching.
const DefaultTTL = 24 * time.Hour

// Fetch results reported to the Recorder.
const (
	ResultCache    = "cache"
	ResultUpstream = "upstream"
	ResultStale    = "stale"
	ResultFailed   = "failed"
)

// Recorder receives the outcome of each fetch.
type Recorder interface {
	RecordSourceFetch(result string)
}

type entry struct {
	Symbol    string    `json:"symbol"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
	Bars      []bar     `json:"bars"`
}

type bar struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Cache decorates a Collector.
type Cache struct {
	upstream collector.Collector
	store    archive.Storage
	ttl      time.Duration
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the freshness window.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Cache) { c.recorder = r }
}

// New wraps upstream with a cache kept in store.
func New(upstream collector.Collector, store archive.Storage, opts ...Option) *Cache {
	c := &Cache{
		upstream: upstream,
		store:    store,
		ttl:      DefaultTTL,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Name() string {
	return c.upstream.Name()
}

// FetchHistory serves the full cached history filtered to [start, end].
func (c *Cache) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	path := cachePath(c.upstream.Name(), symbol)

	cached, readErr := c.load(ctx, path)
	switch {
	case errors.Is(readErr, archive.ErrCorrupt):
		c.logger.Warn("price cache corrupt, dropping it", zap.String("path", path), zap.Error(readErr))
		if err := c.store.Delete(ctx, path); err != nil {
			c.logger.Warn("price cache delete failed", zap.String("path", path), zap.Error(err))
		}
	case readErr != nil && !errors.Is(readErr, archive.ErrNotFound):
		c.logger.Warn("price cache unreadable", zap.String("path", path), zap.Error(readErr))
	}

	if cached != nil && c.now().Sub(cached.FetchedAt) < c.ttl {
		c.record(ResultCache)
		return c.filter(cached, start, end)
	}

	bars, err := c.upstream.FetchHistory(ctx, symbol, time.Time{}, time.Time{})
	if err == nil {
		if werr := c.save(ctx, path, symbol, bars); werr != nil {
			c.logger.Warn("price cache write failed", zap.String("path", path), zap.Error(werr))
		}
		c.record(ResultUpstream)
		return core.FilterRange(bars, start, end), nil
	}

	if cached != nil && ctx.Err() == nil {
		c.logger.Warn("upstream fetch failed, serving stale cache",
			zap.String("symbol", symbol),
			zap.Time("fetched_at", cached.FetchedAt),
			zap.Error(err),
		)
		c.record(ResultStale)
		return c.filter(cached, start, end)
	}

	c.record(ResultFailed)
	return nil, err
}

func (c *Cache) load(ctx context.Context, path string) (*entry, error) {
	var e entry
	if err := archive.ReadJSON(ctx, c.store, path, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Cache) save(ctx context.Context, path, symbol string, bars []core.PriceBar) error {
	e := entry{
		Symbol:    symbol,
		Source:    c.upstream.Name(),
		FetchedAt: c.now().UTC(),
		Bars:      make([]bar, len(bars)),
	}
	for i, b := range bars {
		e.Bars[i] = bar{Date: core.FormatDate(b.Date), Close: b.Close}
	}
	return archive.WriteJSON(ctx, c.store, path, e)
}

func (c *Cache) filter(e *entry, start, end time.Time) ([]core.PriceBar, error) {
	bars := make([]core.PriceBar, len(e.Bars))
	for i, b := range e.Bars {
		d, err := core.ParseDate(b.Date)
		if err != nil {
			return nil, core.WrapError(core.ErrSourceFailed, fmt.Errorf("cached bar %d: %w", i, err))
		}
		bars[i] = core.PriceBar{Date: d, Close: b.Close}
	}
	return core.FilterRange(bars, start, end), nil
}

func (c *Cache) record(result string) {
	if c.recorder != nil {
		c.recorder.RecordSourceFetch(result)
	}
}

// cachePath maps a symbol to a storage path safe on any backend.
func cachePath(source, symbol string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, symbol)
	return "cache/prices/" + source + "/" + safe + ".json"
}

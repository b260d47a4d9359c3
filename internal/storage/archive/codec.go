package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WriteJSON encodes v and stores it at path.
func WriteJSON(ctx context.Context, s Storage, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return s.Write(ctx, path, data)
}

// ReadJSON loads path and decodes it into v.
func ReadJSON(ctx context.Context, s Storage, path string, v any) error {
	data, err := s.Read(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w: %w", path, ErrCorrupt, err)
	}
	return nil
}

const resultsPrefix = "results"

// SavedResult wraps an archived run report.
type SavedResult struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	SavedAt time.Time       `json:"savedAt"`
	Report  json.RawMessage `json:"report"`
}

// Results archives run reports under results/<id>.json.
type Results struct {
	store Storage
	now   func() time.Time
}

// NewResults creates a result archive on top of store.
func NewResults(store Storage) *Results {
	return &Results{store: store, now: time.Now}
}

// Save stores report and returns its new id.
func (r *Results) Save(ctx context.Context, kind string, report any) (string, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	saved := SavedResult{
		ID:      uuid.NewString(),
		Kind:    kind,
		SavedAt: r.now().UTC(),
		Report:  raw,
	}
	if err := WriteJSON(ctx, r.store, resultPath(saved.ID), saved); err != nil {
		return "", err
	}
	return saved.ID, nil
}

// Load returns a saved report by id.
func (r *Results) Load(ctx context.Context, id string) (*SavedResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid result id %q: %w", id, ErrNotFound)
	}
	var saved SavedResult
	if err := ReadJSON(ctx, r.store, resultPath(id), &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Delete removes a saved report. Unknown ids are ErrNotFound.
func (r *Results) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid result id %q: %w", id, ErrNotFound)
	}
	path := resultPath(id)
	ok, err := r.store.Exists(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return r.store.Delete(ctx, path)
}

// IDs lists the ids of all saved results.
func (r *Results) IDs(ctx context.Context) ([]string, error) {
	paths, err := r.store.List(ctx, resultsPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		name := p[strings.LastIndex(p, "/")+1:]
		if id, ok := strings.CutSuffix(name, ".json"); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func resultPath(id string) string {
	return resultsPrefix + "/" + id + ".json"
}

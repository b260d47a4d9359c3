// internal/api/job/store_test.go
package job

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/crossover/internal/core"
)

type gauge struct {
	mu     sync.Mutex
	values map[string]int
}

func (g *gauge) SetJobsActive(jobType string, count int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.values == nil {
		g.values = make(map[string]int)
	}
	g.values[jobType] = count
}

func mustCreate(t *testing.T, store *Store, jobType string) Job {
	t.Helper()
	job, err := store.Create(jobType)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return job
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(100, time.Hour, nil)

	job := mustCreate(t, store, "backtest")
	if _, err := uuid.Parse(job.ID); err != nil {
		t.Errorf("expected uuid job ID, got %q", job.ID)
	}
	if job.Status != StatusPending {
		t.Errorf("expected pending, got %s", job.Status)
	}

	retrieved, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.ID != job.ID {
		t.Error("IDs don't match")
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore(100, time.Hour, nil)
	job := mustCreate(t, store, "optimize")

	err := store.Update(job.ID, func(j *Job) {
		j.Status = StatusRunning
		j.Progress = 50
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retrieved, _ := store.Get(job.ID)
	if retrieved.Status != StatusRunning {
		t.Errorf("expected running, got %s", retrieved.Status)
	}
	if retrieved.Progress != 50 {
		t.Errorf("expected 50, got %d", retrieved.Progress)
	}

	if err := store.Update("missing", func(*Job) {}); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_MaxSize_EvictsOldestFinished(t *testing.T) {
	store := NewStore(2, time.Hour, nil)

	running := mustCreate(t, store, "backtest")
	done := mustCreate(t, store, "backtest")
	store.Update(running.ID, func(j *Job) { j.Status = StatusRunning })
	store.Update(done.ID, func(j *Job) { j.Status = StatusComplete })

	mustCreate(t, store, "backtest") // evicts done, not the older running job

	if _, err := store.Get(done.ID); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected finished job to be evicted, got %v", err)
	}
	if _, err := store.Get(running.ID); err != nil {
		t.Errorf("running job must survive eviction: %v", err)
	}
	if n := len(store.List()); n != 2 {
		t.Errorf("expected 2 jobs, got %d", n)
	}
}

func TestStore_MaxSize_RejectsWhenAllUnfinished(t *testing.T) {
	store := NewStore(2, time.Hour, nil)
	first := mustCreate(t, store, "optimize")
	mustCreate(t, store, "optimize")

	_, err := store.Create("optimize")
	if !errors.Is(err, core.ErrTooManyJobs) {
		t.Fatalf("expected ErrTooManyJobs, got %v", err)
	}
	if _, err := store.Get(first.ID); err != nil {
		t.Errorf("pending job must not be evicted: %v", err)
	}

	store.Update(first.ID, func(j *Job) { j.Status = StatusFailed })
	if _, err := store.Create("optimize"); err != nil {
		t.Errorf("expected a slot once a job finished, got %v", err)
	}
}

func TestStore_NotFound(t *testing.T) {
	store := NewStore(100, time.Hour, nil)

	_, err := store.Get("nonexistent")
	if !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_TTL(t *testing.T) {
	store := NewStore(100, time.Hour, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	done := mustCreate(t, store, "montecarlo")
	running := mustCreate(t, store, "montecarlo")
	store.Update(done.ID, func(j *Job) { j.Status = StatusComplete })
	store.Update(running.ID, func(j *Job) { j.Status = StatusRunning })

	now = now.Add(2 * time.Hour)

	if _, err := store.Get(done.ID); err == nil {
		t.Error("expected finished job to expire")
	}
	if _, err := store.Get(running.ID); err != nil {
		t.Errorf("running jobs never expire: %v", err)
	}
	if n := store.Prune(); n != 1 {
		t.Errorf("expected 1 pruned job, got %d", n)
	}
	if n := len(store.List()); n != 1 {
		t.Errorf("expected 1 job left, got %d", n)
	}
}

func TestStore_List(t *testing.T) {
	store := NewStore(100, time.Hour, nil)
	first := mustCreate(t, store, "backtest")
	mustCreate(t, store, "optimize")

	jobs := store.List()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != first.ID {
		t.Error("expected insertion order")
	}
}

func TestStore_ReportsActive(t *testing.T) {
	g := &gauge{}
	store := NewStore(100, time.Hour, g)

	a := mustCreate(t, store, "optimize")
	mustCreate(t, store, "optimize")
	if g.values["optimize"] != 2 {
		t.Errorf("expected 2 active, got %d", g.values["optimize"])
	}

	store.Update(a.ID, func(j *Job) { j.Status = StatusFailed })
	if g.values["optimize"] != 1 {
		t.Errorf("expected 1 active, got %d", g.values["optimize"])
	}
}

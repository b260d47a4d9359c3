// internal/api/job/store.go
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/crossover/internal/core"
)

// Status represents job status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Done reports whether the job has finished either way.
func (s Status) Done() bool {
	return s == StatusComplete || s == StatusFailed
}

// Job represents an async job.
type Job struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Status    Status      `json:"status"`
	Progress  int         `json:"progress"`
	Result    any         `json:"result,omitempty"`
	Error     *core.Error `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Recorder receives the number of unfinished jobs per type.
type Recorder interface {
	SetJobsActive(jobType string, count int)
}

// Store manages async jobs. Finished jobs expire after the TTL. When full,
// the oldest finished job is evicted; unfinished jobs are never evicted, so
// maxSize also bounds how many jobs run at once.
type Store struct {
	jobs     map[string]*Job
	order    []string // insertion order for eviction
	maxSize  int
	ttl      time.Duration
	recorder Recorder
	now      func() time.Time
	mu       sync.RWMutex
}

// NewStore creates a new job store. A nil recorder is allowed.
func NewStore(maxSize int, ttl time.Duration, recorder Recorder) *Store {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Store{
		jobs:     make(map[string]*Job),
		order:    make([]string, 0, maxSize),
		maxSize:  maxSize,
		ttl:      ttl,
		recorder: recorder,
		now:      time.Now,
	}
}

// Create creates a new pending job and returns a copy of it. It fails with
// ErrTooManyJobs when every slot holds an unfinished job.
func (s *Store) Create(jobType string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()

	now := s.now()
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for len(s.jobs) >= s.maxSize {
		if !s.evictFinishedLocked() {
			return Job{}, core.Errorf(core.ErrTooManyJobs, "%d jobs still running", len(s.jobs))
		}
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	s.reportLocked()

	return *job, nil
}

// evictFinishedLocked drops the oldest finished job.
func (s *Store) evictFinishedLocked() bool {
	for i, id := range s.order {
		job, ok := s.jobs[id]
		if ok && !job.Status.Done() {
			continue
		}
		delete(s.jobs, id)
		s.order = append(s.order[:i], s.order[i+1:]...)
		return true
	}
	return false
}

// Get retrieves a copy of a job by ID.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok || s.expiredLocked(job) {
		return nil, core.Errorf(core.ErrJobNotFound, "job %q", id)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// Update modifies a job using an update function.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return core.Errorf(core.ErrJobNotFound, "job %q", id)
	}

	fn(job)
	job.UpdatedAt = s.now()
	s.reportLocked()
	return nil
}

// List returns all live jobs, oldest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Job, 0, len(s.jobs))
	for _, id := range s.order {
		if job, ok := s.jobs[id]; ok && !s.expiredLocked(job) {
			result = append(result, *job)
		}
	}
	return result
}

// Prune drops expired jobs and returns how many were removed.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked()
}

func (s *Store) expiredLocked(job *Job) bool {
	return s.ttl > 0 && job.Status.Done() && s.now().Sub(job.UpdatedAt) > s.ttl
}

func (s *Store) pruneLocked() int {
	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		if s.expiredLocked(job) {
			delete(s.jobs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

func (s *Store) reportLocked() {
	if s.recorder == nil {
		return
	}
	active := make(map[string]int)
	for _, job := range s.jobs {
		if _, seen := active[job.Type]; !seen {
			active[job.Type] = 0
		}
		if !job.Status.Done() {
			active[job.Type]++
		}
	}
	for jobType, n := range active {
		s.recorder.SetJobsActive(jobType, n)
	}
}

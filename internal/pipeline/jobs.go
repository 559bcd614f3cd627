package pipeline

import (
	"sort"
	"sync"
	"time"
)

// JobStatus represents the state of a document run.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusDetecting JobStatus = "detecting"
	StatusAnalyzing JobStatus = "analyzing"
	StatusChunking  JobStatus = "chunking"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCached    JobStatus = "cached"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCached
}

// Job tracks the state of a single document run.
type Job struct {
	mu sync.Mutex

	ID   string `json:"run_id"`
	Path string `json:"path"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	DocType     string  `json:"doc_type,omitempty"`
	Confidence  float64 `json:"confidence"`
	ContentHash string  `json:"content_hash,omitempty"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	errors   []string
	warnings []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalChunks int      `json:"total_chunks"`
	Warnings    []string `json:"warnings"`
	Errors      []string `json:"errors"`
}

// NewJob returns a queued job for path.
func NewJob(id, path string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Path:      path,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddWarning records a recoverable problem.
func (j *Job) AddWarning(w string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.warnings = append(j.warnings, w)
	j.Progress.Warnings = j.warnings
	j.UpdatedAt = time.Now()
}

// SetDetection records the detected document type.
func (j *Job) SetDetection(docType string, confidence float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DocType = docType
	j.Confidence = confidence
	j.UpdatedAt = time.Now()
}

// SetContentHash records the input hash.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
	j.UpdatedAt = time.Now()
}

// SetTotalChunks records total chunk count.
func (j *Job) SetTotalChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = n
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string        `json:"run_id"`
	Path        string        `json:"path"`
	Status      JobStatus     `json:"status"`
	Phase       string        `json:"phase"`
	DocType     string        `json:"doc_type,omitempty"`
	Confidence  float64       `json:"confidence"`
	ContentHash string        `json:"content_hash,omitempty"`
	Progress    Progress      `json:"progress"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:          j.ID,
		Path:        j.Path,
		Status:      j.Status,
		Phase:       j.Phase,
		DocType:     j.DocType,
		Confidence:  j.Confidence,
		ContentHash: j.ContentHash,
		Progress: Progress{
			TotalChunks: j.Progress.TotalChunks,
			Warnings:    copyOrEmpty(j.warnings),
			Errors:      copyOrEmpty(j.errors),
		},
		Elapsed: j.UpdatedAt.Sub(j.CreatedAt),
	}
}

func copyOrEmpty(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// JobStore is a thread-safe registry of the jobs a runner has started.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// List returns snapshots of every job, oldest first.
func (s *JobStore) List() []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	sort.Slice(jobs, func(a, b int) bool {
		if !jobs[a].CreatedAt.Equal(jobs[b].CreatedAt) {
			return jobs[a].CreatedAt.Before(jobs[b].CreatedAt)
		}
		return jobs[a].ID < jobs[b].ID
	})
	out := make([]JobSnapshot, len(jobs))
	for i, j := range jobs {
		out[i] = j.Snapshot()
	}
	return out
}

// Counts returns the number of jobs in each status.
func (s *JobStore) Counts() map[JobStatus]int {
	out := make(map[JobStatus]int)
	for _, snap := range s.List() {
		out[snap.Status]++
	}
	return out
}

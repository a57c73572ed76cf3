package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/Gantry/internal/server"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job represents an asynchronous validate-all job.
type Job struct {
	ID          string             `json:"id"`
	Status      JobStatus          `json:"status"`
	Progress    int                `json:"progress"` // 0-100
	Total       int                `json:"total"`    // configurations to validate
	Results     []ValidationInfo   `json:"results,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
	CompletedAt string             `json:"completed_at,omitempty"`
	ctx         context.Context    `json:"-"`
	cancel      context.CancelFunc `json:"-"`
}

// JobStore manages validation jobs in memory.
type JobStore struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewJobStore creates a new job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
	}
}

var globalJobStore = NewJobStore()

// Create creates a new job and returns its ID.
func (s *JobStore) Create(total int) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC().Format(time.RFC3339)

	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobStatusPending,
		Progress:  0,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.jobs[job.ID] = job
	return job
}

// Get retrieves a copy of the job by ID. The copy is safe to read and
// serialize while the job's goroutine keeps updating the stored original.
func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, false
	}
	return job.clone(), true
}

// clone copies the job for use outside the store lock.
func (j *Job) clone() *Job {
	snap := *j
	snap.Results = append([]ValidationInfo(nil), j.Results...)
	return &snap
}

// Update updates a job's status and progress.
func (s *JobStore) Update(id string, status JobStatus, progress int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	job.Status = status
	job.Progress = progress
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if errMsg != "" {
		job.Error = errMsg
	}

	if status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled {
		job.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}

	return nil
}

// AppendResult records a per-configuration outcome on a job.
func (s *JobStore) AppendResult(id string, info ValidationInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	job.Results = append(job.Results, info)
	return nil
}

// Delete removes a job from the store.
func (s *JobStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	// Cancel if still running
	if job.Status == JobStatusRunning || job.Status == JobStatusPending {
		if job.cancel != nil {
			job.cancel()
		}
	}

	delete(s.jobs, id)
	return nil
}

// List returns copies of all jobs.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.clone())
	}
	return jobs
}

// Cancel cancels a running job.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	if job.Status != JobStatusPending && job.Status != JobStatusRunning {
		return fmt.Errorf("job cannot be cancelled (status: %s)", job.Status)
	}

	if job.cancel != nil {
		job.cancel()
	}

	job.Status = JobStatusCancelled
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	job.CompletedAt = time.Now().UTC().Format(time.RFC3339)

	return nil
}

// runValidationJob validates every configuration in the background,
// recording history and broadcasting progress as it goes.
func runValidationJob(job *Job) {
	go func() {
		globalJobStore.Update(job.ID, JobStatusRunning, 0, "")

		stateMu.Lock()
		ws := activeWorkspace
		stateMu.Unlock()
		if ws == nil {
			globalJobStore.Update(job.ID, JobStatusFailed, 0, "no workspace loaded")
			BroadcastError("no workspace loaded")
			return
		}

		stateMu.Lock()
		configs := ws.Manager().List()
		fingerprint, err := ws.Fingerprint()
		stateMu.Unlock()
		if err != nil {
			globalJobStore.Update(job.ID, JobStatusFailed, 0, err.Error())
			BroadcastError(err.Error())
			return
		}

		total := len(configs)
		progress := 0
		for i, c := range configs {
			select {
			case <-job.ctx.Done():
				globalJobStore.Update(job.ID, JobStatusCancelled, progress, "job cancelled")
				BroadcastError("validation job cancelled")
				return
			default:
			}

			stateMu.Lock()
			info := validateConfigLocked(c)
			moduleName := c.Module.ModuleName()
			stateMu.Unlock()

			recordValidation(info, moduleName, fingerprint)
			BroadcastValidation(info)
			globalJobStore.AppendResult(job.ID, info)

			progress = (i + 1) * 100 / total
			globalJobStore.Update(job.ID, JobStatusRunning, progress, "")
		}

		// Check for cancellation before completing
		select {
		case <-job.ctx.Done():
			globalJobStore.Update(job.ID, JobStatusCancelled, progress, "job cancelled")
			return
		default:
		}

		globalJobStore.Update(job.ID, JobStatusCompleted, 100, "")
		BroadcastComplete(fmt.Sprintf("validated %d configurations", total))
	}()
}

// handleJobs handles GET /api/v1/jobs - List validation jobs.
func handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	jobs := globalJobStore.List()
	respondList(w, jobs, len(jobs))
}

// handleJobByID handles GET /api/v1/jobs/{id} - Get job status and
// DELETE /api/v1/jobs/{id} - Cancel job.
func handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Job ID is required")
		return
	}
	if !server.ValidateAlphanumeric(id) {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Job ID is not valid")
		return
	}

	switch r.Method {
	case http.MethodGet:
		getJobHandler(w, r, id)
	case http.MethodDelete:
		cancelJobHandler(w, r, id)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

// getJobHandler handles GET /api/v1/jobs/{id}.
func getJobHandler(w http.ResponseWriter, r *http.Request, id string) {
	job, exists := globalJobStore.Get(id)
	if !exists {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	}

	respond(w, http.StatusOK, job)
}

// cancelJobHandler handles DELETE /api/v1/jobs/{id}.
func cancelJobHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := globalJobStore.Cancel(id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "CANCEL_FAILED", err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
}

package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/internal/logging"
	"github.com/FocuswithJustin/versemem/internal/source"
)

// JobStatus represents the current state of a download job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job is an asynchronous download of one or more sources.
type Job struct {
	ID          string            `json:"id"`
	Status      JobStatus         `json:"status"`
	Progress    int               `json:"progress"` // 0-100 across all sources
	Sources     []string          `json:"sources"`
	States      map[string]string `json:"states"` // per-source download status
	Error       string            `json:"error,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
	CompletedAt string            `json:"completed_at,omitempty"`

	ctx    context.Context
	cancel context.CancelFunc
}

func (j *Job) done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed || j.Status == JobStatusCancelled
}

// JobStore keeps download jobs in memory.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create registers a pending job for ids.
func (s *JobStore) Create(ids []string) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC().Format(time.RFC3339)

	states := make(map[string]string, len(ids))
	for _, id := range ids {
		states[id] = string(source.StatusPending)
	}

	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Sources:   append([]string(nil), ids...),
		States:    states,
		CreatedAt: now,
		UpdatedAt: now,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get returns a snapshot of the job.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return snapshot(job), true
}

// List returns snapshots of all jobs, oldest first.
func (s *JobStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, snapshot(job))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Cancel stops a pending or running job.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return verrors.NewNotFound("job", id)
	}
	if job.done() {
		return verrors.NewValidation("status", fmt.Sprintf("job cannot be cancelled (status: %s)", job.Status))
	}

	job.cancel()
	s.finish(job, JobStatusCancelled, "cancelled")
	return nil
}

func (s *JobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.done() {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

func (s *JobStore) finish(job *Job, status JobStatus, errMsg string) {
	now := time.Now().UTC().Format(time.RFC3339)
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = now
	job.CompletedAt = now
}

func snapshot(job *Job) Job {
	c := *job
	c.Sources = append([]string(nil), job.Sources...)
	c.States = make(map[string]string, len(job.States))
	for k, v := range job.States {
		c.States[k] = v
	}
	c.ctx, c.cancel = nil, nil
	return c
}

// runDownload downloads the job's sources in the background, mirroring
// progress into the job and onto the progress hub.
func (srv *Server) runDownload(job *Job) {
	index := make(map[string]int, len(job.Sources))
	for i, id := range job.Sources {
		index[id] = i
	}
	total := len(job.Sources)

	go func() {
		defer job.cancel()
		srv.jobs.update(job.ID, func(j *Job) { j.Status = JobStatusRunning })

		err := srv.downloader.Download(job.ctx, job.Sources, func(p source.Progress) {
			overall := (index[p.SourceID]*100 + p.Percent) / total
			srv.jobs.update(job.ID, func(j *Job) {
				j.States[p.SourceID] = string(p.Status)
				if overall > j.Progress {
					j.Progress = overall
				}
			})
			if p.Status == source.StatusCompleted {
				srv.svc.Invalidate(p.SourceID)
			}
			srv.hub.Broadcast(ProgressMessage{
				Type:      "progress",
				Operation: "download",
				Stage:     p.SourceID,
				Progress:  overall,
				Message:   string(p.Status),
				Data:      map[string]any{"job_id": job.ID},
			})
		})

		srv.jobs.mu.Lock()
		defer srv.jobs.mu.Unlock()
		if job.done() {
			return
		}
		switch {
		case err == nil:
			logging.InfoContext(job.ctx, "download job completed", "job_id", job.ID, "sources", len(job.Sources))
			job.Progress = 100
			srv.jobs.finish(job, JobStatusCompleted, "")
			srv.hub.Broadcast(ProgressMessage{Type: "complete", Operation: "download", Progress: 100,
				Message: "download complete", Data: map[string]any{"job_id": job.ID}})
		case job.ctx.Err() != nil:
			srv.jobs.finish(job, JobStatusCancelled, "cancelled")
		default:
			logging.Error("download job failed", "job_id", job.ID, "error", err)
			srv.jobs.finish(job, JobStatusFailed, err.Error())
			srv.hub.Broadcast(ProgressMessage{Type: "error", Operation: "download",
				Message: err.Error(), Data: map[string]any{"job_id": job.ID}})
		}
	}()
}

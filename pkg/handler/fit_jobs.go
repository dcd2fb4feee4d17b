package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yumyai/selscan/pkg/selection"
)

// FitJobStatus represents the lifecycle of a codeml fit request.
type FitJobStatus string

const (
	FitJobQueued    FitJobStatus = "queued"
	FitJobRunning   FitJobStatus = "running"
	FitJobCompleted FitJobStatus = "completed"
	FitJobFailed    FitJobStatus = "failed"
)

// FitJob keeps track of a gene's model fits while codeml runs.
type FitJob struct {
	ID        string               `json:"job_id"`
	Gene      string               `json:"gene"`
	Models    []string             `json:"models"`
	Status    FitJobStatus         `json:"status"`
	Runs      []selection.ModelRun `json:"runs,omitempty"`
	Error     string               `json:"error,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// DefaultJobRetention is how long finished jobs stay available for polling.
const DefaultJobRetention = time.Hour

// FitJobManager stores fit job states indexed by job ID and runs them
// under a context that lives as long as the server.
type FitJobManager struct {
	mu   sync.RWMutex
	jobs map[string]*FitJob

	// Finished jobs older than Retention are dropped when a new job is
	// registered. Zero keeps them forever.
	Retention time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFitJobManager constructs a job manager with no jobs. Jobs are cancelled
// when parent is done or Shutdown is called.
func NewFitJobManager(parent context.Context) *FitJobManager {
	ctx, cancel := context.WithCancel(parent)
	return &FitJobManager{
		jobs:      make(map[string]*FitJob),
		Retention: DefaultJobRetention,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// NewJob registers a queued job for gene.
func (m *FitJobManager) NewJob(gene string, models []string) FitJob {
	now := time.Now()
	job := &FitJob{
		ID:        uuid.NewString(),
		Gene:      gene,
		Models:    models,
		Status:    FitJobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	if m.Retention > 0 {
		m.pruneLocked(now.Add(-m.Retention))
	}
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return *job
}

// Prune drops completed and failed jobs last updated before cutoff and
// reports how many were removed. Queued and running jobs are kept.
func (m *FitJobManager) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked(cutoff)
}

func (m *FitJobManager) pruneLocked(cutoff time.Time) int {
	n := 0
	for id, job := range m.jobs {
		finished := job.Status == FitJobCompleted || job.Status == FitJobFailed
		if finished && job.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			n++
		}
	}
	return n
}

// Go runs fn for jobID in the background, marking the job running first.
func (m *FitJobManager) Go(jobID string, fn func(ctx context.Context)) {
	m.SetRunning(jobID)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn(m.ctx)
	}()
}

func (m *FitJobManager) SetRunning(jobID string) {
	m.updateJob(jobID, func(job *FitJob) {
		job.Status = FitJobRunning
	})
}

// CompleteJob stores the fitted runs. A non-nil err alongside runs records the
// models that failed; with no runs at all the job fails.
func (m *FitJobManager) CompleteJob(jobID string, runs []selection.ModelRun, err error) {
	m.updateJob(jobID, func(job *FitJob) {
		job.Runs = runs
		job.Status = FitJobCompleted
		if err != nil {
			job.Error = err.Error()
			if len(runs) == 0 {
				job.Status = FitJobFailed
			}
		}
	})
}

// FailJob records a failure and attaches a user-facing error message.
func (m *FitJobManager) FailJob(jobID string, err error) {
	m.updateJob(jobID, func(job *FitJob) {
		job.Status = FitJobFailed
		job.Error = err.Error()
	})
}

// GetJob returns a snapshot of a job by ID.
func (m *FitJobManager) GetJob(jobID string) (FitJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return FitJob{}, false
	}
	out := *job
	out.Runs = append([]selection.ModelRun(nil), job.Runs...)
	out.Models = append([]string(nil), job.Models...)
	return out, true
}

// Shutdown cancels running jobs and waits for them to return.
func (m *FitJobManager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

// Wait blocks until every started job has returned.
func (m *FitJobManager) Wait() {
	m.wg.Wait()
}

func (m *FitJobManager) updateJob(jobID string, update func(job *FitJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return
	}

	update(job)
	job.UpdatedAt = time.Now()
}

// Package service runs pulls as background jobs for the HTTP API and the
// serve scheduler.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
)

// JobStatus represents the current state of a pull job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job triggers
const (
	TriggerAPI      = "api"
	TriggerSchedule = "schedule"
)

// DefaultJobMaxDuration is the maximum time a pull can run before being
// marked as failed. The Amazon scraper can hang on a login page.
const DefaultJobMaxDuration = 30 * time.Minute

var (
	// ErrPullRunning is returned when a pull is already in progress
	ErrPullRunning = errors.New("a pull is already running")

	// ErrJobNotFound is returned for unknown job IDs
	ErrJobNotFound = errors.New("job not found")
)

// Puller runs one pull of every source
type Puller interface {
	Pull(ctx context.Context, opts appsync.PullOptions) (map[string]*appsync.PullResult, error)
}

// PullJob is a running or finished background pull.
type PullJob struct {
	ID          string                         `json:"id"`
	Trigger     string                         `json:"trigger"`
	Status      JobStatus                      `json:"status"`
	Options     appsync.PullOptions            `json:"options"`
	StartedAt   time.Time                      `json:"started_at"`
	CompletedAt *time.Time                     `json:"completed_at,omitempty"`
	Results     map[string]*appsync.PullResult `json:"results,omitempty"`
	Error       string                         `json:"error,omitempty"`

	cancelFunc context.CancelFunc
}

// PullJobs manages background pulls. Only one pull runs at a time because
// both sources write the same store.
type PullJobs struct {
	puller Puller
	logger *slog.Logger

	jobs      map[string]*PullJob
	jobsMutex sync.RWMutex
	running   sync.Mutex

	// Background cleanup
	cleanupStop chan struct{}
	cleanupDone chan struct{}

	scheduler *cron.Cron
}

// NewPullJobs creates a new job manager.
func NewPullJobs(puller Puller, logger *slog.Logger) *PullJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &PullJobs{
		puller: puller,
		logger: logger,
		jobs:   make(map[string]*PullJob),
	}
}

// StartPull starts a pull in the background and returns its job ID.
// The job does not inherit a request context; use CancelJob to stop it.
func (s *PullJobs) StartPull(trigger string, opts appsync.PullOptions) (string, error) {
	if !s.running.TryLock() {
		return "", ErrPullRunning
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	job := &PullJob{
		ID:         uuid.NewString(),
		Trigger:    trigger,
		Status:     StatusPending,
		Options:    opts,
		StartedAt:  time.Now(),
		cancelFunc: cancel,
	}

	s.jobsMutex.Lock()
	s.jobs[job.ID] = job
	s.jobsMutex.Unlock()

	go s.runJob(jobCtx, job.ID)

	s.logger.Info("pull job started",
		"job_id", job.ID,
		"trigger", trigger,
		"full", opts.Full,
		"dry_run", opts.DryRun,
	)
	return job.ID, nil
}

// GetJob returns a snapshot of a job.
func (s *PullJobs) GetJob(jobID string) (PullJob, error) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return PullJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return *job, nil
}

// ListJobs returns snapshots of all known jobs, newest first.
func (s *PullJobs) ListJobs() []PullJob {
	s.jobsMutex.RLock()
	jobs := make([]PullJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	s.jobsMutex.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
	return jobs
}

// CancelJob cancels a pending or running job.
func (s *PullJobs) CancelJob(jobID string) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.Status != StatusPending && job.Status != StatusRunning {
		return fmt.Errorf("job cannot be cancelled: status=%s", job.Status)
	}

	job.cancelFunc()
	s.finishLocked(job, StatusCancelled, nil, "")
	s.logger.Info("pull job cancelled", "job_id", jobID)
	return nil
}

func (s *PullJobs) runJob(ctx context.Context, jobID string) {
	defer s.running.Unlock()

	s.jobsMutex.Lock()
	job := s.jobs[jobID]
	if job.Status != StatusPending {
		// Cancelled before it started
		s.jobsMutex.Unlock()
		return
	}
	job.Status = StatusRunning
	opts := job.Options
	s.jobsMutex.Unlock()

	results, err := s.puller.Pull(ctx, opts)

	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job.Status != StatusRunning {
		// Cancelled or marked stale while the pull ran
		return
	}
	if err != nil {
		s.finishLocked(job, StatusFailed, results, err.Error())
		s.logger.Error("pull job failed", "job_id", jobID, "error", err)
		return
	}

	s.finishLocked(job, StatusCompleted, results, "")
	for source, result := range results {
		if result == nil {
			continue
		}
		s.logger.Info("pull job source finished",
			"job_id", jobID,
			"source", source,
			"fetched", result.Fetched,
			"inserted", result.Inserted,
			"updated", result.Updated,
			"errors", len(result.Errors),
		)
	}
}

// finishLocked records a terminal state. Caller holds jobsMutex.
func (s *PullJobs) finishLocked(job *PullJob, status JobStatus, results map[string]*appsync.PullResult, errMsg string) {
	now := time.Now()
	job.Status = status
	job.CompletedAt = &now
	job.Error = errMsg
	if results != nil {
		job.Results = results
	}
}

// CleanupOldJobs removes finished jobs older than maxAge.
func (s *PullJobs) CleanupOldJobs(maxAge time.Duration) int {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, job := range s.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("cleaned up old pull jobs", "removed", removed)
	}
	return removed
}

// MarkStaleJobsAsFailed cancels and fails jobs running longer than maxDuration.
// The run lock is released when the cancelled pull returns.
func (s *PullJobs) MarkStaleJobsAsFailed(maxDuration time.Duration) int {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	now := time.Now()
	marked := 0
	for id, job := range s.jobs {
		if job.Status != StatusRunning && job.Status != StatusPending {
			continue
		}
		if now.Sub(job.StartedAt) <= maxDuration {
			continue
		}

		job.cancelFunc()
		s.finishLocked(job, StatusFailed, nil,
			fmt.Sprintf("exceeded max duration of %v", maxDuration))
		s.logger.Warn("marked stale pull job as failed", "job_id", id, "started_at", job.StartedAt)
		marked++
	}
	return marked
}

// StartBackgroundCleanup periodically fails stale jobs and drops jobs
// finished more than a day ago. Call StopBackgroundCleanup to stop it.
func (s *PullJobs) StartBackgroundCleanup(checkInterval time.Duration) {
	s.cleanupStop = make(chan struct{})
	s.cleanupDone = make(chan struct{})

	go func() {
		defer close(s.cleanupDone)

		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.cleanupStop:
				return
			case <-ticker.C:
				s.MarkStaleJobsAsFailed(DefaultJobMaxDuration)
				s.CleanupOldJobs(24 * time.Hour)
			}
		}
	}()
}

// StopBackgroundCleanup stops the cleanup goroutine and waits for it to exit.
func (s *PullJobs) StopBackgroundCleanup() {
	if s.cleanupStop == nil {
		return
	}
	close(s.cleanupStop)
	<-s.cleanupDone
	s.cleanupStop = nil
}

// Schedule starts incremental pulls on a cron spec (e.g. "0 */6 * * *").
// A tick that finds a pull already running is skipped.
func (s *PullJobs) Schedule(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		jobID, err := s.StartPull(TriggerSchedule, appsync.PullOptions{})
		if errors.Is(err, ErrPullRunning) {
			s.logger.Info("scheduled pull skipped, previous pull still running")
			return
		}
		s.logger.Debug("scheduled pull started", "job_id", jobID)
	})
	if err != nil {
		return fmt.Errorf("invalid pull schedule %q: %w", spec, err)
	}

	s.scheduler = c
	c.Start()
	s.logger.Info("pull schedule started", "schedule", spec)
	return nil
}

// StopSchedule stops the scheduler and waits for a running tick to return.
func (s *PullJobs) StopSchedule() {
	if s.scheduler == nil {
		return
	}
	<-s.scheduler.Stop().Done()
	s.scheduler = nil
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	"github.com/noah-isme/lunch-rotation-api/internal/service"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/jobs"
)

const (
	dateLayout  = "2006-01-02"
	maxRetained = 200
)

// Runner executes a notification job.
type Runner interface {
	Run(ctx context.Context, job models.JobType, today time.Time, opts service.RunOptions) (*models.JobResult, error)
}

// Config wires cron specs and the worker queue.
type Config struct {
	Location   *time.Location
	Specs      map[models.JobType]string
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// RunState is the lifecycle of a queued run.
type RunState string

const (
	StateQueued    RunState = "queued"
	StateSucceeded RunState = "succeeded"
	StateFailed    RunState = "failed"
)

// RunStatus describes a queued or finished run.
type RunStatus struct {
	ID         string            `json:"id"`
	Job        models.JobType    `json:"job"`
	Date       string            `json:"date"`
	DryRun     bool              `json:"dry_run"`
	State      RunState          `json:"state"`
	Result     *models.JobResult `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

type payload struct {
	job    models.JobType
	today  time.Time
	dryRun bool
}

// Trigger fires notification jobs on their cron schedule and runs them, as
// well as manually requested runs, on a background queue.
type Trigger struct {
	runner   Runner
	cron     *cron.Cron
	queue    *jobs.Queue
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time

	mu       sync.Mutex
	statuses map[string]*RunStatus
	order    []string
}

// NewTrigger validates the cron specs and builds the trigger. Jobs without a
// spec can still be enqueued manually.
func NewTrigger(runner Runner, cfg Config, logger *zap.Logger) (*Trigger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	t := &Trigger{
		runner:   runner,
		logger:   logger,
		location: cfg.Location,
		now:      time.Now,
		statuses: make(map[string]*RunStatus),
	}
	t.cron = cron.New(cron.WithLocation(cfg.Location), cron.WithLogger(cronLogger{logger: logger.Sugar()}))
	for _, job := range models.AllJobTypes {
		spec, ok := cfg.Specs[job]
		if !ok || spec == "" {
			continue
		}
		if _, err := t.cron.AddFunc(spec, func() { t.fire(job) }); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", job, spec, err)
		}
	}
	t.queue = jobs.NewQueue("notifications", t.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnDone:     t.done,
	})
	return t, nil
}

// Start launches the queue workers and the cron scheduler.
func (t *Trigger) Start(ctx context.Context) {
	t.queue.Start(ctx)
	t.cron.Start()
	t.logger.Info("scheduler started", zap.Int("entries", len(t.cron.Entries())))
}

// Stop waits for running cron callbacks and queued runs to finish.
func (t *Trigger) Stop() {
	<-t.cron.Stop().Done()
	t.queue.Stop()
	t.logger.Info("scheduler stopped")
}

// Enqueue queues a run of job for the given day. A run for the same job and
// day that is still queued or running is rejected.
func (t *Trigger) Enqueue(job models.JobType, today time.Time, dryRun bool) (*RunStatus, error) {
	date := today.In(t.location).Format(dateLayout)
	status := &RunStatus{
		ID:         uuid.NewString(),
		Job:        job,
		Date:       date,
		DryRun:     dryRun,
		State:      StateQueued,
		EnqueuedAt: t.now().UTC(),
	}
	t.remember(status)

	err := t.queue.Enqueue(jobs.Job{
		ID:      status.ID,
		Type:    string(job),
		Key:     fmt.Sprintf("%s:%s", job, date),
		Payload: payload{job: job, today: today, dryRun: dryRun},
	})
	if err != nil {
		t.forget(status.ID)
		if errors.Is(err, jobs.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrLocked, fmt.Sprintf("%s for %s is already queued", job, date))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue job")
	}
	snapshot := *status
	return &snapshot, nil
}

// Status returns the state of a run queued through this trigger.
func (t *Trigger) Status(id string) (*RunStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status, ok := t.statuses[id]
	if !ok {
		return nil, false
	}
	snapshot := *status
	return &snapshot, true
}

func (t *Trigger) fire(job models.JobType) {
	if _, err := t.Enqueue(job, t.now(), false); err != nil {
		t.logger.Warn("scheduled run not queued", zap.String("job", string(job)), zap.Error(err))
	}
}

func (t *Trigger) handle(ctx context.Context, job jobs.Job) error {
	p, ok := job.Payload.(payload)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected payload %T", job.Payload))
	}
	result, err := t.runner.Run(ctx, p.job, p.today, service.RunOptions{DryRun: p.dryRun})
	if err != nil {
		if retryable(err) {
			return err
		}
		return jobs.Permanent(err)
	}
	t.mu.Lock()
	if status, ok := t.statuses[job.ID]; ok {
		status.Result = result
	}
	t.mu.Unlock()
	return nil
}

func (t *Trigger) done(job jobs.Job, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status, ok := t.statuses[job.ID]
	if !ok {
		return
	}
	finished := t.now().UTC()
	status.FinishedAt = &finished
	if err != nil {
		status.State = StateFailed
		status.Error = err.Error()
		return
	}
	status.State = StateSucceeded
}

func (t *Trigger) remember(status *RunStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[status.ID] = status
	t.order = append(t.order, status.ID)
	for len(t.order) > maxRetained {
		delete(t.statuses, t.order[0])
		t.order = t.order[1:]
	}
}

func (t *Trigger) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.statuses, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// retryable reports whether a failed run may succeed if attempted again.
// Configuration, lookup and lock errors will not change on retry.
func retryable(err error) bool {
	for _, permanent := range []*appErrors.Error{
		appErrors.ErrConfiguration,
		appErrors.ErrNotFound,
		appErrors.ErrValidation,
		appErrors.ErrLocked,
	} {
		if errors.Is(err, permanent) {
			return false
		}
	}
	return true
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

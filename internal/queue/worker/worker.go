package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/romanv/postboard/internal/domain/job"
	"github.com/romanv/postboard/internal/jobs"
	"github.com/romanv/postboard/internal/notifications"
	"github.com/romanv/postboard/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkRetry(ctx context.Context, id string, runAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	log      *slog.Logger
	metrics  *observability.JobMetrics

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, notifier notifications.Notifier, log *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		log:      log,
		metrics:  observability.NewJobMetrics(),
	}
}

func (w *Worker) Metrics() *observability.JobMetrics {
	return w.metrics
}

var ErrShutdownGraceElapsed = errors.New("shutdown grace elapsed with jobs still running")

// Run polls until ctx is cancelled. Each slot claims and processes one
// job at a time, so at most Concurrency jobs run per process. After
// cancellation, slots get ShutdownGrace to finish their in-flight job.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ticker := time.NewTicker(w.cfg.PollInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return

				case <-ticker.C:
					// drain the queue before sleeping again
					for {
						processed, err := w.ProcessOne(ctx)

						if err != nil {
							w.log.Error("job processing error", "err", err)
							break
						}

						if !processed {
							break
						}
					}
				}
			}
		}()
	}

	drained := make(chan struct{})

	go func() {
		wg.Wait()
		close(drained)
	}()

	<-ctx.Done()

	select {
	case <-drained:
		w.log.Info("worker shutdown, all slots drained")
		return nil

	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Error("worker shutdown grace elapsed", "grace", w.cfg.ShutdownGrace.String())
		return ErrShutdownGraceElapsed
	}
}

// ProcessOne claims one due job and runs it. Returns false when the
// queue was empty.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	w.metrics.IncClaimed()

	start := time.Now()
	err = w.execute(ctx, j)
	w.metrics.ObserveDuration(time.Since(start))

	if err != nil {
		w.handleFailure(ctx, j, err)
		return true, nil
	}

	err = w.repo.MarkDone(ctx, j.ID)

	if err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.metrics.IncDone()

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	decoded, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	switch p := decoded.(type) {
	case jobs.SendWelcomePayload:
		return w.notifier.SendWelcome(ctx, notifications.SendWelcomeInput{
			UserID: p.UserID,
			Email:  p.Email,
			Name:   p.Name,
		})

	default:
		return jobs.ErrInvalidJobType
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) {
	// attempts was already bumped by the claim
	if j.Attempts >= j.MaxAttempts {
		w.metrics.IncDeadLettered()
		w.log.Error("job dead-lettered", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "err", cause)

		_ = w.repo.MarkFailed(ctx, j.ID, cause.Error())
		return
	}

	delay := ExponentialBackoff(j.Attempts)

	w.metrics.IncRetried()
	w.log.Warn("job retry scheduled", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "delay", delay.String())

	_ = w.repo.MarkRetry(ctx, j.ID, time.Now().UTC().Add(delay), cause.Error())
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

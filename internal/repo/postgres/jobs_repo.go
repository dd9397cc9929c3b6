package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/romanv/postboard/internal/domain/job"
)

type JobsRepo struct {
	pool *pgxpool.Pool
}

func NewJobsRepo(pool *pgxpool.Pool) *JobsRepo {
	return &JobsRepo{pool: pool}
}

func (r *JobsRepo) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO jobs (id, type, payload, status, attempts, max_attempts, run_at, idempotency_key, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		j.ID, j.Type, j.Payload, j.Status, j.Attempts, j.MaxAttempts, j.RunAt, j.IdempotencyKey, j.CreatedAt, j.UpdatedAt,
	)

	if err != nil {
		return job.Job{}, err
	}

	return j, nil
}

// ClaimNext locks one due pending job for this worker. SKIP LOCKED
// keeps concurrent workers from fighting over the same row.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	var j job.Job

	err := r.pool.QueryRow(
		ctx,
		`UPDATE jobs
         SET status = 'processing',
             locked_at = NOW(),
             locked_by = $1,
             attempts = attempts + 1,
             updated_at = NOW()
         WHERE id = (
             SELECT id FROM jobs
             WHERE status = 'pending' AND run_at <= NOW()
             ORDER BY run_at ASC
             LIMIT 1
             FOR UPDATE SKIP LOCKED
         )
         RETURNING id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by, last_error, idempotency_key, created_at, updated_at`,
		workerID,
	).Scan(
		&j.ID, &j.Type, &j.Payload, &j.Status, &j.Attempts, &j.MaxAttempts,
		&j.RunAt, &j.LockedAt, &j.LockedBy, &j.LastError, &j.IdempotencyKey,
		&j.CreatedAt, &j.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound
		}

		return job.Job{}, err
	}

	return j, nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	_, err := r.pool.Exec(
		ctx,
		`UPDATE jobs
         SET status = 'done', locked_at = NULL, locked_by = NULL, updated_at = NOW()
         WHERE id = $1`,
		id,
	)

	return err
}

// MarkRetry puts the job back in the queue with a future run_at.
func (r *JobsRepo) MarkRetry(ctx context.Context, id string, runAt time.Time, lastError string) error {
	_, err := r.pool.Exec(
		ctx,
		`UPDATE jobs
         SET status = 'pending', run_at = $2, last_error = $3,
             locked_at = NULL, locked_by = NULL, updated_at = NOW()
         WHERE id = $1`,
		id, runAt, lastError,
	)

	return err
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, lastError string) error {
	_, err := r.pool.Exec(
		ctx,
		`UPDATE jobs
         SET status = 'failed', last_error = $2,
             locked_at = NULL, locked_by = NULL, updated_at = NOW()
         WHERE id = $1`,
		id, lastError,
	)

	return err
}

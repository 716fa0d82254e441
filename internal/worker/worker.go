package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfimages/internal/extract"
	"github.com/local/pdfimages/internal/metrics"
	"github.com/local/pdfimages/internal/store"
)

// idemTTL keeps the processed-job marker long enough to absorb stream
// redeliveries without growing Redis forever.
const idemTTL = 24 * time.Hour

// Queue is the slice of the Redis queue the worker consumes.
type Queue interface {
	Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error)
	Ack(ctx context.Context, msgID string) error
	EnqueueDelayed(ctx context.Context, payload []byte, executeAt time.Time) error
	AddDLQ(ctx context.Context, payload []byte, reason string) error
	IsCancelled(ctx context.Context, jobID string) (bool, error)
	IsIdemDone(ctx context.Context, key string) (bool, error)
	MarkIdemDone(ctx context.Context, key string, ttl time.Duration) error
}

// StatusStore records job state transitions for polling clients.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st store.Status) error
}

// ResultSink persists the final result payload.
type ResultSink interface {
	SaveResult(ctx context.Context, jobID string, payload []byte) error
}

// JobRunner executes one job. Satisfied by *Runner; a fake in tests.
type JobRunner interface {
	Run(ctx context.Context, job Job, progress func(done, total int)) (*RunResult, error)
}

// Config tunes the worker pool.
type Config struct {
	Concurrency    int
	JobTimeout     time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	BackoffFactor  float64
}

// Worker consumes extraction jobs from the queue and drives them through
// the runner, handling retries, cancellation and idempotent redelivery.
type Worker struct {
	cfg     Config
	q       Queue
	status  StatusStore
	results ResultSink
	runner  JobRunner
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New creates a worker pool. Zero config fields get production defaults.
func New(cfg Config, q Queue, status StatusStore, results ResultSink, runner JobRunner) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 2.0
	}
	return &Worker{cfg: cfg, q: q, status: status, results: results, runner: runner, stop: make(chan struct{})}
}

// Start launches the consumer goroutines.
func (w *Worker) Start() {
	host, _ := os.Hostname()
	if host == "" {
		host = "worker"
	}
	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(fmt.Sprintf("%s-%d", host, i))
	}
}

// Stop signals the loops and waits for in-flight jobs, bounded by ctx.
func (w *Worker) Stop(ctx context.Context) error {
	close(w.stop)
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop(consumer string) {
	defer w.wg.Done()
	log.Info().Str("consumer", consumer).Msg("extraction worker started")
	for {
		select {
		case <-w.stop:
			log.Info().Str("consumer", consumer).Msg("extraction worker stopped")
			return
		default:
		}

		msgID, data, err := w.q.Dequeue(context.Background(), consumer, 2*time.Second)
		if err != nil {
			log.Error().Err(err).Msg("queue dequeue error")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if data == nil {
			continue
		}
		w.handle(context.Background(), msgID, data)
	}
}

// handle processes one delivery through to a terminal queue action. Every
// path Acks: retries re-enter via the delayed set, poison payloads land in
// the DLQ, so nothing should rot in the pending list.
func (w *Worker) handle(ctx context.Context, msgID string, data []byte) {
	job, err := ParseJob(data)
	if err != nil {
		log.Error().Err(err).Str("msg_id", msgID).Msg("dropping unparseable job payload")
		_ = w.q.AddDLQ(ctx, data, "unparseable payload")
		_ = w.q.Ack(ctx, msgID)
		metrics.JobFinished("invalid")
		return
	}

	if done, _ := w.q.IsIdemDone(ctx, job.ID); done {
		log.Debug().Str("job_id", job.ID).Msg("duplicate delivery of finished job, acking")
		_ = w.q.Ack(ctx, msgID)
		return
	}
	if cancelled, _ := w.q.IsCancelled(ctx, job.ID); cancelled {
		log.Info().Str("job_id", job.ID).Msg("job cancelled before processing")
		w.finishCancelled(ctx, job, msgID)
		return
	}

	start := time.Now()
	_ = w.status.Set(ctx, job.ID, store.Status{
		Status:   "processing",
		Progress: 0,
		Message:  "extracting images",
		Start:    &start,
		Metadata: map[string]interface{}{"file_id": job.FileID, "file_name": job.FileName, "attempt": job.Attempt},
	})

	jobCtx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
	defer cancel()

	// Watch the cancel set while the job runs so a long render stops
	// between pages instead of at the end.
	var wasCancelled atomic.Bool
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-jobCtx.Done():
				return
			case <-ticker.C:
				if cancelled, err := w.q.IsCancelled(jobCtx, job.ID); err == nil && cancelled {
					wasCancelled.Store(true)
					cancel()
					return
				}
			}
		}
	}()

	progress := func(done, total int) {
		if total <= 0 {
			return
		}
		pct := done * 100 / total
		if pct > 99 {
			pct = 99
		}
		_ = w.status.Set(jobCtx, job.ID, store.Status{
			Status:   "processing",
			Progress: pct,
			Message:  fmt.Sprintf("processed page %d/%d", done, total),
			Start:    &start,
		})
	}

	runRes, err := w.runner.Run(jobCtx, job, progress)
	if err != nil {
		switch {
		case wasCancelled.Load():
			w.finishCancelled(ctx, job, msgID)
		case errors.Is(jobCtx.Err(), context.DeadlineExceeded):
			w.retryOrFail(ctx, job, msgID, data, fmt.Errorf("job timed out after %s", w.cfg.JobTimeout))
		default:
			var inputErr *extract.InputError
			if errors.As(err, &inputErr) {
				// Bad input never succeeds on retry.
				w.finishFailed(ctx, job, msgID, data, err.Error(), "input rejected")
			} else {
				w.retryOrFail(ctx, job, msgID, data, err)
			}
		}
		return
	}

	payload, err := json.Marshal(runRes)
	if err == nil {
		if serr := w.results.SaveResult(ctx, job.ID, payload); serr != nil {
			log.Error().Err(serr).Str("job_id", job.ID).Msg("failed to persist result payload")
		}
	}

	end := time.Now()
	meta := map[string]interface{}{
		"file_id":         job.FileID,
		"extracted_count": runRes.Result.Count,
		"mode":            string(runRes.Result.Mode),
	}
	if runRes.ZipPath != "" {
		meta["download_url"] = "/download/" + job.FileID
	}
	if runRes.S3URL != "" {
		meta["s3_url"] = runRes.S3URL
	}
	_ = w.status.Set(ctx, job.ID, store.Status{
		Status:   "completed",
		Progress: 100,
		Message:  fmt.Sprintf("extracted %d images", runRes.Result.Count),
		Start:    &start,
		End:      &end,
		Metadata: meta,
	})
	_ = w.q.MarkIdemDone(ctx, job.ID, idemTTL)
	_ = w.q.Ack(ctx, msgID)
	metrics.JobFinished("success")
}

func (w *Worker) finishCancelled(ctx context.Context, job Job, msgID string) {
	end := time.Now()
	_ = w.status.Set(ctx, job.ID, store.Status{
		Status:  "cancelled",
		Message: "cancelled by request",
		End:     &end,
	})
	_ = w.q.MarkIdemDone(ctx, job.ID, idemTTL)
	_ = w.q.Ack(ctx, msgID)
	metrics.JobFinished("cancelled")
}

func (w *Worker) finishFailed(ctx context.Context, job Job, msgID string, data []byte, msg, dlqReason string) {
	log.Error().Str("job_id", job.ID).Int("attempt", job.Attempt).Str("reason", msg).Msg("job failed permanently")
	end := time.Now()
	_ = w.status.Set(ctx, job.ID, store.Status{
		Status:  "failed",
		Message: msg,
		End:     &end,
	})
	_ = w.q.AddDLQ(ctx, data, dlqReason)
	_ = w.q.MarkIdemDone(ctx, job.ID, idemTTL)
	_ = w.q.Ack(ctx, msgID)
	metrics.JobFinished("failed")
}

// retryOrFail schedules the next attempt with exponential backoff, or moves
// the job to the DLQ once attempts are exhausted.
func (w *Worker) retryOrFail(ctx context.Context, job Job, msgID string, data []byte, cause error) {
	nextAttempt := job.Attempt + 1
	if nextAttempt >= w.cfg.MaxAttempts {
		w.finishFailed(ctx, job, msgID, data,
			fmt.Sprintf("failed after %d attempts: %v", w.cfg.MaxAttempts, cause), "attempts exhausted")
		return
	}

	retry := job
	retry.Attempt = nextAttempt
	payload, err := retry.Encode()
	if err != nil {
		w.finishFailed(ctx, job, msgID, data, "failed to encode retry payload: "+err.Error(), "encode error")
		return
	}

	delay := backoffDelay(w.cfg.RetryBaseDelay, w.cfg.BackoffFactor, nextAttempt)
	if err := w.q.EnqueueDelayed(ctx, payload, time.Now().Add(delay)); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to schedule retry")
		w.finishFailed(ctx, job, msgID, data, "failed to schedule retry: "+err.Error(), "retry scheduling error")
		return
	}

	log.Warn().Err(cause).Str("job_id", job.ID).Int("attempt", nextAttempt).
		Dur("delay", delay).Msg("job failed, retry scheduled")
	_ = w.status.Set(ctx, job.ID, store.Status{
		Status:  "queued",
		Message: fmt.Sprintf("attempt %d failed, retrying in %s", job.Attempt+1, delay.Round(time.Second)),
	})
	_ = w.q.Ack(ctx, msgID)
	metrics.IncRetry()
}

// backoffDelay grows base by factor per attempt, capped at five minutes.
func backoffDelay(base time.Duration, factor float64, attempt int) time.Duration {
	d := float64(base)
	for i := 1; i < attempt; i++ {
		d *= factor
	}
	if max := float64(5 * time.Minute); d > max {
		d = max
	}
	return time.Duration(d)
}

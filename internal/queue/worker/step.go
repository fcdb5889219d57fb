package worker

import (
	"context"
	"errors"
	"time"

	"userhub/internal/domain/job"
	"userhub/internal/jobs"
	"userhub/internal/notifications"
)

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

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()
	err = w.execute(ctx, j)

	if err != nil {
		w.handleFailure(ctx, j, err)

		if w.prom != nil {
			result := "retry"
			if j.Attempts+1 >= j.MaxAttempts {
				result = "failed"
			}
			w.prom.ObserveJob(j.Type, result, time.Since(start))
		}
		return true, nil
	}

	if w.prom != nil {
		w.prom.ObserveJob(j.Type, "done", time.Since(start))
	}

	err = w.repo.MarkDone(ctx, j.ID)

	if err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	decoded, err := jobs.DecodePayload(jobs.JobType(j.Type), j.Payload)

	if err != nil {
		return err
	}

	switch p := decoded.(type) {
	case jobs.UserWelcomePayload:
		return w.notifier.SendWelcome(ctx, notifications.SendWelcomeInput{
			UserID: p.UserID,
			Name:   p.Name,
			Email:  p.Email,
		})

	default:
		return jobs.ErrInvalidJobType
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error) {
	// attempts counts completed tries; this one has not been recorded yet
	if j.Attempts+1 >= j.MaxAttempts {
		w.log.Error("job failed permanently", "job_id", j.ID, "type", j.Type, "err", execErr)

		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed error", "job_id", j.ID, "err", err)
		}
		return
	}

	runAt := time.Now().UTC().Add(ExponentialBackoff(j.Attempts))

	w.log.Warn("job retry scheduled", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts+1, "run_at", runAt, "err", execErr)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule error", "job_id", j.ID, "err", err)
	}
}

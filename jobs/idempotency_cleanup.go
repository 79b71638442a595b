package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

// IdempotencyCleanupJob prunes aged idempotency keys so one-shot guards
// do not accumulate forever.
type IdempotencyCleanupJob struct {
	Store  *shared.IdempotencyStore
	Logger *slog.Logger
}

// NewIdempotencyCleanupJob initialises the cleanup handler.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Logger: logger}
}

// Handle removes keys older than the configured retention.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionHours <= 0 {
		payload.RetentionHours = 72
	}
	retention := time.Duration(payload.RetentionHours) * time.Hour
	if err := j.Store.Cleanup(ctx, retention); err != nil {
		j.Logger.Error("idempotency cleanup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("idempotency keys pruned", slog.Int("retention_hours", payload.RetentionHours))
	return nil
}

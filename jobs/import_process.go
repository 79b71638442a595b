package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockroom-hq/stockroom/internal/importer"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

// ImportProcessJob runs bulk imports queued by the upload endpoint so
// large files are processed off-request.
type ImportProcessJob struct {
	Importer importPort
	Logger   *slog.Logger
}

type importPort interface {
	Import(ctx context.Context, entity importer.Entity, format importer.Format, r io.Reader) (importer.Result, error)
}

// NewImportProcessJob initialises the import handler.
func NewImportProcessJob(imp importPort, logger *slog.Logger) *ImportProcessJob {
	return &ImportProcessJob{Importer: imp, Logger: logger}
}

// Handle executes one queued import. Row-level failures are part of
// the result, not a task failure; only a rejected file errors.
func (j *ImportProcessJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Importer == nil {
		return errors.New("import process: handler not configured")
	}
	var payload ImportProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	result, err := j.Importer.Import(ctx, importer.Entity(payload.Entity), importer.Format(payload.Format), bytes.NewReader(payload.Data))
	if err != nil {
		j.Logger.Error("queued import failed",
			slog.Any("error", err),
			slog.String("entity", payload.Entity),
			slog.String("filename", payload.Filename))
		if errors.Is(err, shared.ErrValidation) {
			// Malformed files fail permanently.
			return asynq.SkipRetry
		}
		return err
	}

	j.Logger.Info("queued import finished",
		slog.String("entity", payload.Entity),
		slog.String("filename", payload.Filename),
		slog.Int("total", result.TotalRows),
		slog.Int("imported", result.Imported),
		slog.Int("failed", result.Failed))
	return nil
}

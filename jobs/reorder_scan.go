package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/stockroom-hq/stockroom/internal/inventory"
)

// ReorderScanJob finds products whose aggregate on-hand quantity has
// fallen to or below their reorder level and raises a digest.
type ReorderScanJob struct {
	Inventory inventoryPort
	Client    *Client
	Logger    *slog.Logger
}

type inventoryPort interface {
	ReorderAlerts(ctx context.Context) ([]inventory.ReorderAlert, error)
}

// NewReorderScanJob initialises the scan handler.
func NewReorderScanJob(inv inventoryPort, client *Client, logger *slog.Logger) *ReorderScanJob {
	return &ReorderScanJob{Inventory: inv, Client: client, Logger: logger}
}

// Handle executes the low-stock scan.
func (j *ReorderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Inventory == nil {
		return errors.New("reorder scan: handler not configured")
	}
	var payload ReorderScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	alerts, err := j.Inventory.ReorderAlerts(ctx)
	if err != nil {
		j.Logger.Error("reorder scan failed", slog.Any("error", err))
		return err
	}
	if len(alerts) == 0 {
		j.Logger.Info("reorder scan found nothing below threshold")
		return nil
	}

	for _, alert := range alerts {
		j.Logger.Warn("product below reorder level",
			slog.String("sku", alert.SKU),
			slog.Int64("on_hand", alert.TotalQuantity),
			slog.Int64("reorder_level", alert.ReorderLevel),
			slog.Int64("suggested_order", alert.ReorderQuantity))
	}

	if payload.NotifyEmail != "" && j.Client != nil {
		var body strings.Builder
		for _, alert := range alerts {
			fmt.Fprintf(&body, "%s (%s): on hand %d, reorder at %d, suggested order %d\n",
				alert.SKU, alert.Name, alert.TotalQuantity, alert.ReorderLevel, alert.ReorderQuantity)
		}
		_, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      payload.NotifyEmail,
			Subject: fmt.Sprintf("%d products below reorder level", len(alerts)),
			Body:    body.String(),
		})
		if err != nil {
			j.Logger.Error("enqueue reorder digest failed", slog.Any("error", err))
			return err
		}
	}
	return nil
}

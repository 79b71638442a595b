package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeReorderScan is the task type for the low-stock scan.
	TaskTypeReorderScan = "stock:reorder-scan"
	// TaskTypeIdempotencyCleanup prunes aged idempotency keys.
	TaskTypeIdempotencyCleanup = "maintenance:idempotency-cleanup"
	// TaskTypeImportProcess runs a bulk import off-request.
	TaskTypeImportProcess = "import:process"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP once an outbound relay exists.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// ReorderScanPayload configures one low-stock scan run.
type ReorderScanPayload struct {
	// NotifyEmail receives a digest when any product is below its
	// reorder level. Empty means log-only.
	NotifyEmail string `json:"notify_email,omitempty"`
}

// NewReorderScanTask constructs the scan task.
func NewReorderScanTask(payload ReorderScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReorderScan, data), nil
}

// IdempotencyCleanupPayload configures the retention window in hours.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeIdempotencyCleanup, data), nil
}

// ImportProcessPayload carries one uploaded bulk file to the worker.
// Data holds the raw file bytes; the upload endpoint caps their size.
type ImportProcessPayload struct {
	Entity   string `json:"entity"`
	Format   string `json:"format"`
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"data"`
}

// NewImportProcessTask constructs the import task.
func NewImportProcessTask(payload ImportProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeImportProcess, data), nil
}

package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/importer"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

type fakeImporter struct {
	entity importer.Entity
	format importer.Format
	data   []byte
	result importer.Result
	err    error
}

func (f *fakeImporter) Import(ctx context.Context, entity importer.Entity, format importer.Format, r io.Reader) (importer.Result, error) {
	f.entity = entity
	f.format = format
	data, err := io.ReadAll(r)
	if err != nil {
		return importer.Result{}, err
	}
	f.data = data
	return f.result, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestImportProcessRunsQueuedFile(t *testing.T) {
	imp := &fakeImporter{result: importer.Result{TotalRows: 2, Imported: 2}}
	job := NewImportProcessJob(imp, discardLogger())

	payload := `sku,name,unit_price` + "\n" + `SKU-1,Bolt,2.50` + "\n" + `SKU-2,Nut,1.10`
	task, err := NewImportProcessTask(ImportProcessPayload{
		Entity:   "products",
		Format:   "csv",
		Filename: "stock.csv",
		Data:     []byte(payload),
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, importer.EntityProduct, imp.entity)
	require.Equal(t, importer.FormatCSV, imp.format)
	require.Equal(t, []byte(payload), imp.data)
}

func TestImportProcessMalformedPayloadSkipsRetry(t *testing.T) {
	job := NewImportProcessJob(&fakeImporter{}, discardLogger())

	task := asynq.NewTask(TaskTypeImportProcess, []byte("not json"))
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestImportProcessRejectedFileSkipsRetry(t *testing.T) {
	imp := &fakeImporter{err: fmt.Errorf("%w: file has no data rows", shared.ErrValidation)}
	job := NewImportProcessJob(imp, discardLogger())

	task, err := NewImportProcessTask(ImportProcessPayload{Entity: "products", Format: "csv"})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestImportProcessTransientFailureRetries(t *testing.T) {
	imp := &fakeImporter{err: fmt.Errorf("connection refused")}
	job := NewImportProcessJob(imp, discardLogger())

	task, err := NewImportProcessTask(ImportProcessPayload{Entity: "products", Format: "csv"})
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

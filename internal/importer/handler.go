package importer

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/stockroom-hq/stockroom/internal/authz"
	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
)

// maxUploadBytes caps the multipart memory buffer.
const maxUploadBytes = 16 << 20

// QueuePort hands an uploaded file to the background worker.
type QueuePort interface {
	EnqueueImportProcess(ctx context.Context, entity, format, filename string, data []byte) (*asynq.TaskInfo, error)
}

type Handler struct {
	logger  *slog.Logger
	service *Service
	queue   QueuePort
	authz   authz.Middleware
}

// NewHandler builds Handler. queue may be nil; async uploads are then
// rejected.
func NewHandler(logger *slog.Logger, service *Service, queue QueuePort, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, queue: queue, authz: authz}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("import", authz.ActionCreate))
		r.Post("/{entity}", h.Import)
	})
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	entity := Entity(chi.URLParam(r, "entity"))
	if !entity.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown import entity")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "multipart form with a file field required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file field required")
		return
	}
	defer file.Close()

	format := Format(r.URL.Query().Get("format"))
	if format == "" {
		format, err = FormatFromFilename(header.Filename)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "cannot determine file format; use csv, xlsx, or json")
			return
		}
	}

	if r.URL.Query().Get("async") == "true" {
		h.enqueue(w, r, entity, format, header.Filename, file)
		return
	}

	result, err := h.service.Import(r.Context(), entity, format, file)
	if err != nil {
		h.logger.Error("bulk import failed", slog.Any("error", err), slog.String("entity", string(entity)))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// enqueue queues the file for off-request processing and answers 202.
func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, entity Entity, format Format, filename string, file io.Reader) {
	if h.queue == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "background imports are not configured")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "cannot read uploaded file")
		return
	}
	if len(data) > maxUploadBytes {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Validation Failed", "uploaded file too large")
		return
	}
	info, err := h.queue.EnqueueImportProcess(r.Context(), string(entity), string(format), filename, data)
	if err != nil {
		h.logger.Error("enqueue import failed", slog.Any("error", err), slog.String("entity", string(entity)))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"status":  "queued",
		"task_id": info.ID,
	})
}

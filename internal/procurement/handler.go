package procurement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-hq/stockroom/internal/authz"
	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

// Order payloads are validated in the service layer, which owns the
// derived-total and lifecycle rules; the handler only parses.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: authz}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchase_order", authz.ActionRead))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchase_order", authz.ActionCreate))
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchase_order", authz.ActionUpdate))
		r.Put("/{id}", h.Update)
		r.Post("/{id}/submit", h.Submit)
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/{id}/receive", h.Receive)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("purchase_order", authz.ActionDelete))
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := OrderFilter{
		SupplierID:  parseInt(query.Get("supplier_id")),
		WarehouseID: parseInt(query.Get("warehouse_id")),
		Status:      POStatus(query.Get("status")),
		Search:      query.Get("search"),
		Page:        int(parseInt(query.Get("page"))),
		Limit:       int(parseInt(query.Get("limit"))),
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Status != "" && !filter.Status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status filter")
		return
	}
	orders, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list purchase orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": shared.NewPagination(filter.Page, filter.Limit, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateOrderInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	order, err := h.service.CreateOrder(r.Context(), input)
	if err != nil {
		h.respondOrderError(w, err, "create purchase order failed")
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var input UpdateOrderInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	order, err := h.service.UpdateOrder(r.Context(), id, input)
	if err != nil {
		h.respondOrderError(w, err, "update purchase order failed")
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.service.SubmitOrder)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.service.CancelOrder)
}

func (h *Handler) applyTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) error) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), id); err != nil {
		h.respondOrderError(w, err, "purchase order transition failed")
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var input ReceiveInput
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &input); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
			return
		}
	}
	order, err := h.service.ReceiveOrder(r.Context(), id, input)
	if err != nil {
		h.respondOrderError(w, err, "receive purchase order failed")
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete purchase order failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondOrderError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrNoItems):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	default:
		h.logger.Error(logMsg, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
		return 0, false
	}
	return id, true
}

func parseInt(raw string) int64 {
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return value
}

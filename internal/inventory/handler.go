package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-hq/stockroom/internal/authz"
	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	authz    authz.Middleware
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: authz, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("stock", authz.ActionRead))
		r.Get("/levels", h.ListLevels)
		r.Get("/levels/{productID}/{warehouseID}", h.ShowLevel)
		r.Get("/movements", h.ListMovements)
		r.Get("/reorder-alerts", h.ReorderAlerts)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("stock", authz.ActionCreate))
		r.Post("/movements", h.RecordMovement)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("stock", authz.ActionUpdate))
		r.Put("/reservations", h.Reserve)
		r.Post("/levels/{productID}/{warehouseID}/count", h.CountStock)
	})
}

func (h *Handler) ListLevels(w http.ResponseWriter, r *http.Request) {
	filter := LevelFilter{
		ProductID:   queryInt64(r, "product_id"),
		WarehouseID: queryInt64(r, "warehouse_id"),
		Page:        int(queryInt64(r, "page")),
		Limit:       int(queryInt64(r, "limit")),
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	levels, total, err := h.service.ListLevels(r.Context(), filter)
	if err != nil {
		h.logger.Error("list stock levels failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       levels,
		"pagination": shared.NewPagination(filter.Page, filter.Limit, total),
	})
}

func (h *Handler) ShowLevel(w http.ResponseWriter, r *http.Request) {
	productID, err1 := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	warehouseID, err2 := strconv.ParseInt(chi.URLParam(r, "warehouseID"), 10, 64)
	if err1 != nil || err2 != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product or warehouse id")
		return
	}
	level, err := h.service.GetLevel(r.Context(), productID, warehouseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, level)
}

type movementRequest struct {
	ProductID       int64  `json:"product_id" validate:"required,gt=0"`
	WarehouseID     int64  `json:"warehouse_id" validate:"required,gt=0"`
	MovementType    string `json:"movement_type" validate:"required,oneof=IN OUT TRANSFER ADJUSTMENT"`
	Quantity        int64  `json:"quantity" validate:"required,gt=0"`
	ReferenceNumber string `json:"reference_number"`
	Notes           string `json:"notes"`
}

func (h *Handler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var payload movementRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.RecordMovement(r.Context(), MovementInput{
		ProductID:       payload.ProductID,
		WarehouseID:     payload.WarehouseID,
		Type:            MovementType(payload.MovementType),
		Quantity:        payload.Quantity,
		ReferenceNumber: payload.ReferenceNumber,
		Notes:           payload.Notes,
	})
	if err != nil {
		switch err {
		case ErrNegativeStock, ErrInvalidQuantity, ErrInvalidMovementType:
			httpx.Problem(w, http.StatusUnprocessableEntity, "Movement Rejected", err.Error())
			return
		case shared.ErrIdempotencyConflict:
			httpx.Problem(w, http.StatusConflict, "Duplicate Movement", err.Error())
			return
		}
		h.logger.Error("record movement failed", slog.Any("error", err),
			slog.Int64("product_id", payload.ProductID), slog.Int64("warehouse_id", payload.WarehouseID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	filter := MovementFilter{
		ProductID:   queryInt64(r, "product_id"),
		WarehouseID: queryInt64(r, "warehouse_id"),
		Type:        MovementType(r.URL.Query().Get("movement_type")),
		Page:        int(queryInt64(r, "page")),
		Limit:       int(queryInt64(r, "limit")),
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	movements, total, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       movements,
		"pagination": shared.NewPagination(filter.Page, filter.Limit, total),
	})
}

type reserveRequest struct {
	ProductID        int64 `json:"product_id" validate:"required,gt=0"`
	WarehouseID      int64 `json:"warehouse_id" validate:"required,gt=0"`
	ReservedQuantity int64 `json:"reserved_quantity" validate:"gte=0"`
}

func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var payload reserveRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	level, err := h.service.Reserve(r.Context(), payload.ProductID, payload.WarehouseID, payload.ReservedQuantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, level)
}

func (h *Handler) CountStock(w http.ResponseWriter, r *http.Request) {
	productID, err1 := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	warehouseID, err2 := strconv.ParseInt(chi.URLParam(r, "warehouseID"), 10, 64)
	if err1 != nil || err2 != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product or warehouse id")
		return
	}
	level, err := h.service.CountStock(r.Context(), productID, warehouseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, level)
}

func (h *Handler) ReorderAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ReorderAlerts(r.Context())
	if err != nil {
		h.logger.Error("reorder alerts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": alerts})
}

func queryInt64(r *http.Request, key string) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return value
}

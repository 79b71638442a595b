package suppliers

import (
	"github.com/go-chi/chi/v5"

	"github.com/stockroom-hq/stockroom/internal/authz"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("supplier", authz.ActionRead))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("supplier", authz.ActionCreate))
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("supplier", authz.ActionUpdate))
		r.Put("/{id}", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Require("supplier", authz.ActionDelete))
		r.Delete("/{id}", h.Delete)
	})
}

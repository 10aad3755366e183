package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lunajoyas/catalogo/internal/models"
	"github.com/lunajoyas/catalogo/internal/services"
)

const maxImportBodyBytes = 5 << 20 // 5 MB

// ResourceRoutes are the CRUD handlers of one admin collection.
type ResourceRoutes struct {
	Kind   string
	List   http.HandlerFunc
	Create http.HandlerFunc
	Get    http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

func resourceRoutes[T any](h *Handlers, res *services.Resource[T]) ResourceRoutes {
	return ResourceRoutes{
		Kind: res.Kind(),
		List: func(w http.ResponseWriter, r *http.Request) {
			items, err := res.List(r.Context())
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			h.writeJSON(w, r, http.StatusOK, items)
		},
		Create: func(w http.ResponseWriter, r *http.Request) {
			var entity T
			if err := decodeJSON(w, r, &entity); err != nil {
				h.writeError(w, r, err)
				return
			}
			created, err := res.Create(r.Context(), &entity)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			h.writeJSON(w, r, http.StatusCreated, created)
		},
		Get: func(w http.ResponseWriter, r *http.Request) {
			item, err := res.Get(r.Context(), mux.Vars(r)["id"])
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			h.writeJSON(w, r, http.StatusOK, item)
		},
		Update: func(w http.ResponseWriter, r *http.Request) {
			var entity T
			if err := decodeJSON(w, r, &entity); err != nil {
				h.writeError(w, r, err)
				return
			}
			updated, err := res.Update(r.Context(), mux.Vars(r)["id"], &entity)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			h.writeJSON(w, r, http.StatusOK, updated)
		},
		Delete: func(w http.ResponseWriter, r *http.Request) {
			if err := res.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
				h.writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		},
	}
}

// AdminResources lists the CRUD handlers of every admin collection.
func (h *Handlers) AdminResources() []ResourceRoutes {
	return []ResourceRoutes{
		resourceRoutes(h, h.catalog.Products),
		resourceRoutes(h, h.catalog.Categories),
		resourceRoutes(h, h.catalog.Tags),
		resourceRoutes(h, h.catalog.Collections),
		resourceRoutes(h, h.catalog.ShippingOptions),
		resourceRoutes(h, h.catalog.PaymentMethods),
	}
}

func (h *Handlers) GetPricing(w http.ResponseWriter, r *http.Request) {
	pricing, err := h.catalog.Pricing(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, pricing)
}

func (h *Handlers) PutPricing(w http.ResponseWriter, r *http.Request) {
	var pricing models.PricingConfig
	if err := decodeJSON(w, r, &pricing); err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.catalog.SavePricing(r.Context(), &pricing)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, saved)
}

func (h *Handlers) GetDiscount(w http.ResponseWriter, r *http.Request) {
	discount, err := h.catalog.Discount(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, discount)
}

func (h *Handlers) PutDiscount(w http.ResponseWriter, r *http.Request) {
	var discount models.GlobalDiscount
	if err := decodeJSON(w, r, &discount); err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.catalog.SaveDiscount(r.Context(), &discount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, saved)
}

// Import loads a YAML seed from the request body.
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err != nil {
		h.writeError(w, r, services.UserError{Message: "Seed file is too large or unreadable"})
		return
	}
	result, err := h.catalog.Import(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"message": h.translator.T(h.locale(r), "admin.imported"),
		"result":  result,
	})
}

type exportRequest struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	Collection string   `json:"collection"`
	Search     string   `json:"search"`
	Sort       string   `json:"sort"`
	Locale     string   `json:"locale"`
}

// AdminExport renders a catalog from JSON filters, including the admin's
// choice of locale.
func (h *Handlers) AdminExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	locale := h.locale(r)
	if req.Locale != "" {
		locale = h.translator.Normalize(req.Locale)
	}
	h.export(w, r, services.Query{
		Categories: nonEmpty(req.Categories),
		Tags:       nonEmpty(req.Tags),
		Collection: req.Collection,
		Search:     req.Search,
		Sort:       req.Sort,
		Locale:     locale,
	})
}

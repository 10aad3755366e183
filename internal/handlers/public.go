package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lunajoyas/catalogo/internal/services"
)

func (h *Handlers) queryFromRequest(r *http.Request) services.Query {
	values := r.URL.Query()
	return services.Query{
		Categories: nonEmpty(values["category"]),
		Tags:       nonEmpty(values["tag"]),
		Collection: strings.TrimSpace(values.Get("collection")),
		Search:     strings.TrimSpace(values.Get("q")),
		Sort:       values.Get("sort"),
		Locale:     h.locale(r),
	}
}

func (h *Handlers) Catalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.storefront.ListProducts(r.Context(), h.queryFromRequest(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"products": products,
		"count":    len(products),
	})
}

func (h *Handlers) Product(w http.ResponseWriter, r *http.Request) {
	detail, err := h.storefront.Product(r.Context(), mux.Vars(r)["id"], h.locale(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, detail)
}

// localizedList serves one of the storefront's localized listings.
func localizedList[T any](h *Handlers, load func(ctx context.Context, locale string) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := load(r.Context(), h.locale(r))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, r, http.StatusOK, items)
	}
}

func (h *Handlers) Categories() http.HandlerFunc {
	return localizedList(h, h.storefront.Categories)
}

func (h *Handlers) Tags() http.HandlerFunc {
	return localizedList(h, h.storefront.Tags)
}

func (h *Handlers) Collections() http.HandlerFunc {
	return localizedList(h, h.storefront.Collections)
}

func (h *Handlers) ShippingOptions() http.HandlerFunc {
	return localizedList(h, h.storefront.ShippingOptions)
}

func (h *Handlers) PaymentMethods() http.HandlerFunc {
	return localizedList(h, h.storefront.PaymentMethods)
}

func (h *Handlers) Promotion(w http.ResponseWriter, r *http.Request) {
	promo, err := h.storefront.Promotion(r.Context(), h.locale(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"promotion": promo})
}

func (h *Handlers) Dictionary(w http.ResponseWriter, r *http.Request) {
	locale := h.translator.Normalize(mux.Vars(r)["locale"])
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"locale":   locale,
		"messages": h.translator.Dictionary(locale),
	})
}

// ExportCatalog renders the filtered storefront as a PDF download.
func (h *Handlers) ExportCatalog(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.queryFromRequest(r))
}

func (h *Handlers) export(w http.ResponseWriter, r *http.Request, q services.Query) {
	result, err := h.exports.Export(r.Context(), q, nil)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("catalog export failed", "error", err)
		h.writeJSON(w, r, http.StatusInternalServerError, errorResponse{
			Error: h.translator.T(q.Locale, "export.error"),
		})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.loggerFromContext(r.Context()).Warn("failed to write export", "error", err)
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

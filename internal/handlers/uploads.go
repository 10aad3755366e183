package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lunajoyas/catalogo/internal/media"
	"github.com/lunajoyas/catalogo/internal/services"
)

const maxUploadBytes = 15 << 20 // 15 MB

// Upload sends the multipart "file" field to the image CDN.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		http.Error(w, "Uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, services.UserError{Message: "Invalid upload"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, services.UserError{Message: "A file field is required"})
		return
	}
	defer func() {
		_ = file.Close()
	}()

	// Clients often label parts application/octet-stream, so the type is
	// sniffed from the content instead of the part header.
	detected, err := mimetype.DetectReader(file)
	if err != nil {
		h.writeError(w, r, services.UserError{Message: "Invalid upload"})
		return
	}
	if !strings.HasPrefix(detected.String(), "image/") {
		h.loggerFromContext(r.Context()).Info("upload rejected", "filename", header.Filename, "detected", detected.String())
		h.writeError(w, r, services.UserError{Message: "Only images can be uploaded"})
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.writeError(w, r, err)
		return
	}

	asset, err := h.uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	thumbnail, detail := media.Variants(asset.URL)
	h.loggerFromContext(r.Context()).Info("image uploaded", "public_id", asset.PublicID, "bytes", asset.Bytes)
	h.writeJSON(w, r, http.StatusCreated, map[string]any{
		"asset":     asset,
		"thumbnail": thumbnail,
		"detail":    detail,
	})
}

// DeleteUpload removes an asset by public_id or by its delivery url.
func (h *Handlers) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		http.Error(w, "Uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	publicID := strings.TrimSpace(r.URL.Query().Get("public_id"))
	if publicID == "" {
		if id, ok := media.PublicIDFromURL(r.URL.Query().Get("url")); ok {
			publicID = id
		}
	}
	if publicID == "" {
		h.writeError(w, r, services.UserError{Message: "public_id or url is required"})
		return
	}

	if err := h.uploader.Destroy(r.Context(), publicID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

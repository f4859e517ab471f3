package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/storefront/internal/application"
)

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Download(r.Context(), application.DownloadRequest{
		Token:     chi.URLParam(r, "token"),
		IPAddress: readIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "download", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, res.URL, http.StatusFound)
}

func (h *Handler) downloadStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.DownloadStatus(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeMappedError(r.Context(), w, "download_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

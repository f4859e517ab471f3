package storage

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/storefront/internal/domain"
)

// FileHandler serves GET /files/{key}?sig=... for URLs minted by LocalStore.
func FileHandler(store *LocalStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := url.PathUnescape(chi.URLParam(r, "*"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := store.Verify(key, r.URL.Query().Get(signatureParam)); err != nil {
			logger.WarnContext(r.Context(), "file signature rejected",
				"module", "storage",
				"layer", "adapter",
				"operation", "serve_file",
				"outcome", "denied",
				"error", err,
			)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		f, info, err := store.Open(key)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
				http.Error(w, "not found", http.StatusNotFound)
			default:
				logger.ErrorContext(r.Context(), "file open failed",
					"module", "storage",
					"layer", "adapter",
					"operation", "serve_file",
					"outcome", "failure",
					"error", err,
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		defer f.Close()

		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name()}))
		w.Header().Set("Cache-Control", "private, no-store")
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	}
}

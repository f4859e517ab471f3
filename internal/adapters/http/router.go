package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/viralforge/storefront/internal/application"
)

// Handler is the HTTP adapter entrypoint for storefront use-cases.
type Handler struct {
	service *application.Service
	cookies CookieConfig
}

func NewHandler(service *application.Service, cookies CookieConfig) *Handler {
	return &Handler{service: service, cookies: cookies.withDefaults()}
}

// RouterConfig carries the optional parts of the HTTP surface.
type RouterConfig struct {
	// Files serves signed object URLs. Nil when another host serves them.
	Files http.Handler
	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP replace the peer address.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
	// Ready backs /readyz. Nil reports ready unconditionally.
	Ready ReadinessCheck
}

// NewRouter registers storefront routes and the middleware stack.
func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", readyz(cfg.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/products", handler.listProducts)
	r.Post("/checkout", handler.createCheckout)
	r.Get("/checkout", handler.checkoutStatus)
	r.Post("/webhooks/stripe", handler.stripeWebhook)

	r.Get("/download/{token}", handler.download)
	r.Post("/download/{token}", handler.downloadStatus)
	if cfg.Files != nil {
		r.Handle("/files/*", cfg.Files)
	}

	r.Post("/login", handler.requestLogin)
	r.Post("/login/verify", handler.verifyLogin)
	r.Post("/logout", handler.logout)

	r.Group(func(r chi.Router) {
		r.Use(handler.sessionMiddleware)
		r.Get("/account/purchases", handler.accountPurchases)
	})

	r.Post("/newsletter", handler.subscribeNewsletter)
	r.Post("/contact", handler.submitContact)

	return r
}

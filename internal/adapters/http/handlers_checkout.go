package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/viralforge/storefront/internal/application"
)

const stripeSignatureHeader = "Stripe-Signature"

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListProducts(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "list_products", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"products": items})
}

func (h *Handler) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req application.CreateCheckoutRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeValidationError(r.Context(), w, "create_checkout", err)
			return
		}
	}
	res, err := h.service.CreateCheckout(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_checkout", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) checkoutStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.CheckoutStatus(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "checkout_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"purchase": res})
}

func (h *Handler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeValidationError(r.Context(), w, "stripe_webhook", errors.New("request body too large"))
		return
	}
	res, err := h.service.HandlePaymentWebhook(r.Context(), payload, r.Header.Get(stripeSignatureHeader))
	if err != nil {
		writeMappedError(r.Context(), w, "stripe_webhook", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

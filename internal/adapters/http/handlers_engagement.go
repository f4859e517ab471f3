package http

import (
	"errors"
	"net/http"

	"github.com/viralforge/storefront/internal/application"
	"github.com/viralforge/storefront/internal/domain"
)

func (h *Handler) subscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	var req application.NewsletterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "subscribe_newsletter", err)
		return
	}
	req.IPAddress = readIP(r)

	res, err := h.service.SubscribeNewsletter(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			logRequestFailure(r.Context(), "subscribe_newsletter", http.StatusConflict, "ALREADY_SUBSCRIBED", "already subscribed", err)
			writeError(w, http.StatusConflict, "ALREADY_SUBSCRIBED", "already subscribed")
			return
		}
		writeMappedError(r.Context(), w, "subscribe_newsletter", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	var req application.ContactRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "submit_contact", err)
		return
	}
	req.IPAddress = readIP(r)

	res, err := h.service.SubmitContact(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "submit_contact", err)
		return
	}
	writeMessage(w, http.StatusOK, res.Message)
}

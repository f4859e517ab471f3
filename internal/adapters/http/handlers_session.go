package http

import (
	"errors"
	"net/http"

	"github.com/viralforge/storefront/internal/application"
	"github.com/viralforge/storefront/internal/domain"
)

func (h *Handler) requestLogin(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "request_login", err)
		return
	}
	req.IPAddress = readIP(r)

	res, err := h.service.RequestLogin(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "request_login", err)
		return
	}
	writeMessage(w, http.StatusOK, res.Message)
}

func (h *Handler) verifyLogin(w http.ResponseWriter, r *http.Request) {
	var req application.VerifyLoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "verify_login", err)
		return
	}
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()

	res, err := h.service.VerifyLogin(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			logRequestFailure(r.Context(), "verify_login", http.StatusUnauthorized, "INVALID_LOGIN_LINK", "login link rejected", err)
			writeError(w, http.StatusUnauthorized, "INVALID_LOGIN_LINK", "Invalid or expired login link")
			return
		}
		writeMappedError(r.Context(), w, "verify_login", err)
		return
	}

	h.setSessionCookie(w, res.SessionToken, res.SessionExpiresAt)
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), h.sessionTokenFromRequest(r)); err != nil {
		logRequestFailure(r.Context(), "logout", http.StatusOK, "LOGOUT_DEACTIVATE_FAILED", "session deactivation failed", err)
	}
	h.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logged out")
}

func (h *Handler) accountPurchases(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "account_purchases", domain.ErrUnauthorized)
		return
	}
	items, err := h.service.AccountPurchases(r.Context(), session.Email)
	if err != nil {
		writeMappedError(r.Context(), w, "account_purchases", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"email":     session.Email,
		"purchases": items,
	})
}

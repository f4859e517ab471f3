package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
)

// LoginRequestedMessage is returned for every accepted login request, whether or not the email is a customer.
const LoginRequestedMessage = "If an account exists with this email, you will receive a login link shortly."

const accountRedirect = "/account"

// RequestLogin mails a single-use login link to customers with a completed purchase.
// The response never reveals whether the email matched.
func (s *Service) RequestLogin(ctx context.Context, req LoginRequest) (MessageResponse, error) {
	if err := s.enforceRateLimit(ctx, "login", req.IPAddress, s.cfg.LoginRateLimit); err != nil {
		loginRequestsTotal.WithLabelValues("request", "rate_limited").Inc()
		return MessageResponse{}, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		loginRequestsTotal.WithLabelValues("request", "invalid").Inc()
		return MessageResponse{}, err
	}

	generic := MessageResponse{Message: LoginRequestedMessage}
	isCustomer, err := s.purchases.HasCompletedByEmail(ctx, email)
	if err != nil {
		return MessageResponse{}, fmt.Errorf("lookup purchases: %w", err)
	}
	if !isCustomer {
		loginRequestsTotal.WithLabelValues("request", "no_purchases").Inc()
		return generic, nil
	}

	now := s.nowFn()
	token := domain.LoginToken{
		ID:        uuid.New(),
		Email:     email,
		Token:     domain.GenerateToken(domain.LoginTokenBytes),
		ExpiresAt: now.Add(s.cfg.LoginTokenTTL),
		CreatedAt: now,
	}
	if err := s.loginTokens.Create(ctx, token); err != nil {
		// Answering with an error here would only happen for customers, so stay generic.
		appLogger().ErrorContext(ctx, "failed to persist login token",
			"operation", "request_login",
			"outcome", "failure",
			"error", err,
		)
		loginRequestsTotal.WithLabelValues("request", "error").Inc()
		return generic, nil
	}

	s.enqueueEmail(ctx, eventTypeLoginLink, email, s.loginLinkEmail(email, token.Token, s.cfg.LoginTokenTTL))
	loginRequestsTotal.WithLabelValues("request", "sent").Inc()
	return generic, nil
}

// VerifyLogin consumes a login token and opens a session for its email.
// All verification failures collapse into domain.ErrUnauthorized.
func (s *Service) VerifyLogin(ctx context.Context, req VerifyLoginRequest) (VerifyLoginResponse, error) {
	token := strings.TrimSpace(req.Token)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if token == "" || email == "" {
		return VerifyLoginResponse{}, fmt.Errorf("%w: token and email are required", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	consumed, err := s.loginTokens.Consume(ctx, token, email, now)
	if err != nil {
		return VerifyLoginResponse{}, fmt.Errorf("consume login token: %w", err)
	}
	if !consumed {
		appLogger().WarnContext(ctx, "login token rejected",
			"operation", "verify_login",
			"outcome", "failure",
			"reason", "unknown_used_or_expired",
			"ip_address", req.IPAddress,
		)
		loginRequestsTotal.WithLabelValues("verify", "rejected").Inc()
		return VerifyLoginResponse{}, domain.ErrUnauthorized
	}

	session, err := s.sessions.Create(ctx, domain.UserSession{
		ID:             uuid.New(),
		Email:          email,
		SessionToken:   domain.GenerateToken(domain.SessionTokenBytes),
		ExpiresAt:      now.Add(s.cfg.SessionTTL),
		IsActive:       true,
		CreatedAt:      now,
		LastActivityAt: now,
	})
	if err != nil {
		return VerifyLoginResponse{}, fmt.Errorf("create session: %w", err)
	}

	purchases, err := s.AccountPurchases(ctx, email)
	if err != nil {
		appLogger().WarnContext(ctx, "failed to load purchases after login",
			"operation", "verify_login",
			"outcome", "warning",
			"error", err,
		)
		purchases = []PurchaseSummary{}
	}

	loginRequestsTotal.WithLabelValues("verify", "success").Inc()
	return VerifyLoginResponse{
		SessionToken:     session.SessionToken,
		SessionExpiresAt: session.ExpiresAt,
		Email:            email,
		Redirect:         accountRedirect,
		Purchases:        purchases,
	}, nil
}

// Authenticate resolves an active, unexpired session from its token.
func (s *Service) Authenticate(ctx context.Context, sessionToken string) (domain.UserSession, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return domain.UserSession{}, domain.ErrUnauthorized
	}
	session, err := s.sessions.GetByToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserSession{}, domain.ErrUnauthorized
		}
		return domain.UserSession{}, fmt.Errorf("lookup session: %w", err)
	}
	now := s.nowFn()
	if !session.Valid(now) {
		return domain.UserSession{}, domain.ErrUnauthorized
	}
	if err := s.sessions.TouchActivity(ctx, session.ID, now); err != nil {
		appLogger().WarnContext(ctx, "failed to touch session activity",
			"operation", "authenticate",
			"outcome", "warning",
			"session_id", session.ID,
			"error", err,
		)
	}
	return session, nil
}

// Logout deactivates the session. Unknown or empty tokens are not an error.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	if strings.TrimSpace(sessionToken) == "" {
		return nil
	}
	if err := s.sessions.Deactivate(ctx, sessionToken, s.nowFn()); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

// AccountPurchases lists completed purchases of email, newest first, with their access state.
func (s *Service) AccountPurchases(ctx context.Context, email string) ([]PurchaseSummary, error) {
	records, err := s.purchases.ListCompletedByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	now := s.nowFn()
	index := s.newProductIndex()
	out := make([]PurchaseSummary, 0, len(records))
	for _, p := range records {
		product, err := index.get(ctx, p.ProductID)
		if err != nil {
			return nil, fmt.Errorf("lookup product: %w", err)
		}
		decision := domain.Evaluate(p, now)
		out = append(out, PurchaseSummary{
			ID:                 p.ID,
			ProductName:        product.Name,
			FileName:           product.FileName,
			FileSize:           product.FileSize,
			Amount:             p.Amount,
			Currency:           p.Currency,
			FormattedAmount:    formatAmount(p.Amount, p.Currency),
			DownloadURL:        s.downloadURL(p.DownloadToken),
			DownloadCount:      p.DownloadCount,
			MaxDownloads:       p.MaxDownloads,
			DownloadsRemaining: decision.DownloadsRemaining,
			CanDownload:        decision.Permitted,
			Reason:             decision.Reason,
			Status:             p.Status,
			ExpiresAt:          displayExpiry(p.ExpiresAt),
			CreatedAt:          p.CreatedAt,
		})
	}
	return out, nil
}

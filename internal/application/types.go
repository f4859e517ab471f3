package application

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
)

// RateLimitRule bounds one action to Limit requests per Window.
type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

type Config struct {
	AppURL              string
	MaxDownloads        int
	PurchaseTTL         time.Duration
	LoginTokenTTL       time.Duration
	SessionTTL          time.Duration
	SignedURLTTL        time.Duration
	ContactInbox        string
	LoginRateLimit      RateLimitRule
	ContactRateLimit    RateLimitRule
	NewsletterRateLimit RateLimitRule
}

func (c Config) withDefaults() Config {
	c.AppURL = strings.TrimRight(c.AppURL, "/")
	if c.MaxDownloads <= 0 {
		c.MaxDownloads = 5
	}
	if c.PurchaseTTL <= 0 {
		c.PurchaseTTL = 30 * 24 * time.Hour
	}
	if c.LoginTokenTTL <= 0 {
		c.LoginTokenTTL = 30 * time.Minute
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 7 * 24 * time.Hour
	}
	if c.SignedURLTTL <= 0 {
		c.SignedURLTTL = time.Hour
	}
	return c
}

type DownloadRequest struct {
	Token     string
	IPAddress string
	UserAgent string
}

type DownloadResult struct {
	URL      string
	FileName string
}

type PurchaseInfo struct {
	ID            uuid.UUID             `json:"id"`
	Email         string                `json:"email"`
	ProductName   string                `json:"product_name"`
	FileName      string                `json:"file_name"`
	FileSize      int64                 `json:"file_size"`
	DownloadCount int                   `json:"download_count"`
	MaxDownloads  int                   `json:"max_downloads"`
	Status        domain.PurchaseStatus `json:"status"`
	ExpiresAt     *time.Time            `json:"expires_at"`
	CreatedAt     time.Time             `json:"created_at"`
}

type DownloadStatusResponse struct {
	Purchase           PurchaseInfo        `json:"purchase"`
	CanDownload        bool                `json:"can_download"`
	Reason             domain.AccessReason `json:"reason"`
	DownloadsRemaining int                 `json:"downloads_remaining"`
	IsExpired          bool                `json:"is_expired"`
	IsLimitExceeded    bool                `json:"is_limit_exceeded"`
	IsCompleted        bool                `json:"is_completed"`
}

type LoginRequest struct {
	Email     string `json:"email"`
	IPAddress string `json:"-"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type VerifyLoginRequest struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type VerifyLoginResponse struct {
	SessionToken     string            `json:"-"`
	SessionExpiresAt time.Time         `json:"-"`
	Email            string            `json:"email"`
	Redirect         string            `json:"redirect"`
	Purchases        []PurchaseSummary `json:"purchases"`
}

// PurchaseSummary is the account-page view of one purchase.
type PurchaseSummary struct {
	ID                 uuid.UUID             `json:"id"`
	ProductName        string                `json:"product_name"`
	FileName           string                `json:"file_name"`
	FileSize           int64                 `json:"file_size"`
	Amount             int64                 `json:"amount"`
	Currency           string                `json:"currency"`
	FormattedAmount    string                `json:"formatted_amount"`
	DownloadURL        string                `json:"download_url"`
	DownloadCount      int                   `json:"download_count"`
	MaxDownloads       int                   `json:"max_downloads"`
	DownloadsRemaining int                   `json:"downloads_remaining"`
	CanDownload        bool                  `json:"can_download"`
	Reason             domain.AccessReason   `json:"reason"`
	Status             domain.PurchaseStatus `json:"status"`
	ExpiresAt          *time.Time            `json:"expires_at"`
	CreatedAt          time.Time             `json:"created_at"`
}

type ProductResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          int64     `json:"price"`
	FormattedPrice string    `json:"formatted_price"`
	Currency       string    `json:"currency"`
	FileName       string    `json:"file_name"`
	FileSize       int64     `json:"file_size"`
}

type CreateCheckoutRequest struct {
	ProductID string `json:"product_id"`
	Email     string `json:"email"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type CheckoutStatusResponse struct {
	DownloadToken string                `json:"download_token"`
	Email         string                `json:"email"`
	Amount        int64                 `json:"amount"`
	Currency      string                `json:"currency"`
	Status        domain.PurchaseStatus `json:"status"`
	ProductName   string                `json:"product_name"`
}

type WebhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

type NewsletterRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	IPAddress string `json:"-"`
}

type NewsletterResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type ContactRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	IPAddress string `json:"-"`
}

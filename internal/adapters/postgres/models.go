package postgres

import (
	"time"

	"github.com/google/uuid"
)

type productModel struct {
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	Price       int64     `gorm:"column:price"`
	Currency    string    `gorm:"column:currency"`
	FileKey     string    `gorm:"column:file_key"`
	FileName    string    `gorm:"column:file_name"`
	FileSize    int64     `gorm:"column:file_size"`
	IsActive    bool      `gorm:"column:is_active"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "digital_products" }

type purchaseModel struct {
	PurchaseID            uuid.UUID `gorm:"column:purchase_id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID             uuid.UUID `gorm:"column:product_id;type:uuid"`
	DownloadToken         string    `gorm:"column:download_token"`
	Email                 string    `gorm:"column:email"`
	CustomerName          *string   `gorm:"column:customer_name"`
	StripeSessionID       string    `gorm:"column:stripe_session_id"`
	StripePaymentIntentID *string   `gorm:"column:stripe_payment_intent_id"`
	Amount                int64     `gorm:"column:amount"`
	Currency              string    `gorm:"column:currency"`
	Status                string    `gorm:"column:status"`
	DownloadCount         int       `gorm:"column:download_count"`
	MaxDownloads          int       `gorm:"column:max_downloads"`
	CreatedAt             time.Time `gorm:"column:created_at"`
	ExpiresAt             time.Time `gorm:"column:expires_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (purchaseModel) TableName() string { return "purchases" }

type downloadEventModel struct {
	EventID      uuid.UUID `gorm:"column:event_id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseID   uuid.UUID `gorm:"column:purchase_id;type:uuid"`
	IPAddress    *string   `gorm:"column:ip_address"`
	UserAgent    *string   `gorm:"column:user_agent"`
	DownloadedAt time.Time `gorm:"column:downloaded_at"`
}

func (downloadEventModel) TableName() string { return "downloads" }

type loginTokenModel struct {
	TokenID   uuid.UUID `gorm:"column:token_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email"`
	Token     string    `gorm:"column:token"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
	IsUsed    bool      `gorm:"column:is_used"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (loginTokenModel) TableName() string { return "login_tokens" }

type sessionModel struct {
	SessionID      uuid.UUID `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email          string    `gorm:"column:email"`
	SessionToken   string    `gorm:"column:session_token"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	IsActive       bool      `gorm:"column:is_active"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	LastActivityAt time.Time `gorm:"column:last_activity_at"`
}

func (sessionModel) TableName() string { return "user_sessions" }

type newsletterSubscriberModel struct {
	SubscriberID uuid.UUID `gorm:"column:subscriber_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"column:email"`
	Name         *string   `gorm:"column:name"`
	Source       string    `gorm:"column:source"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (newsletterSubscriberModel) TableName() string { return "newsletter_subscribers" }

type contactMessageModel struct {
	MessageID uuid.UUID `gorm:"column:message_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name"`
	Email     string    `gorm:"column:email"`
	Subject   string    `gorm:"column:subject"`
	Message   string    `gorm:"column:message"`
	IPAddress *string   `gorm:"column:ip_address"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (contactMessageModel) TableName() string { return "contact_messages" }

type webhookEventModel struct {
	EventID   string    `gorm:"column:event_id;primaryKey"`
	EventType string    `gorm:"column:event_type"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (webhookEventModel) TableName() string { return "webhook_events" }

type emailOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (emailOutboxModel) TableName() string { return "email_outbox" }

package instance

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusOffline Status = "offline"
	StatusError   Status = "error"
)

var (
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrAlreadyConnected means no pairing code exists because the account is
	// already paired; distinct from "code not issued yet".
	ErrAlreadyConnected = errors.New("instance already connected")
	ErrCodeNotAvailable = errors.New("pairing code not available yet")
)

// Instance is one configured WhatsApp account driven by the session gateway.
type Instance struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Name       string         `json:"name"`
	Phone      string         `json:"phone,omitempty"`
	SessionID  string         `json:"session_id"`
	Status     Status         `json:"status"`
	QRCode     string         `json:"qr_code,omitempty"`
	WebhookURL string         `json:"webhook_url,omitempty"`
	Settings   map[string]any `json:"settings,omitempty"`
	LastSeen   *time.Time     `json:"last_seen,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type CreateRequest struct {
	Name       string         `json:"name" form:"name"`
	Phone      string         `json:"phone" form:"phone"`
	WebhookURL string         `json:"webhook_url" form:"webhook_url"`
	Settings   map[string]any `json:"settings"`
}

type UpdateRequest struct {
	Name       *string        `json:"name"`
	Phone      *string        `json:"phone"`
	WebhookURL *string        `json:"webhook_url"`
	Settings   map[string]any `json:"settings"`
}

// PairingCode is what a UI needs to pair a device against an instance.
type PairingCode struct {
	QRCode    string `json:"qr_code"`
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
}

type IInstanceUsecase interface {
	Create(ctx context.Context, userID string, request CreateRequest) (Instance, error)
	List(ctx context.Context, userID string) ([]Instance, error)
	GetByID(ctx context.Context, userID, id string) (Instance, error)
	Update(ctx context.Context, userID, id string, request UpdateRequest) (Instance, error)
	Delete(ctx context.Context, userID, id string) error
	PairingCode(ctx context.Context, userID, id string) (PairingCode, error)
	SyncStatus(ctx context.Context, userID, id string) (Instance, error)

	// Push-event side, invoked by the webhook ingestion pipeline. All three
	// are idempotent and never scoped to a user.
	ApplyPairingCode(ctx context.Context, id, code string) error
	ApplyConnected(ctx context.Context, id, phone string) error
	ApplyDisconnected(ctx context.Context, id string) error
}

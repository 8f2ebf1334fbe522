package gateway

import "context"

// Session status vocabulary as reported by the gateway itself. Anything
// outside this set is treated as disconnected.
const (
	StatusConnected    = "connected"
	StatusConnecting   = "connecting"
	StatusDisconnected = "disconnected"
)

type SessionInfo struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status,omitempty"`
}

type SessionStatus struct {
	Status string `json:"status"`
	Phone  string `json:"phone,omitempty"`
}

type SendResult struct {
	MessageID string `json:"messageId"`
}

// ISessionGateway is the collaborator contract against the external session
// gateway. It is constructed once at startup and injected; tests substitute
// a fake.
type ISessionGateway interface {
	CreateSession(ctx context.Context, sessionID, webhookURL string) (SessionInfo, error)
	// GetQRCode returns "" when the gateway has no code for the session yet.
	GetQRCode(ctx context.Context, sessionID string) (string, error)
	// GetStatus returns nil when the gateway does not know the session.
	GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
	SendMessage(ctx context.Context, sessionID, to, content, messageType string) (SendResult, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

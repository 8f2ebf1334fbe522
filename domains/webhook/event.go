package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags the closed set of events the session gateway pushes at us.
type Kind string

const (
	KindPairingCode  Kind = "pairing_code"
	KindConnected    Kind = "connected"
	KindDisconnected Kind = "disconnected"
	KindMessage      Kind = "message"
)

// Result is the body-level outcome reported back to the gateway.
type Result string

const (
	ResultProcessed Result = "processed"
	ResultIgnored   Result = "ignored"
)

// Event is a parsed webhook payload. Exactly one of the kind-specific
// pointers is set, matching Kind.
type Event struct {
	Kind      Kind
	SessionID string

	PairingCode  *PairingCodeEvent
	Connected    *ConnectedEvent
	Disconnected *DisconnectedEvent
	Message      *MessageEvent
}

type PairingCodeEvent struct {
	QRCode string `json:"qrCode"`
}

type ConnectedEvent struct {
	Phone string `json:"phone"`
}

type DisconnectedEvent struct{}

// MessageEvent carries one inbound message. From uses the gateway address
// format (phone plus an @-suffix); Timestamp is epoch seconds.
type MessageEvent struct {
	ID          string `json:"id"`
	From        string `json:"from"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
	Timestamp   int64  `json:"timestamp"`
}

type envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	QRCode    string          `json:"qrCode"`
	Phone     string          `json:"phone"`
	Message   json.RawMessage `json:"message"`
}

// Parse decodes a raw webhook body into a typed event. Unknown event types
// are rejected explicitly instead of being silently ignored.
func Parse(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("invalid webhook payload: %w", err)
	}

	event := Event{SessionID: env.SessionID}
	switch Kind(env.Type) {
	case KindPairingCode:
		event.Kind = KindPairingCode
		event.PairingCode = &PairingCodeEvent{QRCode: env.QRCode}
	case KindConnected:
		event.Kind = KindConnected
		event.Connected = &ConnectedEvent{Phone: env.Phone}
	case KindDisconnected:
		event.Kind = KindDisconnected
		event.Disconnected = &DisconnectedEvent{}
	case KindMessage:
		event.Kind = KindMessage
		msg := &MessageEvent{}
		if len(env.Message) > 0 {
			if err := json.Unmarshal(env.Message, msg); err != nil {
				return Event{}, fmt.Errorf("invalid message payload: %w", err)
			}
		}
		event.Message = msg
	default:
		return Event{}, fmt.Errorf("unknown webhook event type %q", env.Type)
	}

	return event, nil
}

// PhoneFromAddress strips the gateway address suffix ("@s.whatsapp.net" and
// friends) and returns the phone part. An address with no digits yields "",
// meaning the event carries no usable correlation data.
func PhoneFromAddress(addr string) string {
	phone := addr
	if i := strings.IndexByte(addr, '@'); i >= 0 {
		phone = addr[:i]
	}
	phone = strings.TrimSpace(phone)

	for _, r := range phone {
		if r >= '0' && r <= '9' {
			return phone
		}
	}
	return ""
}

type IWebhookUsecase interface {
	Process(ctx context.Context, instanceID string, event Event) (Result, error)
}

package chat

import (
	"context"
	"errors"
	"time"
)

type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Contact is keyed by phone number and created lazily on the first inbound
// message from an unseen number. Never deleted by this subsystem.
type Contact struct {
	ID         string         `json:"id"`
	Phone      string         `json:"phone"`
	Name       string         `json:"name"`
	IsBusiness bool           `json:"is_business"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Conversation is the thread between one instance and one contact. At most
// one non-deleted conversation exists per (instance, contact) pair.
type Conversation struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	InstanceID    string     `json:"instance_id"`
	ContactID     string     `json:"contact_id"`
	IsGroup       bool       `json:"is_group"`
	GroupName     string     `json:"group_name,omitempty"`
	UnreadCount   int        `json:"unread_count"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	Archived      bool       `json:"archived"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Contact  *Contact  `json:"contact,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

type Message struct {
	ID                string        `json:"id"`
	ConversationID    string        `json:"conversation_id"`
	InstanceID        string        `json:"instance_id"`
	WhatsappMessageID string        `json:"whatsapp_message_id,omitempty"`
	Content           string        `json:"content"`
	MessageType       string        `json:"message_type"`
	IsFromMe          bool          `json:"is_from_me"`
	Status            MessageStatus `json:"status"`
	Timestamp         time.Time     `json:"timestamp"`
	CreatedAt         time.Time     `json:"created_at"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id" form:"conversation_id"`
	Content        string `json:"content" form:"content"`
	MessageType    string `json:"message_type" form:"message_type"`
}

// InboundMessage is one gateway message event after boundary parsing, ready
// to be applied to the store as a single atomic unit.
type InboundMessage struct {
	InstanceID  string
	UserID      string
	Phone       string
	ExternalID  string
	Content     string
	MessageType string
	Timestamp   time.Time
	ReceivedAt  time.Time
}

type IChatUsecase interface {
	ListConversations(ctx context.Context, userID, instanceID string) ([]Conversation, error)
	GetConversation(ctx context.Context, userID, id string) (Conversation, error)
	SendMessage(ctx context.Context, userID string, request SendMessageRequest) (Message, error)
	MarkRead(ctx context.Context, userID, id string) error
	DeleteConversation(ctx context.Context, userID, id string) error
}

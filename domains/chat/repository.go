package chat

import (
	"context"
	"time"
)

type IChatRepository interface {
	// ApplyInbound creates (if needed) the contact and conversation for the
	// message and inserts the message itself, all in one transaction. It
	// reports false when the message was already stored (duplicate external
	// id), in which case nothing is mutated.
	ApplyInbound(ctx context.Context, msg InboundMessage) (bool, error)

	ListByUser(ctx context.Context, userID, instanceID string) ([]Conversation, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*Conversation, error)
	GetWithMessages(ctx context.Context, id, userID string) (*Conversation, error)
	MarkRead(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id, userID string) error

	CreateMessage(ctx context.Context, msg *Message) error
	Touch(ctx context.Context, conversationID string, at time.Time) error

	// CountByInstance reports conversations and messages owned by an
	// instance; used by lifecycle deletion logging.
	CountByInstance(ctx context.Context, instanceID string) (conversations, messages int64, err error)
}

package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/eduardoaugusto358-droid/BotNovo/domains/chat"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type contactModel struct {
	ID         string `gorm:"primaryKey"`
	Phone      string `gorm:"uniqueIndex:idx_contacts_phone;not null"`
	Name       string
	IsBusiness bool      `gorm:"default:false"`
	Metadata   string    `gorm:"type:text;default:'{}'"` // JSON
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (contactModel) TableName() string {
	return "contacts"
}

type conversationModel struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"index:idx_conversations_user;not null"`
	InstanceID    string `gorm:"uniqueIndex:idx_conversations_instance_contact,priority:1;not null"`
	ContactID     string `gorm:"uniqueIndex:idx_conversations_instance_contact,priority:2;not null"`
	IsGroup       bool   `gorm:"default:false"`
	GroupName     string
	UnreadCount   int `gorm:"default:0"`
	LastMessageAt *time.Time
	Archived      bool      `gorm:"default:false"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (conversationModel) TableName() string {
	return "conversations"
}

type messageModel struct {
	ID                string  `gorm:"primaryKey"`
	ConversationID    string  `gorm:"index:idx_messages_conversation;not null"`
	InstanceID        string  `gorm:"uniqueIndex:idx_messages_instance_wamid,priority:1;not null"`
	WhatsappMessageID *string `gorm:"uniqueIndex:idx_messages_instance_wamid,priority:2"`
	Content           string  `gorm:"type:text;not null"`
	MessageType       string  `gorm:"default:'text'"`
	IsFromMe          bool    `gorm:"not null"`
	Status            string  `gorm:"default:'pending'"`
	Timestamp         time.Time `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
}

func (messageModel) TableName() string {
	return "messages"
}

// --- Repository Implementation ---

type ChatGormRepository struct {
	db *gorm.DB
}

func NewChatGormRepository(db *gorm.DB) *ChatGormRepository {
	return &ChatGormRepository{db: db}
}

var _ chat.IChatRepository = (*ChatGormRepository)(nil)

func (r *ChatGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&contactModel{},
		&conversationModel{},
		&messageModel{},
	)
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

// ApplyInbound applies one inbound message event atomically: contact and
// conversation are created on first sight, the message row is inserted and
// the unread counter bumped. A duplicate external message id makes the whole
// event a no-op so gateway retries stay safe.
func (r *ChatGormRepository) ApplyInbound(ctx context.Context, msg chat.InboundMessage) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contact, err := ensureContact(tx, msg.Phone, msg.ReceivedAt)
		if err != nil {
			return err
		}

		conv, err := ensureConversation(tx, msg.UserID, msg.InstanceID, contact.ID, msg.ReceivedAt)
		if err != nil {
			return err
		}

		var externalID *string
		if msg.ExternalID != "" {
			externalID = &msg.ExternalID
		}

		messageType := msg.MessageType
		if messageType == "" {
			messageType = "text"
		}

		m := messageModel{
			ID:                uuid.New().String(),
			ConversationID:    conv.ID,
			InstanceID:        msg.InstanceID,
			WhatsappMessageID: externalID,
			Content:           msg.Content,
			MessageType:       messageType,
			IsFromMe:          false,
			Status:            string(chat.MessageStatusDelivered),
			Timestamp:         msg.Timestamp,
			CreatedAt:         msg.ReceivedAt,
		}
		// Nested transaction = savepoint, so a duplicate insert does not
		// poison the outer transaction on postgres.
		err = tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(&m).Error
		})
		if err != nil {
			if isDuplicateErr(err) {
				// Retransmisión del gateway: ya la tenemos, no mutamos nada.
				return nil
			}
			return err
		}
		created = true

		return tx.Model(&conversationModel{}).
			Where("id = ?", conv.ID).
			Updates(map[string]any{
				"unread_count":    gorm.Expr("unread_count + 1"),
				"last_message_at": msg.ReceivedAt,
				"updated_at":      msg.ReceivedAt,
			}).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// ensureContact looks up the contact by phone and creates it when absent.
// A concurrent creator losing the race re-fetches instead of failing.
func ensureContact(tx *gorm.DB, phone string, now time.Time) (contactModel, error) {
	var contact contactModel
	err := tx.Where("phone = ?", phone).First(&contact).Error
	if err == nil {
		return contact, nil
	}
	if err != gorm.ErrRecordNotFound {
		return contactModel{}, err
	}

	contact = contactModel{
		ID:        uuid.New().String(),
		Phone:     phone,
		Name:      phone, // Default name is the phone number
		Metadata:  "{}",
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(&contact).Error
	})
	if err != nil {
		if isDuplicateErr(err) {
			var existing contactModel
			if ferr := tx.Where("phone = ?", phone).First(&existing).Error; ferr != nil {
				return contactModel{}, ferr
			}
			return existing, nil
		}
		return contactModel{}, err
	}
	return contact, nil
}

func ensureConversation(tx *gorm.DB, userID, instanceID, contactID string, now time.Time) (conversationModel, error) {
	var conv conversationModel
	err := tx.Where("instance_id = ? AND contact_id = ?", instanceID, contactID).First(&conv).Error
	if err == nil {
		return conv, nil
	}
	if err != gorm.ErrRecordNotFound {
		return conversationModel{}, err
	}

	conv = conversationModel{
		ID:         uuid.New().String(),
		UserID:     userID,
		InstanceID: instanceID,
		ContactID:  contactID,
		IsGroup:    false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(&conv).Error
	})
	if err != nil {
		if isDuplicateErr(err) {
			var existing conversationModel
			if ferr := tx.Where("instance_id = ? AND contact_id = ?", instanceID, contactID).First(&existing).Error; ferr != nil {
				return conversationModel{}, ferr
			}
			return existing, nil
		}
		return conversationModel{}, err
	}
	return conv, nil
}

func (r *ChatGormRepository) ListByUser(ctx context.Context, userID, instanceID string) ([]chat.Conversation, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if instanceID != "" {
		query = query.Where("instance_id = ?", instanceID)
	}

	var models []conversationModel
	if err := query.Order("last_message_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return []chat.Conversation{}, nil
	}

	contactIDs := make([]string, 0, len(models))
	for _, m := range models {
		contactIDs = append(contactIDs, m.ContactID)
	}
	var contacts []contactModel
	if err := r.db.WithContext(ctx).Where("id IN ?", contactIDs).Find(&contacts).Error; err != nil {
		return nil, err
	}
	contactsByID := make(map[string]contactModel, len(contacts))
	for _, c := range contacts {
		contactsByID[c.ID] = c
	}

	conversations := make([]chat.Conversation, 0, len(models))
	for _, m := range models {
		conv := fromConversationModel(m)
		if c, ok := contactsByID[m.ContactID]; ok {
			contact, err := fromContactModel(c)
			if err != nil {
				return nil, err
			}
			conv.Contact = contact
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

func (r *ChatGormRepository) GetByIDForUser(ctx context.Context, id, userID string) (*chat.Conversation, error) {
	var m conversationModel
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, chat.ErrConversationNotFound
		}
		return nil, err
	}

	conv := fromConversationModel(m)

	var c contactModel
	if err := r.db.WithContext(ctx).First(&c, "id = ?", m.ContactID).Error; err == nil {
		contact, err := fromContactModel(c)
		if err != nil {
			return nil, err
		}
		conv.Contact = contact
	}

	return &conv, nil
}

func (r *ChatGormRepository) GetWithMessages(ctx context.Context, id, userID string) (*chat.Conversation, error) {
	conv, err := r.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	var models []messageModel
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", id).
		Order("timestamp ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	messages := make([]chat.Message, 0, len(models))
	for _, m := range models {
		messages = append(messages, fromMessageModel(m))
	}
	conv.Messages = messages
	return conv, nil
}

func (r *ChatGormRepository) MarkRead(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).Model(&conversationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("unread_count", 0)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return chat.ErrConversationNotFound
	}
	return nil
}

func (r *ChatGormRepository) Delete(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&conversationModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return chat.ErrConversationNotFound
		}
		return tx.Where("conversation_id = ?", id).Delete(&messageModel{}).Error
	})
}

func (r *ChatGormRepository) CreateMessage(ctx context.Context, msg *chat.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	var externalID *string
	if msg.WhatsappMessageID != "" {
		externalID = &msg.WhatsappMessageID
	}

	m := messageModel{
		ID:                msg.ID,
		ConversationID:    msg.ConversationID,
		InstanceID:        msg.InstanceID,
		WhatsappMessageID: externalID,
		Content:           msg.Content,
		MessageType:       msg.MessageType,
		IsFromMe:          msg.IsFromMe,
		Status:            string(msg.Status),
		Timestamp:         msg.Timestamp,
		CreatedAt:         msg.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *ChatGormRepository) Touch(ctx context.Context, conversationID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&conversationModel{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{
			"last_message_at": at,
			"updated_at":      at,
		}).Error
}

func (r *ChatGormRepository) CountByInstance(ctx context.Context, instanceID string) (int64, int64, error) {
	var conversations, messages int64
	if err := r.db.WithContext(ctx).Model(&conversationModel{}).
		Where("instance_id = ?", instanceID).Count(&conversations).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&messageModel{}).
		Where("instance_id = ?", instanceID).Count(&messages).Error; err != nil {
		return 0, 0, err
	}
	return conversations, messages, nil
}

// --- Mappers ---

func fromContactModel(m contactModel) (*chat.Contact, error) {
	metadata := map[string]any{}
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, err
		}
	}
	return &chat.Contact{
		ID:         m.ID,
		Phone:      m.Phone,
		Name:       m.Name,
		IsBusiness: m.IsBusiness,
		Metadata:   metadata,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

func fromConversationModel(m conversationModel) chat.Conversation {
	return chat.Conversation{
		ID:            m.ID,
		UserID:        m.UserID,
		InstanceID:    m.InstanceID,
		ContactID:     m.ContactID,
		IsGroup:       m.IsGroup,
		GroupName:     m.GroupName,
		UnreadCount:   m.UnreadCount,
		LastMessageAt: m.LastMessageAt,
		Archived:      m.Archived,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func fromMessageModel(m messageModel) chat.Message {
	externalID := ""
	if m.WhatsappMessageID != nil {
		externalID = *m.WhatsappMessageID
	}
	return chat.Message{
		ID:                m.ID,
		ConversationID:    m.ConversationID,
		InstanceID:        m.InstanceID,
		WhatsappMessageID: externalID,
		Content:           m.Content,
		MessageType:       m.MessageType,
		IsFromMe:          m.IsFromMe,
		Status:            chat.MessageStatus(m.Status),
		Timestamp:         m.Timestamp,
		CreatedAt:         m.CreatedAt,
	}
}

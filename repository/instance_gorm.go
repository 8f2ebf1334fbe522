package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eduardoaugusto358-droid/BotNovo/domains/instance"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type instanceModel struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index:idx_instances_user;not null"`
	Name       string `gorm:"not null"`
	Phone      string
	SessionID  string `gorm:"uniqueIndex:idx_instances_session;not null"`
	Status     string `gorm:"not null;default:'pending'"`
	QRCode     string `gorm:"column:qr_code;type:text"`
	WebhookURL string
	Settings   string `gorm:"type:text;default:'{}'"` // JSON
	LastSeen   *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (instanceModel) TableName() string {
	return "whatsapp_instances"
}

// --- Repository Implementation ---

type InstanceGormRepository struct {
	db *gorm.DB
}

func NewInstanceGormRepository(db *gorm.DB) *InstanceGormRepository {
	return &InstanceGormRepository{db: db}
}

var _ instance.IInstanceRepository = (*InstanceGormRepository)(nil)

func (r *InstanceGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&instanceModel{})
}

func (r *InstanceGormRepository) Create(ctx context.Context, inst *instance.Instance) error {
	model, err := toInstanceModel(inst)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *InstanceGormRepository) GetByID(ctx context.Context, id string) (*instance.Instance, error) {
	var m instanceModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, instance.ErrInstanceNotFound
		}
		return nil, err
	}
	return fromInstanceModel(m)
}

func (r *InstanceGormRepository) GetByIDForUser(ctx context.Context, id, userID string) (*instance.Instance, error) {
	var m instanceModel
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, instance.ErrInstanceNotFound
		}
		return nil, err
	}
	return fromInstanceModel(m)
}

func (r *InstanceGormRepository) ListByUser(ctx context.Context, userID string) ([]instance.Instance, error) {
	var models []instanceModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	instances := make([]instance.Instance, 0, len(models))
	for _, m := range models {
		inst, err := fromInstanceModel(m)
		if err != nil {
			return nil, err
		}
		instances = append(instances, *inst)
	}
	return instances, nil
}

func (r *InstanceGormRepository) Update(ctx context.Context, inst *instance.Instance) error {
	model, err := toInstanceModel(inst)
	if err != nil {
		return err
	}

	// Select("*") para que también persistan los campos puestos a cero
	// (qr_code limpiado al conectar, por ejemplo).
	result := r.db.WithContext(ctx).Model(&instanceModel{ID: inst.ID}).Select("*").Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return instance.ErrInstanceNotFound
	}
	return nil
}

// Delete removes the instance and everything it owns in one transaction.
func (r *InstanceGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("instance_id = ?", id).Delete(&messageModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("instance_id = ?", id).Delete(&conversationModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&instanceModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return instance.ErrInstanceNotFound
		}
		return nil
	})
}

// --- Mappers ---

func toInstanceModel(inst *instance.Instance) (instanceModel, error) {
	settings := "{}"
	if len(inst.Settings) > 0 {
		raw, err := json.Marshal(inst.Settings)
		if err != nil {
			return instanceModel{}, err
		}
		settings = string(raw)
	}

	return instanceModel{
		ID:         inst.ID,
		UserID:     inst.UserID,
		Name:       inst.Name,
		Phone:      inst.Phone,
		SessionID:  inst.SessionID,
		Status:     string(inst.Status),
		QRCode:     inst.QRCode,
		WebhookURL: inst.WebhookURL,
		Settings:   settings,
		LastSeen:   inst.LastSeen,
		CreatedAt:  inst.CreatedAt,
		UpdatedAt:  inst.UpdatedAt,
	}, nil
}

func fromInstanceModel(m instanceModel) (*instance.Instance, error) {
	settings := map[string]any{}
	if m.Settings != "" {
		if err := json.Unmarshal([]byte(m.Settings), &settings); err != nil {
			return nil, err
		}
	}

	return &instance.Instance{
		ID:         m.ID,
		UserID:     m.UserID,
		Name:       m.Name,
		Phone:      m.Phone,
		SessionID:  m.SessionID,
		Status:     instance.Status(m.Status),
		QRCode:     m.QRCode,
		WebhookURL: m.WebhookURL,
		Settings:   settings,
		LastSeen:   m.LastSeen,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

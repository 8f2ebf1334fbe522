package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainChat "github.com/eduardoaugusto358-droid/BotNovo/domains/chat"
	"github.com/eduardoaugusto358-droid/BotNovo/domains/gateway"
	domainInstance "github.com/eduardoaugusto358-droid/BotNovo/domains/instance"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/clock"
	pkgError "github.com/eduardoaugusto358-droid/BotNovo/pkg/error"
	"github.com/eduardoaugusto358-droid/BotNovo/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type instanceService struct {
	repo        domainInstance.IInstanceRepository
	chats       domainChat.IChatRepository
	gateway     gateway.ISessionGateway
	clock       clock.Clock
	webhookBase string
}

// NewInstanceService builds the instance lifecycle manager. webhookBase is
// this service's public base URL; the gateway posts events back to
// <webhookBase>/webhook/whatsapp/<instanceID>.
func NewInstanceService(
	repo domainInstance.IInstanceRepository,
	chats domainChat.IChatRepository,
	gw gateway.ISessionGateway,
	clk clock.Clock,
	webhookBase string,
) domainInstance.IInstanceUsecase {
	return &instanceService{
		repo:        repo,
		chats:       chats,
		gateway:     gw,
		clock:       clk,
		webhookBase: strings.TrimRight(webhookBase, "/"),
	}
}

// Create persists the instance first and only then asks the gateway for a
// session. A failed gateway call leaves the record behind in "error" so the
// operator can inspect or retry; that asymmetry is intentional.
func (service *instanceService) Create(ctx context.Context, userID string, request domainInstance.CreateRequest) (domainInstance.Instance, error) {
	if err := validations.ValidateCreateInstance(ctx, request); err != nil {
		return domainInstance.Instance{}, err
	}

	now := service.clock.Now()
	inst := domainInstance.Instance{
		ID:         uuid.New().String(),
		UserID:     userID,
		Name:       strings.TrimSpace(request.Name),
		Phone:      strings.TrimSpace(request.Phone),
		SessionID:  newSessionID(userID),
		Status:     domainInstance.StatusPending,
		WebhookURL: strings.TrimSpace(request.WebhookURL),
		Settings:   request.Settings,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := service.repo.Create(ctx, &inst); err != nil {
		return domainInstance.Instance{}, err
	}

	callbackURL := fmt.Sprintf("%s/webhook/whatsapp/%s", service.webhookBase, inst.ID)
	if _, err := service.gateway.CreateSession(ctx, inst.SessionID, callbackURL); err != nil {
		inst.Status = domainInstance.StatusError
		inst.UpdatedAt = service.clock.Now()
		if uerr := service.repo.Update(ctx, &inst); uerr != nil {
			logrus.WithError(uerr).Errorf("[INSTANCE] failed to mark instance %s as error", inst.ID)
		}
		return inst, err
	}

	return inst, nil
}

func newSessionID(userID string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("session_%s_%s", userID, suffix)
}

func (service *instanceService) List(ctx context.Context, userID string) ([]domainInstance.Instance, error) {
	return service.repo.ListByUser(ctx, userID)
}

func (service *instanceService) GetByID(ctx context.Context, userID, id string) (domainInstance.Instance, error) {
	inst, err := service.getOwned(ctx, userID, id)
	if err != nil {
		return domainInstance.Instance{}, err
	}
	return *inst, nil
}

func (service *instanceService) Update(ctx context.Context, userID, id string, request domainInstance.UpdateRequest) (domainInstance.Instance, error) {
	inst, err := service.getOwned(ctx, userID, id)
	if err != nil {
		return domainInstance.Instance{}, err
	}

	if request.Name != nil {
		inst.Name = strings.TrimSpace(*request.Name)
	}
	if request.Phone != nil {
		inst.Phone = strings.TrimSpace(*request.Phone)
	}
	if request.WebhookURL != nil {
		inst.WebhookURL = strings.TrimSpace(*request.WebhookURL)
	}
	if request.Settings != nil {
		inst.Settings = request.Settings
	}
	inst.UpdatedAt = service.clock.Now()

	if err := service.repo.Update(ctx, inst); err != nil {
		return domainInstance.Instance{}, err
	}
	return *inst, nil
}

// Delete tears down the gateway session on a best-effort basis before
// removing the local record and everything it owns.
func (service *instanceService) Delete(ctx context.Context, userID, id string) error {
	inst, err := service.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := service.gateway.DeleteSession(ctx, inst.SessionID); err != nil {
		logrus.WithError(err).Warnf("[INSTANCE] failed to delete gateway session %s, removing local record anyway", inst.SessionID)
	}

	if conversations, messages, cerr := service.chats.CountByInstance(ctx, inst.ID); cerr == nil {
		logrus.WithFields(logrus.Fields{
			"instance_id":   inst.ID,
			"conversations": conversations,
			"messages":      messages,
		}).Info("[INSTANCE] deleting instance and owned records")
	}

	return service.repo.Delete(ctx, inst.ID)
}

// PairingCode returns the code a UI shows the user. An already connected
// instance has no code by definition, which is reported distinctly from a
// code the gateway simply has not issued yet.
func (service *instanceService) PairingCode(ctx context.Context, userID, id string) (domainInstance.PairingCode, error) {
	inst, err := service.getOwned(ctx, userID, id)
	if err != nil {
		return domainInstance.PairingCode{}, err
	}

	if inst.Status == domainInstance.StatusActive {
		return domainInstance.PairingCode{}, domainInstance.ErrAlreadyConnected
	}

	code, err := service.gateway.GetQRCode(ctx, inst.SessionID)
	if err != nil {
		return domainInstance.PairingCode{}, err
	}
	if code == "" {
		return domainInstance.PairingCode{}, domainInstance.ErrCodeNotAvailable
	}

	inst.QRCode = code
	inst.UpdatedAt = service.clock.Now()
	if err := service.repo.Update(ctx, inst); err != nil {
		return domainInstance.PairingCode{}, err
	}

	return domainInstance.PairingCode{
		QRCode:    code,
		SessionID: inst.SessionID,
		Status:    inst.Status,
	}, nil
}

// SyncStatus reconciles the local record against the gateway's own view.
// Push delivery is at-most-once, so this is how missed events are repaired.
func (service *instanceService) SyncStatus(ctx context.Context, userID, id string) (domainInstance.Instance, error) {
	inst, err := service.getOwned(ctx, userID, id)
	if err != nil {
		return domainInstance.Instance{}, err
	}

	status, err := service.gateway.GetStatus(ctx, inst.SessionID)
	if err != nil {
		return domainInstance.Instance{}, err
	}
	if status == nil {
		// Gateway no conoce la sesión; dejamos el registro como está.
		return *inst, nil
	}

	switch status.Status {
	case gateway.StatusConnected:
		inst.Status = domainInstance.StatusActive
		if status.Phone != "" {
			inst.Phone = status.Phone
		}
		now := service.clock.Now()
		inst.LastSeen = &now
	case gateway.StatusConnecting:
		inst.Status = domainInstance.StatusPending
	default:
		inst.Status = domainInstance.StatusOffline
	}
	inst.UpdatedAt = service.clock.Now()

	if err := service.repo.Update(ctx, inst); err != nil {
		return domainInstance.Instance{}, err
	}
	return *inst, nil
}

func (service *instanceService) ApplyPairingCode(ctx context.Context, id, code string) error {
	inst, err := service.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	inst.QRCode = code
	inst.Status = domainInstance.StatusPending
	inst.UpdatedAt = service.clock.Now()
	return service.repo.Update(ctx, inst)
}

func (service *instanceService) ApplyConnected(ctx context.Context, id, phone string) error {
	inst, err := service.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := service.clock.Now()
	inst.Status = domainInstance.StatusActive
	inst.QRCode = ""
	if phone != "" {
		inst.Phone = phone
	}
	inst.LastSeen = &now
	inst.UpdatedAt = now
	return service.repo.Update(ctx, inst)
}

func (service *instanceService) ApplyDisconnected(ctx context.Context, id string) error {
	inst, err := service.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := service.clock.Now()
	inst.Status = domainInstance.StatusOffline
	inst.LastSeen = &now
	inst.UpdatedAt = now
	return service.repo.Update(ctx, inst)
}

func (service *instanceService) getOwned(ctx context.Context, userID, id string) (*domainInstance.Instance, error) {
	inst, err := service.repo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, domainInstance.ErrInstanceNotFound) {
			return nil, pkgError.NotFoundError("instance not found")
		}
		return nil, err
	}
	return inst, nil
}

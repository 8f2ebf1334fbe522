package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	domainChat "github.com/eduardoaugusto358-droid/BotNovo/domains/chat"
	"github.com/eduardoaugusto358-droid/BotNovo/domains/gateway"
	domainInstance "github.com/eduardoaugusto358-droid/BotNovo/domains/instance"
	"github.com/eduardoaugusto358-droid/BotNovo/domains/webhook"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/clock"
	"github.com/eduardoaugusto358-droid/BotNovo/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore opens an isolated in-memory database with both schemas
// migrated. One connection keeps the memory database alive and mirrors the
// production SQLite pool settings.
func newTestStore(t *testing.T) (*repository.InstanceGormRepository, *repository.ChatGormRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	instanceRepo := repository.NewInstanceGormRepository(db)
	chatRepo := repository.NewChatGormRepository(db)
	require.NoError(t, instanceRepo.InitSchema(context.Background()))
	require.NoError(t, chatRepo.InitSchema(context.Background()))

	return instanceRepo, chatRepo
}

// fakeGateway is an in-memory ISessionGateway recording every call.
type fakeGateway struct {
	mu sync.Mutex

	createErr error
	deleteErr error
	qrCode    string
	qrErr     error
	status    *gateway.SessionStatus
	statusErr error
	sendErr   error
	messageID string

	createdSessions []string
	createdWebhooks []string
	deletedSessions []string
	sentTo          []string
	sentContent     []string
}

var _ gateway.ISessionGateway = (*fakeGateway)(nil)

func (f *fakeGateway) CreateSession(_ context.Context, sessionID, webhookURL string) (gateway.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return gateway.SessionInfo{}, f.createErr
	}
	f.createdSessions = append(f.createdSessions, sessionID)
	f.createdWebhooks = append(f.createdWebhooks, webhookURL)
	return gateway.SessionInfo{SessionID: sessionID, Status: gateway.StatusConnecting}, nil
}

func (f *fakeGateway) GetQRCode(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.qrCode, f.qrErr
}

func (f *fakeGateway) GetStatus(_ context.Context, _ string) (*gateway.SessionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.statusErr
}

func (f *fakeGateway) SendMessage(_ context.Context, _, to, content, _ string) (gateway.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return gateway.SendResult{}, f.sendErr
	}
	f.sentTo = append(f.sentTo, to)
	f.sentContent = append(f.sentContent, content)
	return gateway.SendResult{MessageID: f.messageID}, nil
}

func (f *fakeGateway) DeleteSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedSessions = append(f.deletedSessions, sessionID)
	return nil
}

type testEnv struct {
	instances domainInstance.IInstanceRepository
	chats     domainChat.IChatRepository
	gateway   *fakeGateway
	clock     *clock.Fake

	lifecycle domainInstance.IInstanceUsecase
	chatSvc   domainChat.IChatUsecase
	ingest    webhook.IWebhookUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	instanceRepo, chatRepo := newTestStore(t)
	fake := &fakeGateway{messageID: "wamid-out"}
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	lifecycle := NewInstanceService(instanceRepo, chatRepo, fake, clk, "http://app.test")

	return &testEnv{
		instances: instanceRepo,
		chats:     chatRepo,
		gateway:   fake,
		clock:     clk,
		lifecycle: lifecycle,
		chatSvc:   NewChatService(chatRepo, instanceRepo, fake, clk),
		ingest:    NewWebhookService(instanceRepo, lifecycle, chatRepo, clk),
	}
}

func (env *testEnv) createInstance(t *testing.T, userID, name string) domainInstance.Instance {
	t.Helper()
	inst, err := env.lifecycle.Create(context.Background(), userID, domainInstance.CreateRequest{Name: name})
	require.NoError(t, err)
	return inst
}

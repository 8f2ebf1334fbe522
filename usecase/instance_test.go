package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eduardoaugusto358-droid/BotNovo/domains/gateway"
	domainInstance "github.com/eduardoaugusto358-droid/BotNovo/domains/instance"
	"github.com/eduardoaugusto358-droid/BotNovo/domains/webhook"
	pkgError "github.com/eduardoaugusto358-droid/BotNovo/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInstance(t *testing.T) {
	env := newTestEnv(t)

	inst, err := env.lifecycle.Create(context.Background(), "user-1", domainInstance.CreateRequest{
		Name: "Support line",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, inst.ID)
	assert.Equal(t, domainInstance.StatusPending, inst.Status)
	assert.True(t, strings.HasPrefix(inst.SessionID, "session_user-1_"), "got %q", inst.SessionID)

	require.Len(t, env.gateway.createdSessions, 1)
	assert.Equal(t, inst.SessionID, env.gateway.createdSessions[0])
	assert.Equal(t, "http://app.test/webhook/whatsapp/"+inst.ID, env.gateway.createdWebhooks[0])

	stored, err := env.instances.GetByID(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusPending, stored.Status)
}

func TestCreateInstanceValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.lifecycle.Create(context.Background(), "user-1", domainInstance.CreateRequest{})
	require.Error(t, err)

	var validationErr pkgError.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Empty(t, env.gateway.createdSessions, "invalid request must never reach the gateway")
}

// Gateway failure keeps the record around in "error" so it can be inspected
// and retried instead of vanishing.
func TestCreateInstanceGatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.createErr = errors.New("connection refused")

	inst, err := env.lifecycle.Create(context.Background(), "user-1", domainInstance.CreateRequest{
		Name: "Support line",
	})
	require.Error(t, err)
	assert.Equal(t, domainInstance.StatusError, inst.Status)

	stored, err := env.instances.GetByID(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusError, stored.Status)
}

func TestListInstancesScopedByUser(t *testing.T) {
	env := newTestEnv(t)
	env.createInstance(t, "user-1", "Line A")
	env.createInstance(t, "user-1", "Line B")
	env.createInstance(t, "user-2", "Other tenant")

	mine, err := env.lifecycle.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := env.lifecycle.List(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestGetInstanceOwnership(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")

	_, err := env.lifecycle.GetByID(context.Background(), "user-2", inst.ID)
	require.Error(t, err)

	var notFound pkgError.NotFoundError
	assert.ErrorAs(t, err, &notFound, "foreign instances must look nonexistent, not forbidden")
}

func TestUpdateInstancePartial(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Old name")

	newName := "New name"
	updated, err := env.lifecycle.Update(context.Background(), "user-1", inst.ID, domainInstance.UpdateRequest{
		Name: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	assert.Equal(t, inst.SessionID, updated.SessionID, "session id is immutable")

	stored, err := env.instances.GetByID(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, "New name", stored.Name)
}

func TestDeleteInstanceCascades(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")

	_, err := env.ingest.Process(context.Background(), inst.ID,
		messageEvent("wamid-1", "551188887777@s.whatsapp.net", "hi", 1700000000))
	require.NoError(t, err)

	require.NoError(t, env.lifecycle.Delete(context.Background(), "user-1", inst.ID))

	assert.Equal(t, []string{inst.SessionID}, env.gateway.deletedSessions)

	_, err = env.instances.GetByID(context.Background(), inst.ID)
	assert.ErrorIs(t, err, domainInstance.ErrInstanceNotFound)

	convCount, msgCount, err := env.chats.CountByInstance(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Zero(t, convCount)
	assert.Zero(t, msgCount)
}

// Gateway teardown is best effort; a failing gateway must not leak the local
// record.
func TestDeleteInstanceGatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")
	env.gateway.deleteErr = errors.New("gateway down")

	require.NoError(t, env.lifecycle.Delete(context.Background(), "user-1", inst.ID))

	_, err := env.instances.GetByID(context.Background(), inst.ID)
	assert.ErrorIs(t, err, domainInstance.ErrInstanceNotFound)
}

func TestPairingCode(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")
	env.gateway.qrCode = "2@qr-data"

	code, err := env.lifecycle.PairingCode(context.Background(), "user-1", inst.ID)
	require.NoError(t, err)
	assert.Equal(t, "2@qr-data", code.QRCode)
	assert.Equal(t, inst.SessionID, code.SessionID)

	stored, err := env.instances.GetByID(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, "2@qr-data", stored.QRCode)
}

func TestPairingCodeNotIssuedYet(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")

	_, err := env.lifecycle.PairingCode(context.Background(), "user-1", inst.ID)
	assert.ErrorIs(t, err, domainInstance.ErrCodeNotAvailable)
}

func TestPairingCodeAlreadyConnected(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")
	require.NoError(t, env.lifecycle.ApplyConnected(context.Background(), inst.ID, "5511999887766"))

	_, err := env.lifecycle.PairingCode(context.Background(), "user-1", inst.ID)
	assert.ErrorIs(t, err, domainInstance.ErrAlreadyConnected)
}

func TestSyncStatusConnected(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")
	env.gateway.status = &gateway.SessionStatus{
		Status: gateway.StatusConnected,
		Phone:  "5511999887766",
	}

	synced, err := env.lifecycle.SyncStatus(context.Background(), "user-1", inst.ID)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusActive, synced.Status)
	assert.Equal(t, "5511999887766", synced.Phone)
	require.NotNil(t, synced.LastSeen)
}

// "connecting" keeps the instance pending without touching the phone the
// record already carries.
func TestSyncStatusConnectingPreservesPhone(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")
	require.NoError(t, env.lifecycle.ApplyConnected(context.Background(), inst.ID, "5511999887766"))

	env.gateway.status = &gateway.SessionStatus{Status: gateway.StatusConnecting}

	synced, err := env.lifecycle.SyncStatus(context.Background(), "user-1", inst.ID)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusPending, synced.Status)
	assert.Equal(t, "5511999887766", synced.Phone)
}

func TestSyncStatusUnknownSessionLeavesRecordAlone(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")
	env.gateway.status = nil

	synced, err := env.lifecycle.SyncStatus(context.Background(), "user-1", inst.ID)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusPending, synced.Status)
}

func TestSyncStatusDisconnected(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")
	require.NoError(t, env.lifecycle.ApplyConnected(context.Background(), inst.ID, "5511999887766"))

	env.gateway.status = &gateway.SessionStatus{Status: gateway.StatusDisconnected}

	synced, err := env.lifecycle.SyncStatus(context.Background(), "user-1", inst.ID)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusOffline, synced.Status)
}

func TestApplyDisconnectedStampsLastSeen(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")
	require.NoError(t, env.lifecycle.ApplyConnected(context.Background(), inst.ID, "5511999887766"))

	env.clock.Advance(10 * time.Minute)
	require.NoError(t, env.lifecycle.ApplyDisconnected(context.Background(), inst.ID))

	stored, err := env.instances.GetByID(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusOffline, stored.Status)
	require.NotNil(t, stored.LastSeen)
	assert.WithinDuration(t, env.clock.Now(), *stored.LastSeen, time.Second)
}

// Webhook-driven and poll-driven updates go through the same transitions, so
// interleaving them must never corrupt the record.
func TestLifecycleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, "user-1", "Line A")

	_, err := env.ingest.Process(context.Background(), inst.ID, webhook.Event{
		Kind:        webhook.KindPairingCode,
		PairingCode: &webhook.PairingCodeEvent{QRCode: "2@step1"},
	})
	require.NoError(t, err)

	_, err = env.ingest.Process(context.Background(), inst.ID, webhook.Event{
		Kind:      webhook.KindConnected,
		Connected: &webhook.ConnectedEvent{Phone: "5511999887766"},
	})
	require.NoError(t, err)

	_, err = env.ingest.Process(context.Background(), inst.ID, webhook.Event{
		Kind: webhook.KindDisconnected,
	})
	require.NoError(t, err)

	stored, err := env.instances.GetByID(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusOffline, stored.Status)
	assert.Equal(t, "5511999887766", stored.Phone)
	assert.Empty(t, stored.QRCode)
}

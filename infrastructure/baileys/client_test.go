package baileys

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func stubResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func swapTransport(t *testing.T, fn roundTripperFunc) {
	t.Helper()
	orig := httpClient
	t.Cleanup(func() { httpClient = orig })
	httpClient = &http.Client{Transport: fn}
}

func TestCreateSession_PostsSessionAndWebhook(t *testing.T) {
	var (
		gotMethod string
		gotURL    string
		gotBody   []byte
	)
	swapTransport(t, func(req *http.Request) (*http.Response, error) {
		gotMethod = req.Method
		gotURL = req.URL.String()
		if req.Body != nil {
			gotBody, _ = io.ReadAll(req.Body)
		}
		return stubResponse(http.StatusOK, `{"sessionId":"s1","status":"connecting"}`), nil
	})

	client := NewClient("http://baileys.test/")
	info, err := client.CreateSession(context.Background(), "s1", "http://app.test/webhook/whatsapp/i1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "http://baileys.test/create-session", gotURL)
	assert.Equal(t, "s1", info.SessionID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "s1", payload["sessionId"])
	assert.Equal(t, "http://app.test/webhook/whatsapp/i1", payload["webhookUrl"])
}

func TestCreateSession_Non2xxIsUpstreamError(t *testing.T) {
	swapTransport(t, func(req *http.Request) (*http.Response, error) {
		return stubResponse(http.StatusBadGateway, `boom`), nil
	})

	client := NewClient("http://baileys.test")
	_, err := client.CreateSession(context.Background(), "s1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestGetQRCode_NotFoundMeansNoCode(t *testing.T) {
	swapTransport(t, func(req *http.Request) (*http.Response, error) {
		return stubResponse(http.StatusNotFound, ``), nil
	})

	client := NewClient("http://baileys.test")
	code, err := client.GetQRCode(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestGetStatus_ParsesPhone(t *testing.T) {
	swapTransport(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/status/s1", req.URL.Path)
		return stubResponse(http.StatusOK, `{"status":"connected","phone":"+5511999"}`), nil
	})

	client := NewClient("http://baileys.test")
	status, err := client.GetStatus(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "connected", status.Status)
	assert.Equal(t, "+5511999", status.Phone)
}

func TestGetStatus_UnknownSessionIsNil(t *testing.T) {
	swapTransport(t, func(req *http.Request) (*http.Response, error) {
		return stubResponse(http.StatusNotFound, ``), nil
	})

	client := NewClient("http://baileys.test")
	status, err := client.GetStatus(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestSendMessage_ReturnsGatewayMessageID(t *testing.T) {
	var gotBody []byte
	swapTransport(t, func(req *http.Request) (*http.Response, error) {
		gotBody, _ = io.ReadAll(req.Body)
		return stubResponse(http.StatusOK, `{"messageId":"wamid-1"}`), nil
	})

	client := NewClient("http://baileys.test")
	result, err := client.SendMessage(context.Background(), "s1", "5511999", "hola", "text")
	require.NoError(t, err)
	assert.Equal(t, "wamid-1", result.MessageID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "5511999", payload["to"])
	assert.Equal(t, "hola", payload["message"])
	assert.Equal(t, "text", payload["messageType"])
}

func TestDeleteSession_UsesDeleteVerb(t *testing.T) {
	var gotMethod, gotPath string
	swapTransport(t, func(req *http.Request) (*http.Response, error) {
		gotMethod = req.Method
		gotPath = req.URL.Path
		return stubResponse(http.StatusOK, `{"success":true}`), nil
	})

	client := NewClient("http://baileys.test")
	require.NoError(t, client.DeleteSession(context.Background(), "s1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/session/s1", gotPath)
}

package baileys

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eduardoaugusto358-droid/BotNovo/domains/gateway"
	pkgError "github.com/eduardoaugusto358-droid/BotNovo/pkg/error"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 30 * time.Second
)

// Swapped out by tests.
var httpClient = &http.Client{}

// Client talks to a Baileys-compatible session gateway over HTTP. It owns no
// protocol state; every call is a bounded request/response.
type Client struct {
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/")}
}

var _ gateway.ISessionGateway = (*Client)(nil)

func (c *Client) CreateSession(ctx context.Context, sessionID, webhookURL string) (gateway.SessionInfo, error) {
	payload := map[string]string{
		"sessionId":  sessionID,
		"webhookUrl": webhookURL,
	}

	var info gateway.SessionInfo
	if err := c.doJSON(ctx, http.MethodPost, "/create-session", payload, writeTimeout, &info); err != nil {
		metrics.GatewayRequests.WithLabelValues("create_session", "error").Inc()
		return gateway.SessionInfo{}, pkgError.UpstreamError(fmt.Sprintf("failed to create session %s: %v", sessionID, err))
	}
	metrics.GatewayRequests.WithLabelValues("create_session", "ok").Inc()
	return info, nil
}

func (c *Client) GetQRCode(ctx context.Context, sessionID string) (string, error) {
	var body struct {
		QRCode string `json:"qrCode"`
	}
	found, err := c.getJSON(ctx, "/qr-code/"+sessionID, &body)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("qr_code", "error").Inc()
		return "", pkgError.UpstreamError(fmt.Sprintf("failed to get QR code for %s: %v", sessionID, err))
	}
	metrics.GatewayRequests.WithLabelValues("qr_code", "ok").Inc()
	if !found {
		return "", nil
	}
	return body.QRCode, nil
}

func (c *Client) GetStatus(ctx context.Context, sessionID string) (*gateway.SessionStatus, error) {
	var status gateway.SessionStatus
	found, err := c.getJSON(ctx, "/status/"+sessionID, &status)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("status", "error").Inc()
		return nil, pkgError.UpstreamError(fmt.Sprintf("failed to get status for %s: %v", sessionID, err))
	}
	metrics.GatewayRequests.WithLabelValues("status", "ok").Inc()
	if !found {
		return nil, nil
	}
	return &status, nil
}

func (c *Client) SendMessage(ctx context.Context, sessionID, to, content, messageType string) (gateway.SendResult, error) {
	payload := map[string]string{
		"sessionId":   sessionID,
		"to":          to,
		"message":     content,
		"messageType": messageType,
	}

	var result gateway.SendResult
	if err := c.doJSON(ctx, http.MethodPost, "/send-message", payload, writeTimeout, &result); err != nil {
		metrics.GatewayRequests.WithLabelValues("send_message", "error").Inc()
		return gateway.SendResult{}, pkgError.UpstreamError(fmt.Sprintf("failed to send message via %s: %v", sessionID, err))
	}
	metrics.GatewayRequests.WithLabelValues("send_message", "ok").Inc()
	return result, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/session/"+sessionID, nil, writeTimeout, nil); err != nil {
		metrics.GatewayRequests.WithLabelValues("delete_session", "error").Inc()
		return pkgError.UpstreamError(fmt.Sprintf("failed to delete session %s: %v", sessionID, err))
	}
	metrics.GatewayRequests.WithLabelValues("delete_session", "ok").Inc()
	return nil
}

// doJSON performs a request with an optional JSON body and decodes a JSON
// response into out when provided. Non-2xx responses are errors.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		logrus.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("[BAILEYS] gateway returned non-2xx")
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// getJSON performs a GET with the read timeout. A 404 means the gateway has
// nothing for the session and is reported as found=false, not an error.
func (c *Client) getJSON(ctx context.Context, path string, out any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return false, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

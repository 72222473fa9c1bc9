package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"event_chat/internal/config"
	apperrors "event_chat/pkg/errors"
)

// maxRecipientsPerRequest is OneSignal's cap on include_aliases per call.
const maxRecipientsPerRequest = 2000

var ErrNotConfigured = apperrors.ErrNotConfigured

// Notification is a push addressed to platform users by their external id.
type Notification struct {
	ExternalIDs []string
	Heading     string
	Content     string
	Data        map[string]string
}

// ProviderError is returned when OneSignal answers with a non-2xx status.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("onesignal responded %d: %s", e.StatusCode, e.Body)
}

// Client is the push provider consumed by the notifier.
type Client interface {
	Configured() bool
	Send(ctx context.Context, n Notification) error
}

type OneSignalClient struct {
	appID   string
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewOneSignalClient(cfg config.OneSignalConfig) *OneSignalClient {
	return &OneSignalClient{
		appID:   cfg.AppID,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *OneSignalClient) Configured() bool {
	return c.appID != "" && c.apiKey != ""
}

type createNotificationRequest struct {
	AppID          string              `json:"app_id"`
	IncludeAliases map[string][]string `json:"include_aliases"`
	TargetChannel  string              `json:"target_channel"`
	Headings       map[string]string   `json:"headings,omitempty"`
	Contents       map[string]string   `json:"contents"`
	Data           map[string]string   `json:"data,omitempty"`
}

// Send delivers the notification, splitting large audiences into several
// requests. It stops at the first failing batch.
func (c *OneSignalClient) Send(ctx context.Context, n Notification) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if len(n.ExternalIDs) == 0 {
		return nil
	}

	for start := 0; start < len(n.ExternalIDs); start += maxRecipientsPerRequest {
		end := min(start+maxRecipientsPerRequest, len(n.ExternalIDs))
		if err := c.send(ctx, n, n.ExternalIDs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *OneSignalClient) send(ctx context.Context, n Notification, externalIDs []string) error {
	payload := createNotificationRequest{
		AppID:          c.appID,
		IncludeAliases: map[string][]string{"external_id": externalIDs},
		TargetChannel:  "push",
		Contents:       map[string]string{"en": n.Content},
		Data:           n.Data,
	}
	if n.Heading != "" {
		payload.Headings = map[string]string{"en": n.Heading}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call onesignal: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

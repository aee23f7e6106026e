package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aristath/healthtrends/internal/modules/trends"
	"github.com/aristath/healthtrends/internal/modules/trends/render"
)

// SlackWebhook posts the report as Block Kit blocks to an incoming webhook.
type SlackWebhook struct {
	hookURL string
	client  *http.Client
}

// NewSlackWebhook creates a webhook transport for hookURL
func NewSlackWebhook(hookURL string) *SlackWebhook {
	return &SlackWebhook{
		hookURL: hookURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SlackWebhook) Name() string { return "slack" }

// Send posts the rendered blocks. Any status other than 200 is an error carrying the body.
func (s *SlackWebhook) Send(ctx context.Context, report *trends.Report) error {
	body, err := json.Marshal(render.Slack(report))
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.hookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

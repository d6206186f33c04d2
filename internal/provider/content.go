package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ContentRequest is the structured event context sent to the
// content-generation collaborator.
type ContentRequest struct {
	UserID         string    `json:"user_id"`
	AgentContextID string    `json:"agent_context_id,omitempty"`
	Channel        string    `json:"channel"`
	MinutesBefore  int       `json:"minutes_before"`
	EventSummary   string    `json:"event_summary"`
	EventLocation  string    `json:"event_location,omitempty"`
	EventStart     time.Time `json:"event_start"`
	EventEnd       time.Time `json:"event_end"`
}

// ContentClient renders reminder text through the conversational agent
type ContentClient struct {
	client *resty.Client
}

// NewContentClient creates a content-generation client
func NewContentClient(baseURL string, timeout time.Duration) *ContentClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &ContentClient{client: c}
}

type contentResponse struct {
	Text string `json:"text"`
}

// Render returns plain reminder text for the given event context
func (c *ContentClient) Render(ctx context.Context, req ContentRequest) (string, error) {
	var out contentResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/render")
	if err != nil {
		return "", fmt.Errorf("failed to render content: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	if out.Text == "" {
		return "", fmt.Errorf("content provider returned empty text")
	}

	return out.Text, nil
}

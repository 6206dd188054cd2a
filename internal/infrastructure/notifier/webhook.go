package notifier

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/catalog"
)

// postCreatedPayload is the structure sent to the webhook URL.
type postCreatedPayload struct {
	Event     string   `json:"event"`
	PostID    string   `json:"post_id"`
	OwnerID   string   `json:"owner_id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Type      string   `json:"type"`
	Category  string   `json:"category,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// Webhook delivers post creation notifications over HTTP. Delivery is best
// effort: failures are logged and never retried.
type Webhook struct {
	client *resty.Client
	url    string
	logger zerolog.Logger
}

// NewWebhook builds a webhook notifier. An empty URL disables delivery.
func NewWebhook(url string, timeout time.Duration, logger zerolog.Logger) *Webhook {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Webhook{
		client: client,
		url:    url,
		logger: logger.With().Str("component", "webhook_notifier").Logger(),
	}
}

// PostCreated announces a newly created post.
func (w *Webhook) PostCreated(ctx context.Context, post *catalog.Post) {
	if w.url == "" {
		return
	}

	payload := postCreatedPayload{
		Event:     "post.created",
		PostID:    post.PublicID,
		OwnerID:   post.OwnerID,
		Title:     post.Title,
		URL:       post.URL,
		Type:      string(post.Type),
		Category:  post.Category,
		Hashtags:  post.Hashtags,
		CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339),
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(w.url)
	if err != nil {
		w.logger.Warn().Err(err).Str("post_id", post.PublicID).Msg("post created notification failed")
		return
	}
	if resp.IsError() {
		w.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("post_id", post.PublicID).
			Msg("post created notification rejected")
		return
	}

	w.logger.Debug().Str("post_id", post.PublicID).Msg("post created notification delivered")
}

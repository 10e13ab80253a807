package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"github.com/dhanuprys/infrantery-backend-go/pkg/logger"
)

// WebhookNotifier dispatches structured events to the external
// notification service (spec §1 Out of scope / §4.5). Delivery is
// fire-and-forget: a failure is logged and never surfaces to the caller,
// since spec §4.5 makes notifier failures non-fatal by design.
type WebhookNotifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	return &WebhookNotifier{webhookURL: webhookURL, httpClient: &http.Client{Timeout: 5 * time.Second}}
}

func (n *WebhookNotifier) Notify(ctx context.Context, event port.NotificationEvent) {
	go func() {
		logger.Info().
			Str("kind", event.Kind).
			Str("project_id", event.ProjectID.Hex()).
			Str("actor_id", logger.SanitizeUserID(event.ActorID.Hex())).
			Msg("dispatching notification")

		if n.webhookURL == "" {
			return
		}

		body, err := json.Marshal(event)
		if err != nil {
			logger.Error().Err(err).Str("kind", event.Kind).Msg("failed to marshal notification event")
			return
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if err != nil {
			logger.Error().Err(err).Msg("failed to build notification request")
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			logger.Error().Err(err).Str("kind", event.Kind).Msg("notification delivery failed")
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			logger.Error().Int("status", resp.StatusCode).Str("kind", event.Kind).Msg("notification endpoint rejected event")
		}
	}()
}

var _ port.Notifier = (*WebhookNotifier)(nil)

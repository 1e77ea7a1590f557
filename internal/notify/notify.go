// Package notify delivers closure and result facts to configured callback
// receivers. Delivery is best-effort: every failure is logged and swallowed,
// never propagated, never retried. The authoritative state transition has
// already committed by the time a notification is attempted.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coopvote/plenum/internal/model"
)

// Receiver keys in the callback configuration.
const (
	EndpointSessionClosed = "session_closed"
	EndpointVotingResult  = "voting_result"
)

// sessionClosedPayload is the body posted to session-closed receivers.
type sessionClosedPayload struct {
	SessionID    string `json:"session_id"`
	AgendaItemID string `json:"agenda_item_id"`
	Kind         string `json:"kind"`
	SentAt       int64  `json:"sent_at"`
}

// resultPayload is the body posted to voting-result receivers.
type resultPayload struct {
	Kind   string        `json:"kind"`
	Result *model.Result `json:"result"`
	SentAt int64         `json:"sent_at"`
}

// Dispatcher posts notification facts to the configured callback endpoints.
type Dispatcher struct {
	cfg        *Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDispatcher creates a dispatcher for the given callback configuration.
// A nil config disables all deliveries.
func NewDispatcher(cfg *Config, logger *slog.Logger) *Dispatcher {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Dispatcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// SessionClosed notifies receivers that a session has closed. Never fails.
func (d *Dispatcher) SessionClosed(ctx context.Context, sessionID, agendaItemID string) {
	d.deliver(ctx, EndpointSessionClosed, sessionClosedPayload{
		SessionID:    sessionID,
		AgendaItemID: agendaItemID,
		Kind:         "SESSION_CLOSED",
		SentAt:       time.Now().UnixMilli(),
	})
}

// Result notifies receivers of a final tally. Never fails.
func (d *Dispatcher) Result(ctx context.Context, result *model.Result) {
	d.deliver(ctx, EndpointVotingResult, resultPayload{
		Kind:   "VOTING_RESULT",
		Result: result,
		SentAt: time.Now().UnixMilli(),
	})
}

// deliver posts the payload to the receiver registered under key. All
// failures are logged at error level and dropped.
func (d *Dispatcher) deliver(ctx context.Context, key string, payload any) {
	url := d.cfg.EndpointURL(key)
	if url == "" {
		d.logger.Debug("callback disabled, skipping notification", "endpoint", key)
		return
	}

	if err := d.post(ctx, url, payload); err != nil {
		d.logger.Error("callback delivery failed", "endpoint", key, "url", url, "err", err)
		return
	}
	d.logger.Info("callback delivered", "endpoint", key, "url", url)
}

func (d *Dispatcher) post(ctx context.Context, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("receiver returned status %d", resp.StatusCode)
	}
	return nil
}

package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"puffsocial/internal/domain/service"

	"github.com/pkg/errors"
)

// localHTTPSink implements EventSink by posting each event to the internal
// dashboard API: POST <endpoint>/log?type=<n>&channel=<channel>.
type localHTTPSink struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLocalHTTPSink creates an event sink posting to the dashboard API.
func NewLocalHTTPSink(endpoint string, logger *slog.Logger) service.EventSink {
	return &localHTTPSink{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// PublishEvent posts one event. The event type and channel travel as query
// parameters and the payload as the JSON body, matching the dashboard's
// existing ingest contract.
func (p *localHTTPSink) PublishEvent(ctx context.Context, event *service.AuditEvent) error {
	body, err := json.Marshal(event.Data)
	if err != nil {
		return errors.WithStack(err)
	}

	query := url.Values{}
	query.Set("type", strconv.Itoa(int(event.Type)))
	query.Set("channel", event.Channel)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/log?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set("X-Request-Id", event.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("event sink returned non-success status: %d", resp.StatusCode)
	}

	p.logger.Debug("[EventLog] Event delivered",
		slog.Int("type", int(event.Type)),
		slog.String("channel", event.Channel),
	)

	return nil
}

// Close releases resources (no-op for HTTP client)
func (p *localHTTPSink) Close() error {
	return nil
}

// Package eventlog delivers audit event records to the internal dashboard
// collaborator. Delivery is best-effort; callers treat failures as
// observability loss, never as request failure.
package eventlog

import (
	"context"
	"log/slog"

	"puffsocial/config"
	"puffsocial/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Provider names accepted in eventLog.provider.
const (
	ProviderNoop   = "noop"
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// noopSink is a no-op implementation when the event log is disabled
type noopSink struct {
	logger *slog.Logger
}

func (p *noopSink) PublishEvent(ctx context.Context, event *service.AuditEvent) error {
	p.logger.Debug("[NoopEventLog] Event delivery disabled, skipping",
		slog.Int("type", int(event.Type)),
		slog.String("channel", event.Channel),
	)

	return nil
}

func (p *noopSink) Close() error {
	return nil
}

// SinkParams holds dependencies for EventSink, injected by Fx
type SinkParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewEventSink creates an EventSink based on configuration
func NewEventSink(params SinkParams) (service.EventSink, error) {
	cfg := params.Config.EventLog
	logger := params.Logger

	// If the event log is not configured, return a no-op sink
	if cfg == nil || cfg.Provider == "" || cfg.Provider == ProviderNoop {
		logger.Info("Event log not configured, using no-op sink")

		return &noopSink{logger: logger}, nil
	}

	var sink service.EventSink
	var err error

	switch cfg.Provider {
	case ProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("local endpoint is required for local provider")
		}
		logger.Info("Using local HTTP event sink",
			slog.String("endpoint", cfg.LocalEndpoint),
		)

		sink = NewLocalHTTPSink(cfg.LocalEndpoint, logger)

	case ProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for google provider")
		}
		logger.Info("Using Google Pub/Sub event sink",
			slog.String("project_id", cfg.ProjectID),
			slog.String("topic_id", cfg.TopicID),
		)

		sink, err = NewGooglePubSubSink(params.Ctx, cfg.ProjectID, cfg.TopicID, logger)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf("unknown event log provider: %s", cfg.Provider)
	}

	// Register lifecycle hook to close the sink on shutdown
	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing EventSink")

			return sink.Close()
		},
	})

	return sink, nil
}

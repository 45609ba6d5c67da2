package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/resilience"
)

const operationPublish = "nats.publish"

// Events carries "documents changed" notifications. Every API replica holds
// its own index, so subscribers use a plain fan-out subscription rather than a
// queue group.
type Events struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

var _ ports.DocumentEvents = (*Events)(nil)

type Options struct {
	ClientName           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string, options Options) (*Events, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := options.ClientName
	if name == "" {
		name = "labor-law-assistant"
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Events{
		conn:     conn,
		subject:  strings.TrimSpace(subject),
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (e *Events) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
}

func (e *Events) PublishDocumentsChanged(ctx context.Context, event domain.DocumentsChanged) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := e.conn.Publish(e.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return e.conn.FlushTimeout(2 * time.Second)
	}

	if e.executor != nil {
		err = e.executor.Execute(ctx, operationPublish, call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return resilience.WrapTemporary(operationPublish, err, classifyNATSError)
	}
	return nil
}

// SubscribeDocumentsChanged blocks until ctx is done, then drains the
// subscription.
func (e *Events) SubscribeDocumentsChanged(ctx context.Context, handler func(context.Context, domain.DocumentsChanged) error) error {
	sub, err := e.conn.Subscribe(e.subject, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		event, err := decodeEvent(msg.Data)
		if err != nil {
			e.logger.Warn("documents_changed_undecodable", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, event); err != nil {
			e.logger.Error("documents_changed_handler_failed", "count", event.Count, "source", event.Source, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := e.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := e.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeEvent(event domain.DocumentsChanged) ([]byte, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode documents changed event: %w", err)
	}
	return payload, nil
}

// decodeEvent accepts an empty payload as a bare "something changed" signal.
func decodeEvent(data []byte) (domain.DocumentsChanged, error) {
	var event domain.DocumentsChanged
	if len(strings.TrimSpace(string(data))) == 0 {
		return event, nil
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.DocumentsChanged{}, fmt.Errorf("decode documents changed event: %w", err)
	}
	return event, nil
}

package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/resilience"
)

func TestEventCodecKeepsFields(t *testing.T) {
	at := time.Date(2025, 5, 2, 10, 30, 0, 0, time.UTC)
	payload, err := encodeEvent(domain.DocumentsChanged{Count: 3, Source: "legalctl load", OccurredAt: at})
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	got, err := decodeEvent(payload)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if got.Count != 3 || got.Source != "legalctl load" || !got.OccurredAt.Equal(at) {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestEncodeStampsMissingTime(t *testing.T) {
	payload, err := encodeEvent(domain.DocumentsChanged{Count: 1})
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	got, _ := decodeEvent(payload)
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set")
	}
}

func TestDecodeEventAcceptsEmptyPayload(t *testing.T) {
	got, err := decodeEvent([]byte("  "))
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if got.Count != 0 {
		t.Fatalf("unexpected event: %+v", got)
	}
	if _, err := decodeEvent([]byte("{broken")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestClassifyNATSError(t *testing.T) {
	cases := []struct {
		err  error
		want resilience.ErrorClassification
	}{
		{err: context.Canceled, want: resilience.ErrorClassification{}},
		{err: fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed), want: resilience.ErrorClassification{Retryable: true, RecordFailure: true}},
		{err: nats.ErrNoServers, want: resilience.ErrorClassification{Retryable: true, RecordFailure: true}},
		{err: nats.ErrBadSubject, want: resilience.ErrorClassification{RecordFailure: true}},
		{err: errors.New("boom"), want: resilience.ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range cases {
		if got := classifyNATSError(tc.err); got != tc.want {
			t.Fatalf("classifyNATSError(%v) = %+v, want %+v", tc.err, got, tc.want)
		}
	}
}

func TestWrapTemporaryForNATS(t *testing.T) {
	err := resilience.WrapTemporary(operationPublish, fmt.Errorf("nats publish: %w", nats.ErrTimeout), classifyNATSError)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

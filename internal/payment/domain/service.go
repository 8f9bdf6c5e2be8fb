package domain

import (
	"context"
	"errors"
	"net/http"
)

type AdapterConfig struct {
	Provider string
	Config   map[string]any
}

// PaymentAdapter verifies and parses provider webhook deliveries.
type PaymentAdapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (PaymentAdapter, error)
}

// Service ingests raw webhook deliveries.
type Service interface {
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
}

type ListLogsRequest struct {
	Provider        string
	ProviderEventID string
}

type ListLogsResponse struct {
	Logs []ProcessingLog `json:"logs"`
}

// LogReader exposes the processing trail of an event.
type LogReader interface {
	ListLogs(ctx context.Context, req ListLogsRequest) (ListLogsResponse, error)
}

var (
	ErrInvalidProvider       = errors.New("invalid_provider")
	ErrProviderNotFound      = errors.New("provider_not_found")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrProcessingFailed      = errors.New("processing_failed")
	ErrInvalidConfig         = errors.New("invalid_config")
	ErrInvalidAmount         = errors.New("invalid_amount")
	ErrInvalidCurrency       = errors.New("invalid_currency")
	ErrEncryptionKeyMissing  = errors.New("encryption_key_missing")
)

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/docstone/ingest-go/internal/manager/interfaces"
	"github.com/docstone/ingest-go/internal/manager/models"
	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
)

// ChannelStatusSink delivers status updates to an in-process channel, for
// callers that dispatched the job and want to watch it. A slow or absent
// reader drops updates rather than stalling the pipeline.
type ChannelStatusSink struct {
	updates chan models.StatusUpdate
}

// NewChannelStatusSink creates a channel sink with the given buffer size.
func NewChannelStatusSink(buffer int) *ChannelStatusSink {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelStatusSink{
		updates: make(chan models.StatusUpdate, buffer),
	}
}

// Report sends the update without blocking. A full buffer drops the update;
// the job record remains the source of truth.
func (s *ChannelStatusSink) Report(_ context.Context, update models.StatusUpdate) error {
	select {
	case s.updates <- update:
	default:
	}
	return nil
}

// Updates returns the receive side of the sink.
func (s *ChannelStatusSink) Updates() <-chan models.StatusUpdate {
	return s.updates
}

// Close closes the update channel. Call only after the job has finished.
func (s *ChannelStatusSink) Close() {
	close(s.updates)
}

var webhookTimeout = 10 * time.Second

// WebhookStatusSink POSTs each status update to an HTTP endpoint. Delivery
// is best-effort; the orchestrator logs failures and moves on.
type WebhookStatusSink struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewWebhookStatusSink creates a webhook sink for the given URL.
func NewWebhookStatusSink(url string, httpClient *http.Client) *WebhookStatusSink {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: webhookTimeout}
	}
	return &WebhookStatusSink{
		url:        url,
		httpClient: httpClient,
		logger:     util.NewLogger(zerolog.ErrorLevel),
	}
}

// Report POSTs the update as JSON.
func (s *WebhookStatusSink) Report(ctx context.Context, update models.StatusUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warn().Int("status_code", resp.StatusCode).Str("url", s.url).
			Msg("Webhook returned error status")
	}
	return nil
}

// MultiStatusSink fans one update out to several sinks. Errors from earlier
// sinks never stop later ones; the first error is returned for logging.
type MultiStatusSink struct {
	sinks []interfaces.StatusSink
}

// NewMultiStatusSink combines sinks into one.
func NewMultiStatusSink(sinks ...interfaces.StatusSink) *MultiStatusSink {
	return &MultiStatusSink{sinks: sinks}
}

func (s *MultiStatusSink) Report(ctx context.Context, update models.StatusUpdate) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Report(ctx, update); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
)

var (
	ErrUnsupportedScheme = errors.New("locator scheme not supported")
	ErrFetchFailed       = errors.New("fetch returned non-success status")
)

// maxFetchBytes caps a single remote document at 64 MiB.
const maxFetchBytes = 64 << 20

// HTTPFetcher resolves http(s) locators by downloading the document bytes.
type HTTPFetcher struct {
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPFetcher creates a fetcher with a sensible default timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPFetcher{
		client: client,
		logger: util.NewLogger(zerolog.ErrorLevel),
	}
}

// Fetch downloads the document at the locator URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if !strings.HasPrefix(locator, "http://") && !strings.HasPrefix(locator, "https://") {
		return nil, ErrUnsupportedScheme
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to create request")
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error().Err(err).Str("locator", locator).Msg("request failed")
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Error().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		f.logger.Error().Int("status_code", resp.StatusCode).Str("locator", locator).
			Msg("unexpected status code")
		return nil, ErrFetchFailed
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		f.logger.Error().Err(err).Str("locator", locator).Msg("failed to read response body")
		return nil, err
	}
	return data, nil
}

// SelectFetcher picks the fetcher for a locator: remote URLs download over
// HTTP, everything else reads from the local filesystem.
type SelectFetcher struct {
	local  *LocalFetcher
	remote *HTTPFetcher
}

// NewSelectFetcher combines a local and an HTTP fetcher.
func NewSelectFetcher(local *LocalFetcher, remote *HTTPFetcher) *SelectFetcher {
	return &SelectFetcher{local: local, remote: remote}
}

func (f *SelectFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return f.remote.Fetch(ctx, locator)
	}
	return f.local.Fetch(ctx, locator)
}

package reader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const fetchAttempts = 3

// PDFURLReader fetches a PDF over HTTP and extracts its text. Transient
// fetch failures are retried with exponential backoff before giving up.
type PDFURLReader struct {
	PDFReader
	Client *http.Client
}

// Read fetches the PDF at rawURL and returns one Document per page.
func (r *PDFURLReader) Read(ctx context.Context, rawURL string) ([]Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", rawURL, err)
	}

	data, err := r.fetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(path.Base(parsed.Path), path.Ext(parsed.Path))
	if name == "" || name == "." || name == "/" {
		name = "document"
	}
	return r.ReadBytes(name, data)
}

func (r *PDFURLReader) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	logger := log.Logger
	if r.Logger != nil {
		logger = *r.Logger
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	// 1s, 2s, 4s between attempts.
	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ExponentialBackOff{
		InitialInterval:     time.Second,
		Multiplier:          2,
		RandomizationFactor: 0,
		MaxInterval:         backoff.DefaultMaxInterval,
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
		Stop:                backoff.Stop,
	}, fetchAttempts-1), ctx)
	policy.Reset()

	attempt := 0
	fetch := func() ([]byte, error) {
		attempt++
		data, err := fetchURL(ctx, client, rawURL)
		if err != nil {
			logger.Warn().Str("url", rawURL).Int("attempt", attempt).Err(err).Msg("Failed to fetch PDF, retrying")
		}
		return data, err
	}
	return backoff.RetryWithData(fetch, policy)
}

func fetchURL(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: http %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

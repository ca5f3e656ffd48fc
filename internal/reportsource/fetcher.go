package reportsource

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
)

// FetcherConfig bounds document downloads.
type FetcherConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

// Fetcher downloads report documents over HTTP.
type Fetcher struct {
	client   *resty.Client
	maxBytes int64
}

// NewFetcher constructs a fetcher using a resty client.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/pdf, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, text/plain;q=0.9, */*;q=0.5")
	return &Fetcher{client: client, maxBytes: cfg.MaxBytes}
}

// Fetch downloads the document at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	body := resp.RawBody()
	if body != nil {
		defer body.Close()
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode())
	}
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrFetch)
	}

	data, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrFetch, f.maxBytes)
	}

	return &Document{
		Name:        documentName(rawURL),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        data,
	}, nil
}

func documentName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Base(parsed.Path)
}

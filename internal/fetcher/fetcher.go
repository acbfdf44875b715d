// Package fetcher is the implementation of the fetch stage.
// The fetch stage retrieves the source records from the configured HTTP API
// and decodes them into raw records for the transform stage.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/feedsnap/feedsnap/internal/constants"
	"github.com/feedsnap/feedsnap/internal/fileutils"
	"github.com/feedsnap/feedsnap/internal/record"
	"github.com/feedsnap/feedsnap/internal/retry"
)

// ErrFetchFailed is returned when the records could not be retrieved from the API,
// either because the attempt budget ran out or because of a non-retryable response.
var ErrFetchFailed = errors.New("fetch failed")

// Fetcher retrieves records from an HTTP API.
type Fetcher struct {
	url string

	timeout time.Duration
	policy  retry.Policy

	log *slog.Logger
}

type options struct {
	timeout time.Duration
	policy  retry.Policy
}

var defaultOptions = options{
	timeout: constants.DefaultFetchTimeout,
	policy: retry.Policy{
		MaxAttempts: constants.DefaultFetchAttempts,
		BaseDelay:   constants.DefaultFetchBackoff,
		MaxDelay:    constants.DefaultMaxBackoff,
	},
}

// Options represents an optional function to override Fetcher default values.
type Options func(*options)

// New returns a new Fetcher for the given API URL.
func New(l *slog.Logger, apiURL string, args ...Options) (Fetcher, error) {
	l.Debug("Creating new fetcher", "url", apiURL)

	if apiURL == "" {
		return Fetcher{}, errors.New("API URL cannot be an empty string")
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return Fetcher{}, fmt.Errorf("failed to parse API URL %s: %v", apiURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Fetcher{}, fmt.Errorf("unsupported API URL scheme %q", u.Scheme)
	}

	opts := defaultOptions
	for _, opt := range args {
		opt(&opts)
	}

	return Fetcher{
		url: apiURL,

		timeout: opts.timeout,
		policy:  opts.policy,

		log: l,
	}, nil
}

// Fetch retrieves the records from the API.
//
// Connection errors, timeouts, throttling and server side statuses are retried
// with an exponential backoff and full jitter until the attempt budget runs out.
// Client side statuses and bodies that do not decode stop the attempts immediately.
func (f Fetcher) Fetch(ctx context.Context) ([]record.Record, error) {
	f.log.Debug("Fetching records", "url", f.url)

	var recs []record.Record
	err := retry.Do(ctx, f.log, f.policy, func(ctx context.Context) error {
		r, err := f.fetchOnce(ctx)
		if err != nil {
			return err
		}
		recs = r
		return nil
	}, transient)
	if err != nil {
		return nil, errors.Join(ErrFetchFailed, err)
	}

	f.log.Info("Records fetched", "count", len(recs))
	return recs, nil
}

// fetchOnce performs a single GET request and decodes the response body.
// A response with a single top level object is treated as one record.
func (f Fetcher) fetchOnce(ctx context.Context) ([]record.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: f.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError{code: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	recs, err := fileutils.UnmarshalJSON[record.Record](body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode records: %v", err)
	}

	return recs, nil
}

// statusError reports a response status outside of the 2xx range.
type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// transient reports whether another attempt at the request may succeed.
func transient(err error) bool {
	var se statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= http.StatusInternalServerError
	}

	var ne net.Error
	return errors.As(err, &ne)
}

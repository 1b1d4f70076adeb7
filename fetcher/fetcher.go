// Package fetcher downloads source pages and decodes them to UTF-8.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "magnetrss_fetch_total",
		Help: "The total number of source page fetches by result",
	}, []string{"result"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "magnetrss_fetch_duration_seconds",
		Help:    "Duration of source page fetches including retries",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // Start at 50ms, double each bucket, 10 buckets
	})
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0"
	DefaultRetries   = 1

	maxBodySize = 10 * 1024 * 1024 // 10MB
)

// Config holds configuration for the page fetcher
type Config struct {
	// Timeout for a single request attempt
	Timeout   time.Duration
	UserAgent string
	// Retries is the number of extra attempts after a network error or a 5xx response
	Retries int
	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration
}

// Error is returned for any failed fetch and names the offending URL
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher issues GET requests for source pages
type Fetcher struct {
	client         *http.Client
	userAgent      string
	retries        int
	initialBackoff time.Duration
}

func New(config Config) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 500 * time.Millisecond
	}

	return &Fetcher{
		client:         &http.Client{Timeout: config.Timeout},
		userAgent:      config.UserAgent,
		retries:        config.Retries,
		initialBackoff: config.InitialBackoff,
	}
}

// Fetch downloads url and returns the page as UTF-8 text. The character
// encoding is taken from the Content-Type header, a <meta> tag or the content.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()
	defer func() {
		fetchDuration.Observe(time.Since(start).Seconds())
	}()

	// Set up exponential backoff for retry attempts
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initialBackoff
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	var body string
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		body, err = f.get(ctx, url)
		if err != nil && attempt <= f.retries && retryable(err) {
			log.WithFields(log.Fields{
				"url":     url,
				"attempt": attempt,
				"error":   err,
			}).Debug("Fetch failed, retrying")
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.retries)), ctx))

	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			err = &Error{URL: url, Err: err}
		}
		return "", err
	}
	fetchTotal.WithLabelValues("ok").Inc()
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(&Error{URL: url, Err: err})
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &Error{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
		if resp.StatusCode >= 500 {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	body, encoding := decode(data, resp.Header.Get("Content-Type"))
	log.WithFields(log.Fields{
		"url":      url,
		"encoding": encoding,
		"bytes":    len(data),
	}).Debug("Fetched page")

	return body, nil
}

func retryable(err error) bool {
	var permanent *backoff.PermanentError
	return !errors.As(err, &permanent)
}

// StatusLabel returns a short label describing err, used for logging
func StatusLabel(err error) string {
	var fetchErr *Error
	if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
		return strconv.Itoa(fetchErr.StatusCode)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "timeout"
	}
	return "error"
}

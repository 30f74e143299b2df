package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/webdeckhq/webdeck/backend/internal/logging"
)

// Config carries service-level settings. Zero values fall back to
// defaults, so Config{} is usable as-is.
type Config struct {
	PoolSize     int
	Timeout      time.Duration
	UserAgent    string
	ProxyURL     string
	MaxBodyBytes int64
}

// Service executes fetches against a shared client pool. One Service is
// created at startup and injected into every consumer.
type Service struct {
	pool    *Pool
	maxBody int64
	log     *logging.Logger
}

// NewService builds the pool and executor.
func NewService(cfg Config, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	pool := NewPool(cfg.PoolSize, ClientConfig{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		ProxyURL:  cfg.ProxyURL,
	})

	return &Service{
		pool:    pool,
		maxBody: cfg.MaxBodyBytes,
		log:     log.With(zap.String("component", "fetch")),
	}
}

// Response is the shaped outcome of a successful exchange.
type Response struct {
	URL     string            `json:"url"`
	Status  int               `json:"status"`
	Headers HeaderMap         `json:"headers"`
	Cookies map[string]string `json:"cookies"`
	Body    *Body             `json:"body,omitempty"`
}

// Fetch runs one exchange: validate the URL, lease a client, apply the
// caller's cookie and policy overrides, send, then shape the response.
// Every failure comes back as a *Error value; there are no retries.
func (s *Service) Fetch(ctx context.Context, rawURL string, opts *Options) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &Error{Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, &Error{Message: fmt.Sprintf("url %q has no host", rawURL)}
	}

	mode := PayloadBinary
	method := http.MethodGet
	var header http.Header
	var body []byte

	if opts != nil {
		if !opts.ResponseType.valid() {
			return nil, &Error{Message: fmt.Sprintf("responseType must be %q, %q or %q",
				PayloadBinary, PayloadText, PayloadDiscard)}
		}
		mode = opts.ResponseType

		method, err = normalizeMethod(opts.Method)
		if err != nil {
			return nil, &Error{Message: err.Error()}
		}
		header = http.Header(opts.Headers)
		if opts.Body != nil {
			body = opts.Body.Data
		}
	}

	lease, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer lease.Release()
	client := lease.Client()

	if opts != nil {
		if len(opts.Cookies) > 0 {
			if err := injectCookies(client.Jar(), u, opts.Cookies); err != nil {
				return nil, &Error{Message: err.Error()}
			}
		}
		if opts.Redirect != nil {
			client.SetPolicy(opts.Redirect.Policy())
		}
	}

	s.log.Debug("exchange", zap.String("method", method), zap.String("url", u.String()))

	resp, err := client.Send(ctx, method, u, header, body)
	if err != nil {
		return nil, wrapErr(err)
	}

	// The jar has every Set-Cookie from every hop by the time headers are
	// in; snapshot before touching the body.
	cookies := client.Jar().Snapshot()
	finalURL := resp.RawResponse.Request.URL.String()

	respBody, err := readBody(resp, mode, s.maxBody)
	if err != nil {
		return nil, &Error{URL: finalURL, Message: err.Error()}
	}

	return &Response{
		URL:     finalURL,
		Status:  resp.StatusCode(),
		Headers: HeaderMap(resp.Header()),
		Cookies: cookies,
		Body:    respBody,
	}, nil
}

// Stats reports pool occupancy for the status API.
func (s *Service) Stats() map[string]interface{} {
	return s.pool.Stats()
}

// Close shuts the pool down.
func (s *Service) Close() {
	s.pool.Close()
}

// injectCookies applies explicit cookie overrides in name order. The first
// rejected cookie aborts the rest; cookies already applied stay in the
// jar.
func injectCookies(jar *Jar, u *url.URL, cookies map[string]string) error {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := jar.Insert(u, name, cookies[name]); err != nil {
			return err
		}
	}
	return nil
}

package fetch

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// ClientConfig carries per-client transport settings.
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
	ProxyURL  string
}

// Client bundles one transport handle with the cookie jar and redirect
// policy slot shared by every fetch that reuses it. The pool hands a
// client to a single caller at a time; jar and policy mutations are only
// legal while holding it.
type Client struct {
	http *resty.Client
	jar  *Jar

	mu     sync.Mutex
	policy RedirectPolicy
}

// NewClient builds a pooled client: a retrying transport with retries
// disabled supplies the connection pool, resty drives the exchange, and
// the jar owns cookie state. The redirect hook is installed once and
// consults the policy slot on every hop.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "WebDeck/1.0"
	}

	c := &Client{
		jar:    NewJar(),
		policy: DefaultPolicy(),
	}

	// Failures surface to the caller as-is; the retry layer only
	// contributes its pooled transport.
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil

	transport := rc.HTTPClient.Transport
	if t, ok := transport.(*http.Transport); ok && cfg.ProxyURL != "" {
		if proxy, err := url.Parse(cfg.ProxyURL); err == nil {
			t.Proxy = http.ProxyURL(proxy)
		}
	}

	c.http = resty.New().
		SetTransport(transport).
		SetCookieJar(c.jar).
		SetTimeout(cfg.Timeout).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept-Encoding", acceptEncoding).
		SetRedirectPolicy(resty.RedirectPolicyFunc(c.checkRedirect))

	return c
}

// Jar returns the client's shared cookie jar.
func (c *Client) Jar() *Jar {
	return c.jar
}

// Policy returns the current redirect policy.
func (c *Client) Policy() RedirectPolicy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy
}

// SetPolicy overwrites the redirect policy slot for the next send. Valid
// only while holding the client exclusively; the slot reverts to the
// default when the client returns to its pool.
func (c *Client) SetPolicy(p RedirectPolicy) {
	c.mu.Lock()
	c.policy = p
	c.mu.Unlock()
}

func (c *Client) resetPolicy() {
	c.SetPolicy(DefaultPolicy())
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	return c.Policy().check(req, via)
}

// Send performs one exchange. The response body is left unread on the
// wire; the caller owns RawBody and must close it.
func (c *Client) Send(ctx context.Context, method string, u *url.URL, header http.Header, body []byte) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if len(header) > 0 {
		req.SetHeaderMultiValues(header)
	}
	if body != nil {
		req.SetBody(body)
	}
	return req.Execute(method, u.String())
}

// Close releases idle transport connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

package fetch

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Jar wraps the standard cookie jar with two abilities it lacks:
// enumerating every live cookie for response snapshots, and surfacing
// validation failures on explicit inserts instead of dropping bad cookies
// silently. Matching and storage semantics stay with the inner jar.
//
// Every holder of a client shares its jar. Each mutation and each snapshot
// runs under one lock, so a snapshot never observes a half-applied insert.
type Jar struct {
	mu    sync.Mutex
	inner *cookiejar.Jar
	live  map[jarKey]jarEntry
}

type jarKey struct {
	domain string
	path   string
	name   string
}

type jarEntry struct {
	value   string
	expires time.Time // zero for session cookies
}

// NewJar creates an empty jar.
func NewJar() *Jar {
	inner, _ := cookiejar.New(nil)
	return &Jar{
		inner: inner,
		live:  make(map[jarKey]jarEntry),
	}
}

// SetCookies stores the cookies received in a response from u. Implements
// http.CookieJar; the transport calls this on every hop that carries
// Set-Cookie headers, including intermediate redirects.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	for _, c := range cookies {
		j.record(u, c)
	}
}

// Cookies returns the cookies to attach to a request to u. Implements
// http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Insert validates name=value against u and stores it as if a response
// from u had set it. Malformed cookies and hostless URLs are reported as
// errors, never dropped.
func (j *Jar) Insert(u *url.URL, name, value string) error {
	c := &http.Cookie{Name: name, Value: value}
	if err := c.Valid(); err != nil {
		return fmt.Errorf("cookie %q rejected: %w", name, err)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("cookie %q rejected: url %q has no host", name, u.Redacted())
	}
	j.SetCookies(u, []*http.Cookie{c})
	return nil
}

// Snapshot returns every live cookie as name to value pairs. The whole jar
// is exported, not just cookies matching one URL; when the same name lives
// under several domains one of the values wins. Expired entries are
// dropped on the way out.
func (j *Jar) Snapshot() map[string]string {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	out := make(map[string]string, len(j.live))
	for key, e := range j.live {
		if !e.expires.IsZero() && !e.expires.After(now) {
			delete(j.live, key)
			continue
		}
		out[key.name] = e.value
	}
	return out
}

// record mirrors one cookie into the enumeration index. Deletions (negative
// MaxAge, past expiry) remove the entry. Callers hold j.mu.
func (j *Jar) record(u *url.URL, c *http.Cookie) {
	host := strings.ToLower(u.Hostname())
	if c.Domain != "" && !domainMatch(host, c.Domain) {
		// The inner jar rejects mismatched domain attributes; keep the
		// index in agreement.
		return
	}

	key := jarKey{
		domain: cookieDomain(host, c),
		path:   cookiePath(u, c),
		name:   c.Name,
	}

	if c.MaxAge < 0 {
		delete(j.live, key)
		return
	}

	var expires time.Time
	switch {
	case c.MaxAge > 0:
		expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
	case !c.Expires.IsZero():
		expires = c.Expires
		if !expires.After(time.Now()) {
			delete(j.live, key)
			return
		}
	}

	j.live[key] = jarEntry{value: c.Value, expires: expires}
}

// domainMatch reports whether host is the cookie domain or a subdomain of
// it.
func domainMatch(host, domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// cookieDomain returns the canonical storage domain for a cookie set on
// host.
func cookieDomain(host string, c *http.Cookie) string {
	if c.Domain != "" {
		return strings.ToLower(strings.TrimPrefix(c.Domain, "."))
	}
	return host
}

// cookiePath returns the cookie's path attribute or the request's default
// path per RFC 6265 section 5.1.4.
func cookiePath(u *url.URL, c *http.Cookie) string {
	if strings.HasPrefix(c.Path, "/") {
		return c.Path
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") {
		return "/"
	}
	if i := strings.LastIndex(p, "/"); i > 0 {
		return p[:i]
	}
	return "/"
}

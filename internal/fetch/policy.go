package fetch

import (
	"fmt"
	"net/http"
)

// DefaultMaxRedirects is the hop ceiling of the default redirect policy.
const DefaultMaxRedirects = 10

// RedirectPolicy decides, per hop, whether a redirect response is
// followed. The zero value follows nothing; use the constructors.
type RedirectPolicy struct {
	follow bool
	max    int
}

// NoRedirects returns the policy that never follows a redirect. The first
// redirect response becomes the final response, not an error.
func NoRedirects() RedirectPolicy {
	return RedirectPolicy{}
}

// LimitedRedirects returns a policy following at most max hops. Crossing
// the ceiling fails the exchange with ErrTooManyRedirects.
func LimitedRedirects(max int) RedirectPolicy {
	if max < 0 {
		max = 0
	}
	return RedirectPolicy{follow: true, max: max}
}

// DefaultPolicy returns the policy installed on fresh clients and restored
// when a client returns to its pool.
func DefaultPolicy() RedirectPolicy {
	return LimitedRedirects(DefaultMaxRedirects)
}

// Follows reports whether the policy follows redirects at all.
func (p RedirectPolicy) Follows() bool {
	return p.follow
}

// Max returns the hop ceiling. Only meaningful when Follows is true.
func (p RedirectPolicy) Max() int {
	return p.max
}

// check is the per-hop decision wired into the transport's redirect hook.
// via holds every request issued so far, so len(via) is the number of the
// hop about to be taken.
func (p RedirectPolicy) check(_ *http.Request, via []*http.Request) error {
	if !p.follow {
		return http.ErrUseLastResponse
	}
	if len(via) > p.max {
		return fmt.Errorf("%w: stopped after %d hops", ErrTooManyRedirects, p.max)
	}
	return nil
}

// Package fetch implements the cookie-aware HTTP exchange service behind
// the deck's net tools.
//
// Every exchange runs on a pooled client. A client bundles one transport
// handle with a cookie jar and a redirect policy slot; the pool hands each
// client to a single caller at a time, so jar writes and policy overrides
// never race between concurrent fetches. Cookies set by responses persist
// on the client and are visible to later fetches that reuse it.
//
// Acquisition is fair and non-blocking for the runtime: callers park on a
// channel in arrival order and wake when a client frees up or their
// context ends. The pool grows lazily up to a configured ceiling.
//
// A fetch applies the caller's overrides (explicit cookie injections,
// redirect policy, headers, body) to the leased client, performs the
// exchange, snapshots the whole jar into the response, and materializes
// the body as raw bytes, decoded text, or nothing at all. Failures of any
// stage come back as flat *Error values carrying the offending URL when
// one is known; nothing in this package retries.
//
// Example:
//
//	svc := fetch.NewService(fetch.Config{PoolSize: 4}, logger)
//	defer svc.Close()
//
//	resp, err := svc.Fetch(ctx, "https://example.com", &fetch.Options{
//		ResponseType: fetch.PayloadText,
//		Cookies:      map[string]string{"session": "abc"},
//	})
package fetch

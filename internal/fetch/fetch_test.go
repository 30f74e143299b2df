package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	svc := NewService(cfg, nil)
	t.Cleanup(svc.Close)
	return svc
}

func fetchErr(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	var fe *Error
	require.True(t, errors.As(err, &fe))
	return fe
}

func TestFetchDefaultsToBinaryGet(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Header().Set("X-Ping", "pong")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, "hello")
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	resp, err := svc.Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, srv.URL, resp.URL)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, []string{"pong"}, resp.Headers["X-Ping"])
	assert.Empty(t, resp.Cookies)
	require.NotNil(t, resp.Body)
	assert.Equal(t, PayloadBinary, resp.Body.Type)
	assert.Equal(t, []byte("hello"), resp.Body.Data)
}

func TestFetchSendsClientIdentity(t *testing.T) {
	var (
		mu       sync.Mutex
		ua       string
		encoding string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ua = r.Header.Get("User-Agent")
		encoding = r.Header.Get("Accept-Encoding")
		mu.Unlock()
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	_, err := svc.Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "WebDeck/1.0", ua)
	assert.Equal(t, acceptEncoding, encoding)
}

func TestFetchRejectsBadTarget(t *testing.T) {
	svc := newTestService(t, Config{PoolSize: 1})

	tests := []struct {
		name string
		url  string
	}{
		{name: "unparseable", url: "http://%zz"},
		{name: "no scheme", url: "notaurl"},
		{name: "wrong scheme", url: "ftp://host/file"},
		{name: "no host", url: "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Fetch(context.Background(), tt.url, nil)
			fe := fetchErr(t, err)

			assert.Nil(t, resp)
			assert.Empty(t, fe.URL)
			assert.NotEmpty(t, fe.Message)
		})
	}
}

func TestFetchRejectsBadOptions(t *testing.T) {
	svc := newTestService(t, Config{PoolSize: 1})

	tests := []struct {
		name string
		opts *Options
		want string
	}{
		{name: "missing response type", opts: &Options{}, want: "responseType"},
		{name: "unknown response type", opts: &Options{ResponseType: "blob"}, want: "responseType"},
		{name: "bad method", opts: &Options{ResponseType: PayloadBinary, Method: "GE T"}, want: "invalid method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Fetch(context.Background(), "http://example.com/", tt.opts)
			fe := fetchErr(t, err)
			assert.Contains(t, fe.Message, tt.want)
		})
	}
}

func TestFetchPostBody(t *testing.T) {
	var (
		mu        sync.Mutex
		gotMethod string
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotMethod, gotBody = r.Method, body
		mu.Unlock()
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	_, err := svc.Fetch(context.Background(), srv.URL, &Options{
		ResponseType: PayloadDiscard,
		Method:       "post",
		Body:         TextBody("ping"),
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, []byte("ping"), gotBody)
}

func TestFetchCustomHeaders(t *testing.T) {
	var (
		mu  sync.Mutex
		got http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = r.Header.Clone()
		mu.Unlock()
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	_, err := svc.Fetch(context.Background(), srv.URL, &Options{
		ResponseType: PayloadDiscard,
		Headers: HeaderMap{
			"X-Token": {"abc"},
			"Accept":  {"text/html", "text/plain"},
		},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"abc"}, got["X-Token"])
	assert.Equal(t, []string{"text/html", "text/plain"}, got["Accept"])
}

func TestFetchTextDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		w.Write([]byte{0x63, 0x61, 0x66, 0xe9})
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	resp, err := svc.Fetch(context.Background(), srv.URL, &Options{ResponseType: PayloadText})
	require.NoError(t, err)
	require.NotNil(t, resp.Body)
	assert.Equal(t, PayloadText, resp.Body.Type)
	assert.Equal(t, "café", resp.Body.Text())
}

func TestFetchTextDecodeFailureCarriesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte{0xff, 0xfe})
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	_, err := svc.Fetch(context.Background(), srv.URL, &Options{ResponseType: PayloadText})
	fe := fetchErr(t, err)
	assert.Equal(t, srv.URL, fe.URL)
	assert.Contains(t, fe.Message, "invalid utf-8")
}

func TestFetchDiscardOmitsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc"})
		io.WriteString(w, "ignored")
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	resp, err := svc.Fetch(context.Background(), srv.URL, &Options{ResponseType: PayloadDiscard})
	require.NoError(t, err)

	assert.Nil(t, resp.Body)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "abc", resp.Cookies["sid"])
}

func TestFetchCookiesPersistAcrossFetches(t *testing.T) {
	var (
		mu      sync.Mutex
		gotRead string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
	})
	mux.HandleFunc("/read", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if c, err := r.Cookie("sid"); err == nil {
			gotRead = c.Value
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	resp, err := svc.Fetch(context.Background(), srv.URL+"/set", nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Cookies["sid"])

	resp, err = svc.Fetch(context.Background(), srv.URL+"/read", nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Cookies["sid"])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "abc", gotRead)
}

func TestFetchInjectedCookiesRideRequest(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if c, err := r.Cookie("auth"); err == nil {
			got = append(got, c.Value)
		} else {
			got = append(got, "")
		}
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	resp, err := svc.Fetch(context.Background(), srv.URL, &Options{
		ResponseType: PayloadDiscard,
		Cookies:      map[string]string{"auth": "tok1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tok1", resp.Cookies["auth"])

	// The injected cookie outlives the fetch that planted it.
	resp, err = svc.Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "tok1", resp.Cookies["auth"])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"tok1", "tok1"}, got)
}

func TestFetchRejectedCookieSkipsSend(t *testing.T) {
	var (
		mu   sync.Mutex
		hits int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	_, err := svc.Fetch(context.Background(), srv.URL, &Options{
		ResponseType: PayloadDiscard,
		Cookies:      map[string]string{"alpha": "1", "bad name": "x"},
	})
	fe := fetchErr(t, err)
	assert.Empty(t, fe.URL)
	assert.Contains(t, fe.Message, `"bad name"`)

	mu.Lock()
	assert.Zero(t, hits)
	mu.Unlock()

	// Names are applied in order; "alpha" made it in before the rejection.
	resp, err := svc.Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", resp.Cookies["alpha"])
}

func TestFetchNoFollowReturnsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "hop", Value: "1"})
		http.Redirect(w, r, "/end", http.StatusFound)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "final")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	resp, err := svc.Fetch(context.Background(), srv.URL+"/hop", &Options{
		ResponseType: PayloadBinary,
		Redirect:     RedirectOverride(NoRedirects()),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Equal(t, srv.URL+"/hop", resp.URL)
	assert.Equal(t, []string{"/end"}, resp.Headers["Location"])
	assert.Equal(t, "1", resp.Cookies["hop"])
}

func TestFetchFollowsRedirectChainByDefault(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "c1", Value: "1", Path: "/"})
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "c2", Value: "2", Path: "/"})
		http.Redirect(w, r, "/c", http.StatusFound)
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "done")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	resp, err := svc.Fetch(context.Background(), srv.URL+"/a", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, srv.URL+"/c", resp.URL)
	assert.Equal(t, []byte("done"), resp.Body.Data)

	// Set-Cookie from every hop lands in the snapshot, not just the final
	// response's.
	assert.Equal(t, "1", resp.Cookies["c1"])
	assert.Equal(t, "2", resp.Cookies["c2"])
}

func redirectChain(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/0", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/1", http.StatusFound)
	})
	mux.HandleFunc("/1", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/2", http.StatusFound)
	})
	mux.HandleFunc("/2", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "end")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRedirectLimit(t *testing.T) {
	srv := redirectChain(t)
	svc := newTestService(t, Config{PoolSize: 1})

	t.Run("zero stops at first hop", func(t *testing.T) {
		_, err := svc.Fetch(context.Background(), srv.URL+"/0", &Options{
			ResponseType: PayloadBinary,
			Redirect:     RedirectOverride(LimitedRedirects(0)),
		})
		fe := fetchErr(t, err)
		assert.Equal(t, srv.URL+"/1", fe.URL)
		assert.Contains(t, fe.Message, "too many redirects")
	})

	t.Run("one hop short", func(t *testing.T) {
		_, err := svc.Fetch(context.Background(), srv.URL+"/0", &Options{
			ResponseType: PayloadBinary,
			Redirect:     RedirectOverride(LimitedRedirects(1)),
		})
		fe := fetchErr(t, err)
		assert.Equal(t, srv.URL+"/2", fe.URL)
		assert.Contains(t, fe.Message, "too many redirects")
	})

	t.Run("exactly enough hops", func(t *testing.T) {
		resp, err := svc.Fetch(context.Background(), srv.URL+"/0", &Options{
			ResponseType: PayloadBinary,
			Redirect:     RedirectOverride(LimitedRedirects(2)),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, srv.URL+"/2", resp.URL)
	})
}

func TestFetchPolicyDoesNotLeakAcrossFetches(t *testing.T) {
	srv := redirectChain(t)
	svc := newTestService(t, Config{PoolSize: 1})

	resp, err := svc.Fetch(context.Background(), srv.URL+"/0", &Options{
		ResponseType: PayloadBinary,
		Redirect:     RedirectOverride(NoRedirects()),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.Status)

	// Same pooled client, no override: back to following redirects.
	resp, err = svc.Fetch(context.Background(), srv.URL+"/0", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, srv.URL+"/2", resp.URL)
}

func TestFetchClientIsolation(t *testing.T) {
	arrivals := make(chan struct{}, 2)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrivals <- struct{}{}
		<-release
	}))
	defer srv.Close()
	defer func() {
		// Unblock parked handlers so Close does not hang on a failure.
		select {
		case <-release:
		default:
			close(release)
		}
	}()

	svc := newTestService(t, Config{PoolSize: 2})

	type outcome struct {
		resp *Response
		err  error
	}
	results := make(map[string]chan outcome, 2)
	for _, name := range []string{"left", "right"} {
		name := name
		ch := make(chan outcome, 1)
		results[name] = ch
		go func() {
			resp, err := svc.Fetch(context.Background(), srv.URL, &Options{
				ResponseType: PayloadDiscard,
				Cookies:      map[string]string{"owner-" + name: "1"},
			})
			ch <- outcome{resp, err}
		}()
	}

	// Both exchanges must be in flight at once, which forces two distinct
	// clients.
	for i := 0; i < 2; i++ {
		select {
		case <-arrivals:
		case <-time.After(5 * time.Second):
			t.Fatal("second exchange never started; clients were shared")
		}
	}
	close(release)

	left := <-results["left"]
	right := <-results["right"]
	require.NoError(t, left.err)
	require.NoError(t, right.err)

	assert.Contains(t, left.resp.Cookies, "owner-left")
	assert.NotContains(t, left.resp.Cookies, "owner-right")
	assert.Contains(t, right.resp.Cookies, "owner-right")
	assert.NotContains(t, right.resp.Cookies, "owner-left")
}

func TestFetchMoreCallersThanClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	svc := newTestService(t, Config{PoolSize: 2})

	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, err := svc.Fetch(context.Background(), srv.URL, nil)
			errs <- err
		}()
	}
	for i := 0; i < 5; i++ {
		assert.NoError(t, <-errs)
	}

	stats := svc.Stats()
	assert.Equal(t, 0, stats["in_use"])
	assert.Equal(t, 0, stats["waiting"])
	assert.LessOrEqual(t, stats["created"].(int), 2)
}

func TestFetchCompressedResponses(t *testing.T) {
	payload := []byte("compressed across the wire")

	tests := []struct {
		name     string
		encoding string
		compress func(*testing.T, []byte) []byte
	}{
		{name: "gzip", encoding: "gzip", compress: gzipBytes},
		{name: "brotli", encoding: "br", compress: brotliBytes},
		{name: "zstd", encoding: "zstd", compress: zstdBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", tt.encoding)
				w.Write(tt.compress(t, payload))
			}))
			defer srv.Close()

			svc := newTestService(t, Config{PoolSize: 1})

			resp, err := svc.Fetch(context.Background(), srv.URL, nil)
			require.NoError(t, err)
			assert.Equal(t, payload, resp.Body.Data)
		})
	}
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	_, err := svc.Fetch(context.Background(), target, nil)
	fe := fetchErr(t, err)
	assert.Equal(t, target, fe.URL)
	assert.NotEmpty(t, fe.Message)
}

func TestFetchContextCancelReleasesClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	quick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer quick.Close()

	svc := newTestService(t, Config{PoolSize: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := svc.Fetch(ctx, srv.URL, nil)
	fe := fetchErr(t, err)
	assert.Contains(t, fe.Message, "context deadline exceeded")

	// The aborted exchange must hand its client back.
	_, err = svc.Fetch(context.Background(), quick.URL, nil)
	assert.NoError(t, err)
}

func TestServiceClose(t *testing.T) {
	svc := NewService(Config{PoolSize: 1}, nil)
	svc.Close()

	_, err := svc.Fetch(context.Background(), "http://example.com/", nil)
	fe := fetchErr(t, err)
	assert.Equal(t, ErrPoolClosed.Error(), fe.Message)
	assert.Equal(t, true, svc.Stats()["closed"])
}

// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	mu    sync.Mutex
	token string
}

func (s *staticTokens) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *staticTokens) set(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = v
}

// failingRoundTripper simulates a dead network.
type failingRoundTripper struct{ err error }

func (f failingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func TestOutboundHook(t *testing.T) {
	var gotAuth, gotID string
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hadAuth = r.Header["Authorization"]
		gotID = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Run("Attaches Bearer When Token Present", func(t *testing.T) {
		client := &http.Client{Transport: New(nil, &staticTokens{token: "A"})}
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "Bearer A", gotAuth)
		assert.NotEmpty(t, gotID)
	})

	t.Run("No Header When Token Absent", func(t *testing.T) {
		client := &http.Client{Transport: New(nil, &staticTokens{})}
		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		req.Header.Set("Authorization", "Bearer stale")
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.False(t, hadAuth)
	})

	t.Run("Reads Token On Every Request", func(t *testing.T) {
		tokens := &staticTokens{token: "first"}
		client := &http.Client{Transport: New(nil, tokens)}

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "Bearer first", gotAuth)

		tokens.set("second")
		resp, err = client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "Bearer second", gotAuth)
	})

	t.Run("Keeps Caller Request ID And Does Not Mutate Caller Request", func(t *testing.T) {
		client := &http.Client{Transport: New(nil, &staticTokens{token: "A"})}
		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		req.Header.Set(RequestIDHeader, "req-1")
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "req-1", gotID)
		assert.Empty(t, req.Header.Get("Authorization"))
	})
}

func TestInboundHook(t *testing.T) {
	t.Run("Unauthorized Emits Event And Passes Response Through", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Invalid token"}`)
		}))
		defer srv.Close()

		tr := New(nil, &staticTokens{token: "A"})
		var events []Event
		tr.Subscribe(func(ev Event) { events = append(events, ev) })

		resp, err := (&http.Client{Transport: tr}).Get(srv.URL + "/spotify/playlists")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "Invalid token")

		require.Len(t, events, 1)
		assert.Equal(t, http.MethodGet, events[0].Method)
		assert.Equal(t, http.StatusUnauthorized, events[0].StatusCode)
		assert.Contains(t, events[0].URL, "/spotify/playlists")
		assert.NotEmpty(t, events[0].RequestID)
	})

	t.Run("Other Statuses Do Not Emit", func(t *testing.T) {
		for _, code := range []int{http.StatusOK, http.StatusBadRequest, http.StatusForbidden, http.StatusInternalServerError} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))

			tr := New(nil, &staticTokens{token: "A"})
			emitted := false
			tr.Subscribe(func(Event) { emitted = true })

			resp, err := (&http.Client{Transport: tr}).Get(srv.URL)
			require.NoError(t, err)
			resp.Body.Close()
			srv.Close()

			assert.Equal(t, code, resp.StatusCode)
			assert.False(t, emitted, "status %d", code)
		}
	})

	t.Run("Transport Errors Pass Through Without Event", func(t *testing.T) {
		netErr := errors.New("connection refused")
		tr := New(failingRoundTripper{err: netErr}, &staticTokens{token: "A"})
		emitted := false
		tr.Subscribe(func(Event) { emitted = true })

		_, err := (&http.Client{Transport: tr}).Get("http://example.invalid")
		require.Error(t, err)
		assert.ErrorIs(t, err, netErr)
		assert.False(t, emitted)
	})

	t.Run("Cancelled Subscriber Is Not Called", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		tr := New(nil, &staticTokens{})
		calls := 0
		cancel := tr.Subscribe(func(Event) { calls++ })
		cancel()

		resp, err := (&http.Client{Transport: tr}).Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Zero(t, calls)
	})
}

// refreshingTokens is a TokenSource whose Refresh rotates the access token.
type refreshingTokens struct {
	staticTokens
	calls atomic.Int32
	fail  bool
	delay time.Duration
}

func (r *refreshingTokens) Refresh(ctx context.Context) (string, error) {
	r.calls.Add(1)
	time.Sleep(r.delay)
	if r.fail {
		return "", errors.New("refresh token revoked")
	}
	r.set("fresh")
	return "fresh", nil
}

func TestRefreshOnUnauthorized(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})

	t.Run("Successful Refresh Replays Request", func(t *testing.T) {
		srv := httptest.NewServer(handler)
		defer srv.Close()

		tokens := &refreshingTokens{}
		tokens.set("stale")
		tr := New(nil, tokens, WithRefresher(tokens))
		emitted := false
		tr.Subscribe(func(Event) { emitted = true })

		resp, err := (&http.Client{Transport: tr}).Post(srv.URL, "application/json", strings.NewReader(`{"x":1}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, `{"x":1}`, string(body))
		assert.False(t, emitted)
		assert.EqualValues(t, 1, tokens.calls.Load())
	})

	t.Run("Failed Refresh Emits And Returns Original 401", func(t *testing.T) {
		srv := httptest.NewServer(handler)
		defer srv.Close()

		tokens := &refreshingTokens{fail: true}
		tokens.set("stale")
		tr := New(nil, tokens, WithRefresher(tokens))
		emitted := 0
		tr.Subscribe(func(Event) { emitted++ })

		resp, err := (&http.Client{Transport: tr}).Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, 1, emitted)
	})

	t.Run("Concurrent 401s Share One Refresh", func(t *testing.T) {
		var arrived sync.WaitGroup
		const n = 8
		arrived.Add(n)
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "Bearer stale" {
				arrived.Done()
				<-release
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		tokens := &refreshingTokens{delay: 50 * time.Millisecond}
		tokens.set("stale")
		tr := New(nil, tokens, WithRefresher(tokens))
		client := &http.Client{Transport: tr}

		var wg sync.WaitGroup
		codes := make([]int, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resp, err := client.Get(srv.URL)
				if err != nil {
					return
				}
				codes[i] = resp.StatusCode
				resp.Body.Close()
			}(i)
		}
		arrived.Wait()
		close(release)
		wg.Wait()

		for _, c := range codes {
			assert.Equal(t, http.StatusOK, c)
		}
		assert.EqualValues(t, 1, tokens.calls.Load())
	})

	t.Run("Unreplayable Body Is Not Retried", func(t *testing.T) {
		srv := httptest.NewServer(handler)
		defer srv.Close()

		tokens := &refreshingTokens{}
		tokens.set("stale")
		tr := New(nil, tokens, WithRefresher(tokens))
		emitted := false
		tr.Subscribe(func(Event) { emitted = true })

		req, _ := http.NewRequest(http.MethodPost, srv.URL, io.NopCloser(strings.NewReader("x")))
		req.GetBody = nil
		resp, err := (&http.Client{Transport: tr}).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.True(t, emitted)
		assert.Zero(t, tokens.calls.Load())
	})
}

func TestAnonymous(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := New(nil, &staticTokens{token: "A"})
	emitted := false
	tr.Subscribe(func(Event) { emitted = true })

	req, _ := http.NewRequestWithContext(Anonymous(context.Background()), http.MethodPost, srv.URL+"/auth/login", nil)
	resp, err := (&http.Client{Transport: tr}).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, hadAuth)
	assert.False(t, emitted)
}

func TestCredentialStaysOnOrigin(t *testing.T) {
	var thirdPartyAuth, apiAuth string
	var thirdPartyHadAuth bool
	thirdParty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		thirdPartyAuth = r.Header.Get("Authorization")
		_, thirdPartyHadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer thirdParty.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved" {
			http.Redirect(w, r, thirdParty.URL+"/landing", http.StatusFound)
			return
		}
		apiAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	t.Run("Cross Host Redirect Drops Bearer", func(t *testing.T) {
		tr := New(nil, &staticTokens{token: "SECRET"})
		emitted := false
		tr.Subscribe(func(Event) { emitted = true })

		resp, err := (&http.Client{Transport: tr}).Get(api.URL + "/moved")
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.False(t, thirdPartyHadAuth, "got %q", thirdPartyAuth)
		assert.False(t, emitted)
	})

	t.Run("Other Origin Gets No Bearer", func(t *testing.T) {
		thirdPartyHadAuth = false
		tr := New(nil, &staticTokens{token: "SECRET"}, WithOrigin(api.URL))
		emitted := false
		tr.Subscribe(func(Event) { emitted = true })

		resp, err := (&http.Client{Transport: tr}).Get(thirdParty.URL + "/x")
		require.NoError(t, err)
		resp.Body.Close()
		assert.False(t, thirdPartyHadAuth)
		assert.False(t, emitted)

		resp, err = (&http.Client{Transport: tr}).Get(api.URL + "/playlists")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "Bearer SECRET", apiAuth)
	})
}

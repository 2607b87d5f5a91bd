// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synchub/cli/internal/keychain"
	"synchub/cli/internal/session"
)

type flag bool

func (f *flag) Authenticated() bool { return bool(*f) }

func TestEvaluate(t *testing.T) {
	var signedIn flag
	g := New(&signedIn, "")

	d := g.Evaluate("/playlists")
	assert.False(t, d.Open)
	assert.Equal(t, "/login?from=%2Fplaylists", d.Redirect)

	signedIn = true
	d = g.Evaluate("/playlists")
	assert.True(t, d.Open)
	assert.Empty(t, d.Redirect)

	// No caching: the next evaluation sees the new state.
	signedIn = false
	assert.False(t, g.Evaluate("/playlists").Open)
}

func TestGateFollowsSession(t *testing.T) {
	sess := session.New(keychain.NewMemory(), nil)
	g := New(sess, "/login")

	states := []session.Tokens{{}, {AccessToken: "A", RefreshToken: "R"}, {}}
	for _, st := range states {
		if st.AccessToken != "" {
			require.NoError(t, sess.Login(st))
		} else {
			sess.Logout()
		}
		assert.Equal(t, st.AccessToken != "", g.Evaluate("/settings").Open)
	}
}

func TestMiddleware(t *testing.T) {
	var signedIn flag
	rendered := false
	h := New(&signedIn, "/login").Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rendered = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Closed Redirects With Pending Path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings?tab=sync", nil))

		assert.False(t, rendered)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?from=%2Fsettings%3Ftab%3Dsync", rec.Header().Get("Location"))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("Open Renders", func(t *testing.T) {
		signedIn = true
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))

		assert.True(t, rendered)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})
}

func TestReturnPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/playlists", "/playlists"},
		{"/settings?tab=sync", "/settings?tab=sync"},
		{"", DefaultReturnPath},
		{"/", DefaultReturnPath},
		{"playlists", DefaultReturnPath},
		{"//evil.example.com/x", DefaultReturnPath},
		{`/\evil.example.com`, DefaultReturnPath},
		{"https://evil.example.com/", DefaultReturnPath},
		{"javascript:alert(1)", DefaultReturnPath},
		{"/login", DefaultReturnPath},
		{"/login?from=/settings", DefaultReturnPath},
		{"/register/", DefaultReturnPath},
		{"/liked\r\nSet-Cookie: x=1", DefaultReturnPath},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ReturnPath(tt.in))
		})
	}
}

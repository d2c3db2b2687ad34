//
// Copyright (c) 2026 urlsd contributors (see AUTHORS file)
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
//
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
//
// * Neither the name of urlsd nor the names of its
//   contributors may be used to endorse or promote products derived from
//   this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
// FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
// DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
// CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
// OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
//

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/require"

	"github.com/urlsfyi/urlsd/cookie"
	"github.com/urlsfyi/urlsd/search"
	"github.com/urlsfyi/urlsd/store"
)

type captureMailer struct {
	mu     sync.Mutex
	bodies []string
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, body)
	return nil
}

// lastCode pulls the 12-character login code out of the newest mail.
func (m *captureMailer) lastCode(t *testing.T) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.bodies, "no mail was sent")
	for _, field := range strings.Fields(m.bodies[len(m.bodies)-1]) {
		if len(field) == store.EmailTokenLen {
			return field
		}
	}
	t.Fatal("no login code found in mail body")
	return ""
}

type testClient struct {
	srv    *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T) (*testClient, *captureMailer) {
	return newTestClientWWW(t, "")
}

func newTestClientWWW(t *testing.T, www string) (*testClient, *captureMailer) {
	name, err := gonanoid.New(21)
	require.NoError(t, err)
	ix, err := search.NewIndex(nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })

	m := &captureMailer{}
	st, err := store.Open("file:"+name+"?mode=memory&cache=shared", m, ix, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	// provision the test account
	ctx := st.ServerContext(context.Background())
	require.NoError(t, store.EnsureAdministrator(ctx,
		strings.NewReader("Test User\ntest.user@urls.fyi\n"), io.Discard))

	metrics, err := newMetricsHandler(nil)
	require.NoError(t, err)
	srv := httptest.NewServer(newServer(st, []byte("test-session-key"), metrics, www).engine())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{srv: srv, client: &http.Client{Jar: jar}}, m
}

func (tc *testClient) xsrf(t *testing.T) string {
	u, err := url.Parse(tc.srv.URL)
	require.NoError(t, err)
	for _, ck := range tc.client.Jar.Cookies(u) {
		if ck.Name == cookie.XSRFCookieName {
			return ck.Value
		}
	}
	return ""
}

func (tc *testClient) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, tc.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tc.xsrf(t); token != "" {
		req.Header.Set(XSRFHeaderName, token)
	}
	resp, err := tc.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (tc *testClient) login(t *testing.T, m *captureMailer, email string) {
	status, _ := tc.do(t, http.MethodGet, "/api/viewer", nil) // mint the xsrf cookie
	require.Equal(t, http.StatusOK, status)
	status, _ = tc.do(t, http.MethodPost, "/api/login/request", map[string]string{"email": email})
	require.Equal(t, http.StatusOK, status)
	status, _ = tc.do(t, http.MethodPost, "/api/login", map[string]string{"email": email, "code": m.lastCode(t)})
	require.Equal(t, http.StatusOK, status)
}

func viewerEmail(body map[string]any) string {
	viewer, ok := body["viewer"].(map[string]any)
	if !ok {
		return ""
	}
	user, ok := viewer["user"].(map[string]any)
	if !ok {
		return ""
	}
	email, _ := user["email"].(string)
	return email
}

func TestLoginFlow(t *testing.T) {
	tc, m := newTestClient(t)

	status, body := tc.do(t, http.MethodGet, "/api/viewer", nil)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, body["viewer"])

	tc.login(t, m, "test.user@urls.fyi")

	status, body = tc.do(t, http.MethodGet, "/api/viewer", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "test.user@urls.fyi", viewerEmail(body))

	// a wrong code never logs in
	status, _ = tc.do(t, http.MethodPost, "/api/login",
		map[string]string{"email": "test.user@urls.fyi", "code": "wrongwrongwr"})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestSessionRevocation(t *testing.T) {
	tc, m := newTestClient(t)
	tc.login(t, m, "test.user@urls.fyi")

	status, body := tc.do(t, http.MethodGet, "/api/viewer", nil)
	require.Equal(t, http.StatusOK, status)
	viewer := body["viewer"].(map[string]any)
	logins := viewer["logins"].([]any)
	require.Len(t, logins, 1)
	loginID := logins[0].(map[string]any)["id"].(string)

	status, body = tc.do(t, http.MethodPost, "/api/logins/"+loginID+"/revoke", map[string]string{})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["ok"])

	// the revoked session no longer authenticates
	status, body = tc.do(t, http.MethodGet, "/api/viewer", nil)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, body["viewer"])
}

func TestXSRFEnforcedOnMutations(t *testing.T) {
	tc, _ := newTestClient(t)
	// mint the cookies first
	status, _ := tc.do(t, http.MethodGet, "/api/viewer", nil)
	require.Equal(t, http.StatusOK, status)

	// a mutation without the header is rejected before touching state
	req, err := http.NewRequest(http.MethodPost, tc.srv.URL+"/api/login/request",
		strings.NewReader(`{"email":"test.user@urls.fyi"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := tc.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSecurityHeadersAndCookies(t *testing.T) {
	tc, _ := newTestClient(t)

	resp, err := tc.client.Get(tc.srv.URL + "/api/viewer")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))

	// the anti-forgery cookie is checked against the request header,
	// never read by scripts
	var found bool
	for _, ck := range resp.Cookies() {
		if ck.Name != cookie.XSRFCookieName {
			continue
		}
		found = true
		require.True(t, ck.HttpOnly, "xsrf cookie must be http-only")
		require.Equal(t, http.SameSiteStrictMode, ck.SameSite)
		require.Equal(t, "/", ck.Path)
	}
	require.True(t, found, "no xsrf cookie was set")
}

func TestStaticFiles(t *testing.T) {
	www := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(www, "index.html"),
		[]byte("<html><body>welcome to urls.fyi</body></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(www, "app.js"),
		[]byte("console.log('hi');"), 0644))

	tc, _ := newTestClientWWW(t, www)

	resp, err := tc.client.Get(tc.srv.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "welcome to urls.fyi")

	resp, err = tc.client.Get(tc.srv.URL + "/app.js")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = tc.client.Get(tc.srv.URL + "/missing.css")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// the API keeps precedence over the file tree
	status, _ := tc.do(t, http.MethodGet, "/api/viewer", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestLogout(t *testing.T) {
	tc, m := newTestClient(t)
	tc.login(t, m, "test.user@urls.fyi")

	status, _ := tc.do(t, http.MethodPost, "/api/logout", map[string]string{})
	require.Equal(t, http.StatusOK, status)

	status, body := tc.do(t, http.MethodGet, "/api/viewer", nil)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, body["viewer"])
}

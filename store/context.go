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

package store

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/urlsfyi/urlsd/cookie"
	"github.com/urlsfyi/urlsd/id"
)

// Context carries everything a single request (or server-internal job)
// may need: the pinned clock, the viewer's identity once established,
// the anti-forgery token and client metadata for the session audit
// trail. All domain operations take it as their first argument.
type Context struct {
	store *Store
	ctx   context.Context

	now       time.Time
	xsrfToken string
	userAgent string
	remoteIP  string

	userID       id.UserID
	sessionToken string
}

// RequestContext builds the context for one inbound request. The
// current time is pinned once so every check within the request sees
// the same instant.
func (s *Store) RequestContext(ctx context.Context, xsrfToken, userAgent, remoteIP string) *Context {
	return &Context{
		store:     s,
		ctx:       ctx,
		now:       time.Now().UTC(),
		xsrfToken: xsrfToken,
		userAgent: userAgent,
		remoteIP:  remoteIP,
	}
}

// ServerContext builds a context for work the server does on its own
// behalf, outside any request. It carries a fresh xsrf token so code
// paths that demand one keep working.
func (s *Store) ServerContext(ctx context.Context) *Context {
	return &Context{
		store:     s,
		ctx:       ctx,
		now:       time.Now().UTC(),
		xsrfToken: cookie.NewXSRFToken(),
	}
}

// Now returns the instant pinned at context creation.
func (c *Context) Now() time.Time {
	return c.now
}

func (c *Context) db() *sql.DB {
	return c.store.db
}

// Mailer returns the store's mail transport.
func (c *Context) Mailer() Mailer {
	return c.store.mailer
}

// Search returns the store's search index.
func (c *Context) Search() SearchIndex {
	return c.store.search
}

// HTTPClient returns the crawler client.
func (c *Context) HTTPClient() *http.Client {
	return httpClient
}

// SetLoggedInUser records the authenticated viewer for the remainder
// of the request.
func (c *Context) SetLoggedInUser(userID id.UserID, sessionToken string) {
	c.userID = userID
	c.sessionToken = sessionToken
}

// MaybeUserID returns the viewer's id, or false for anonymous
// requests.
func (c *Context) MaybeUserID() (id.UserID, bool) {
	if c.userID.IsZero() {
		return id.UserID{}, false
	}
	return c.userID, true
}

// UserID returns the viewer's id or ErrNotAuthenticated.
func (c *Context) UserID() (id.UserID, error) {
	if c.userID.IsZero() {
		return id.UserID{}, ErrNotAuthenticated
	}
	return c.userID, nil
}

// MaybeUser loads the viewer, or returns nil for anonymous requests.
func (c *Context) MaybeUser() (*User, error) {
	if c.userID.IsZero() {
		return nil, nil
	}
	return FindUser(c, c.userID)
}

// User loads the viewer or returns ErrNotAuthenticated.
func (c *Context) User() (*User, error) {
	if c.userID.IsZero() {
		return nil, ErrNotAuthenticated
	}
	return FindUser(c, c.userID)
}

// SessionToken returns the token of the session backing this request.
func (c *Context) SessionToken() (string, bool) {
	return c.sessionToken, c.sessionToken != ""
}

// XSRFToken returns the anti-forgery token bound to this context.
func (c *Context) XSRFToken() string {
	return c.xsrfToken
}

// CheckXSRFToken verifies a submitted anti-forgery token in constant
// time.
func (c *Context) CheckXSRFToken(token string) error {
	if c.xsrfToken == "" || !cookie.CheckXSRF(c.xsrfToken, token) {
		return ErrXSRFMismatch
	}
	return nil
}

// UserAgent returns the client's user-agent header value.
func (c *Context) UserAgent() string {
	return c.userAgent
}

// RemoteIP returns the client's address.
func (c *Context) RemoteIP() string {
	return c.remoteIP
}

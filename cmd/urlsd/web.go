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
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/urlsfyi/urlsd/cookie"
	"github.com/urlsfyi/urlsd/id"
	"github.com/urlsfyi/urlsd/store"
)

const XSRFHeaderName = "X-XSRF-Token"

type server struct {
	st         *store.Store
	sessionKey []byte
	metrics    *MetricsHandler
	www        string
}

func newServer(st *store.Store, sessionKey []byte, metrics *MetricsHandler, www string) *server {
	return &server{st: st, sessionKey: sessionKey, metrics: metrics, www: www}
}

// sessionPayload is what lives inside the signed session cookie: the
// viewer plus the server-side session token.
type sessionPayload struct {
	User  id.UserID `json:"u"`
	Token string    `json:"t"`
}

func (s *server) setSessionCookie(c *gin.Context, payload sessionPayload, expires time.Time) {
	encoded, err := cookie.Seal(payload, expires, s.sessionKey)
	if err != nil {
		wl.Printf("web-api: failed to seal session cookie: %v", err)
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cookie.SessionCookieName, encoded, cookie.SessionCookieMaxAge, "/", "", false, true)
}

func (s *server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cookie.SessionCookieName, "", -1, "/", "", false, true)
}

// requestContext runs on every request: it mints or reads the
// double-submit token, authenticates the session cookie and enforces
// the anti-forgery header on mutations.
func (s *server) requestContext(c *gin.Context) {
	xsrf, err := c.Cookie(cookie.XSRFCookieName)
	if err != nil || xsrf == "" {
		xsrf = cookie.NewXSRFToken()
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(cookie.XSRFCookieName, xsrf, cookie.SessionCookieMaxAge, "/", "", false, true)
	}

	ctx := s.st.RequestContext(c.Request.Context(), xsrf, c.Request.UserAgent(), c.ClientIP())

	if encoded, err := c.Cookie(cookie.SessionCookieName); err == nil && encoded != "" {
		var payload sessionPayload
		err = cookie.Open(encoded, s.sessionKey, ctx.Now(), &payload)
		if err == nil {
			err = store.UseSession(ctx, payload.Token)
		}
		if err != nil {
			wdl.Printf("web-api: dropping session cookie: %v", err)
			s.clearSessionCookie(c)
		} else {
			// slide the envelope expiry along with the session
			s.setSessionCookie(c, payload, ctx.Now().Add(store.SessionSlidingTTL))
		}
	}

	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
	default:
		if err := ctx.CheckXSRFToken(c.GetHeader(XSRFHeaderName)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
	}

	c.Set("ctx", ctx)
	c.Next()
}

func reqCtx(c *gin.Context) *store.Context {
	return c.MustGet("ctx").(*store.Context)
}

func securityHeaders(c *gin.Context) {
	c.Header("X-Frame-Options", "DENY")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Referrer-Policy", "no-referrer")
	c.Next()
}

func (s *server) engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true
	r.Use(securityHeaders)
	r.Use(s.metrics.count)
	r.Use(s.requestContext)

	api := r.Group("/api")
	{
		api.POST("/register", s.handleRegister)
		api.POST("/login/request", s.handleLoginRequest)
		api.POST("/login", s.handleLogin)
		api.POST("/logout", s.handleLogout)
		api.GET("/viewer", s.handleViewer)

		api.GET("/invites", s.handleListInvites)
		api.POST("/invites", s.handleIssueInvite)
		api.POST("/logins/:id/revoke", s.handleRevokeLogin)
		api.POST("/permissions/grant", s.handleGrantPermission)
		api.POST("/permissions/revoke", s.handleRevokePermission)

		api.GET("/urls", s.handleListURLs)
		api.POST("/urls", s.handleCreateURL)
		api.GET("/urls/:id", s.handleGetURL)
		api.DELETE("/urls/:id", s.handleDeleteURL)
		api.POST("/urls/:id/upvote", s.handleUpvote)
		api.DELETE("/urls/:id/upvote", s.handleRescindUpvote)
		api.POST("/urls/:id/comments", s.handleCreateComment)
		api.DELETE("/comments/:id", s.handleDeleteComment)
		api.GET("/search", s.handleSearch)

		api.GET("/admin/backup", s.handleBackup)
	}
	if s.www != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.www))))
	}
	s.metrics.install(r)
	return r
}

func runWeb(listener net.Listener, config *WebConfig, s *server) (err error) {
	srv := &http.Server{Handler: s.engine(), WriteTimeout: 60 * time.Second, ReadTimeout: 60 * time.Second}
	if config != nil && config.TLS != nil {
		srv.TLSConfig, err = config.TLS.ToGoTLSConfig()
		if err != nil {
			return
		}
		wl.Printf("web-api: listening on '%s' using TLS", listener.Addr())
		return srv.ServeTLS(listener, "", "")
	}
	wl.Printf("web-api: listening on '%s'", listener.Addr())
	return srv.Serve(listener)
}

func runWebAddr(addr string, config *WebConfig, s *server) (err error) {
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return runWeb(ln.(*net.TCPListener), config, s)
}

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
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mileusna/useragent"
	"github.com/oklog/ulid/v2"

	"github.com/urlsfyi/urlsd/id"
	"github.com/urlsfyi/urlsd/store"
)

func httpError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, store.ErrNotAuthorized), errors.Is(err, store.ErrXSRFMismatch):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrLoginRateLimited), errors.Is(err, store.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, store.ErrInvalidToken),
		errors.Is(err, store.ErrAlreadyClaimed), errors.Is(err, store.ErrClaimExpired),
		errors.Is(err, store.ErrDuplicateURL), errors.Is(err, id.ErrInvalidID):
		status = http.StatusBadRequest
	}
	var fetchErr *store.FetchError
	if errors.As(err, &fetchErr) {
		status = http.StatusBadRequest
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		wl.Printf("web-api: internal error: %v", err)
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func (s *server) handleRegister(c *gin.Context) {
	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Invite string `json:"invite"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, store.ErrInvalidInput)
		return
	}
	ctx := reqCtx(c)
	user, err := store.RegisterUser(ctx, store.NewUserInput{Name: req.Name, Email: req.Email}, req.Invite)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "invite": req.Invite})
}

func (s *server) handleLoginRequest(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, store.ErrInvalidInput)
		return
	}
	ctx := reqCtx(c)
	user, err := store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		// do not leak which addresses have accounts
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
		httpError(c, err)
		return
	}
	if err = user.RequestLogin(ctx); err != nil {
		s.metrics.loginRequests.WithLabelValues("error").Inc()
		httpError(c, err)
		return
	}
	s.metrics.loginRequests.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleLogin(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, store.ErrInvalidInput)
		return
	}
	ctx := reqCtx(c)
	sessionToken, err := store.ClaimLogin(ctx, req.Email, req.Code)
	if err != nil {
		s.metrics.loginClaims.WithLabelValues("error").Inc()
		// an unknown address behaves like a wrong code
		if errors.Is(err, store.ErrNotFound) {
			err = store.ErrInvalidToken
		}
		httpError(c, err)
		return
	}
	s.metrics.loginClaims.WithLabelValues("ok").Inc()

	user, err := store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		httpError(c, err)
		return
	}
	s.setSessionCookie(c, sessionPayload{User: user.ID, Token: sessionToken}, ctx.Now().Add(store.SessionSlidingTTL))
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *server) handleLogout(c *gin.Context) {
	ctx := reqCtx(c)
	if token, ok := ctx.SessionToken(); ok {
		if viewerID, err := ctx.UserID(); err == nil {
			logins, err := store.LoginsByUser(ctx, viewerID)
			if err == nil {
				for i := range logins {
					if logins[i].SessionToken == token {
						if err = logins[i].Revoke(ctx); err != nil {
							wl.Printf("web-api: failed to revoke login on logout: %v", err)
						}
						break
					}
				}
			}
		}
	}
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type loginView struct {
	ID        id.LoginID `json:"id"`
	CreatedAt int64      `json:"created_at"`
	LastUsed  int64      `json:"last_used"`
	Client    string     `json:"client"`
	RemoteIP  string     `json:"remote_ip"`
	Valid     bool       `json:"valid"`
	Revoked   bool       `json:"revoked"`
	Current   bool       `json:"current"`
}

// describeClient turns a raw user-agent header into something a human
// can recognize in the session list.
func describeClient(rawUA string) string {
	if rawUA == "" {
		return "unknown client"
	}
	ua := useragent.Parse(rawUA)
	if ua.Name == "" {
		return rawUA
	}
	if ua.OS == "" {
		return ua.Name
	}
	return fmt.Sprintf("%s on %s", ua.Name, ua.OS)
}

func (s *server) handleViewer(c *gin.Context) {
	ctx := reqCtx(c)
	user, err := ctx.MaybeUser()
	if err != nil {
		httpError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"viewer": nil})
		return
	}

	perms, err := user.Permissions(ctx)
	if err != nil {
		httpError(c, err)
		return
	}
	logins, err := store.LoginsByUser(ctx, user.ID)
	if err != nil {
		httpError(c, err)
		return
	}
	sessionToken, _ := ctx.SessionToken()
	views := make([]loginView, 0, len(logins))
	for _, l := range logins {
		views = append(views, loginView{
			ID:        l.ID,
			CreatedAt: l.CreatedAt,
			LastUsed:  l.LastUsed,
			Client:    describeClient(l.LastUserAgent),
			RemoteIP:  l.LastRemoteIP,
			Valid:     l.Valid(ctx.Now()),
			Revoked:   l.Revoked,
			Current:   l.SessionToken != "" && l.SessionToken == sessionToken,
		})
	}
	c.JSON(http.StatusOK, gin.H{"viewer": gin.H{
		"user":        user,
		"permissions": perms,
		"logins":      views,
	}})
}

func (s *server) handleListInvites(c *gin.Context) {
	ctx := reqCtx(c)
	viewer, err := ctx.User()
	if err != nil {
		httpError(c, err)
		return
	}
	invites, err := store.InvitesByUser(ctx, viewer.ID)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (s *server) handleIssueInvite(c *gin.Context) {
	ctx := reqCtx(c)
	viewer, err := ctx.User()
	if err != nil {
		httpError(c, err)
		return
	}
	invite, err := store.CreateInvite(ctx, viewer)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invite": invite})
}

func (s *server) handleRevokeLogin(c *gin.Context) {
	ctx := reqCtx(c)
	loginID, err := id.ParseLoginID(c.Param("id"))
	if err != nil {
		httpError(c, err)
		return
	}
	login, err := store.FindLogin(ctx, loginID)
	if err != nil {
		httpError(c, err)
		return
	}
	if err = login.Revoke(ctx); err != nil {
		httpError(c, err)
		return
	}
	// revoking the session backing this request kills its cookie too
	if token, ok := ctx.SessionToken(); ok && login.SessionToken == token {
		s.clearSessionCookie(c)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleGrantPermission(c *gin.Context) {
	s.handlePermissionChange(c, store.GrantPermission)
}

func (s *server) handleRevokePermission(c *gin.Context) {
	s.handlePermissionChange(c, store.RevokePermission)
}

func (s *server) handlePermissionChange(c *gin.Context, change func(*store.Context, string, store.Permission) (*store.User, error)) {
	var req struct {
		Email      string `json:"email"`
		Permission string `json:"permission"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, store.ErrInvalidInput)
		return
	}
	permission, err := store.ParsePermission(req.Permission)
	if err != nil {
		httpError(c, err)
		return
	}
	ctx := reqCtx(c)
	user, err := change(ctx, req.Email, permission)
	if err != nil {
		httpError(c, err)
		return
	}
	perms, err := user.Permissions(ctx)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "permissions": perms})
}

type urlView struct {
	store.URL
	Upvotes int64 `json:"upvotes"`
	Upvoted bool  `json:"upvoted"`
}

func (s *server) urlView(ctx *store.Context, u *store.URL) (*urlView, error) {
	upvotes, err := u.UpvoteCount(ctx)
	if err != nil {
		return nil, err
	}
	upvoted, err := u.UpvotedByViewer(ctx)
	if err != nil {
		return nil, err
	}
	return &urlView{URL: *u, Upvotes: upvotes, Upvoted: upvoted}, nil
}

const defaultPageSize = 25

func (s *server) handleListURLs(c *gin.Context) {
	ctx := reqCtx(c)

	order := store.OrderRanked
	var creator id.UserID
	switch c.DefaultQuery("order", "ranked") {
	case "ranked":
	case "best":
		order = store.OrderBest
	case "recent":
		order = store.OrderRecent
	case "user":
		order = store.OrderUser
		var err error
		if creator, err = id.ParseUserID(c.Query("user")); err != nil {
			httpError(c, err)
			return
		}
	default:
		httpError(c, store.ErrInvalidInput)
		return
	}

	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil {
		httpError(c, store.ErrInvalidInput)
		return
	}
	urls, pageCount, err := store.PaginateURLs(ctx, order, creator, page, defaultPageSize)
	if err != nil {
		httpError(c, err)
		return
	}
	views := make([]urlView, 0, len(urls))
	for i := range urls {
		view, err := s.urlView(ctx, &urls[i])
		if err != nil {
			httpError(c, err)
			return
		}
		views = append(views, *view)
	}
	c.JSON(http.StatusOK, gin.H{"urls": views, "page_count": pageCount})
}

func (s *server) handleCreateURL(c *gin.Context) {
	var req store.NewURLInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, store.ErrInvalidInput)
		return
	}
	ctx := reqCtx(c)
	u, err := store.CreateURL(ctx, req)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": u})
}

func (s *server) findURLParam(c *gin.Context) (*store.URL, bool) {
	urlID, err := id.ParseURLID(c.Param("id"))
	if err != nil {
		httpError(c, err)
		return nil, false
	}
	u, err := store.FindURL(reqCtx(c), urlID)
	if err != nil {
		httpError(c, err)
		return nil, false
	}
	return u, true
}

func (s *server) handleGetURL(c *gin.Context) {
	u, ok := s.findURLParam(c)
	if !ok {
		return
	}
	ctx := reqCtx(c)
	view, err := s.urlView(ctx, u)
	if err != nil {
		httpError(c, err)
		return
	}
	comments, err := store.CommentsForURL(ctx, u.ID)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": view, "comments": comments})
}

func (s *server) handleDeleteURL(c *gin.Context) {
	u, ok := s.findURLParam(c)
	if !ok {
		return
	}
	if err := u.Delete(reqCtx(c)); err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleUpvote(c *gin.Context) {
	u, ok := s.findURLParam(c)
	if !ok {
		return
	}
	if err := u.Upvote(reqCtx(c)); err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleRescindUpvote(c *gin.Context) {
	u, ok := s.findURLParam(c)
	if !ok {
		return
	}
	if err := u.RescindUpvote(reqCtx(c)); err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleCreateComment(c *gin.Context) {
	u, ok := s.findURLParam(c)
	if !ok {
		return
	}
	var req struct {
		Text      string  `json:"comment"`
		RepliesTo *string `json:"replies_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, store.ErrInvalidInput)
		return
	}
	var repliesTo *id.CommentID
	if req.RepliesTo != nil {
		parentID, err := id.ParseCommentID(*req.RepliesTo)
		if err != nil {
			httpError(c, err)
			return
		}
		repliesTo = &parentID
	}
	comment, err := store.CreateComment(reqCtx(c), u.ID, req.Text, repliesTo)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (s *server) handleDeleteComment(c *gin.Context) {
	commentID, err := id.ParseCommentID(c.Param("id"))
	if err != nil {
		httpError(c, err)
		return
	}
	ctx := reqCtx(c)
	comment, err := store.FindComment(ctx, commentID)
	if err != nil {
		httpError(c, err)
		return
	}
	if err = comment.Delete(ctx); err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *server) handleSearch(c *gin.Context) {
	ctx := reqCtx(c)
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		httpError(c, store.ErrInvalidInput)
		return
	}
	urls, err := store.SearchURLs(ctx, c.Query("q"), offset, defaultPageSize)
	if err != nil {
		httpError(c, err)
		return
	}
	views := make([]urlView, 0, len(urls))
	for i := range urls {
		view, err := s.urlView(ctx, &urls[i])
		if err != nil {
			httpError(c, err)
			return
		}
		views = append(views, *view)
	}
	c.JSON(http.StatusOK, gin.H{"urls": views})
}

func (s *server) handleBackup(c *gin.Context) {
	ctx := reqCtx(c)
	if err := store.Require(ctx, store.Permission.AccessAdminBackups); err != nil {
		httpError(c, err)
		return
	}

	path := filepath.Join(os.TempDir(), "urlsd-backup-"+ulid.Make().String()+".db")
	defer os.Remove(path)
	if _, err := s.st.DB().ExecContext(c.Request.Context(), fmt.Sprintf("VACUUM INTO '%s'", path)); err != nil {
		httpError(c, fmt.Errorf("failed to create backup: %w", err))
		return
	}
	c.FileAttachment(path, "urls-backup.db")
}

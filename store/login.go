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
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/urlsfyi/urlsd/id"
)

// Login is one row of the login state machine. It starts out pending
// with only an email token, becomes a session once the code is
// claimed, and dies by revocation or inactivity.
type Login struct {
	ID            id.LoginID `json:"id"`
	CreatedAt     int64      `json:"created_at"`
	UpdatedAt     int64      `json:"updated_at"`
	UserID        id.UserID  `json:"user_id"`
	EmailToken    string     `json:"-"`
	ClaimUntil    int64      `json:"claim_until"`
	Claimed       bool       `json:"claimed"`
	SessionToken  string     `json:"-"`
	LastUsed      int64      `json:"last_used"`
	LastUserAgent string     `json:"last_user_agent"`
	Revoked       bool       `json:"revoked"`
	LastRemoteIP  string     `json:"last_remote_ip"`
}

const loginColumns = "id, created_at, updated_at, user_id, email_token, claim_until, claimed, session_token, last_used, last_user_agent, revoked, last_remote_ip"

func scanLogin(scan func(...any) error) (*Login, error) {
	var l Login
	var claimed, revoked int64
	var sessionToken, userAgent, remoteIP sql.NullString
	err := scan(&l.ID, &l.CreatedAt, &l.UpdatedAt, &l.UserID, &l.EmailToken, &l.ClaimUntil,
		&claimed, &sessionToken, &l.LastUsed, &userAgent, &revoked, &remoteIP)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("login %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load login: %w", err)
	}
	l.Claimed = claimed != 0
	l.Revoked = revoked != 0
	l.SessionToken = sessionToken.String
	l.LastUserAgent = userAgent.String
	l.LastRemoteIP = remoteIP.String
	return &l, nil
}

// CreateLogin starts a pending login for the user. At most
// LoginLimitPerHour codes may be requested per user and hour.
func CreateLogin(ctx *Context, userID id.UserID) (*Login, error) {
	windowStart := timeToDB(ctx.Now().Add(-time.Hour))
	var recent int
	err := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT COUNT(*) FROM logins WHERE user_id = ? AND created_at > ?", userID, windowStart).Scan(&recent)
	if err != nil {
		return nil, fmt.Errorf("failed to count logins: %w", err)
	}
	if recent >= LoginLimitPerHour {
		return nil, ErrLoginRateLimited
	}

	l := &Login{
		ID:         id.NewLoginID(),
		CreatedAt:  timeToDB(ctx.Now()),
		UpdatedAt:  timeToDB(ctx.Now()),
		UserID:     userID,
		EmailToken: alnumToken(EmailTokenLen),
		ClaimUntil: timeToDB(ctx.Now().Add(LoginClaimWindow)),
		LastUsed:   timeToDB(ctx.Now()),
	}
	_, err = ctx.db().ExecContext(ctx.ctx,
		`INSERT INTO logins (id, created_at, updated_at, user_id, email_token, claim_until, claimed, session_token, last_used, last_user_agent, revoked, last_remote_ip)
		 VALUES (?, ?, ?, ?, ?, ?, 0, NULL, ?, NULL, 0, NULL)`,
		l.ID, l.CreatedAt, l.UpdatedAt, l.UserID, l.EmailToken, l.ClaimUntil, l.LastUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to create login: %w", err)
	}
	return l, nil
}

// FindLogin loads a login by id.
func FindLogin(ctx *Context, loginID id.LoginID) (*Login, error) {
	row := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT "+loginColumns+" FROM logins WHERE id = ?", loginID)
	return scanLogin(row.Scan)
}

// LoginsByUser returns the user's logins, newest first.
func LoginsByUser(ctx *Context, userID id.UserID) ([]Login, error) {
	rows, err := ctx.db().QueryContext(ctx.ctx,
		"SELECT "+loginColumns+" FROM logins WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load logins: %w", err)
	}
	defer rows.Close()

	var logins []Login
	for rows.Next() {
		l, err := scanLogin(rows.Scan)
		if err != nil {
			return nil, err
		}
		logins = append(logins, *l)
	}
	return logins, rows.Err()
}

// ClaimLogin exchanges an emailed code for a session token. The
// submitted code is compared against every login of the user in
// constant time, so timing reveals nothing about partial matches.
func ClaimLogin(ctx *Context, email, emailToken string) (string, error) {
	user, err := FindUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	logins, err := LoginsByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var match *Login
	for i := range logins {
		if subtle.ConstantTimeCompare([]byte(logins[i].EmailToken), []byte(emailToken)) == 1 && match == nil {
			match = &logins[i]
		}
	}
	if match == nil {
		return "", ErrInvalidToken
	}
	if match.Claimed || match.Revoked {
		return "", ErrAlreadyClaimed
	}
	if match.ClaimUntil < timeToDB(ctx.Now()) {
		return "", ErrClaimExpired
	}

	sessionToken := urlSafeToken(SessionTokenLen)
	now := timeToDB(ctx.Now())
	res, err := ctx.db().ExecContext(ctx.ctx,
		`UPDATE logins SET updated_at = ?, claimed = 1, session_token = ?, last_used = ?, last_user_agent = ?, last_remote_ip = ?
		 WHERE id = ? AND claimed = 0 AND revoked = 0`,
		now, sessionToken, now, nullStr(ctx.UserAgent()), nullStr(ctx.RemoteIP()), match.ID)
	if err != nil {
		return "", fmt.Errorf("failed to claim login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to claim login: %w", err)
	}
	if n == 0 {
		return "", ErrAlreadyClaimed
	}
	return sessionToken, nil
}

// UseSession authenticates the context from a session token and slides
// the inactivity window forward, recording client metadata for the
// session list.
func UseSession(ctx *Context, sessionToken string) error {
	if sessionToken == "" {
		return ErrSessionNotFound
	}
	row := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT "+loginColumns+" FROM logins WHERE session_token = ?", sessionToken)
	l, err := scanLogin(row.Scan)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(l.SessionToken), []byte(sessionToken)) != 1 {
		return ErrSessionNotFound
	}
	if l.Revoked {
		return ErrSessionRevoked
	}
	if !l.Claimed {
		return ErrSessionPending
	}
	if timeFromDB(l.LastUsed).Add(SessionSlidingTTL).Before(ctx.Now()) {
		return ErrSessionExpired
	}

	now := timeToDB(ctx.Now())
	_, err = ctx.db().ExecContext(ctx.ctx,
		"UPDATE logins SET updated_at = ?, last_used = ?, last_user_agent = ?, last_remote_ip = ? WHERE id = ?",
		now, now, nullStr(ctx.UserAgent()), nullStr(ctx.RemoteIP()), l.ID)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	ctx.SetLoggedInUser(l.UserID, sessionToken)
	return nil
}

// Valid reports whether the login is a live session at the given
// instant.
func (l *Login) Valid(now time.Time) bool {
	return l.Claimed && !l.Revoked && !timeFromDB(l.LastUsed).Add(SessionSlidingTTL).Before(now)
}

// Revoke invalidates the login. Only the owning user may revoke it.
func (l *Login) Revoke(ctx *Context) error {
	viewerID, err := ctx.UserID()
	if err != nil {
		return err
	}
	if l.UserID != viewerID {
		return ErrNotAuthorized
	}
	l.UpdatedAt = timeToDB(ctx.Now())
	l.Revoked = true
	_, err = ctx.db().ExecContext(ctx.ctx,
		"UPDATE logins SET updated_at = ?, revoked = 1 WHERE id = ?", l.UpdatedAt, l.ID)
	if err != nil {
		return fmt.Errorf("failed to revoke login: %w", err)
	}
	return nil
}

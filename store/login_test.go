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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoginRateLimit(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t, st)
	user := seedUser(t, st, "Test User", "test.user@urls.fyi")

	for i := 0; i < LoginLimitPerHour; i++ {
		_, err := CreateLogin(ctx, user.ID)
		require.NoError(t, err)
	}
	_, err := CreateLogin(ctx, user.ID)
	require.ErrorIs(t, err, ErrLoginRateLimited)

	// logins older than the window do not count
	windowEdge := timeToDB(ctx.Now().Add(-2 * time.Hour))
	_, err = st.DB().Exec("UPDATE logins SET created_at = ? WHERE user_id = ?", windowEdge, user.ID)
	require.NoError(t, err)
	_, err = CreateLogin(ctx, user.ID)
	require.NoError(t, err)
}

func TestClaimLogin(t *testing.T) {
	st, m := newTestStore(t)
	ctx := testContext(t, st)
	user := seedUser(t, st, "Test User", "test.user@urls.fyi")
	require.NoError(t, user.RequestLogin(ctx))
	token := m.lastToken(t)

	// a wrong code claims nothing
	_, err := ClaimLogin(ctx, user.Email, "wrong-code-xx")
	require.ErrorIs(t, err, ErrInvalidToken)

	sessionToken, err := ClaimLogin(ctx, user.Email, token)
	require.NoError(t, err)
	require.Len(t, sessionToken, SessionTokenLen)

	// the code is one-shot
	_, err = ClaimLogin(ctx, user.Email, token)
	require.ErrorIs(t, err, ErrAlreadyClaimed)

	// unknown accounts claim nothing
	_, err = ClaimLogin(ctx, "unknown@urls.fyi", token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClaimLoginExpired(t *testing.T) {
	st, m := newTestStore(t)
	ctx := testContext(t, st)
	user := seedUser(t, st, "Test User", "test.user@urls.fyi")
	require.NoError(t, user.RequestLogin(ctx))
	token := m.lastToken(t)

	expired := timeToDB(ctx.Now().Add(-time.Minute))
	_, err := st.DB().Exec("UPDATE logins SET claim_until = ? WHERE user_id = ?", expired, user.ID)
	require.NoError(t, err)

	_, err = ClaimLogin(ctx, user.Email, token)
	require.ErrorIs(t, err, ErrClaimExpired)
}

func TestUseSession(t *testing.T) {
	st, m := newTestStore(t)
	ctx := testContext(t, st)
	user := seedUser(t, st, "Test User", "test.user@urls.fyi")
	require.NoError(t, user.RequestLogin(ctx))
	sessionToken, err := ClaimLogin(ctx, user.Email, m.lastToken(t))
	require.NoError(t, err)

	authed := testContext(t, st)
	require.NoError(t, UseSession(authed, sessionToken))
	viewerID, err := authed.UserID()
	require.NoError(t, err)
	require.Equal(t, user.ID, viewerID)

	// the audit trail records the client
	logins, err := LoginsByUser(authed, user.ID)
	require.NoError(t, err)
	require.Len(t, logins, 1)
	require.Equal(t, "test-agent/1.0", logins[0].LastUserAgent)
	require.Equal(t, "192.0.2.1", logins[0].LastRemoteIP)

	require.ErrorIs(t, UseSession(testContext(t, st), "bogus"), ErrSessionNotFound)
	require.ErrorIs(t, UseSession(testContext(t, st), ""), ErrSessionNotFound)
}

func TestUseSessionExpiredBySlidingTTL(t *testing.T) {
	st, m := newTestStore(t)
	ctx := testContext(t, st)
	user := seedUser(t, st, "Test User", "test.user@urls.fyi")
	require.NoError(t, user.RequestLogin(ctx))
	sessionToken, err := ClaimLogin(ctx, user.Email, m.lastToken(t))
	require.NoError(t, err)

	stale := timeToDB(ctx.Now().Add(-SessionSlidingTTL - time.Hour))
	_, err = st.DB().Exec("UPDATE logins SET last_used = ? WHERE user_id = ?", stale, user.ID)
	require.NoError(t, err)

	require.ErrorIs(t, UseSession(testContext(t, st), sessionToken), ErrSessionExpired)
}

func TestRevokeLogin(t *testing.T) {
	st, m := newTestStore(t)
	user := seedUser(t, st, "Test User", "test.user@urls.fyi")
	other := seedUser(t, st, "Other User", "other@urls.fyi")

	authed := loginContext(t, st, m, user)
	sessionToken, _ := authed.SessionToken()

	logins, err := LoginsByUser(authed, user.ID)
	require.NoError(t, err)
	require.Len(t, logins, 1)
	login := logins[0]

	// a stranger must not revoke it
	otherCtx := loginContext(t, st, m, other)
	require.ErrorIs(t, login.Revoke(otherCtx), ErrNotAuthorized)

	require.NoError(t, login.Revoke(authed))
	require.ErrorIs(t, UseSession(testContext(t, st), sessionToken), ErrSessionRevoked)
}

func TestLoginValid(t *testing.T) {
	now := time.Now().UTC()
	l := Login{Claimed: true, LastUsed: timeToDB(now)}
	if !l.Valid(now) {
		t.Fatal("claimed fresh login must be valid")
	}
	l.Revoked = true
	if l.Valid(now) {
		t.Fatal("revoked login must not be valid")
	}
	l = Login{Claimed: false, LastUsed: timeToDB(now)}
	if l.Valid(now) {
		t.Fatal("pending login must not be valid")
	}
	l = Login{Claimed: true, LastUsed: timeToDB(now.Add(-SessionSlidingTTL - time.Minute))}
	if l.Valid(now) {
		t.Fatal("stale login must not be valid")
	}
}

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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateUserNormalizesEmail(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t, st)

	u, err := CreateUser(ctx, NewUserInput{Name: "  Peter Parker  ", Email: " Peter.Parker@gmail.com "})
	require.NoError(t, err)
	require.Equal(t, "Peter Parker", u.Name)
	require.Equal(t, "peterparker@gmail.com", u.Email)

	// the dotted variant normalizes to the same address
	_, err = CreateUser(ctx, NewUserInput{Name: "Impostor", Email: "peter.parker@gmail.com"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateUserValidation(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t, st)

	vectors := []struct {
		name  string
		email string
	}{
		{"", "test.user@urls.fyi"},
		{"   ", "test.user@urls.fyi"},
		{strings.Repeat("x", maxUserNameLen+1), "test.user@urls.fyi"},
		{"Test User", "not-an-email"},
		{"Test User", ""},
		{"Test User", "someone@memeil.top"},
	}
	for _, vec := range vectors {
		_, err := CreateUser(ctx, NewUserInput{Name: vec.name, Email: vec.email})
		require.ErrorIs(t, err, ErrInvalidInput, "name=%q email=%q", vec.name, vec.email)
	}
}

func TestFindUser(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t, st)
	u := seedUser(t, st, "Test User", "test.user@urls.fyi")

	found, err := FindUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, found.ID)

	found, err = FindUserByEmail(ctx, "Test.User@urls.fyi")
	require.NoError(t, err)
	require.Equal(t, u.ID, found.ID)

	_, err = FindUserByEmail(ctx, "unknown@urls.fyi")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserOnlySelf(t *testing.T) {
	st, m := newTestStore(t)
	alice := seedUser(t, st, "Alice", "alice@urls.fyi")
	bob := seedUser(t, st, "Bob", "bob@urls.fyi")

	ctx := loginContext(t, st, m, alice)

	newName := "Alice Cooper"
	require.NoError(t, alice.Update(ctx, UserPatch{Name: &newName}))
	found, err := FindUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice Cooper", found.Name)

	// Alice must not update Bob
	require.ErrorIs(t, bob.Update(ctx, UserPatch{Name: &newName}), ErrNotAuthorized)

	// anonymous viewers update nobody
	require.ErrorIs(t, alice.Update(testContext(t, st), UserPatch{Name: &newName}), ErrNotAuthenticated)
}

func TestUpdateUserEmailCollision(t *testing.T) {
	st, m := newTestStore(t)
	alice := seedUser(t, st, "Alice", "alice@urls.fyi")
	bob := seedUser(t, st, "Bob", "bob@urls.fyi")

	ctx := loginContext(t, st, m, alice)

	taken := bob.Email
	require.ErrorIs(t, alice.Update(ctx, UserPatch{Email: &taken}), ErrInvalidInput)

	// the failed update leaves the account untouched
	found, err := FindUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "alice@urls.fyi", found.Email)

	// re-submitting your own address is not a collision
	own := "alice@urls.fyi"
	require.NoError(t, alice.Update(ctx, UserPatch{Email: &own}))
}

func TestRequestLoginSendsCode(t *testing.T) {
	st, m := newTestStore(t)
	ctx := testContext(t, st)
	u := seedUser(t, st, "Test User", "test.user@urls.fyi")

	require.NoError(t, u.RequestLogin(ctx))

	msg := m.last(t)
	require.Equal(t, u.Email, msg.To)
	require.Contains(t, msg.Body, "A login code was requested for your account (test.user@urls.fyi).")
	require.Contains(t, msg.Body, "If you did not request the code, you may safely ignore this email.")
	require.Len(t, m.lastToken(t), EmailTokenLen)
}

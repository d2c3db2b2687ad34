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

	"github.com/stretchr/testify/require"
)

func TestCapabilityMatrix(t *testing.T) {
	vectors := []struct {
		capability func(Permission) bool
		admin      bool
		moderator  bool
	}{
		{Permission.UnlimitedInvites, true, false},
		{Permission.ModifyUserRoles, true, false},
		{Permission.AccessAdminBackups, true, false},
		{Permission.DeleteAnyURL, true, true},
		{Permission.DeleteAnyComment, true, true},
	}
	for i, vec := range vectors {
		if got := vec.capability(PermissionAdministrator); got != vec.admin {
			t.Fatalf("vector %d: administrator expected: '%v', got '%v'", i, vec.admin, got)
		}
		if got := vec.capability(PermissionModerator); got != vec.moderator {
			t.Fatalf("vector %d: moderator expected: '%v', got '%v'", i, vec.moderator, got)
		}
	}
}

func TestParsePermission(t *testing.T) {
	for _, value := range []string{"administrator", "ADMINISTRATOR", " Administrator "} {
		p, err := ParsePermission(value)
		require.NoError(t, err)
		require.Equal(t, PermissionAdministrator, p)
	}
	p, err := ParsePermission("MODERATOR")
	require.NoError(t, err)
	require.Equal(t, PermissionModerator, p)

	_, err = ParsePermission("root")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGrantAndRevokePermission(t *testing.T) {
	st, m := newTestStore(t)
	admin := seedAdmin(t, st, "Test Administrator", "admin@urls.fyi")
	user := seedUser(t, st, "Test User", "test.user@urls.fyi")

	// without administrator the gate rejects
	userCtx := loginContext(t, st, m, user)
	_, err := GrantPermission(userCtx, user.Email, PermissionModerator)
	require.ErrorIs(t, err, ErrNotAuthorized)

	adminCtx := loginContext(t, st, m, admin)
	granted, err := GrantPermission(adminCtx, "test.user@urls.fyi", PermissionModerator)
	require.NoError(t, err)

	perms, err := granted.Permissions(adminCtx)
	require.NoError(t, err)
	require.Equal(t, []Permission{PermissionModerator}, perms)

	// granting again stays a single grant
	_, err = GrantPermission(adminCtx, user.Email, PermissionModerator)
	require.NoError(t, err)
	roles, err := granted.Roles(adminCtx)
	require.NoError(t, err)
	require.Len(t, roles, 1)

	_, err = RevokePermission(adminCtx, user.Email, PermissionModerator)
	require.NoError(t, err)
	perms, err = granted.Permissions(adminCtx)
	require.NoError(t, err)
	require.Empty(t, perms)
}

func TestRequireNeedsAuthentication(t *testing.T) {
	st, _ := newTestStore(t)
	err := Require(testContext(t, st), Permission.ModifyUserRoles)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureAdministrator(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t, st)

	in := strings.NewReader("Test Administrator\nadmin@urls.fyi\n")
	var out bytes.Buffer
	require.NoError(t, EnsureAdministrator(ctx, in, &out))
	require.Contains(t, out.String(), "No administrators were found")

	admin, err := FindUserByEmail(ctx, "admin@urls.fyi")
	require.NoError(t, err)
	require.NoError(t, admin.CheckCapability(ctx, Permission.ModifyUserRoles))

	// idempotent: a second run asks nothing
	out.Reset()
	require.NoError(t, EnsureAdministrator(ctx, strings.NewReader(""), &out))
	require.Empty(t, out.String())
}

func TestEnsureAdministratorRejectsBadInput(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t, st)

	in := strings.NewReader("Test Administrator\nnot-an-email\n")
	var out bytes.Buffer
	require.ErrorIs(t, EnsureAdministrator(ctx, in, &out), ErrInvalidInput)
}

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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// EnsureAdministrator provisions the first administrator account
// interactively. It is a no-op as soon as any administrator role
// exists, so it is safe to run on every start.
func EnsureAdministrator(ctx *Context, in io.Reader, out io.Writer) error {
	var admins int
	err := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT COUNT(*) FROM roles WHERE permission = ?", PermissionAdministrator).Scan(&admins)
	if err != nil {
		return fmt.Errorf("failed to count administrators: %w", err)
	}
	if admins > 0 {
		return nil
	}

	fmt.Fprintln(out, "No administrators were found, please register an administrator.")
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "Name: ")
	if !scanner.Scan() {
		return fmt.Errorf("failed to read name: %w", scanner.Err())
	}
	name := strings.TrimSpace(scanner.Text())

	fmt.Fprint(out, "Email: ")
	if !scanner.Scan() {
		return fmt.Errorf("failed to read email: %w", scanner.Err())
	}
	email := strings.TrimSpace(scanner.Text())

	user, err := CreateUser(ctx, NewUserInput{Name: name, Email: email})
	if err != nil {
		return err
	}
	if _, err = createRole(ctx, user.ID, PermissionAdministrator); err != nil {
		return err
	}
	fmt.Fprintf(out, "Registered administrator %s (%s).\n", user.Name, user.Email)
	return nil
}

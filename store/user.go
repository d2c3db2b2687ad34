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
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/urlsfyi/urlsd/disposable"
	"github.com/urlsfyi/urlsd/id"
)

// User is a registered account.
type User struct {
	ID        id.UserID `json:"id"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

// NewUserInput is the external payload for registration.
type NewUserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserPatch updates a subset of user fields. Nil fields stay
// untouched.
type UserPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

const maxUserNameLen = 256

func validateNewUser(input NewUserInput) (NewUserInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, invalidInput("name must not be empty")
	}
	if len(input.Name) > maxUserNameLen {
		return input, invalidInput("name must not be longer than %d characters", maxUserNameLen)
	}

	email, err := validateEmail(input.Email)
	if err != nil {
		return input, err
	}
	input.Email = email
	return input, nil
}

func validateEmail(email string) (string, error) {
	email = disposable.Normalize(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalidInput("please enter a valid email address")
	}
	if disposable.IsDisposable(email) {
		return "", invalidInput("disposable email addresses are not allowed")
	}
	return email, nil
}

const userColumns = "id, created_at, updated_at, name, email"

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts an account after validating and normalizing the
// input. Registration via invitation should go through RegisterUser
// instead.
func CreateUser(ctx *Context, input NewUserInput) (*User, error) {
	input, err := validateNewUser(input)
	if err != nil {
		return nil, err
	}

	var exists int
	err = ctx.db().QueryRowContext(ctx.ctx, "SELECT COUNT(*) FROM users WHERE email = ?", input.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return nil, invalidInput("email address is already registered")
	}

	u := &User{
		ID:        id.NewUserID(),
		CreatedAt: timeToDB(ctx.Now()),
		UpdatedAt: timeToDB(ctx.Now()),
		Name:      input.Name,
		Email:     input.Email,
	}
	_, err = ctx.db().ExecContext(ctx.ctx,
		"INSERT INTO users (id, created_at, updated_at, name, email) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.CreatedAt, u.UpdatedAt, u.Name, u.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, invalidInput("email address is already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// FindUser loads a user by id.
func FindUser(ctx *Context, userID id.UserID) (*User, error) {
	row := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", userID)
	return scanUser(row)
}

// FindUserByEmail loads a user by their normalized email address.
func FindUserByEmail(ctx *Context, email string) (*User, error) {
	row := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", disposable.Normalize(email))
	return scanUser(row)
}

// Update applies a patch to the user. Only the viewer themselves may
// change their account.
func (u *User) Update(ctx *Context, patch UserPatch) error {
	viewerID, err := ctx.UserID()
	if err != nil {
		return err
	}
	if viewerID != u.ID {
		return ErrNotAuthorized
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" || len(name) > maxUserNameLen {
			return invalidInput("name must be between 1 and %d characters", maxUserNameLen)
		}
		u.Name = name
	}
	if patch.Email != nil {
		email, err := validateEmail(*patch.Email)
		if err != nil {
			return err
		}
		var taken int
		err = ctx.db().QueryRowContext(ctx.ctx,
			"SELECT COUNT(*) FROM users WHERE email = ? AND id != ?", email, u.ID).Scan(&taken)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken > 0 {
			return invalidInput("email address is already registered")
		}
		u.Email = email
	}
	u.UpdatedAt = timeToDB(ctx.Now())

	_, err = ctx.db().ExecContext(ctx.ctx,
		"UPDATE users SET updated_at = ?, name = ?, email = ? WHERE id = ?",
		u.UpdatedAt, u.Name, u.Email, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return invalidInput("email address is already registered")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Roles returns the user's role grants in insertion order.
func (u *User) Roles(ctx *Context) ([]Role, error) {
	return rolesByUser(ctx, u.ID)
}

// Permissions returns the distinct permissions granted to the user.
func (u *User) Permissions(ctx *Context) ([]Permission, error) {
	roles, err := u.Roles(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[Permission]bool, len(roles))
	var perms []Permission
	for _, role := range roles {
		if seen[role.Permission] {
			continue
		}
		seen[role.Permission] = true
		perms = append(perms, role.Permission)
	}
	return perms, nil
}

// CheckCapability returns nil if any of the user's permissions grants
// the capability.
func (u *User) CheckCapability(ctx *Context, capability func(Permission) bool) error {
	perms, err := u.Permissions(ctx)
	if err != nil {
		return err
	}
	for _, p := range perms {
		if capability(p) {
			return nil
		}
	}
	return ErrNotAuthorized
}

const loginEmailSubject = "Your login code"

func loginEmailBody(email, token string) string {
	return fmt.Sprintf("A login code was requested for your account (%s).\n\nCode: %s\n\nIf you did not request the code, you may safely ignore this email.", email, token)
}

// RequestLogin creates a fresh login code for the user and mails it to
// their address.
func (u *User) RequestLogin(ctx *Context) error {
	login, err := CreateLogin(ctx, u.ID)
	if err != nil {
		return err
	}
	if err = ctx.Mailer().Send(u.Email, loginEmailSubject, loginEmailBody(u.Email, login.EmailToken)); err != nil {
		return fmt.Errorf("failed to send login email: %w", err)
	}
	return nil
}

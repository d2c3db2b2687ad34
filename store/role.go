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
	"fmt"
	"strings"

	"github.com/urlsfyi/urlsd/id"
)

// Permission is a named bundle of capabilities a role grants.
type Permission string

const (
	PermissionAdministrator Permission = "administrator"
	PermissionModerator     Permission = "moderator"
)

// ParsePermission accepts a permission name case-insensitively.
func ParsePermission(value string) (Permission, error) {
	switch Permission(strings.ToLower(strings.TrimSpace(value))) {
	case PermissionAdministrator:
		return PermissionAdministrator, nil
	case PermissionModerator:
		return PermissionModerator, nil
	}
	return "", invalidInput("unknown permission '%s'", value)
}

func (p Permission) String() string {
	return string(p)
}

// UnlimitedInvites lifts the invite quota.
func (p Permission) UnlimitedInvites() bool {
	return p == PermissionAdministrator
}

// ModifyUserRoles allows granting and revoking permissions.
func (p Permission) ModifyUserRoles() bool {
	return p == PermissionAdministrator
}

// AccessAdminBackups allows downloading database backups.
func (p Permission) AccessAdminBackups() bool {
	return p == PermissionAdministrator
}

// DeleteAnyURL allows removing submissions of other users.
func (p Permission) DeleteAnyURL() bool {
	return p == PermissionAdministrator || p == PermissionModerator
}

// DeleteAnyComment allows removing comments of other users.
func (p Permission) DeleteAnyComment() bool {
	return p == PermissionAdministrator || p == PermissionModerator
}

// Role assigns a permission to a user.
type Role struct {
	ID         id.RoleID  `json:"id"`
	CreatedAt  int64      `json:"created_at"`
	UpdatedAt  int64      `json:"updated_at"`
	UserID     id.UserID  `json:"user_id"`
	Permission Permission `json:"permission"`
}

// Require returns nil if the viewer is authenticated and holds a
// permission granting the capability.
func Require(ctx *Context, capability func(Permission) bool) error {
	viewer, err := ctx.User()
	if err != nil {
		return err
	}
	return viewer.CheckCapability(ctx, capability)
}

func rolesByUser(ctx *Context, userID id.UserID) ([]Role, error) {
	rows, err := ctx.db().QueryContext(ctx.ctx,
		"SELECT id, created_at, updated_at, user_id, permission FROM roles WHERE user_id = ? ORDER BY created_at",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err = rows.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.UserID, &r.Permission); err != nil {
			return nil, fmt.Errorf("failed to load roles: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func createRole(ctx *Context, userID id.UserID, permission Permission) (*Role, error) {
	r := &Role{
		ID:         id.NewRoleID(),
		CreatedAt:  timeToDB(ctx.Now()),
		UpdatedAt:  timeToDB(ctx.Now()),
		UserID:     userID,
		Permission: permission,
	}
	_, err := ctx.db().ExecContext(ctx.ctx,
		"INSERT INTO roles (id, created_at, updated_at, user_id, permission) VALUES (?, ?, ?, ?, ?)",
		r.ID, r.CreatedAt, r.UpdatedAt, r.UserID, r.Permission)
	if err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return r, nil
}

// GrantPermission assigns a permission to the user behind the email
// address. The viewer needs the modify-user-roles capability. Granting
// an already held permission is a no-op.
func GrantPermission(ctx *Context, email string, permission Permission) (*User, error) {
	if err := Require(ctx, Permission.ModifyUserRoles); err != nil {
		return nil, err
	}
	user, err := FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	perms, err := user.Permissions(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range perms {
		if p == permission {
			return user, nil
		}
	}
	if _, err = createRole(ctx, user.ID, permission); err != nil {
		return nil, err
	}
	return user, nil
}

// RevokePermission removes all grants of a permission from the user
// behind the email address. The viewer needs the modify-user-roles
// capability.
func RevokePermission(ctx *Context, email string, permission Permission) (*User, error) {
	if err := Require(ctx, Permission.ModifyUserRoles); err != nil {
		return nil, err
	}
	user, err := FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	_, err = ctx.db().ExecContext(ctx.ctx,
		"DELETE FROM roles WHERE user_id = ? AND permission = ?", user.ID, permission)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke permission: %w", err)
	}
	return user, nil
}

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

	"github.com/urlsfyi/urlsd/id"
)

// Invite is a single-use registration token handed out by an existing
// user.
type Invite struct {
	ID        id.InviteID `json:"id"`
	CreatedAt int64       `json:"created_at"`
	UpdatedAt int64       `json:"updated_at"`
	Token     string      `json:"token"`
	CreatedBy id.UserID   `json:"created_by"`
	ClaimedBy *id.UserID  `json:"claimed_by"`
}

const inviteColumns = "id, created_at, updated_at, token, created_by, claimed_by"

func scanInvite(scan func(...any) error) (*Invite, error) {
	var inv Invite
	var claimedBy sql.NullString
	if err := scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt, &inv.Token, &inv.CreatedBy, &claimedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invite %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load invite: %w", err)
	}
	if claimedBy.Valid {
		claimedByID, err := id.ParseUserID(claimedBy.String)
		if err != nil {
			return nil, fmt.Errorf("failed to load invite: %w", err)
		}
		inv.ClaimedBy = &claimedByID
	}
	return &inv, nil
}

// CreateInvite hands out a fresh invite for the creator. Users without
// the unlimited-invites capability are limited to MaxInvitesPerUser
// invites in total, claimed or not.
func CreateInvite(ctx *Context, createdBy *User) (*Invite, error) {
	var count int
	err := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT COUNT(*) FROM invites WHERE created_by = ?", createdBy.ID).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count invites: %w", err)
	}
	if count >= MaxInvitesPerUser {
		if err = createdBy.CheckCapability(ctx, Permission.UnlimitedInvites); err != nil {
			if errors.Is(err, ErrNotAuthorized) {
				return nil, ErrQuotaExceeded
			}
			return nil, err
		}
	}

	inv := &Invite{
		ID:        id.NewInviteID(),
		CreatedAt: timeToDB(ctx.Now()),
		UpdatedAt: timeToDB(ctx.Now()),
		Token:     alnumToken(InviteTokenLen),
		CreatedBy: createdBy.ID,
	}
	_, err = ctx.db().ExecContext(ctx.ctx,
		"INSERT INTO invites (id, created_at, updated_at, token, created_by, claimed_by) VALUES (?, ?, ?, ?, ?, NULL)",
		inv.ID, inv.CreatedAt, inv.UpdatedAt, inv.Token, inv.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}
	return inv, nil
}

// FindInviteByToken loads an invite by its token.
func FindInviteByToken(ctx *Context, token string) (*Invite, error) {
	row := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT "+inviteColumns+" FROM invites WHERE token = ?", token)
	return scanInvite(row.Scan)
}

// InvitesByUser returns all invites handed out by the user, newest
// first.
func InvitesByUser(ctx *Context, userID id.UserID) ([]Invite, error) {
	rows, err := ctx.db().QueryContext(ctx.ctx,
		"SELECT "+inviteColumns+" FROM invites WHERE created_by = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invites: %w", err)
	}
	defer rows.Close()

	var invites []Invite
	for rows.Next() {
		inv, err := scanInvite(rows.Scan)
		if err != nil {
			return nil, err
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

// Claim marks the invite as used by the given user. The conditional
// update makes concurrent claims lose cleanly.
func (inv *Invite) Claim(ctx *Context, claimedBy id.UserID) error {
	if inv.ClaimedBy != nil {
		return ErrAlreadyClaimed
	}
	updatedAt := timeToDB(ctx.Now())
	res, err := ctx.db().ExecContext(ctx.ctx,
		"UPDATE invites SET updated_at = ?, claimed_by = ? WHERE id = ? AND claimed_by IS NULL",
		updatedAt, claimedBy, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to claim invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to claim invite: %w", err)
	}
	if n == 0 {
		return ErrAlreadyClaimed
	}
	inv.UpdatedAt = updatedAt
	inv.ClaimedBy = &claimedBy
	return nil
}

// RegisterUser creates an account from an invite token. Account
// creation and invite consumption happen in one transaction, so a lost
// claim race never leaves a half-registered user behind.
func RegisterUser(ctx *Context, input NewUserInput, token string) (*User, error) {
	input, err := validateNewUser(input)
	if err != nil {
		return nil, err
	}

	tx, err := ctx.db().BeginTx(ctx.ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	defer tx.Rollback()

	inv, err := scanInvite(tx.QueryRowContext(ctx.ctx,
		"SELECT "+inviteColumns+" FROM invites WHERE token = ?", token).Scan)
	if err != nil {
		return nil, err
	}
	if inv.ClaimedBy != nil {
		return nil, ErrAlreadyClaimed
	}

	var exists int
	err = tx.QueryRowContext(ctx.ctx, "SELECT COUNT(*) FROM users WHERE email = ?", input.Email).Scan(&exists)
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
	_, err = tx.ExecContext(ctx.ctx,
		"INSERT INTO users (id, created_at, updated_at, name, email) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.CreatedAt, u.UpdatedAt, u.Name, u.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, invalidInput("email address is already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	res, err := tx.ExecContext(ctx.ctx,
		"UPDATE invites SET updated_at = ?, claimed_by = ? WHERE id = ? AND claimed_by IS NULL",
		timeToDB(ctx.Now()), u.ID, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to claim invite: %w", err)
	}
	if n == 0 {
		return nil, ErrAlreadyClaimed
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return u, nil
}

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
	"strings"

	"github.com/urlsfyi/urlsd/id"
)

// Comment is a markdown comment on a submission, optionally replying
// to another comment of the same submission.
type Comment struct {
	ID        id.CommentID  `json:"id"`
	CreatedAt int64         `json:"created_at"`
	UpdatedAt int64         `json:"updated_at"`
	Text      string        `json:"comment"`
	URLID     id.URLID      `json:"url_id"`
	CreatedBy id.UserID     `json:"created_by"`
	RepliesTo *id.CommentID `json:"replies_to"`
}

const commentColumns = "id, created_at, updated_at, comment, url_id, created_by, replies_to"

func scanComment(scan func(...any) error) (*Comment, error) {
	var c Comment
	var repliesTo sql.NullString
	err := scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.Text, &c.URLID, &c.CreatedBy, &repliesTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if repliesTo.Valid {
		parentID, err := id.ParseCommentID(repliesTo.String)
		if err != nil {
			return nil, fmt.Errorf("failed to load comment: %w", err)
		}
		c.RepliesTo = &parentID
	}
	return &c, nil
}

// CreateComment adds a comment by the viewer. A reply target must
// belong to the same submission.
func CreateComment(ctx *Context, urlID id.URLID, text string, repliesTo *id.CommentID) (*Comment, error) {
	viewerID, err := ctx.UserID()
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidInput("comment must not be empty")
	}
	if _, err = FindURL(ctx, urlID); err != nil {
		return nil, err
	}
	if repliesTo != nil {
		parent, err := FindComment(ctx, *repliesTo)
		if err != nil {
			return nil, err
		}
		if parent.URLID != urlID {
			return nil, invalidInput("reply target belongs to a different url")
		}
	}

	c := &Comment{
		ID:        id.NewCommentID(),
		CreatedAt: timeToDB(ctx.Now()),
		UpdatedAt: timeToDB(ctx.Now()),
		Text:      text,
		URLID:     urlID,
		CreatedBy: viewerID,
		RepliesTo: repliesTo,
	}
	var parent any
	if repliesTo != nil {
		parent = *repliesTo
	}
	_, err = ctx.db().ExecContext(ctx.ctx,
		"INSERT INTO comments (id, created_at, updated_at, comment, url_id, created_by, replies_to) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.CreatedAt, c.UpdatedAt, c.Text, c.URLID, c.CreatedBy, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return c, nil
}

// FindComment loads a comment by id.
func FindComment(ctx *Context, commentID id.CommentID) (*Comment, error) {
	row := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id = ?", commentID)
	return scanComment(row.Scan)
}

// CommentsForURL returns the submission's comments, oldest first.
func CommentsForURL(ctx *Context, urlID id.URLID) ([]Comment, error) {
	rows, err := ctx.db().QueryContext(ctx.ctx,
		"SELECT "+commentColumns+" FROM comments WHERE url_id = ? ORDER BY created_at", urlID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// Delete removes the comment. Authors may delete their own comments,
// everything else needs the delete-any-comment capability. Replies to
// the deleted comment become top-level.
func (c *Comment) Delete(ctx *Context) error {
	viewerID, err := ctx.UserID()
	if err != nil {
		return err
	}
	if c.CreatedBy != viewerID {
		if err = Require(ctx, Permission.DeleteAnyComment); err != nil {
			return err
		}
	}

	tx, err := ctx.db().BeginTx(ctx.ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx.ctx, "UPDATE comments SET replies_to = NULL WHERE replies_to = ?", c.ID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if _, err = tx.ExecContext(ctx.ctx, "DELETE FROM comments WHERE id = ?", c.ID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

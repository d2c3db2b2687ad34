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
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/urlsfyi/urlsd/id"
	"github.com/urlsfyi/urlsd/meta"
)

// URL is a crawled submission.
type URL struct {
	ID          id.URLID  `json:"id"`
	CreatedAt   int64     `json:"created_at"`
	UpdatedAt   int64     `json:"updated_at"`
	URL         string    `json:"url"`
	StatusCode  int       `json:"status_code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedBy   id.UserID `json:"created_by"`
}

// NewURLInput is the external payload for a submission.
type NewURLInput struct {
	URL string `json:"url"`
}

// trackingParams are stripped from every submission.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
}

func dropParam(host, key string) bool {
	if trackingParams[key] {
		return true
	}
	switch host {
	case "youtu.be", "www.youtube.com":
		return key == "t"
	case "twitter.com":
		return key == "s"
	}
	return false
}

// Canonicalize normalizes a submission for uniqueness: the scheme is
// forced to https when absent and tracking parameters are stripped.
// Remaining query parameters keep their order, bare keys stay bare.
// The function is idempotent over its own output.
func Canonicalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalidInput("please submit a url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", invalidInput("please submit a valid url")
	}

	if u.RawQuery != "" {
		host := strings.ToLower(u.Hostname())
		parts := strings.Split(u.RawQuery, "&")
		kept := parts[:0]
		for _, part := range parts {
			key := part
			if idx := strings.IndexByte(part, '='); idx >= 0 {
				key = part[:idx]
			}
			if dropParam(host, key) {
				continue
			}
			kept = append(kept, part)
		}
		u.RawQuery = strings.Join(kept, "&")
	}
	return u.String(), nil
}

const urlColumns = "id, created_at, updated_at, url, status_code, title, description, image, created_by"

func scanURL(scan func(...any) error) (*URL, error) {
	var u URL
	var title, description, image sql.NullString
	err := scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.URL, &u.StatusCode, &title, &description, &image, &u.CreatedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("url %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load url: %w", err)
	}
	u.Title = title.String
	u.Description = description.String
	u.Image = image.String
	return &u, nil
}

// CreateURL canonicalizes, crawls and persists a submission for the
// viewer, then hands the extracted metadata to the search index.
func CreateURL(ctx *Context, input NewURLInput) (*URL, error) {
	viewerID, err := ctx.UserID()
	if err != nil {
		return nil, err
	}
	canonical, err := Canonicalize(input.URL)
	if err != nil {
		return nil, err
	}

	var exists int
	err = ctx.db().QueryRowContext(ctx.ctx, "SELECT COUNT(*) FROM urls WHERE url = ?", canonical).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check url: %w", err)
	}
	if exists > 0 {
		return nil, ErrDuplicateURL
	}

	req, err := http.NewRequestWithContext(ctx.ctx, http.MethodGet, canonical, nil)
	if err != nil {
		return nil, invalidInput("please submit a valid url")
	}
	req.Header.Set("User-Agent", botUserAgent)
	resp, err := ctx.HTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load url: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}
	m := meta.Parse(resp.Body)

	u := &URL{
		ID:          id.NewURLID(),
		CreatedAt:   timeToDB(ctx.Now()),
		UpdatedAt:   timeToDB(ctx.Now()),
		URL:         canonical,
		StatusCode:  resp.StatusCode,
		Title:       m.Title,
		Description: m.Description,
		Image:       m.Image,
		CreatedBy:   viewerID,
	}
	_, err = ctx.db().ExecContext(ctx.ctx,
		`INSERT INTO urls (id, created_at, updated_at, url, status_code, title, description, image, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.CreatedAt, u.UpdatedAt, u.URL, u.StatusCode,
		nullStr(u.Title), nullStr(u.Description), nullStr(u.Image), u.CreatedBy)
	if err != nil {
		// a concurrent submission of the same canonical url may win
		// the insert between the existence check and here
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("failed to create url: %w", err)
	}

	if err = ctx.Search().IndexURL(u.ID.String(), u.Title, u.Description); err != nil {
		ctx.store.infoLog.Printf("store: failed to index url('%s'): %v", u.ID, err)
	}
	return u, nil
}

// FindURL loads a submission by id.
func FindURL(ctx *Context, urlID id.URLID) (*URL, error) {
	row := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT "+urlColumns+" FROM urls WHERE id = ?", urlID)
	return scanURL(row.Scan)
}

// Delete removes the submission together with its upvotes and
// comments in one transaction. Submitters may delete their own urls,
// everything else needs the delete-any-url capability.
func (u *URL) Delete(ctx *Context) error {
	viewerID, err := ctx.UserID()
	if err != nil {
		return err
	}
	if u.CreatedBy != viewerID {
		if err = Require(ctx, Permission.DeleteAnyURL); err != nil {
			return err
		}
	}

	tx, err := ctx.db().BeginTx(ctx.ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to delete url: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM url_upvotes WHERE url_id = ?",
		"UPDATE comments SET replies_to = NULL WHERE url_id = ?",
		"DELETE FROM comments WHERE url_id = ?",
		"DELETE FROM urls WHERE id = ?",
	} {
		if _, err = tx.ExecContext(ctx.ctx, stmt, u.ID); err != nil {
			return fmt.Errorf("failed to delete url: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to delete url: %w", err)
	}

	if err = ctx.Search().Remove(u.ID.String()); err != nil {
		ctx.store.infoLog.Printf("store: failed to deindex url('%s'): %v", u.ID, err)
	}
	return nil
}

// Upvote records the viewer's upvote. Upvoting twice is a no-op.
func (u *URL) Upvote(ctx *Context) error {
	viewerID, err := ctx.UserID()
	if err != nil {
		return err
	}
	_, err = ctx.db().ExecContext(ctx.ctx,
		"INSERT INTO url_upvotes (url_id, user_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		u.ID, viewerID, timeToDB(ctx.Now()))
	if err != nil {
		return fmt.Errorf("failed to upvote url: %w", err)
	}
	return nil
}

// RescindUpvote removes the viewer's upvote, if any.
func (u *URL) RescindUpvote(ctx *Context) error {
	viewerID, err := ctx.UserID()
	if err != nil {
		return err
	}
	_, err = ctx.db().ExecContext(ctx.ctx,
		"DELETE FROM url_upvotes WHERE url_id = ? AND user_id = ?", u.ID, viewerID)
	if err != nil {
		return fmt.Errorf("failed to rescind upvote: %w", err)
	}
	return nil
}

// UpvoteCount returns the number of upvotes for the submission.
func (u *URL) UpvoteCount(ctx *Context) (int64, error) {
	var count int64
	err := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT COUNT(*) FROM url_upvotes WHERE url_id = ?", u.ID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count upvotes: %w", err)
	}
	return count, nil
}

// URLOrder selects how a listing of submissions is sorted.
type URLOrder int

const (
	// OrderRanked sorts by upvotes gathered in the last seven days.
	OrderRanked URLOrder = iota
	// OrderBest sorts by all-time upvotes.
	OrderBest
	// OrderRecent sorts by submission time.
	OrderRecent
	// OrderUser lists one user's submissions, newest first.
	OrderUser
)

const rankingWindow = 7 * 24 * time.Hour

// PaginateURLs returns one page of submissions plus the total page
// count. The creator argument is only consulted for OrderUser.
func PaginateURLs(ctx *Context, order URLOrder, creator id.UserID, page, pageSize int64) ([]URL, int64, error) {
	if page < 1 || pageSize < 1 {
		return nil, 0, invalidInput("invalid page")
	}
	offset := (page - 1) * pageSize

	var query, countQuery string
	args := []any{pageSize, offset}
	countArgs := []any{}
	switch order {
	case OrderRecent:
		query = "SELECT " + urlColumns + " FROM urls ORDER BY created_at DESC LIMIT ? OFFSET ?"
		countQuery = "SELECT COUNT(*) FROM urls"
	case OrderUser:
		query = "SELECT " + urlColumns + " FROM urls WHERE created_by = ? ORDER BY created_at DESC LIMIT ? OFFSET ?"
		countQuery = "SELECT COUNT(*) FROM urls WHERE created_by = ?"
		args = append([]any{creator}, args...)
		countArgs = append(countArgs, creator)
	case OrderBest:
		query = `SELECT u.id, u.created_at, u.updated_at, u.url, u.status_code, u.title, u.description, u.image, u.created_by
			 FROM urls u LEFT JOIN url_upvotes v ON v.url_id = u.id
			 GROUP BY u.id ORDER BY COUNT(v.url_id) DESC, u.created_at DESC LIMIT ? OFFSET ?`
		countQuery = "SELECT COUNT(*) FROM urls"
	case OrderRanked:
		query = `SELECT u.id, u.created_at, u.updated_at, u.url, u.status_code, u.title, u.description, u.image, u.created_by
			 FROM urls u LEFT JOIN url_upvotes v ON v.url_id = u.id AND v.created_at >= ?
			 GROUP BY u.id ORDER BY COUNT(v.url_id) DESC, u.created_at DESC LIMIT ? OFFSET ?`
		countQuery = "SELECT COUNT(*) FROM urls"
		args = append([]any{timeToDB(ctx.Now().Add(-rankingWindow))}, args...)
	default:
		return nil, 0, invalidInput("invalid ordering")
	}

	rows, err := ctx.db().QueryContext(ctx.ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load urls: %w", err)
	}
	defer rows.Close()

	var urls []URL
	for rows.Next() {
		u, err := scanURL(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		urls = append(urls, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to load urls: %w", err)
	}

	var total int64
	if err = ctx.db().QueryRowContext(ctx.ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count urls: %w", err)
	}
	pageCount := total / pageSize
	if total%pageSize != 0 {
		pageCount++
	}
	return urls, pageCount, nil
}

// SearchURLs resolves a free-text query through the search index and
// loads the matching submissions.
func SearchURLs(ctx *Context, query string, offset, limit int) ([]URL, error) {
	ids, err := ctx.Search().Find(query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search urls: %w", err)
	}
	urls := make([]URL, 0, len(ids))
	for _, rawID := range ids {
		urlID, err := id.ParseURLID(rawID)
		if err != nil {
			continue
		}
		u, err := FindURL(ctx, urlID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		urls = append(urls, *u)
	}
	return urls, nil
}

// UpvotedByViewer reports whether the viewer upvoted the submission.
// Anonymous viewers never did.
func (u *URL) UpvotedByViewer(ctx *Context) (bool, error) {
	viewerID, ok := ctx.MaybeUserID()
	if !ok {
		return false, nil
	}
	var count int64
	err := ctx.db().QueryRowContext(ctx.ctx,
		"SELECT COUNT(*) FROM url_upvotes WHERE url_id = ? AND user_id = ?", u.ID, viewerID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check upvote: %w", err)
	}
	return count > 0, nil
}

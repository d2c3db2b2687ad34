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

// Package store holds the persistent state of the site and the trust
// plane built on top of it: users and roles, invitations, the login
// state machine, url submissions, upvotes and comments.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const maxConnections = 8

// Mailer sends email messages on behalf of the store.
type Mailer interface {
	Send(to, subject, body string) error
}

// SearchIndex receives url submissions for indexing.
type SearchIndex interface {
	IndexURL(id, title, description string) error
	Remove(id string) error
	Find(query string, offset, limit int) ([]string, error)
}

// Store bundles the database pool with the external collaborators the
// domain operations need.
type Store struct {
	db      *sql.DB
	mailer  Mailer
	search  SearchIndex
	infoLog *log.Logger
	dbgLog  *log.Logger
}

// Open connects to the SQLite database, runs migrations and returns
// the store. The foreign-keys pragma is enabled on every pooled
// connection through the DSN.
func Open(databaseURL string, mailer Mailer, search SearchIndex, infoLog, dbgLog *log.Logger) (*Store, error) {
	if infoLog == nil {
		infoLog = log.New(io.Discard, "", 0)
	}
	if dbgLog == nil {
		dbgLog = log.New(io.Discard, "", 0)
	}

	db, err := sql.Open("sqlite", withForeignKeys(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxConnections)

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	infoLog.Printf("store: successfully opened '%s'", databaseURL)
	return &Store{db: db, mailer: mailer, search: search, infoLog: infoLog, dbgLog: dbgLog}, nil
}

func withForeignKeys(databaseURL string) string {
	if strings.Contains(databaseURL, "?") {
		return databaseURL + "&_pragma=foreign_keys(1)"
	}
	return databaseURL + "?_pragma=foreign_keys(1)"
}

// Close releases the database pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying pool, primarily for the backup endpoint
// and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// httpClient is the process-wide client used to crawl submissions.
var httpClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		DialContext:       (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		ForceAttemptHTTP2: true,
	},
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after 10 redirects")
		}
		return nil
	},
}

const botUserAgent = "Mozilla/5.0 (compatible; Urlsbot/0.1.0; +https://urls.fyi/bot.html)"

// Timestamps are stored as UTC unix nanoseconds so that SQL range
// comparisons stay plain integer comparisons.
func timeToDB(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func timeFromDB(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// Writes that race a prior existence check rely on this to surface the
// domain error instead of a raw driver error.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS roles (
	id TEXT PRIMARY KEY NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	user_id TEXT NOT NULL REFERENCES users(id),
	permission TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS invites (
	id TEXT PRIMARY KEY NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	token TEXT NOT NULL UNIQUE,
	created_by TEXT NOT NULL REFERENCES users(id),
	claimed_by TEXT REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS logins (
	id TEXT PRIMARY KEY NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	user_id TEXT NOT NULL REFERENCES users(id),
	email_token TEXT NOT NULL,
	claim_until INTEGER NOT NULL,
	claimed INTEGER NOT NULL DEFAULT 0,
	session_token TEXT,
	last_used INTEGER NOT NULL,
	last_user_agent TEXT,
	revoked INTEGER NOT NULL DEFAULT 0,
	last_remote_ip TEXT
);

CREATE INDEX IF NOT EXISTS logins_session_token ON logins(session_token);

CREATE TABLE IF NOT EXISTS urls (
	id TEXT PRIMARY KEY NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	url TEXT NOT NULL UNIQUE,
	status_code INTEGER NOT NULL,
	title TEXT,
	description TEXT,
	image TEXT,
	created_by TEXT NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS url_upvotes (
	url_id TEXT NOT NULL REFERENCES urls(id),
	user_id TEXT NOT NULL REFERENCES users(id),
	created_at INTEGER NOT NULL,
	PRIMARY KEY (url_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	comment TEXT NOT NULL,
	url_id TEXT NOT NULL REFERENCES urls(id),
	created_by TEXT NOT NULL REFERENCES users(id),
	replies_to TEXT REFERENCES comments(id)
);
`

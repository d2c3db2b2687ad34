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

// Package id implements typed random identifiers.
//
// Identifiers are 21 characters of the URL-safe nanoid alphabet and
// carry roughly 126 bits of entropy, which makes them unguessable and
// safe to hand out to clients. The kind tag is a type parameter, so an
// identifier for one entity can never be passed where an identifier
// for another entity is expected.
package id

import (
	"database/sql/driver"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Size is the length of every identifier.
const Size = 21

// ErrInvalidID is returned when a string is not a well-formed identifier.
var ErrInvalidID = errors.New("an ID must be exactly 21 URL-safe characters")

// Kind tags. These carry no data, they only exist to make identifiers
// of different entities distinct types.
type (
	KindUser    struct{}
	KindLogin   struct{}
	KindRole    struct{}
	KindInvite  struct{}
	KindURL     struct{}
	KindComment struct{}
)

// Kind is the closed set of identifier tags.
type Kind interface {
	KindUser | KindLogin | KindRole | KindInvite | KindURL | KindComment
}

// ID is a typed random identifier. The zero value is invalid and
// reports true from IsZero.
type ID[K Kind] struct {
	value string
}

// New generates a fresh random identifier.
func New[K Kind]() ID[K] {
	value, err := gonanoid.New(Size)
	if err != nil {
		// gonanoid only fails when the system CSPRNG does, at
		// which point there is nothing sensible left to do.
		panic(fmt.Sprintf("id: failed to read random bytes: %v", err))
	}
	return ID[K]{value: value}
}

// Parse converts a string to an identifier. It fails with ErrInvalidID
// if the string has the wrong length or contains bytes outside the
// nanoid alphabet.
func Parse[K Kind](s string) (ID[K], error) {
	if len(s) != Size {
		return ID[K]{}, ErrInvalidID
	}
	for i := 0; i < len(s); i++ {
		if !alphabet[s[i]] {
			return ID[K]{}, ErrInvalidID
		}
	}
	return ID[K]{value: s}, nil
}

var alphabet = func() [256]bool {
	var ok [256]bool
	for c := byte('a'); c <= 'z'; c++ {
		ok[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		ok[c] = true
	}
	for c := byte('0'); c <= '9'; c++ {
		ok[c] = true
	}
	ok['-'] = true
	ok['_'] = true
	return ok
}()

// String returns the identifier in its wire form.
func (i ID[K]) String() string {
	return i.value
}

// Bytes returns the identifier as raw bytes.
func (i ID[K]) Bytes() []byte {
	return []byte(i.value)
}

// IsZero reports whether the identifier is the (invalid) zero value.
func (i ID[K]) IsZero() bool {
	return i.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (i ID[K]) MarshalText() ([]byte, error) {
	return []byte(i.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Inputs are
// validated, a malformed identifier is rejected here at the edge.
func (i *ID[K]) UnmarshalText(text []byte) error {
	parsed, err := Parse[K](string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer, identifiers are stored as TEXT.
func (i ID[K]) Value() (driver.Value, error) {
	return i.value, nil
}

// Scan implements sql.Scanner.
func (i *ID[K]) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into an ID", src)
	}
}

// Concrete identifier types for the domain entities.
type (
	UserID    = ID[KindUser]
	LoginID   = ID[KindLogin]
	RoleID    = ID[KindRole]
	InviteID  = ID[KindInvite]
	URLID     = ID[KindURL]
	CommentID = ID[KindComment]
)

// NewUserID generates a fresh user identifier.
func NewUserID() UserID { return New[KindUser]() }

// NewLoginID generates a fresh login identifier.
func NewLoginID() LoginID { return New[KindLogin]() }

// NewRoleID generates a fresh role identifier.
func NewRoleID() RoleID { return New[KindRole]() }

// NewInviteID generates a fresh invite identifier.
func NewInviteID() InviteID { return New[KindInvite]() }

// NewURLID generates a fresh url identifier.
func NewURLID() URLID { return New[KindURL]() }

// NewCommentID generates a fresh comment identifier.
func NewCommentID() CommentID { return New[KindComment]() }

// ParseUserID parses a user identifier.
func ParseUserID(s string) (UserID, error) { return Parse[KindUser](s) }

// ParseLoginID parses a login identifier.
func ParseLoginID(s string) (LoginID, error) { return Parse[KindLogin](s) }

// ParseRoleID parses a role identifier.
func ParseRoleID(s string) (RoleID, error) { return Parse[KindRole](s) }

// ParseInviteID parses an invite identifier.
func ParseInviteID(s string) (InviteID, error) { return Parse[KindInvite](s) }

// ParseURLID parses a url identifier.
func ParseURLID(s string) (URLID, error) { return Parse[KindURL](s) }

// ParseCommentID parses a comment identifier.
func ParseCommentID(s string) (CommentID, error) { return Parse[KindComment](s) }

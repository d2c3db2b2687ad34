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

package id

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	a := NewUserID()
	b := NewUserID()

	if a == b {
		t.Fatalf("two fresh IDs must not be equal: '%s'", a)
	}
	if a.IsZero() || b.IsZero() {
		t.Fatal("fresh IDs must not be zero")
	}
	if len(a.String()) != Size {
		t.Fatalf("generated ID has wrong length, expected: %d, got %d", Size, len(a.String()))
	}
}

func TestParse(t *testing.T) {
	vectors := []struct {
		value string
		valid bool
	}{
		{"", false},
		{"short", false},
		{strings.Repeat("a", 20), false},
		{strings.Repeat("a", 21), true},
		{strings.Repeat("a", 22), false},
		{strings.Repeat("a", 100), false},
		{"abcDEF123-_abcDEF1234", true},
		{"abcDEF123-_abcDEF123!", false},
		{"abcDEF123 . abcDEF123", false},
		{"äbcDEF123-_abcDEF1234", false},
	}
	for _, vector := range vectors {
		_, err := ParseUserID(vector.value)
		if vector.valid {
			if err != nil {
				t.Fatalf("parsing '%s' should work: %v", vector.value, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidID) {
				t.Fatalf("parsing '%s' should fail with ErrInvalidID, got: %v", vector.value, err)
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	before := NewURLID()
	after, err := ParseURLID(before.String())
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if before != after {
		t.Fatalf("round trip failed, expected: '%s', got '%s'", before, after)
	}
}

func TestSQLRoundTrip(t *testing.T) {
	before := NewInviteID()
	value, err := before.Value()
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	var after InviteID
	if err = after.Scan(value); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if before != after {
		t.Fatalf("sql round trip failed, expected: '%s', got '%s'", before, after)
	}

	var bogus InviteID
	if err = bogus.Scan("not-an-id"); err == nil {
		t.Fatal("scanning a malformed ID should fail")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	before := NewCommentID()
	encoded, err := json.Marshal(before)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	var after CommentID
	if err = json.Unmarshal(encoded, &after); err != nil {
		t.Fatal("unexpected error:", err)
	}
	if before != after {
		t.Fatalf("json round trip failed, expected: '%s', got '%s'", before, after)
	}

	var bogus CommentID
	if err = json.Unmarshal([]byte(`"?"`), &bogus); err == nil {
		t.Fatal("unmarshaling a malformed ID should fail")
	}
}

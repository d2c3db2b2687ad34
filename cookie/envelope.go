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

// Package cookie implements signed, detached session envelopes and the
// XSRF double-submit token.
//
// An envelope is a pair of payload and signature, where the payload
// encodes a value together with an expiry instant and the signature is
// an HMAC-SHA256 over the payload bytes. A well-formed envelope proves
// the server authored the value, it does not prove the value still
// refers to live server-side state.
package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	// SessionCookieName carries the signed session envelope.
	SessionCookieName = "session"
	// XSRFCookieName carries the double-submit token.
	XSRFCookieName = "xsrf"
	// SessionCookieMaxAge matches the sliding session TTL of 90 days.
	SessionCookieMaxAge = 90 * 24 * 60 * 60
)

var (
	// ErrMalformed is returned when an envelope cannot be decoded.
	ErrMalformed = errors.New("malformed envelope")
	// ErrBadSignature is returned when the signature does not verify.
	ErrBadSignature = errors.New("invalid envelope signature")
	// ErrExpired is returned when the envelope's expiry has passed.
	ErrExpired = errors.New("envelope is expired")
)

type payload struct {
	Value   json.RawMessage `json:"v"`
	Expires int64           `json:"e"`
}

// Value is a detached payload/signature pair. The transport form is
// base64-rawurl of both halves joined with a dot.
type Value struct {
	payload   []byte
	signature []byte
}

func (v *Value) String() string {
	return base64.RawURLEncoding.EncodeToString(v.payload) + "." + base64.RawURLEncoding.EncodeToString(v.signature)
}

func (v *Value) FromString(encoded string) (err error) {
	parts := strings.SplitN(encoded, ".", 2)
	if len(parts) != 2 {
		return ErrMalformed
	}
	if parts[0] == "" || parts[1] == "" {
		return ErrMalformed
	}
	v.payload, err = base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return ErrMalformed
	}
	v.signature, err = base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ErrMalformed
	}
	return
}

func sign(payload, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return mac.Sum(nil)
}

// Seal encodes value and expiry into a signed envelope. The key is
// process-wide and may have any length.
func Seal(value any, expires time.Time, key []byte) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(payload{Value: raw, Expires: expires.Unix()})
	if err != nil {
		return "", err
	}
	v := Value{payload: encoded, signature: sign(encoded, key)}
	return v.String(), nil
}

// Open verifies and decodes an envelope into value. It fails with
// ErrMalformed on any decode error, ErrBadSignature if the MAC does
// not verify and ErrExpired if the expiry instant has passed.
func Open(encoded string, key []byte, now time.Time, value any) error {
	var v Value
	if err := v.FromString(encoded); err != nil {
		return err
	}
	if !hmac.Equal(v.signature, sign(v.payload, key)) {
		return ErrBadSignature
	}
	var p payload
	if err := json.Unmarshal(v.payload, &p); err != nil {
		return ErrMalformed
	}
	if now.After(time.Unix(p.Expires, 0)) {
		return ErrExpired
	}
	if err := json.Unmarshal(p.Value, value); err != nil {
		return ErrMalformed
	}
	return nil
}

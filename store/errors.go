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
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means the operation needs a logged-in viewer.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotAuthorized means the viewer lacks the required capability.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLoginRateLimited means too many login codes were requested
	// within the rate window.
	ErrLoginRateLimited = errors.New("too many login attempts, try again later")
	// ErrQuotaExceeded means the viewer has used up their invite quota.
	ErrQuotaExceeded = errors.New("invite quota exceeded")

	// ErrInvalidToken means no pending login matches the submitted code.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAlreadyClaimed means the login or invite was claimed before.
	ErrAlreadyClaimed = errors.New("already claimed")
	// ErrClaimExpired means the login code was submitted after its
	// claim window closed.
	ErrClaimExpired = errors.New("claim window expired")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionRevoked  = errors.New("session revoked")
	ErrSessionPending  = errors.New("session not yet claimed")

	// ErrDuplicateURL means the canonical form of the submission is
	// already known.
	ErrDuplicateURL = errors.New("url has already been submitted")
	// ErrXSRFMismatch means the request carried a wrong or missing
	// cross-site request forgery token.
	ErrXSRFMismatch = errors.New("xsrf token mismatch")
	// ErrInvalidInput is the base of all validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

func invalidInput(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, a...))
}

// FetchError reports a non-success status while crawling a submission.
type FetchError struct {
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load url, got status %d", e.StatusCode)
}

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
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Abuse and lifetime policy of the trust plane.
const (
	// MaxInvitesPerUser caps outstanding invitations for users without
	// the unlimited-invites capability.
	MaxInvitesPerUser = 3
	// LoginLimitPerHour caps login-code requests per user and hour.
	LoginLimitPerHour = 3
	// LoginClaimWindow is how long a login code stays claimable.
	LoginClaimWindow = time.Hour
	// SessionSlidingTTL is the inactivity window after which a claimed
	// session expires. Every authenticated request slides it forward.
	SessionSlidingTTL = 90 * 24 * time.Hour

	EmailTokenLen   = 12
	SessionTokenLen = 64
	InviteTokenLen  = 32
)

const alnumAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// alnumToken returns a random alphanumeric token. Alphanumeric tokens
// are used where the token travels through email or urls and must stay
// selectable as a single word.
func alnumToken(n int) string {
	token, err := gonanoid.Generate(alnumAlphabet, n)
	if err != nil {
		panic("store: failed to read random bytes: " + err.Error())
	}
	return token
}

// urlSafeToken returns a random token over the url-safe nanoid
// alphabet.
func urlSafeToken(n int) string {
	token, err := gonanoid.New(n)
	if err != nil {
		panic("store: failed to read random bytes: " + err.Error())
	}
	return token
}

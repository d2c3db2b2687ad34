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

// Package disposable knows about disposable email providers and common
// email address normalization heuristics.
package disposable

import (
	_ "embed"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

//go:embed domains.txt
var domainsTxt string

var builtin = func() map[string]struct{} {
	domains := make(map[string]struct{})
	for _, line := range strings.Split(domainsTxt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			domains[line] = struct{}{}
		}
	}
	return domains
}()

var (
	extraMu sync.RWMutex
	extra   map[string]struct{}
)

// IsDisposable determines if the email address belongs to a known
// disposable email provider.
func IsDisposable(email string) bool {
	host := email
	if at := strings.LastIndexByte(email, '@'); at >= 0 {
		host = email[at+1:]
	}
	host = strings.ToLower(host)
	if _, ok := builtin[host]; ok {
		return true
	}
	extraMu.RLock()
	defer extraMu.RUnlock()
	_, ok := extra[host]
	return ok
}

// Normalize normalizes email addresses using a set of heuristics about
// common email providers.
func Normalize(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at >= 0 && strings.EqualFold(email[at+1:], "gmail.com") {
		// https://support.google.com/mail/answer/7436150
		user := strings.ReplaceAll(email[:at], ".", "")
		return strings.ToLower(user) + "@gmail.com"
	}
	return strings.ToLower(email)
}

func loadExtra(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	domains := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			domains[strings.ToLower(line)] = struct{}{}
		}
	}
	extraMu.Lock()
	extra = domains
	extraMu.Unlock()
	return nil
}

// WatchExtraDomains loads an operator-supplied blocklist file and
// reloads it whenever the file changes.
func WatchExtraDomains(path string, infoLog *log.Logger) error {
	if err := loadExtra(path); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				infoLog.Printf("disposable: error watching blocklist: %v", err)
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if err := loadExtra(path); err != nil {
					infoLog.Printf("disposable: failed to reload blocklist: %v", err)
					continue
				}
				infoLog.Printf("disposable: reloaded blocklist from '%s'", path)
			}
		}
	}()
	return w.Add(path)
}

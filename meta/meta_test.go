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

package meta

import (
	"strings"
	"testing"
)

func TestParseOpenGraph(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
  <title>Plain Title</title>
  <meta property="og:title" content="OG Title">
  <meta property="og:description" content="A description.">
  <meta property="og:image" content="https://example.com/img.png">
</head>
<body>ignored</body>
</html>`

	m := Parse(strings.NewReader(page))
	if m.Title != "OG Title" {
		t.Fatalf("title extraction failed, expected: 'OG Title', got '%s'", m.Title)
	}
	if m.Description != "A description." {
		t.Fatalf("description extraction failed, got '%s'", m.Description)
	}
	if m.Image != "https://example.com/img.png" {
		t.Fatalf("image extraction failed, got '%s'", m.Image)
	}
}

func TestParseTitleFallback(t *testing.T) {
	page := `<html><head><title>  Fallback  </title></head><body></body></html>`
	m := Parse(strings.NewReader(page))
	if m.Title != "Fallback" {
		t.Fatalf("title fallback failed, got '%s'", m.Title)
	}
}

func TestParseOverrideOrder(t *testing.T) {
	// og properties win even when the plain title comes first
	page := `<head><title>Plain</title><meta name="twitter:title" content="Twitter"></head>`
	m := Parse(strings.NewReader(page))
	if m.Title != "Twitter" {
		t.Fatalf("twitter:title should override the plain title, got '%s'", m.Title)
	}

	// a later plain title never overrides
	page = `<head><meta property="og:title" content="OG"><title>Plain</title></head>`
	m = Parse(strings.NewReader(page))
	if m.Title != "OG" {
		t.Fatalf("a plain title must not override og:title, got '%s'", m.Title)
	}
}

func TestParseStopsAtBody(t *testing.T) {
	page := `<head></head><body><meta property="og:title" content="Too Late"></body>`
	m := Parse(strings.NewReader(page))
	if m.Title != "" {
		t.Fatalf("tags after the head must be ignored, got '%s'", m.Title)
	}
}

func TestParseEmptyAndGarbage(t *testing.T) {
	if m := Parse(strings.NewReader("")); m.Title != "" || m.Description != "" || m.Image != "" {
		t.Fatal("empty input must produce empty metadata")
	}
	if m := Parse(strings.NewReader("<<<>>>% not html at all")); m == nil {
		t.Fatal("garbage input must still return metadata")
	}
}

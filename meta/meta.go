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

// Package meta extracts page metadata from streamed HTML.
package meta

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Meta holds the metadata extracted from an HTML page.
type Meta struct {
	Title       string
	Description string
	Image       string
}

// Parse reads HTML from r and extracts title, description and image.
// Open-graph and twitter card properties override the plain <title>
// tag, the plain <title> only fills the title while it is unset.
// Parsing stops at the end of the head or when the stream ends; read
// errors terminate parsing and whatever was extracted so far is
// returned.
func Parse(r io.Reader) *Meta {
	m := &Meta{}
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return m
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "meta":
				m.applyMetaTag(z, hasAttr)
			case "title":
				if m.Title == "" {
					if z.Next() == html.TextToken {
						m.Title = strings.TrimSpace(string(z.Text()))
					}
				}
			case "body":
				return m
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "head" {
				return m
			}
		}
	}
}

func (m *Meta) applyMetaTag(z *html.Tokenizer, hasAttr bool) {
	var name, content string
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		switch string(key) {
		case "name", "property":
			name = strings.ToLower(string(val))
		case "content":
			content = string(val)
		}
	}
	if content == "" {
		return
	}
	switch name {
	case "og:title", "twitter:title":
		m.Title = content
	case "og:description", "twitter:description":
		m.Description = content
	case "og:image", "twitter:image", "twitter:image:src":
		m.Image = content
	}
}

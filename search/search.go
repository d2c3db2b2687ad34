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

// Package search indexes submission titles and descriptions. The index
// itself lives in memory, documents are persisted through a pluggable
// backend so the index survives restarts.
package search

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
)

// Document is one indexed submission.
type Document struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Backend persists indexed documents.
type Backend interface {
	Put(doc Document) error
	Delete(id string) error
	List() ([]Document, error)
	Close() error
}

// Config selects and configures the index backend.
type Config struct {
	InMemory *InMemoryBackendConfig `yaml:"in-memory"`
	Bolt     *BoltBackendConfig     `yaml:"bolt"`
}

// Index answers substring-ish queries over indexed documents.
type Index struct {
	backend Backend
	infoLog *log.Logger
	dbgLog  *log.Logger

	mu     sync.RWMutex
	tokens map[string]map[string]struct{}
}

// NewIndex initializes the index and loads persisted documents from
// the configured backend.
func NewIndex(conf *Config, infoLog, dbgLog *log.Logger) (*Index, error) {
	if infoLog == nil {
		infoLog = log.New(io.Discard, "", 0)
	}
	if dbgLog == nil {
		dbgLog = log.New(io.Discard, "", 0)
	}

	ix := &Index{infoLog: infoLog, dbgLog: dbgLog, tokens: make(map[string]map[string]struct{})}

	var err error
	if conf != nil && conf.Bolt != nil {
		ix.backend, err = NewBoltBackend(conf.Bolt)
	} else {
		var memConf *InMemoryBackendConfig
		if conf != nil {
			memConf = conf.InMemory
		}
		ix.backend, err = NewInMemoryBackend(memConf)
	}
	if err != nil {
		ix.infoLog.Printf("search: failed to initialize backend: %v", err)
		return nil, err
	}

	docs, err := ix.backend.List()
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		ix.addTokens(doc)
	}
	ix.infoLog.Printf("search: successfully initialized (%d documents loaded)", len(docs))
	return ix, nil
}

// Close releases the backend.
func (ix *Index) Close() error {
	return ix.backend.Close()
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	return fields
}

func (ix *Index) addTokens(doc Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, token := range tokenize(doc.Title + " " + doc.Description) {
		ids, ok := ix.tokens[token]
		if !ok {
			ids = make(map[string]struct{})
			ix.tokens[token] = ids
		}
		ids[doc.ID] = struct{}{}
	}
}

func (ix *Index) removeTokens(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for token, ids := range ix.tokens {
		delete(ids, id)
		if len(ids) == 0 {
			delete(ix.tokens, token)
		}
	}
}

// IndexURL adds or replaces a document.
func (ix *Index) IndexURL(id, title, description string) error {
	doc := Document{ID: id, Title: title, Description: description}
	if err := ix.backend.Put(doc); err != nil {
		return fmt.Errorf("search: failed to persist document: %w", err)
	}
	ix.removeTokens(id)
	ix.addTokens(doc)
	ix.dbgLog.Printf("search: indexed document('%s')", id)
	return nil
}

// Remove drops a document from the index.
func (ix *Index) Remove(id string) error {
	if err := ix.backend.Delete(id); err != nil {
		return fmt.Errorf("search: failed to delete document: %w", err)
	}
	ix.removeTokens(id)
	ix.dbgLog.Printf("search: removed document('%s')", id)
	return nil
}

// Find returns the IDs of all documents matching every query token by
// prefix, ordered deterministically.
func (ix *Index) Find(query string, offset, limit int) ([]string, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	ix.mu.RLock()
	var matches map[string]struct{}
	for _, term := range terms {
		termIDs := make(map[string]struct{})
		for token, ids := range ix.tokens {
			if !strings.HasPrefix(token, term) {
				continue
			}
			for id := range ids {
				termIDs[id] = struct{}{}
			}
		}
		if matches == nil {
			matches = termIDs
			continue
		}
		for id := range matches {
			if _, ok := termIDs[id]; !ok {
				delete(matches, id)
			}
		}
	}
	ix.mu.RUnlock()

	result := make([]string, 0, len(matches))
	for id := range matches {
		result = append(result, id)
	}
	sort.Strings(result)

	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

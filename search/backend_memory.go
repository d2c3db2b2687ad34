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

package search

import "sync"

type InMemoryBackendConfig struct {
}

// InMemoryBackend keeps documents in process memory only. Suitable for
// development and tests.
type InMemoryBackend struct {
	mutex sync.RWMutex
	docs  map[string]Document
}

func NewInMemoryBackend(conf *InMemoryBackendConfig) (*InMemoryBackend, error) {
	return &InMemoryBackend{docs: make(map[string]Document)}, nil
}

func (b *InMemoryBackend) Put(doc Document) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.docs[doc.ID] = doc
	return nil
}

func (b *InMemoryBackend) Delete(id string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.docs, id)
	return nil
}

func (b *InMemoryBackend) List() (list []Document, err error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	for _, doc := range b.docs {
		list = append(list, doc)
	}
	return
}

func (b *InMemoryBackend) Close() error {
	return nil
}

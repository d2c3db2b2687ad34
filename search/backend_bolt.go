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

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const BoltDocumentsBucket = "documents"

type BoltBackendConfig struct {
	Path string `yaml:"path"`
}

// BoltBackend persists documents in a bbolt database file.
type BoltBackend struct {
	db *bolt.DB
}

func NewBoltBackend(conf *BoltBackendConfig) (*BoltBackend, error) {
	db, err := bolt.Open(conf.Path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		if err == bolt.ErrTimeout {
			return nil, fmt.Errorf("failed to acquire exclusive-lock for bolt-database: %s", conf.Path)
		}
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BoltDocumentsBucket))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Put(doc Document) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		docs := tx.Bucket([]byte(BoltDocumentsBucket))
		if docs == nil {
			return fmt.Errorf("database is corrupt: 'documents' bucket does not exist")
		}
		value, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		return docs.Put([]byte(doc.ID), value)
	})
}

func (b *BoltBackend) Delete(id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		docs := tx.Bucket([]byte(BoltDocumentsBucket))
		if docs == nil {
			return fmt.Errorf("database is corrupt: 'documents' bucket does not exist")
		}
		return docs.Delete([]byte(id))
	})
}

func (b *BoltBackend) List() (list []Document, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		docs := tx.Bucket([]byte(BoltDocumentsBucket))
		if docs == nil {
			return fmt.Errorf("database is corrupt: 'documents' bucket does not exist")
		}
		return docs.ForEach(func(_, value []byte) error {
			var doc Document
			if err := json.Unmarshal(value, &doc); err != nil {
				return err
			}
			list = append(list, doc)
			return nil
		})
	})
	return
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}

// Copyright 2026 The AgentDeck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tokenstore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/agentdeck/deckctl/internal/observability/logger"
)

const (
	credentialsFile = "credentials"
	keyFile         = "credentials.key"
)

// File is a Store persisted under the user's config directory. Values
// are sealed at rest with XChaCha20-Poly1305 under a random key held in
// a sibling 0600 keyfile. When the medium fails (read-only filesystem,
// quota, missing home), the store keeps serving from memory for the
// rest of the process.
type File struct {
	mu       sync.Mutex
	fs       afero.Fs
	path     string
	keyPath  string
	aead     cipher.AEAD
	cache    map[string]string
	degraded bool
}

// NewFile opens (or creates) the token file in dir. It never fails:
// an unusable medium produces a store already degraded to memory-only.
func NewFile(fs afero.Fs, dir string) *File {
	f := &File{
		fs:      fs,
		path:    filepath.Join(dir, credentialsFile),
		keyPath: filepath.Join(dir, keyFile),
		cache:   make(map[string]string),
	}
	if err := f.open(dir); err != nil {
		f.degrade(err)
	}
	return f
}

func (f *File) open(dir string) error {
	if err := f.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token store dir: %w", err)
	}

	key, err := afero.ReadFile(f.fs, f.keyPath)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		key = make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("generating token store key: %w", err)
		}
		if err := afero.WriteFile(f.fs, f.keyPath, key, 0o600); err != nil {
			return fmt.Errorf("writing token store key: %w", err)
		}
	}

	f.aead, err = chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("initializing token store cipher: %w", err)
	}

	sealed, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		// Missing file is a fresh store
		return nil
	}
	plain, err := f.unseal(sealed)
	if err != nil {
		// Corrupt or foreign-keyed file behaves as absent
		slog.Warn("token store unreadable, starting empty", logger.Error(err))
		return nil
	}
	if err := json.Unmarshal(plain, &f.cache); err != nil {
		slog.Warn("token store corrupt, starting empty", logger.Error(err))
		f.cache = make(map[string]string)
	}
	return nil
}

func (f *File) Put(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache[key] = value
	return f.persist()
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.cache[key]
	return v, ok
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, key)
	return f.persist()
}

// Degraded reports whether the store has fallen back to memory-only
func (f *File) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

// persist flushes the cache to disk. Callers hold f.mu.
func (f *File) persist() error {
	if f.degraded {
		return nil
	}
	plain, err := json.Marshal(f.cache)
	if err != nil {
		return fmt.Errorf("encoding token store: %w", err)
	}
	sealed, err := f.seal(plain)
	if err != nil {
		f.degrade(err)
		return err
	}
	if err := afero.WriteFile(f.fs, f.path, sealed, 0o600); err != nil {
		err = fmt.Errorf("writing token store: %w", err)
		f.degrade(err)
		return err
	}
	return nil
}

func (f *File) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return f.aead.Seal(nonce, nonce, plain, nil), nil
}

func (f *File) unseal(sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("sealed payload too short")
	}
	nonce, box := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	return f.aead.Open(nil, nonce, box, nil)
}

// degrade flips the store to memory-only. Sticky for the process; the
// next run retries the medium at construction.
func (f *File) degrade(err error) {
	if f.degraded {
		return
	}
	f.degraded = true
	slog.Warn("token store degraded to in-memory operation", logger.Error(err))
}

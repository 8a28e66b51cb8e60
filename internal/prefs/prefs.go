// Package prefs persists non-secret UI state (such as the current
// workspace selection) in a viper-managed YAML file under the user's
// config directory. Medium failures degrade to in-memory operation,
// mirroring the token store's contract.
package prefs

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/agentdeck/deckctl/internal/observability/logger"
)

const stateFile = "state.yaml"

// Store is a durable string key/value store for UI state. The empty
// string is treated as absent, so Delete is Set("").
type Store struct {
	mu       sync.Mutex
	fs       afero.Fs
	v        *viper.Viper
	dir      string
	path     string
	degraded bool
}

// New opens (or creates) the state file in dir. Never fails; an
// unreadable file starts empty, an unwritable medium degrades to
// memory on the first write.
func New(fs afero.Fs, dir string) *Store {
	v := viper.New()
	v.SetFs(fs)
	path := filepath.Join(dir, stateFile)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	s := &Store{fs: fs, v: v, dir: dir, path: path}
	if ok, _ := afero.Exists(fs, path); ok {
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("state file unreadable, starting empty", logger.Error(err))
		}
	}
	return s
}

// Get returns the value for key, with ok=false when absent
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val := s.v.GetString(key)
	return val, val != ""
}

// Set writes key=value and flushes the file
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
	return s.save()
}

// Delete removes key and flushes the file
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, "")
	return s.save()
}

// save flushes to disk. Callers hold s.mu.
func (s *Store) save() error {
	if s.degraded {
		return nil
	}
	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return s.fail(fmt.Errorf("creating state dir: %w", err))
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return s.fail(fmt.Errorf("writing state file: %w", err))
	}
	return nil
}

func (s *Store) fail(err error) error {
	s.degraded = true
	slog.Warn("state store degraded to in-memory operation", logger.Error(err))
	return err
}

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

// Package tenant holds the set of workspaces visible to the current
// identity and exactly one current selection. Only the selection id is
// persisted; the list is refetched from the backend. A persisted id is
// a hint, applied only once ReplaceAll confirms it is still valid.
package tenant

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/agentdeck/deckctl/internal/observability/logger"
)

// Context is the in-memory workspace set plus the current selection.
// One instance per process; every exported operation is atomic.
type Context struct {
	mu        sync.Mutex
	state     StateStore
	tenants   map[string]Tenant
	currentID string
}

// NewContext creates an empty workspace context backed by the given
// state store. The persisted selection is not applied here; it waits
// for the first ReplaceAll to confirm it still exists.
func NewContext(state StateStore) *Context {
	return &Context{
		state:   state,
		tenants: make(map[string]Tenant),
	}
}

// ReplaceAll swaps in the full workspace set after a successful list
// fetch. An in-memory selection that vanished from the set is cleared.
// The persisted hint is applied only when no selection is active and
// the hinted workspace is still present; a stale hint is discarded
// durably so it cannot resurface on the next start.
func (c *Context) ReplaceAll(tenants []Tenant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tenants = make(map[string]Tenant, len(tenants))
	for _, t := range tenants {
		c.tenants[t.ID] = t
	}

	if c.currentID != "" {
		if _, ok := c.tenants[c.currentID]; !ok {
			c.currentID = ""
		}
	}

	hint, ok := c.state.Get(StateKeyCurrentWorkspace)
	if !ok || hint == "" {
		return
	}
	if _, present := c.tenants[hint]; !present {
		if err := c.state.Delete(StateKeyCurrentWorkspace); err != nil {
			slog.Warn("failed to discard stale workspace hint", logger.Error(err))
		}
		return
	}
	if c.currentID == "" {
		c.currentID = hint
	}
}

// Select makes the workspace with the given id current and persists the
// choice. Selecting an id that is not in the set is a no-op and returns
// ErrTenantNotFound.
func (c *Context) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tenants[id]; !ok {
		return ErrTenantNotFound
	}
	c.currentID = id
	if err := c.state.Set(StateKeyCurrentWorkspace, id); err != nil {
		slog.Warn("failed to persist workspace selection", logger.Error(err))
	}
	return nil
}

// UpsertOne adds or updates a single workspace without a full refetch,
// used after create and update operations.
func (c *Context) UpsertOne(t Tenant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenants[t.ID] = t
}

// RemoveOne removes a workspace from the set. When the removed
// workspace was the current selection, the selection (and its persisted
// hint) is cleared and removedCurrent is true: the caller must decide
// the replacement, because the right fallback is a product decision.
func (c *Context) RemoveOne(id string) (removedCurrent bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.tenants, id)
	if c.currentID != id {
		return false
	}
	c.currentID = ""
	if err := c.state.Delete(StateKeyCurrentWorkspace); err != nil {
		slog.Warn("failed to clear persisted workspace selection", logger.Error(err))
	}
	return true
}

// Current returns the selected workspace, if any
func (c *Context) Current() (Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tenants[c.currentID]
	return t, ok && c.currentID != ""
}

// CurrentID returns the selected workspace id, or empty
func (c *Context) CurrentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

// List returns the workspaces sorted by name for display. Ordering is
// significant only here.
func (c *Context) List() []Tenant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortedLocked()
}

// Search returns the workspaces whose name or id contains the query,
// case-insensitively. An empty query returns everything.
func (c *Context) Search(query string) []Tenant {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := c.sortedLocked()
	if query == "" {
		return all
	}
	q := strings.ToLower(query)
	matches := all[:0]
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.ID), q) {
			matches = append(matches, t)
		}
	}
	return matches
}

// sortedLocked returns a fresh slice sorted by name, then id for a
// stable order between equal names. Callers hold c.mu.
func (c *Context) sortedLocked() []Tenant {
	out := make([]Tenant, 0, len(c.tenants))
	for _, t := range c.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

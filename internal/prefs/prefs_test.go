package prefs

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefs_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/cfg")

	_, ok := s.Get("current_workspace")
	assert.False(t, ok)

	require.NoError(t, s.Set("current_workspace", "ws-1"))
	got, ok := s.Get("current_workspace")
	assert.True(t, ok)
	assert.Equal(t, "ws-1", got)

	require.NoError(t, s.Delete("current_workspace"))
	_, ok = s.Get("current_workspace")
	assert.False(t, ok)
}

func TestPrefs_PersistsAcrossReopen(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/cfg")
	require.NoError(t, s.Set("current_workspace", "ws-2"))

	reopened := New(fs, "/cfg")
	got, ok := reopened.Get("current_workspace")
	assert.True(t, ok)
	assert.Equal(t, "ws-2", got)
}

func TestPrefs_DegradesOnUnwritableMedium(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	s := New(fs, "/cfg")

	err := s.Set("current_workspace", "ws-1")
	assert.Error(t, err)

	// Memory still serves, and later writes stop reporting errors
	got, ok := s.Get("current_workspace")
	assert.True(t, ok)
	assert.Equal(t, "ws-1", got)
	assert.NoError(t, s.Set("current_workspace", "ws-2"))
}

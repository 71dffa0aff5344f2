package directory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLoadRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.yaml")
	ids := Generate(5, 11)

	require.NoError(t, WriteRoster(path, ids))

	roster, err := LoadRoster(path)
	require.NoError(t, err)
	assert.Equal(t, 5, roster.Len())

	got, ok := roster.Lookup(ids[0].EmployeeID)
	require.True(t, ok)
	assert.Equal(t, ids[0].Position, got.Position)
	assert.Equal(t, ids[0].ClearanceLevel, got.ClearanceLevel)
}

func TestLoadRosterRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.yaml")
	require.NoError(t, WriteRoster(path, nil))

	_, err := LoadRoster(path)
	assert.Error(t, err)
}

func TestNewRosterRejectsDuplicates(t *testing.T) {
	ids := Generate(1, 3)

	_, err := NewRoster(append(ids, ids[0]))
	assert.Error(t, err)
}

func TestReplaceSwapsContents(t *testing.T) {
	a, err := NewRoster(Generate(3, 1))
	require.NoError(t, err)
	b, err := NewRoster(Generate(5, 2))
	require.NoError(t, err)

	a.Replace(b)
	assert.Equal(t, 5, a.Len())
}

func TestWatcherReloadsChangedRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.yaml")
	require.NoError(t, WriteRoster(path, Generate(3, 1)))

	roster, err := LoadRoster(path)
	require.NoError(t, err)

	w := NewWatcher(path, roster, nil)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	require.NoError(t, WriteRoster(path, Generate(8, 2)))

	require.Eventually(t, func() bool {
		return roster.Len() == 8
	}, 3*time.Second, 25*time.Millisecond, "watcher should apply the new roster")

	cancel()
	<-done
}

func TestWatcherKeepsRosterOnInvalidReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.yaml")
	require.NoError(t, WriteRoster(path, Generate(3, 1)))

	roster, err := LoadRoster(path)
	require.NoError(t, err)

	w := NewWatcher(path, roster, nil)
	w.reload() // valid reload keeps size
	assert.Equal(t, 3, roster.Len())

	require.NoError(t, writeBadRoster(path))
	w.reload()
	assert.Equal(t, 3, roster.Len(), "invalid roster must not replace the current one")
}

func writeBadRoster(path string) error {
	ids := Generate(1, 1)
	ids[0].ClearanceLevel = 9
	return WriteRoster(path, ids)
}

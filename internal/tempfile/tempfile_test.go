package tempfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAllocator(t *testing.T) *Allocator {
	t.Helper()
	a, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestPath_UniqueWithExtension(t *testing.T) {
	a := newAllocator(t)

	p1 := a.Path(".pdf")
	p2 := a.Path("pdf")

	assert.NotEqual(t, p1, p2)
	assert.True(t, strings.HasSuffix(p1, ".pdf"))
	assert.True(t, strings.HasSuffix(p2, ".pdf"))
	assert.Equal(t, a.Dir(), filepath.Dir(p1))
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "scratch")
	a, err := New(dir, nil)
	require.NoError(t, err)
	defer a.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRemove_Idempotent(t *testing.T) {
	a := newAllocator(t)
	path := a.Path(".txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.NoError(t, Remove(path))
	assert.NoError(t, Remove(path))
	assert.NoError(t, Remove(""))
}

func TestScheduleCleanup_RemovesAfterDelay(t *testing.T) {
	a := newAllocator(t)
	path := a.Path(".md")
	require.NoError(t, os.WriteFile(path, []byte("# hi"), 0o644))

	a.ScheduleCleanup(path, 10*time.Millisecond)
	assert.Equal(t, 1, a.Pending())

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return a.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestScheduleCleanup_AlreadyRemovedIsFine(t *testing.T) {
	a := newAllocator(t)
	path := a.Path(".md")

	a.ScheduleCleanup(path, time.Millisecond)
	assert.Eventually(t, func() bool { return a.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestScheduleCleanup_ReplacedTimerKeepsNewEntry(t *testing.T) {
	a := newAllocator(t)
	path := a.Path(".md")
	require.NoError(t, os.WriteFile(path, []byte("# hi"), 0o644))

	a.ScheduleCleanup(path, time.Hour)
	a.mu.Lock()
	stale := a.pending[path]
	a.mu.Unlock()
	a.ScheduleCleanup(path, time.Hour)

	// the replaced timer fires after losing the race with Stop
	a.expire(path, stale)
	assert.FileExists(t, path)
	assert.Equal(t, 1, a.Pending())

	a.mu.Lock()
	current := a.pending[path]
	a.mu.Unlock()
	a.expire(path, current)
	assert.NoFileExists(t, path)
	assert.Equal(t, 0, a.Pending())
}

func TestClose_RemovesPendingNow(t *testing.T) {
	a, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	path := a.Path(".docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	a.ScheduleCleanup(path, time.Hour)

	a.Close()

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, a.Pending())

	// after close, scheduling removes synchronously
	late := a.Path(".pdf")
	require.NoError(t, os.WriteFile(late, []byte("x"), 0o644))
	a.ScheduleCleanup(late, time.Hour)
	_, err = os.Stat(late)
	assert.True(t, os.IsNotExist(err))
}

func TestSweep_RemovesOldFilesOnly(t *testing.T) {
	a := newAllocator(t)

	oldPath := a.Path(".pdf")
	newPath := a.Path(".pdf")
	require.NoError(t, os.WriteFile(oldPath, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(newPath, []byte("new"), 0o644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	removed, err := a.Sweep(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newPath)
	assert.NoError(t, err)
}

package toolstore

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *changeRecorder) record(_ context.Context, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *changeRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func TestWatcherReportsCreatedUnit(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	rec := &changeRecorder{}
	w, err := NewWatcher(s, rec.record)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, s.Create(ctx, "fresh", []byte("package fresh")))
	require.NoError(t, os.WriteFile(s.Dir()+"/notes.txt", []byte("ignored"), 0644))

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) > 0
	}, 3*time.Second, 20*time.Millisecond)

	for _, name := range rec.snapshot() {
		assert.Equal(t, "fresh", name)
	}
}

func TestWatcherCoalescesRapidWrites(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	rec := &changeRecorder{}
	w, err := NewWatcher(s, rec.record)
	require.NoError(t, err)
	w.SetDebounce(200 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	path := s.Path("busy")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("package busy // edit"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"busy"}, rec.snapshot())
	assert.GreaterOrEqual(t, w.Stats().Events, 1)
}

func TestWatcherStopWithoutStart(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	w, err := NewWatcher(s, func(context.Context, string) {})
	require.NoError(t, err)
	assert.NotPanics(t, w.Stop)
}

func TestWatcherStartFailureReleasesWatcher(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDirStore(dir)
	require.NoError(t, err)
	w, err := NewWatcher(s, func(context.Context, string) {})
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))
	require.Error(t, w.Start(context.Background()))

	// A failed start leaves the watcher stopped and closed.
	require.Error(t, w.Start(context.Background()))
	assert.NotPanics(t, w.Stop)
}

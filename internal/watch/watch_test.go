package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New(Config{OnReady: func([]string) {}})
	assert.Error(t, err)

	_, err = New(Config{Dir: t.TempDir()})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New(Config{Dir: file, OnReady: func([]string) {}})
	assert.Error(t, err)
}

func TestWatcherReportsSettledVideos(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var got []string
	w, err := New(Config{
		Dir:    dir,
		Settle: 100 * time.Millisecond,
		OnReady: func(paths []string) {
			mu.Lock()
			got = append(got, paths...)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp4"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.MOV"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.ElementsMatch(t, []string{
		filepath.Join(w.Dir(), "a.MOV"),
		filepath.Join(w.Dir(), "b.mp4"),
	}, got)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestCollectWaitsForStableSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "growing.mov")
	require.NoError(t, os.WriteFile(path, []byte("ab"), 0o644))

	w := &Watcher{settle: time.Second, pending: map[string]pending{}}
	start := time.Now()
	w.pending[path] = pending{size: 1, changed: start}

	assert.Empty(t, w.collect(start.Add(2*time.Second)), "size changed")
	assert.Empty(t, w.collect(start.Add(2500*time.Millisecond)), "not settled yet")
	assert.Equal(t, []string{path}, w.collect(start.Add(3*time.Second)))
	assert.Empty(t, w.pending)

	w.pending[filepath.Join(dir, "gone.mov")] = pending{}
	assert.Empty(t, w.collect(start))
	assert.Empty(t, w.pending)
}

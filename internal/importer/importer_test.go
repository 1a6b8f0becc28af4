package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/videoloop/internal/probe"
)

type fakeProber struct {
	durations map[string]float64
	thumbs    int
}

func (f *fakeProber) Duration(_ context.Context, path string) (float64, error) {
	d, ok := f.durations[filepath.Base(path)]
	if !ok {
		return 0, errors.New("moov atom not found")
	}
	return d, nil
}

func (f *fakeProber) Thumbnail(context.Context, string) ([]byte, error) {
	f.thumbs++
	return []byte("png"), nil
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestImportFilesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "single.MOV"), 10)
	writeFile(t, filepath.Join(dir, "folder", "b.mp4"), 20)
	writeFile(t, filepath.Join(dir, "folder", "a.mkv"), 30)
	writeFile(t, filepath.Join(dir, "folder", "notes.txt"), 1)
	writeFile(t, filepath.Join(dir, "folder", "._a.mkv"), 1)
	writeFile(t, filepath.Join(dir, "folder", "nested", "deep.mov"), 1)

	prober := &fakeProber{durations: map[string]float64{
		"single.MOV": 3725,
		"a.mkv":      12.5,
	}}
	imp := New(Config{Prober: prober})

	jobs, err := imp.Import(context.Background(),
		filepath.Join(dir, "single.MOV"),
		filepath.Join(dir, "folder"),
	)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, "single.MOV", jobs[0].Name)
	assert.Equal(t, int64(10), jobs[0].Size)
	assert.Equal(t, 3725.0, jobs[0].DurationSeconds)
	assert.Equal(t, "01:02:05", jobs[0].Duration)
	assert.Equal(t, []byte("png"), jobs[0].Thumbnail)

	assert.Equal(t, "a.mkv", jobs[1].Name, "directory entries are sorted")
	assert.Equal(t, "00:12", jobs[1].Duration)

	assert.Equal(t, "b.mp4", jobs[2].Name)
	assert.Equal(t, probe.Unknown, jobs[2].Duration, "probe failure degrades")
	assert.Zero(t, jobs[2].DurationSeconds)
	assert.True(t, filepath.IsAbs(jobs[2].SourcePath))

	assert.Equal(t, 3, prober.thumbs)
}

func TestImportReportsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.mp4"), 1)

	imp := New(Config{Prober: &fakeProber{}, SkipThumbnails: true})
	jobs, err := imp.Import(context.Background(), filepath.Join(dir, "missing.mov"), filepath.Join(dir, "ok.mp4"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.Len(t, jobs, 1)
	assert.Nil(t, jobs[0].Thumbnail)
}

func TestImportNothingSupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.md"), 1)

	imp := New(Config{Prober: &fakeProber{}})
	_, err := imp.Import(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNothingImported)
}

func TestImportCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp := New(Config{Prober: &fakeProber{}})
	_, err := imp.Import(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

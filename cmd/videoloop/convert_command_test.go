package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/videoloop/internal/logger"
	"github.com/ZSC714725/videoloop/internal/process"
	"github.com/ZSC714725/videoloop/internal/profile"
	"github.com/ZSC714725/videoloop/internal/queue"
)

// fakeFFmpeg writes a shell script standing in for ffmpeg. It writes the
// file named by its last argument and then runs body.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	binary := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\n" +
		"eval last=\\${$#}\n" +
		"printf 'data' > \"$last\"\n" +
		body + "\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary
}

const finishedRun = `printf 'Duration: 00:00:05.00, start: 0.000000\n' >&2
printf 'frame=1 time=00:00:05.00 bitrate=1\n' >&2`

func ffmpegConfig(t *testing.T, binary string) string {
	return "ffmpeg:\n  path: " + binary + "\n  probe_path: " + filepath.Join(t.TempDir(), "ffprobe") + "\n"
}

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	return path
}

func TestConvertCommandSuccess(t *testing.T) {
	configPath, _ := writeConfig(t, ffmpegConfig(t, fakeFFmpeg(t, finishedRun)))
	src := writeSource(t, t.TempDir(), "clip.mov")
	outDir := t.TempDir()

	out, err := runCLI(t, "--config", configPath, "convert", "--output", outDir, src)
	require.NoError(t, err, out)

	assert.FileExists(t, filepath.Join(outDir, profile.Default().FileName("clip")))
	assert.Contains(t, out, "Converting 1 file(s)")
	assert.Contains(t, out, queue.StatusDone.String())
}

func TestConvertCommandFailedJob(t *testing.T) {
	configPath, _ := writeConfig(t, ffmpegConfig(t, fakeFFmpeg(t,
		`printf 'Invalid data found when processing input\n' >&2
exit 1`)))
	src := writeSource(t, t.TempDir(), "clip.mov")

	out, err := runCLI(t, "--config", configPath, "convert", "--output", t.TempDir(), src)
	require.Error(t, err)
	assert.Equal(t, "1 of 1 conversions failed", err.Error())
	assert.Contains(t, out, queue.StatusFailed.String())
}

func TestConvertCommandBesideSource(t *testing.T) {
	configPath, _ := writeConfig(t, ffmpegConfig(t, fakeFFmpeg(t, finishedRun)))
	dirA, dirB := t.TempDir(), t.TempDir()
	srcA := writeSource(t, dirA, "a.mov")
	srcB := writeSource(t, dirB, "b.mp4")

	out, err := runCLI(t, "--config", configPath, "convert", "--beside-source", srcA, srcB)
	require.NoError(t, err, out)

	assert.FileExists(t, filepath.Join(dirA, profile.Default().FileName("a")))
	assert.FileExists(t, filepath.Join(dirB, profile.Default().FileName("b")))
	assert.NoFileExists(t, filepath.Join(dirA, profile.Default().FileName("b")))

	_, err = runCLI(t, "--config", configPath, "convert", "--beside-source", "--output", t.TempDir(), srcA)
	assert.Error(t, err)
}

func TestGroupBySourceDir(t *testing.T) {
	groups, err := groupBySourceDir([]queue.Job{
		{SourcePath: "/b/one.mov"},
		{SourcePath: "/a/two.mov"},
		{SourcePath: "/b/three.mov"},
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, filepath.Dir("/b/one.mov"), groups[0].outputDir)
	assert.Equal(t, 2, groups[0].jobs.Len())
	assert.Equal(t, filepath.Dir("/a/two.mov"), groups[1].outputDir)
	assert.Equal(t, 1, groups[1].jobs.Len())
}

func TestWaitForRunCancelled(t *testing.T) {
	binary := fakeFFmpeg(t, "exec /bin/sleep 30")
	sup := process.New(process.Config{
		Binary:      binary,
		KillTimeout: time.Second,
		Logger:      logger.Nop(),
	})

	jobs := queue.NewList()
	job, err := jobs.Append(queue.Job{SourcePath: filepath.Join(t.TempDir(), "clip.mov"), DurationSeconds: 30})
	require.NoError(t, err)

	manager := queue.NewManager(sup, queue.WithJobs(jobs), queue.WithInterval(time.Hour))
	defer manager.Close()
	require.True(t, manager.StartConversion(jobs, t.TempDir(), profile.Default()))
	require.True(t, sup.Active())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	var out bytes.Buffer
	err = waitForRun(ctx, &out, manager)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), 5*time.Second)

	got, err := jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusCancelled, got.Status)
	assert.False(t, manager.IsConverting())
	assert.False(t, sup.Active())
}

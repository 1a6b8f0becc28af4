package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/videoloop/internal/prefs"
	"github.com/ZSC714725/videoloop/internal/profile"
	"github.com/ZSC714725/videoloop/internal/queue"
)

func writeConfig(t *testing.T, extra ...string) (configPath, prefsPath string) {
	t.Helper()
	dir := t.TempDir()
	prefsPath = filepath.Join(dir, "prefs", "preferences.yaml")
	configPath = filepath.Join(dir, "config.yaml")
	body := "preferences:\n  path: " + prefsPath + "\nlog:\n  level: error\n" + strings.Join(extra, "")
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o644))
	return configPath, prefsPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProfilesCommand(t *testing.T) {
	configPath, _ := writeConfig(t)

	out, err := runCLI(t, "--config", configPath, "profiles")
	require.NoError(t, err)
	for _, p := range profile.All() {
		assert.Contains(t, out, p.ID)
		assert.Contains(t, out, p.Name)
	}
}

func TestPrefsCommands(t *testing.T) {
	configPath, prefsPath := writeConfig(t)
	outDir := t.TempDir()

	out, err := runCLI(t, "--config", configPath, "prefs")
	require.NoError(t, err)
	assert.Contains(t, out, prefs.DefaultOutputDir())
	assert.Contains(t, out, profile.Default().ID)

	out, err = runCLI(t, "--config", configPath, "prefs", "set", "--output", outDir, "--profile", profile.ProRes)
	require.NoError(t, err)
	assert.Contains(t, out, outDir)
	assert.Contains(t, out, profile.ProRes)

	stored, err := prefs.NewStore(prefsPath).Load()
	require.NoError(t, err)
	assert.Equal(t, outDir, stored.OutputDir)
	assert.Equal(t, profile.ProRes, stored.Profile)

	_, err = runCLI(t, "--config", configPath, "prefs", "set", "--profile", "gif")
	assert.ErrorIs(t, err, prefs.ErrUnknownProfile)

	_, err = runCLI(t, "--config", configPath, "prefs", "set")
	assert.Error(t, err)
}

func TestConvertRejectsBadInput(t *testing.T) {
	configPath, _ := writeConfig(t)

	_, err := runCLI(t, "--config", configPath, "convert")
	assert.Error(t, err)

	_, err = runCLI(t, "--config", configPath, "convert", "--profile", "gif", "clip.mov")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile")

	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("x"), 0o644))
	_, err = runCLI(t, "--config", configPath, "convert", notes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to convert")
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [\n"), 0o644))

	_, err := runCLI(t, "--config", bad, "profiles")
	assert.Error(t, err)
}

func TestRunError(t *testing.T) {
	assert.NoError(t, runError([]queue.Job{{Status: queue.StatusDone}, {Status: queue.StatusCancelled}}))

	err := runError([]queue.Job{{Status: queue.StatusDone}, {Status: queue.StatusFailed}})
	require.Error(t, err)
	assert.Equal(t, "1 of 2 conversions failed", err.Error())
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "3")
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestSummaryRows(t *testing.T) {
	rows := summaryRows([]queue.Job{{Name: "a.mov", Size: 1500, Duration: "00:05", Status: queue.StatusDone, OutputPath: "/out/a.mp4"}})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a.mov", "1.5 kB", "00:05", "done", "/out/a.mp4"}, rows[0])
}

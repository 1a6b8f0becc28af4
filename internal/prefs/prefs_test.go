package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/videoloop/internal/profile"
)

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "videoloop", "preferences.yaml"))

	p, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)
	assert.Equal(t, "VideoLoopExports", filepath.Base(p.OutputDir))
	assert.Equal(t, profile.VideoLoop, p.ExportProfile().ID)
}

func TestUpdateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "preferences.yaml"))

	out := filepath.Join(dir, "exports")
	p, err := s.Update(Preferences{OutputDir: out, Profile: profile.ProRes})
	require.NoError(t, err)
	assert.Equal(t, out, p.OutputDir)
	assert.Equal(t, profile.ProRes, p.Profile)

	// partial update keeps the other field
	p, err = s.Update(Preferences{Profile: profile.VideoLoopAudio})
	require.NoError(t, err)
	assert.Equal(t, out, p.OutputDir)

	loaded, err := NewStore(s.Path()).Load()
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
	assert.Equal(t, profile.VideoLoopAudio, loaded.ExportProfile().ID)
}

func TestUpdateRejectsUnknownProfile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "preferences.yaml"))
	_, err := s.Update(Preferences{Profile: "gif"})
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestLoadFallsBackForStaleProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: /srv/out\nprofile: removed\n"), 0o644))

	p, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/out", p.OutputDir)
	assert.Equal(t, profile.Default().ID, p.Profile)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: [\n"), 0o644))

	p, err := NewStore(path).Load()
	assert.Error(t, err)
	assert.Equal(t, Defaults(), p)
}

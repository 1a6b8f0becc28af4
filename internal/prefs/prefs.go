// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具
//
// Package prefs persists the user's output directory and export profile.

package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/ZSC714725/videoloop/internal/profile"
)

// ErrUnknownProfile is returned by Update for a profile id not in the catalog
var ErrUnknownProfile = errors.New("unknown export profile")

// Preferences 用户偏好设置
type Preferences struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	Profile   string `yaml:"profile" json:"profile"`
}

// DefaultOutputDir 默认输出目录 ~/Movies/VideoLoopExports
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "VideoLoopExports")
	}
	return filepath.Join(home, "Movies", "VideoLoopExports")
}

// Defaults returns the preferences of a fresh installation
func Defaults() Preferences {
	return Preferences{
		OutputDir: DefaultOutputDir(),
		Profile:   profile.Default().ID,
	}
}

// ExportProfile resolves the stored profile id, falling back to the
// default profile for ids that no longer exist.
func (p Preferences) ExportProfile() profile.Profile {
	if pr, ok := profile.Lookup(p.Profile); ok {
		return pr
	}
	return profile.Default()
}

// Store reads and writes a preferences file. Access from several processes
// is serialised with an advisory lock file next to it.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore creates a store for path
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path of the preferences file
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored preferences with defaults for missing values.
// A missing file is not an error.
func (s *Store) Load() (Preferences, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Defaults(), fmt.Errorf("prefs dir: %w", err)
	}
	if err := s.lock.RLock(); err != nil {
		return Defaults(), fmt.Errorf("prefs lock: %w", err)
	}
	defer s.lock.Unlock()

	return s.readLocked()
}

func (s *Store) readLocked() (Preferences, error) {
	p := Defaults()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read prefs: %w", err)
	}

	var stored Preferences
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return p, fmt.Errorf("parse prefs: %w", err)
	}
	if strings.TrimSpace(stored.OutputDir) != "" {
		p.OutputDir = stored.OutputDir
	}
	if _, ok := profile.Lookup(stored.Profile); ok {
		p.Profile = stored.Profile
	}
	return p, nil
}

// Update applies changes to the stored preferences. Empty fields are left
// unchanged. The result is returned.
func (s *Store) Update(change Preferences) (Preferences, error) {
	if change.Profile != "" {
		if _, ok := profile.Lookup(change.Profile); !ok {
			return Preferences{}, fmt.Errorf("%w: %s", ErrUnknownProfile, change.Profile)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Preferences{}, fmt.Errorf("prefs dir: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return Preferences{}, fmt.Errorf("prefs lock: %w", err)
	}
	defer s.lock.Unlock()

	p, err := s.readLocked()
	if err != nil {
		return Preferences{}, err
	}
	if dir := strings.TrimSpace(change.OutputDir); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return Preferences{}, fmt.Errorf("output dir: %w", err)
		}
		p.OutputDir = abs
	}
	if change.Profile != "" {
		p.Profile = change.Profile
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return Preferences{}, fmt.Errorf("encode prefs: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Preferences{}, fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return Preferences{}, fmt.Errorf("write prefs: %w", err)
	}
	return p, nil
}

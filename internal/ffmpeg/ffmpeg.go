// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/ZSC714725/videoloop/internal/ffmpeg/skills"
	"github.com/ZSC714725/videoloop/internal/profile"
)

// ErrNotFound is returned when no transcoder binary can be located
var ErrNotFound = errors.New("ffmpeg binary not found")

// SupportedExtensions lists the input containers accepted for import
var SupportedExtensions = []string{"mov", "mp4", "m4v", "avi", "mkv", "flv", "wmv", "mxf"}

// Locate resolves a binary by name. A binary shipped next to the running
// executable (or in its bin/ directory) wins over one found in PATH.
// Names containing a path separator are only checked for existence.
func Locate(name string) (string, error) {
	if name == "" {
		return "", ErrNotFound
	}

	if filepath.Base(name) != name {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		for _, candidate := range []string{
			filepath.Join(dir, name),
			filepath.Join(dir, "bin", name),
		} {
			if isExecutable(candidate) {
				return candidate, nil
			}
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotFound, name, err)
	}
	return path, nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

// FFmpeg manages the located binary, its skills and input validation
type FFmpeg interface {
	Binary() string
	ValidateInput(path string) bool
	Skills() skills.Skills
	ReloadSkills() error
	Missing(profiles []profile.Profile) []profile.Profile
}

// Config for FFmpeg
type Config struct {
	Binary         string
	ValidatorInput Validator
}

type ffmpeg struct {
	binary      string
	validatorIn Validator
	skills      skills.Skills
	skillsLock  sync.RWMutex
}

// New locates the binary and probes its skills
func New(config Config) (FFmpeg, error) {
	binary, err := Locate(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg binary: %w", err)
	}

	f := &ffmpeg{binary: binary}

	if config.ValidatorInput != nil {
		f.validatorIn = config.ValidatorInput
	} else {
		f.validatorIn = NewExtensionValidator(SupportedExtensions)
	}

	s, err := skills.New(f.binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg: %w", err)
	}
	f.skills = s

	return f, nil
}

func (f *ffmpeg) Binary() string {
	return f.binary
}

func (f *ffmpeg) ValidateInput(path string) bool {
	return f.validatorIn.IsValid(path)
}

func (f *ffmpeg) Skills() skills.Skills {
	f.skillsLock.RLock()
	defer f.skillsLock.RUnlock()
	return f.skills
}

func (f *ffmpeg) ReloadSkills() error {
	s, err := skills.New(f.binary)
	if err != nil {
		return fmt.Errorf("reload skills: %w", err)
	}
	f.skillsLock.Lock()
	f.skills = s
	f.skillsLock.Unlock()
	return nil
}

// Missing returns the profiles whose encoder this ffmpeg build lacks
func (f *ffmpeg) Missing(profiles []profile.Profile) []profile.Profile {
	return MissingEncoders(f.Skills(), profiles)
}

// MissingEncoders returns the profiles whose encoder is absent from s
func MissingEncoders(s skills.Skills, profiles []profile.Profile) []profile.Profile {
	var out []profile.Profile
	for _, p := range profiles {
		if p.Encoder != "" && !s.HasEncoder(p.Encoder) {
			out = append(out, p)
		}
	}
	return out
}

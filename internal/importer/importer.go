// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具
//
// Package importer turns dropped paths into waiting queue jobs.

package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/ZSC714725/videoloop/internal/ffmpeg"
	"github.com/ZSC714725/videoloop/internal/logger"
	"github.com/ZSC714725/videoloop/internal/probe"
	"github.com/ZSC714725/videoloop/internal/queue"
)

// ErrNothingImported is returned when no path yielded a supported file
var ErrNothingImported = errors.New("no supported video files")

// Prober reads media metadata
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
	Thumbnail(ctx context.Context, path string) ([]byte, error)
}

// Config for an Importer
type Config struct {
	Prober    Prober
	Validator ffmpeg.Validator
	Logger    logger.Logger
	// SkipThumbnails avoids the extra ffmpeg run per file
	SkipThumbnails bool
}

// Importer builds jobs from file system paths
type Importer struct {
	prober     Prober
	validator  ffmpeg.Validator
	logger     logger.Logger
	thumbnails bool
}

// New creates an Importer
func New(config Config) *Importer {
	i := &Importer{
		prober:     config.Prober,
		validator:  config.Validator,
		logger:     config.Logger,
		thumbnails: !config.SkipThumbnails,
	}
	if i.prober == nil {
		i.prober = probe.FFprobe{}
	}
	if i.validator == nil {
		i.validator = ffmpeg.NewExtensionValidator(ffmpeg.SupportedExtensions)
	}
	if i.logger == nil {
		i.logger = logger.Nop()
	}
	return i
}

// Import returns a waiting job for every supported file among paths.
// Directories contribute the supported files directly inside them.
// Paths that cannot be read are reported in the joined error while the
// remaining paths are still imported.
func (i *Importer) Import(ctx context.Context, paths ...string) ([]queue.Job, error) {
	var jobs []queue.Job
	var errs []error

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}

		info, err := os.Stat(abs)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if !info.IsDir() {
			if job, ok := i.file(ctx, abs, info); ok {
				jobs = append(jobs, job)
			}
			continue
		}

		entries, err := os.ReadDir(abs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			full := filepath.Join(abs, e.Name())
			fi, err := e.Info()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if job, ok := i.file(ctx, full, fi); ok {
				jobs = append(jobs, job)
			}
		}
	}

	if len(jobs) == 0 && len(errs) == 0 {
		return nil, ErrNothingImported
	}
	return jobs, errors.Join(errs...)
}

func (i *Importer) file(ctx context.Context, path string, info os.FileInfo) (queue.Job, bool) {
	if !info.Mode().IsRegular() || !i.validator.IsValid(path) {
		i.logger.Debug("skipping %s: not a supported video file", path)
		return queue.Job{}, false
	}

	job := queue.Job{
		SourcePath: path,
		Name:       filepath.Base(path),
		Size:       info.Size(),
		Duration:   probe.Unknown,
	}

	if d, err := i.prober.Duration(ctx, path); err != nil {
		i.logger.Error("probing duration of %s: %v", path, err)
	} else {
		job.DurationSeconds = d
		job.Duration = probe.FormatDuration(d)
	}

	if i.thumbnails {
		if data, err := i.prober.Thumbnail(ctx, path); err != nil {
			i.logger.Debug("thumbnail of %s: %v", path, err)
		} else {
			job.Thumbnail = data
		}
	}

	i.logger.Info("imported %s (%s, %s)", job.Name, humanize.Bytes(uint64(job.Size)), job.Duration)
	return job, true
}

// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具
//
// Package watch reports video files that appear in a directory once they
// have finished being written.

package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ZSC714725/videoloop/internal/ffmpeg"
	"github.com/ZSC714725/videoloop/internal/logger"
)

// DefaultSettle is how long a file size must stay unchanged
const DefaultSettle = 2 * time.Second

// Config for a Watcher
type Config struct {
	Dir       string
	Validator ffmpeg.Validator
	Settle    time.Duration
	Logger    logger.Logger
	// OnReady receives settled files in name order
	OnReady func(paths []string)
}

type pending struct {
	size    int64
	changed time.Time
}

// Watcher watches one directory (not recursive)
type Watcher struct {
	dir       string
	validator ffmpeg.Validator
	settle    time.Duration
	logger    logger.Logger
	onReady   func([]string)

	fs      *fsnotify.Watcher
	pending map[string]pending
}

// New starts watching dir. Files created after New returns are reported.
func New(config Config) (*Watcher, error) {
	if config.Dir == "" {
		return nil, errors.New("watch: no directory given")
	}
	if config.OnReady == nil {
		return nil, errors.New("watch: no handler given")
	}

	dir, err := filepath.Abs(config.Dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", dir)
	}

	w := &Watcher{
		dir:       dir,
		validator: config.Validator,
		settle:    config.Settle,
		logger:    config.Logger,
		onReady:   config.OnReady,
		pending:   make(map[string]pending),
	}
	if w.validator == nil {
		w.validator = ffmpeg.NewExtensionValidator(ffmpeg.SupportedExtensions)
	}
	if w.settle <= 0 {
		w.settle = DefaultSettle
	}
	if w.logger == nil {
		w.logger = logger.Nop()
	}

	w.fs, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := w.fs.Add(dir); err != nil {
		w.fs.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return w, nil
}

// Dir is the watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// Run processes events until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	w.logger.Info("watching %s", w.dir)

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch %s: %v", w.dir, err)
		case now := <-ticker.C:
			if ready := w.collect(now); len(ready) > 0 {
				w.onReady(ready)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, ev.Name)
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if !w.validator.IsValid(ev.Name) {
			return
		}
		info, err := os.Stat(ev.Name)
		if err != nil || !info.Mode().IsRegular() {
			return
		}
		w.pending[ev.Name] = pending{size: info.Size(), changed: time.Now()}
	}
}

// collect returns files whose size has not changed for the settle time
func (w *Watcher) collect(now time.Time) []string {
	var ready []string
	for path, p := range w.pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		if info.Size() != p.size {
			w.pending[path] = pending{size: info.Size(), changed: now}
			continue
		}
		if now.Sub(p.changed) >= w.settle {
			delete(w.pending, path)
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	return ready
}

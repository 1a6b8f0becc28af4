// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package queue

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/ZSC714725/videoloop/internal/ffmpeg/parse"
)

// List is the ordered job collection. It is owned by the caller; a Manager
// only writes the status, progress, eta and output fields during a run.
type List struct {
	mu   sync.RWMutex
	jobs []*Job
}

// NewList creates an empty list
func NewList() *List {
	return &List{}
}

// Append adds a job at the end in waiting state and returns the stored copy
func (l *List) Append(job Job) (Job, error) {
	if job.SourcePath == "" {
		return Job{}, ErrNoSource
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(job.ID) == 0 {
		job.ID = shortuuid.New()
	}
	if l.indexLocked(job.ID) >= 0 {
		return Job{}, ErrJobExists
	}

	job.Status = StatusWaiting
	job.Progress = 0
	job.ETA = ""
	job.OutputPath = ""
	if job.AddedAt.IsZero() {
		job.AddedAt = time.Now()
	}

	j := job
	l.jobs = append(l.jobs, &j)
	return j, nil
}

func (l *List) Get(id string) (Job, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexLocked(id)
	if i < 0 {
		return Job{}, ErrNotFound
	}
	return *l.jobs[i], nil
}

// Snapshot returns copies of all jobs in order
func (l *List) Snapshot() []Job {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Job, 0, len(l.jobs))
	for _, j := range l.jobs {
		out = append(out, *j)
	}
	return out
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.jobs)
}

// HasSource reports whether a job for path is already listed
func (l *List) HasSource(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, j := range l.jobs {
		if j.SourcePath == path {
			return true
		}
	}
	return false
}

// HasOutput reports whether path is the planned or written output of a
// listed job
func (l *List) HasOutput(path string) bool {
	path = filepath.Clean(path)

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, j := range l.jobs {
		if j.OutputPath != "" && filepath.Clean(j.OutputPath) == path {
			return true
		}
	}
	return false
}

// Remove deletes a job. A converting job must be cancelled first.
func (l *List) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	if l.jobs[i].Status == StatusConverting {
		return ErrJobBusy
	}
	l.jobs = append(l.jobs[:i], l.jobs[i+1:]...)
	return nil
}

// Reset returns a finished job to waiting
func (l *List) Reset(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	j := l.jobs[i]
	if !j.Status.IsTerminal() {
		return ErrNotTerminal
	}
	j.Status = StatusWaiting
	j.Progress = 0
	j.ETA = ""
	j.OutputPath = ""
	return nil
}

// Clear removes every job
func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jobs = nil
}

func (l *List) indexLocked(id string) int {
	for i, j := range l.jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}

// claimNextWaiting moves the first waiting job to converting
func (l *List) claimNextWaiting(output func(Job) string) (Job, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, j := range l.jobs {
		if j.Status != StatusWaiting {
			continue
		}
		j.Status = StatusConverting
		j.Progress = 0
		j.ETA = ""
		j.OutputPath = output(*j)
		return *j, true
	}
	return Job{}, false
}

// setProgress updates a converting job, false otherwise
func (l *List) setProgress(id string, p parse.Progress) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 || l.jobs[i].Status != StatusConverting {
		return false
	}
	l.jobs[i].Progress = p.Fraction
	l.jobs[i].ETA = p.ETA
	return true
}

// finish moves a converting job to done or failed. A job that has left
// converting in the meantime is not touched.
func (l *List) finish(id string, success bool, output string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 || l.jobs[i].Status != StatusConverting {
		return false
	}
	j := l.jobs[i]
	j.ETA = ""
	if success {
		j.Status = StatusDone
		j.Progress = 1
		if output != "" {
			j.OutputPath = output
		}
	} else {
		j.Status = StatusFailed
		j.Progress = 0
	}
	return true
}

// cancelJob marks a waiting or converting job cancelled and returns its
// previous status
func (l *List) cancelJob(id string) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return "", ErrNotFound
	}
	j := l.jobs[i]
	prev := j.Status
	if prev == StatusWaiting || prev == StatusConverting {
		j.Status = StatusCancelled
		j.Progress = 0
		j.ETA = ""
	}
	return prev, nil
}

// cancelConverting marks every converting job cancelled
func (l *List) cancelConverting() int {
	return l.cancelWhere(func(s Status) bool { return s == StatusConverting })
}

// cancelPending marks every waiting or converting job cancelled
func (l *List) cancelPending() int {
	return l.cancelWhere(func(s Status) bool { return !s.IsTerminal() })
}

func (l *List) cancelWhere(match func(Status) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, j := range l.jobs {
		if match(j.Status) {
			j.Status = StatusCancelled
			j.Progress = 0
			j.ETA = ""
			n++
		}
	}
	return n
}

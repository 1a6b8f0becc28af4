// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package queue

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ZSC714725/videoloop/internal/ffmpeg/parse"
	"github.com/ZSC714725/videoloop/internal/logger"
	"github.com/ZSC714725/videoloop/internal/process"
	"github.com/ZSC714725/videoloop/internal/profile"
	"github.com/ZSC714725/videoloop/internal/sanitize"
)

// DefaultInterval between periodic progress publications during a run
const DefaultInterval = 3 * time.Second

// Converter runs one conversion at a time. Cancel returns once the
// stopped process is gone; process.Supervisor bounds that by twice its
// kill timeout.
type Converter interface {
	Convert(req process.Request) error
	Cancel()
}

// Option configures a Manager
type Option func(*Manager)

// WithInterval sets the periodic re-publication interval
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithJobs binds the job collection before the first run
func WithJobs(jobs *List) Option {
	return func(m *Manager) {
		m.jobs = jobs
	}
}

// Manager sequences the jobs of a List through a Converter, one at a time.
//
// Callbacks of a launch are tagged with a launch number. Once a job has
// been cancelled or the run halted the number moves on, so late callbacks
// from the old process are dropped.
//
// Cancelling runs Converter.Cancel with the state lock held, so the next
// launch never overlaps the dying process. Readers such as IsConverting,
// ActiveJob and progress subscribers wait for that long (at most 2×
// KillTimeout with process.Supervisor, 10s by default).
type Manager struct {
	conv     Converter
	logger   logger.Logger
	interval time.Duration
	progress *broadcaster

	mu        sync.Mutex
	running   bool
	closed    bool
	jobs      *List
	outputDir string
	profile   profile.Profile
	activeID  string
	launch    uint64
	stopTick  context.CancelFunc
}

// NewManager creates a Manager driving conv
func NewManager(conv Converter, opts ...Option) *Manager {
	m := &Manager{
		conv:     conv,
		logger:   logger.Nop(),
		interval: DefaultInterval,
		progress: newBroadcaster(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartConversion runs every waiting job of jobs in order. It reports
// false and does nothing while a run is active.
func (m *Manager) StartConversion(jobs *List, outputDir string, p profile.Profile) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running || m.closed || jobs == nil {
		return false
	}

	m.running = true
	m.jobs = jobs
	m.outputDir = outputDir
	m.profile = p

	m.logger.Info("starting run: %d jobs, profile %s, output %s", jobs.Len(), p.ID, outputDir)

	m.progress.publish(0)
	m.startTickerLocked()
	m.advanceLocked()
	return true
}

func (m *Manager) advanceLocked() {
	for {
		m.publishLocked()

		job, ok := m.jobs.claimNextWaiting(func(j Job) string {
			return m.outputBase(j) + "." + m.profile.Extension
		})
		if !ok {
			m.running = false
			m.activeID = ""
			m.progress.publish(1)
			m.stopTickerLocked()
			m.logger.Info("run finished")
			return
		}

		m.launch++
		launch := m.launch
		m.activeID = job.ID

		m.logger.Info("converting %s (%s)", job.ID, job.SourcePath)

		err := m.conv.Convert(process.Request{
			InputPath:  job.SourcePath,
			OutputBase: m.outputBase(job),
			Profile:    m.profile,
			OnProgress: func(p parse.Progress) {
				m.onProgress(launch, job.ID, p)
			},
			OnComplete: func(res process.Result) {
				m.onComplete(launch, job.ID, res)
			},
		})
		if err == nil {
			return
		}

		m.logger.Error("job %s: %v", job.ID, err)
		m.jobs.finish(job.ID, false, "")
		m.activeID = ""
	}
}

func (m *Manager) outputBase(j Job) string {
	base := filepath.Base(j.SourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(m.outputDir, sanitize.Name(base)+m.profile.Suffix)
}

func (m *Manager) onProgress(launch uint64, id string, p parse.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if launch != m.launch || m.jobs == nil {
		return
	}
	if m.jobs.setProgress(id, p) {
		m.publishLocked()
	}
}

func (m *Manager) onComplete(launch uint64, id string, res process.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if launch != m.launch || m.jobs == nil {
		m.logger.Debug("dropping stale completion of job %s", id)
		return
	}
	m.activeID = ""

	if !m.jobs.finish(id, res.Success, res.OutputPath) {
		m.logger.Debug("job %s left converting before completion", id)
		return
	}

	if res.Success {
		m.logger.Info("job %s done: %s", id, res.OutputPath)
	} else {
		m.logger.Error("job %s failed: %v", id, res.Err)
	}

	if m.running {
		m.advanceLocked()
		return
	}
	m.publishLocked()
}

// CancelConversion stops the active process and halts the whole run
func (m *Manager) CancelConversion() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.haltLocked()
	if m.jobs != nil {
		if n := m.jobs.cancelConverting(); n > 0 {
			m.logger.Info("cancelled active job")
		}
		m.publishLocked()
	}
}

// CancelItem cancels one job. A converting job is stopped and the run
// continues with the next waiting job. Finished jobs are left alone.
func (m *Manager) CancelItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.jobs == nil {
		return ErrNotFound
	}

	job, err := m.jobs.Get(id)
	if err != nil {
		return err
	}

	switch job.Status {
	case StatusConverting:
		if id == m.activeID {
			m.launch++
			m.conv.Cancel()
			m.activeID = ""
		}
		m.jobs.cancelJob(id)
		m.logger.Info("cancelled job %s", id)
		if m.running {
			m.advanceLocked()
			return nil
		}
		m.publishLocked()
	case StatusWaiting:
		m.jobs.cancelJob(id)
		m.logger.Info("cancelled job %s", id)
		m.publishLocked()
	}
	return nil
}

// CancelAllConversions stops the run and cancels every unfinished job
func (m *Manager) CancelAllConversions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelAllLocked()
}

func (m *Manager) cancelAllLocked() {
	m.haltLocked()
	if m.jobs != nil {
		n := m.jobs.cancelPending()
		m.logger.Info("cancelled %d jobs", n)
	}
	m.progress.publish(0)
}

// ClearQueue stops any run and empties the job list
func (m *Manager) ClearQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelAllLocked()
	if m.jobs != nil {
		m.jobs.Clear()
	}
	m.progress.publish(0)
}

func (m *Manager) haltLocked() {
	m.running = false
	m.launch++
	m.conv.Cancel()
	m.activeID = ""
	m.stopTickerLocked()
}

// IsConverting reports whether a run is active
func (m *Manager) IsConverting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// ActiveJob returns the job being converted, if any
func (m *Manager) ActiveJob() (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID == "" || m.jobs == nil {
		return Job{}, false
	}
	j, err := m.jobs.Get(m.activeID)
	if err != nil {
		return Job{}, false
	}
	return j, true
}

// Overall returns the last published overall progress
func (m *Manager) Overall() float64 {
	return m.progress.value()
}

// ProgressUpdates subscribes to overall progress. The channel starts with
// the current value and is closed by the returned func or by Close.
func (m *Manager) ProgressUpdates() (<-chan float64, func()) {
	return m.progress.subscribe()
}

// Close halts any run and releases subscribers
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.haltLocked()
	if m.jobs != nil {
		m.jobs.cancelConverting()
	}
	m.closed = true
	m.progress.close()
}

func (m *Manager) publishLocked() {
	if m.jobs == nil {
		return
	}
	m.progress.publish(OverallProgress(m.jobs.Snapshot()))
}

func (m *Manager) startTickerLocked() {
	m.stopTickerLocked()

	ctx, cancel := context.WithCancel(context.Background())
	m.stopTick = cancel

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.mu.Lock()
				if ctx.Err() == nil {
					m.publishLocked()
				}
				m.mu.Unlock()
			}
		}
	}()
}

func (m *Manager) stopTickerLocked() {
	if m.stopTick != nil {
		m.stopTick()
		m.stopTick = nil
	}
}

// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具
//
// Package process supervises the single FFmpeg process used for conversion.

package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ZSC714725/videoloop/internal/ffmpeg"
	"github.com/ZSC714725/videoloop/internal/ffmpeg/parse"
	"github.com/ZSC714725/videoloop/internal/logger"
	"github.com/ZSC714725/videoloop/internal/profile"
)

var (
	// ErrBusy is returned by Convert while another process is alive
	ErrBusy = errors.New("a conversion is already running")
	// ErrCancelled is reported in Result.Err for a process stopped by Cancel
	ErrCancelled = errors.New("conversion cancelled")
	// ErrExit is reported in Result.Err for a non-zero exit
	ErrExit = errors.New("ffmpeg exited with failure")
	// ErrInvalidRequest is returned by Convert for a request without paths
	ErrInvalidRequest = errors.New("invalid conversion request")
)

// Request describes one conversion. OutputBase has no extension; the
// profile's extension is appended.
type Request struct {
	InputPath  string
	OutputBase string
	Profile    profile.Profile
	// OnProgress receives parsed progress, latest value wins
	OnProgress func(parse.Progress)
	// OnComplete is called exactly once per accepted request
	OnComplete func(Result)
}

// Result of a finished conversion
type Result struct {
	Success    bool
	OutputPath string
	Err        error
}

// Config for a Supervisor
type Config struct {
	Binary      string
	KillTimeout time.Duration
	Logger      logger.Logger
	// Locate resolves Binary, defaults to ffmpeg.Locate
	Locate func(name string) (string, error)
}

// Supervisor runs at most one FFmpeg process at a time
type Supervisor struct {
	binary      string
	killTimeout time.Duration
	locate      func(string) (string, error)
	logger      logger.Logger
	sampler     *Sampler

	lock    sync.Mutex
	active  *run
	reaping *run
}

type run struct {
	cmd       *exec.Cmd
	output    string
	done      chan struct{}
	cancelled bool
	lastLine  string
}

// New creates a new Supervisor
func New(config Config) *Supervisor {
	s := &Supervisor{
		binary:      config.Binary,
		killTimeout: config.KillTimeout,
		locate:      config.Locate,
		logger:      config.Logger,
		sampler:     NewSampler(),
	}
	if s.binary == "" {
		s.binary = "ffmpeg"
	}
	if s.killTimeout <= 0 {
		s.killTimeout = 5 * time.Second
	}
	if s.locate == nil {
		s.locate = ffmpeg.Locate
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s
}

// Convert launches FFmpeg for req and returns once the process is spawned.
// Environment failures (missing binary, output directory, spawn) are
// reported through OnComplete, never through the returned error.
func (s *Supervisor) Convert(req Request) error {
	if req.InputPath == "" || req.OutputBase == "" {
		return ErrInvalidRequest
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.active != nil {
		return ErrBusy
	}
	if s.reaping != nil {
		select {
		case <-s.reaping.done:
			s.reaping = nil
		default:
			return ErrBusy
		}
	}

	output := req.OutputBase + "." + req.Profile.Extension

	binary, err := s.locate(s.binary)
	if err != nil {
		s.failFast(req, output, err)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		s.failFast(req, output, fmt.Errorf("create output directory: %w", err))
		return nil
	}

	if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.failFast(req, output, fmt.Errorf("remove existing output: %w", err))
		return nil
	}

	args := []string{"-y", "-i", req.InputPath}
	args = append(args, req.Profile.Args()...)
	args = append(args, output)

	cmd := exec.Command(binary, args...)
	cmd.Env = []string{}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.failFast(req, output, err)
		return nil
	}

	if err := cmd.Start(); err != nil {
		s.failFast(req, output, fmt.Errorf("start ffmpeg: %w", err))
		return nil
	}

	r := &run{
		cmd:    cmd,
		output: output,
		done:   make(chan struct{}),
	}
	s.active = r

	if err := s.sampler.Start(cmd.Process.Pid); err != nil {
		s.logger.Debug("sampling pid %d: %v", cmd.Process.Pid, err)
	}

	s.logger.Info("started ffmpeg (pid %d) %s -> %s", cmd.Process.Pid, req.InputPath, output)

	progress := make(chan parse.Progress, 1)
	result := make(chan Result, 1)

	go s.dispatch(req, progress, result)
	go s.reader(r, stderr, progress, result)

	return nil
}

func (s *Supervisor) failFast(req Request, output string, err error) {
	s.logger.Error("conversion of %s failed before start: %v", req.InputPath, err)
	if req.OnComplete != nil {
		go req.OnComplete(Result{OutputPath: output, Err: err})
	}
}

// Cancel stops the active process, if any, and waits until it has been
// reaped. Calling it without an active process does nothing.
func (s *Supervisor) Cancel() {
	s.lock.Lock()
	r := s.active
	if r == nil {
		s.lock.Unlock()
		return
	}
	r.cancelled = true
	s.active = nil
	s.reaping = r
	s.lock.Unlock()

	var killTimer *time.Timer
	var err error
	if runtime.GOOS == "windows" {
		err = r.cmd.Process.Kill()
	} else {
		err = r.cmd.Process.Signal(os.Interrupt)
		if err != nil {
			err = r.cmd.Process.Kill()
		} else {
			killTimer = time.AfterFunc(s.killTimeout, func() {
				r.cmd.Process.Kill()
			})
		}
	}
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Error("stopping ffmpeg (pid %d): %v", r.cmd.Process.Pid, err)
	}

	select {
	case <-r.done:
	case <-time.After(2 * s.killTimeout):
		s.logger.Error("ffmpeg (pid %d) did not exit after cancel", r.cmd.Process.Pid)
	}

	if killTimer != nil {
		killTimer.Stop()
	}
}

// Active reports whether a process is running
func (s *Supervisor) Active() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.active != nil
}

// Stats returns the resource usage of the active process
func (s *Supervisor) Stats() Usage {
	if !s.Active() {
		return Usage{}
	}
	return s.sampler.Current()
}

func (s *Supervisor) reader(r *run, stderr io.Reader, progress chan parse.Progress, result chan<- Result) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLine)

	var tracker parse.Tracker

	for scanner.Scan() {
		line := scanner.Text()
		r.lastLine = line
		if p, ok := tracker.Feed(line); ok {
			offer(progress, p)
		}
	}

	if err := scanner.Err(); err != nil {
		s.logger.Debug("reading ffmpeg output: %v", err)
		io.Copy(io.Discard, stderr)
	}

	res := s.waiter(r)

	s.lock.Lock()
	if s.active == r {
		s.active = nil
	}
	if s.reaping == r {
		s.reaping = nil
	}
	s.lock.Unlock()

	close(r.done)
	result <- res
}

func (s *Supervisor) waiter(r *run) Result {
	err := r.cmd.Wait()
	s.sampler.Stop()

	res := Result{OutputPath: r.output}

	s.lock.Lock()
	cancelled := r.cancelled
	s.lock.Unlock()

	switch {
	case cancelled:
		res.Err = ErrCancelled
		s.logger.Info("ffmpeg (pid %d) cancelled", r.cmd.Process.Pid)
	case err != nil:
		res.Err = fmt.Errorf("%w: %v: %s", ErrExit, err, r.lastLine)
		s.logger.Error("ffmpeg (pid %d) failed: %v", r.cmd.Process.Pid, err)
	default:
		res.Success = true
		s.logger.Info("ffmpeg (pid %d) finished: %s", r.cmd.Process.Pid, r.output)
	}
	return res
}

// dispatch delivers callbacks off the reading goroutine so slow consumers
// never stall the pipe.
func (s *Supervisor) dispatch(req Request, progress <-chan parse.Progress, result <-chan Result) {
	for {
		select {
		case p := <-progress:
			if req.OnProgress != nil {
				req.OnProgress(p)
			}
		case res := <-result:
			select {
			case p := <-progress:
				if req.OnProgress != nil {
					req.OnProgress(p)
				}
			default:
			}
			if req.OnComplete != nil {
				req.OnComplete(res)
			}
			return
		}
	}
}

// offer puts p into a single slot channel, replacing a value not yet taken
func offer(ch chan parse.Progress, p parse.Progress) {
	for {
		select {
		case ch <- p:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

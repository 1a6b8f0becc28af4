// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package process

import (
	"sync"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
)

// Usage is a resource snapshot of the running FFmpeg process
type Usage struct {
	PID    int32   `json:"pid"`
	CPU    float64 `json:"cpu_percent"`
	Memory uint64  `json:"memory_rss"`
}

// Sampler 使用 gopsutil 采集进程 CPU 和内存
type Sampler struct {
	mu   sync.RWMutex
	pid  int32
	proc *gopsutilprocess.Process
}

// NewSampler 创建进程资源采样器
func NewSampler() *Sampler {
	return &Sampler{}
}

// Start attaches the sampler to pid
func (l *Sampler) Start(pid int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	proc, err := gopsutilprocess.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	l.pid = int32(pid)
	l.proc = proc
	return nil
}

// Stop detaches the sampler
func (l *Sampler) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pid = 0
	l.proc = nil
}

// Current samples the attached process. Zero when detached.
func (l *Sampler) Current() Usage {
	l.mu.RLock()
	proc := l.proc
	pid := l.pid
	l.mu.RUnlock()
	if proc == nil {
		return Usage{}
	}
	u := Usage{PID: pid}
	if cpuPct, err := proc.CPUPercent(); err == nil {
		u.CPU = cpuPct
	}
	if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
		u.Memory = memInfo.RSS
	}
	return u
}

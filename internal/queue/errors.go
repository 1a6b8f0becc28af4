// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package queue

import "errors"

var (
	ErrNotFound    = errors.New("job not found")
	ErrJobExists   = errors.New("job already exists")
	ErrJobBusy     = errors.New("job is converting")
	ErrNotTerminal = errors.New("job has not finished")
	ErrNoSource    = errors.New("job has no source path")
)

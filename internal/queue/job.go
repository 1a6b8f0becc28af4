// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package queue

import "time"

// Status of a job
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusConverting Status = "converting"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string { return string(s) }

// IsTerminal reports whether only an explicit reset can leave s
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCancelled
}

// Job is one video in the conversion queue
type Job struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	// Duration is the human readable length, "Unknown" if not probed
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Thumbnail       []byte  `json:"-"`

	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`
	ETA      string  `json:"eta,omitempty"`
	// OutputPath is set with the extension once the job is picked up
	OutputPath string    `json:"output_path,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// HasThumbnail reports whether a preview image is attached
func (j Job) HasThumbnail() bool {
	return len(j.Thumbnail) > 0
}

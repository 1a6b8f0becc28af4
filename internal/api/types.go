// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package api

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ZSC714725/videoloop/internal/process"
	"github.com/ZSC714725/videoloop/internal/profile"
	"github.com/ZSC714725/videoloop/internal/queue"
)

// AddJobsRequest for POST /jobs
type AddJobsRequest struct {
	Paths []string `json:"paths" binding:"required"`
}

// AddJobsResponse lists the appended jobs and the paths that failed
type AddJobsResponse struct {
	Jobs   []Job  `json:"jobs"`
	Errors string `json:"errors,omitempty"`
}

// StartRequest for POST /queue/start. Empty fields use the preferences.
type StartRequest struct {
	OutputDir string `json:"output_dir"`
	Profile   string `json:"profile"`
}

// PreferencesRequest for PUT /preferences
type PreferencesRequest struct {
	OutputDir string `json:"output_dir"`
	Profile   string `json:"profile"`
}

// Job represents a queue job in API responses
type Job struct {
	ID              string    `json:"id"`
	SourcePath      string    `json:"source_path"`
	Name            string    `json:"name"`
	Size            int64     `json:"size_bytes"`
	SizeText        string    `json:"size"`
	Duration        string    `json:"duration"`
	DurationSeconds float64   `json:"duration_seconds"`
	Thumbnail       bool      `json:"has_thumbnail"`
	Status          string    `json:"status"`
	Progress        float64   `json:"progress"`
	ETA             string    `json:"eta,omitempty"`
	OutputPath      string    `json:"output_path,omitempty"`
	AddedAt         time.Time `json:"added_at"`
}

// Queue is the run state
type Queue struct {
	Running bool           `json:"running"`
	Overall float64        `json:"overall_progress"`
	Jobs    int            `json:"jobs"`
	Active  *Job           `json:"active,omitempty"`
	Process *process.Usage `json:"process,omitempty"`
}

// Profile represents an export profile
type Profile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Extension string   `json:"extension"`
	Suffix    string   `json:"suffix"`
	Encoder   string   `json:"encoder"`
	Args      []string `json:"args"`
}

// ProgressEvent is the payload of a progress server-sent event
type ProgressEvent struct {
	Overall float64 `json:"overall"`
	Running bool    `json:"running"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func jobToAPI(j queue.Job) Job {
	return Job{
		ID:              j.ID,
		SourcePath:      j.SourcePath,
		Name:            j.Name,
		Size:            j.Size,
		SizeText:        humanize.Bytes(uint64(max(j.Size, 0))),
		Duration:        j.Duration,
		DurationSeconds: j.DurationSeconds,
		Thumbnail:       j.HasThumbnail(),
		Status:          j.Status.String(),
		Progress:        j.Progress,
		ETA:             j.ETA,
		OutputPath:      j.OutputPath,
		AddedAt:         j.AddedAt,
	}
}

func profileToAPI(p profile.Profile) Profile {
	return Profile{
		ID:        p.ID,
		Name:      p.Name,
		Extension: p.Extension,
		Suffix:    p.Suffix,
		Encoder:   p.Encoder,
		Args:      p.Args(),
	}
}

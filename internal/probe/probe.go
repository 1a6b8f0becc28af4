// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具
//
// Package probe reads duration and preview frames of media files.

package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Unknown is shown for a duration that could not be probed
const Unknown = "Unknown"

// ThumbnailSize bounds the preview frame in both dimensions
const ThumbnailSize = 320

var (
	ErrEmptyPath   = errors.New("probe: empty path")
	ErrNoDuration  = errors.New("probe: no duration reported")
	ErrNoThumbnail = errors.New("probe: no frame decoded")
)

// FFprobe probes files with the ffprobe and ffmpeg binaries
type FFprobe struct {
	// ProbeBinary defaults to "ffprobe"
	ProbeBinary string
	// FFmpegBinary is used for thumbnails, defaults to "ffmpeg"
	FFmpegBinary string
}

type formatResult struct {
	Format struct {
		Filename   string `json:"filename"`
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// Duration returns the container duration in seconds
func (p FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, ErrEmptyPath
	}

	binary := strings.TrimSpace(p.ProbeBinary)
	if binary == "" {
		binary = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, stderr)
	}

	return parseDuration(output)
}

func parseDuration(output []byte) (float64, error) {
	var result formatResult
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("ffprobe parse: %w", err)
	}

	cleaned := strings.TrimSpace(result.Format.Duration)
	if cleaned == "" || cleaned == "N/A" {
		return 0, ErrNoDuration
	}
	d, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoDuration, cleaned)
	}
	return d, nil
}

// Thumbnail returns a PNG of the frame at one second, scaled to fit
// ThumbnailSize. Clips shorter than a second fall back to the first frame.
func (p FFprobe) Thumbnail(ctx context.Context, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := p.frameAt(ctx, path, "1")
	if err == nil && len(data) > 0 {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	data, err = p.frameAt(ctx, path, "0")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoThumbnail
	}
	return data, nil
}

func (p FFprobe) frameAt(ctx context.Context, path, at string) ([]byte, error) {
	binary := strings.TrimSpace(p.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}

	size := strconv.Itoa(ThumbnailSize)
	scale := fmt.Sprintf("scale=w='min(%s,iw)':h='min(%s,ih)':force_original_aspect_ratio=decrease", size, size)

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner",
		"-ss", at, "-i", path,
		"-frames:v", "1", "-vf", scale,
		"-f", "image2pipe", "-vcodec", "png", "-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("thumbnail %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// FormatDuration renders seconds as HH:MM:SS, or MM:SS below an hour.
// Unusable values render as Unknown.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return Unknown
	}
	s := int64(seconds)
	hours, minutes, secs := s/3600, (s%3600)/60, s%60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Progress is one decoded progress marker for a job
type Progress struct {
	Fraction float64 `json:"fraction"`
	Current  float64 `json:"current_seconds"`
	// ETA is HH:MM:SS, empty when unknown
	ETA string `json:"eta,omitempty"`
}

var (
	reDuration = regexp.MustCompile(`(?i)Duration:\s*([0-9]+):([0-9]+):([0-9]+)\.([0-9]+)`)
	reTime     = regexp.MustCompile(`(?i)time=\s*([0-9]+):([0-9]+):([0-9]+)\.([0-9]+)`)
)

// ParseDuration returns the total stream duration in seconds announced by a
// "Duration: HH:MM:SS.ff" marker.
func ParseDuration(text string) (float64, bool) {
	return parseClock(reDuration, text)
}

// ParseProgress decodes the first "time=HH:MM:SS.ff" marker in text against
// a known total duration.
func ParseProgress(text string, total float64, known bool) (Progress, bool) {
	if !known {
		return Progress{}, false
	}
	current, ok := parseClock(reTime, text)
	if !ok {
		return Progress{}, false
	}

	p := Progress{Current: current}
	switch {
	case total > 0:
		p.Fraction = clamp(current / total)
	case current > 0:
		p.Fraction = 1
	}

	if p.Fraction > 0 && total > 0 {
		remaining := math.Max(total-current, 0)
		if eta, ok := FormatETA(remaining / p.Fraction); ok {
			p.ETA = eta
		}
	}
	return p, true
}

// FormatETA renders seconds as HH:MM:SS. Non-finite or negative input has no
// representation.
func FormatETA(seconds float64) (string, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "", false
	}
	s := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60), true
}

// Tracker carries the total duration learned from earlier output of the
// same transcode.
type Tracker struct {
	total float64
	known bool
}

// Feed inspects one chunk of diagnostic output
func (t *Tracker) Feed(text string) (Progress, bool) {
	if !t.known {
		if d, ok := ParseDuration(text); ok {
			t.total = d
			t.known = true
		}
	}
	return ParseProgress(text, t.total, t.known)
}

// Total returns the learned duration, if any
func (t *Tracker) Total() (float64, bool) {
	return t.total, t.known
}

func parseClock(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	h, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	mm, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return 0, false
	}
	s, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return 0, false
	}
	// fractional digits are a decimal fraction: ".45" is 45 hundredths
	frac, err := strconv.ParseFloat("0."+m[4], 64)
	if err != nil {
		return 0, false
	}
	return float64(h*3600+mm*60+s) + frac, true
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}

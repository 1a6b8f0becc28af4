// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

// Package profile holds the fixed catalog of export profiles.
package profile

// Profile is a named, fixed set of encoder arguments plus the output
// container and filename suffix it produces.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Suffix    string `json:"suffix"`
	Encoder   string `json:"encoder"`

	args []string
}

// Args returns a copy of the ordered encoder arguments
func (p Profile) Args() []string {
	out := make([]string, len(p.args))
	copy(out, p.args)
	return out
}

// FileName returns the output name for a sanitized base name
func (p Profile) FileName(base string) string {
	return base + p.Suffix + "." + p.Extension
}

const (
	VideoLoop      = "videoloop"
	VideoLoopAudio = "videoloop-audio"
	ProRes         = "prores"
)

// Shared H.264 chain for the web loop profiles: even dimensions with square
// pixels, long edge capped at 1080, SEI stripped for byte-stable output.
var loopVideo = []string{
	"-hide_banner",
	"-vcodec", "libx264",
	"-preset", "veryslow",
	"-crf", "23",
	"-minrate", "3000k",
	"-maxrate", "9000k",
	"-bufsize", "18000k",
	"-profile:v", "main",
	"-level:v", "4.0",
	"-pix_fmt", "yuv420p",
	"-vf", "scale='trunc(ih*dar/2)*2:trunc(ih/2)*2',setsar=1/1,scale=w='if(lte(iw,ih),1080,-2)':h='if(lte(iw,ih),-2,1080)'",
	"-bsf:v", "filter_units=remove_types=6",
	"-fflags", "+bitexact",
	"-write_tmcd", "0",
}

var catalog = []Profile{
	{
		ID:        VideoLoop,
		Name:      "VideoLoop",
		Extension: "mp4",
		Suffix:    "_loop",
		Encoder:   "libx264",
		args: concat(loopVideo, []string{
			"-an",
			"-color_trc", "bt709",
			"-movflags", "+faststart",
		}),
	},
	{
		ID:        VideoLoopAudio,
		Name:      "VideoLoop with audio",
		Extension: "mp4",
		Suffix:    "_loop_audio",
		Encoder:   "libx264",
		args: concat(loopVideo, []string{
			"-acodec", "aac",
			"-b:a", "192k",
			"-color_trc", "bt709",
			"-movflags", "+faststart",
		}),
	},
	{
		ID:        ProRes,
		Name:      "ProRes 422 HQ",
		Extension: "mov",
		Suffix:    "_prores",
		Encoder:   "prores_ks",
		args: []string{
			"-hide_banner",
			"-vcodec", "prores_ks",
			"-profile:v", "3",
			"-pix_fmt", "yuv422p10le",
			"-acodec", "pcm_s16le",
		},
	},
}

// All returns every profile in display order
func All() []Profile {
	out := make([]Profile, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a profile by ID
func Lookup(id string) (Profile, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Default returns the profile used when none is selected
func Default() Profile {
	return catalog[0]
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

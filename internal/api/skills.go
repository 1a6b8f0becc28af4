// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package api

import (
	"github.com/ZSC714725/videoloop/internal/ffmpeg/skills"
	"github.com/ZSC714725/videoloop/internal/profile"
)

// SkillsResponse for GET /ffmpeg
type SkillsResponse struct {
	Binary string `json:"binary"`
	FFmpeg struct {
		Version       string `json:"version"`
		Compiler      string `json:"compiler"`
		Configuration string `json:"configuration"`
		Libraries     []struct {
			Name     string `json:"name"`
			Compiled string `json:"compiled"`
			Linked   string `json:"linked"`
		} `json:"libraries"`
	} `json:"ffmpeg"`

	Encoders struct {
		Video []SkillsEncoder `json:"video"`
		Audio []SkillsEncoder `json:"audio"`
	} `json:"encoders"`

	// MissingProfiles lists profiles this build cannot encode
	MissingProfiles []string `json:"missing_profiles"`
}

type SkillsEncoder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func skillsToAPI(binary string, s skills.Skills, missing []profile.Profile) SkillsResponse {
	resp := SkillsResponse{Binary: binary}

	resp.FFmpeg.Version = s.FFmpeg.Version
	resp.FFmpeg.Compiler = s.FFmpeg.Compiler
	resp.FFmpeg.Configuration = s.FFmpeg.Configuration
	resp.FFmpeg.Libraries = make([]struct {
		Name     string `json:"name"`
		Compiled string `json:"compiled"`
		Linked   string `json:"linked"`
	}, len(s.FFmpeg.Libraries))
	for i, lib := range s.FFmpeg.Libraries {
		resp.FFmpeg.Libraries[i] = struct {
			Name     string `json:"name"`
			Compiled string `json:"compiled"`
			Linked   string `json:"linked"`
		}{lib.Name, lib.Compiled, lib.Linked}
	}

	resp.Encoders.Video = []SkillsEncoder{}
	resp.Encoders.Audio = []SkillsEncoder{}
	for _, e := range s.Encoders {
		switch e.Type {
		case "video":
			resp.Encoders.Video = append(resp.Encoders.Video, SkillsEncoder{ID: e.Id, Name: e.Name})
		case "audio":
			resp.Encoders.Audio = append(resp.Encoders.Audio, SkillsEncoder{ID: e.Id, Name: e.Name})
		}
	}

	resp.MissingProfiles = make([]string, 0, len(missing))
	for _, p := range missing {
		resp.MissingProfiles = append(resp.MissingProfiles, p.ID)
	}

	return resp
}

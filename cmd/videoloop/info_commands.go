// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZSC714725/videoloop/internal/ffmpeg"
	"github.com/ZSC714725/videoloop/internal/prefs"
	"github.com/ZSC714725/videoloop/internal/profile"
)

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List export profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _ := ctx.prefsStore().Load()
			selected := p.ExportProfile().ID

			rows := make([][]string, 0, len(profile.All()))
			for _, pr := range profile.All() {
				rows = append(rows, []string{
					pr.ID,
					pr.Name,
					pr.FileName("clip"),
					pr.Encoder,
					yesNo(pr.ID == selected),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Output", "Encoder", "Selected"},
				rows, nil,
			))
			return nil
		},
	}
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the FFmpeg installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			rows := [][]string{}
			healthy := true

			probePath, err := ffmpeg.Locate(cfg.FFmpeg.ProbePath)
			if err != nil {
				rows = append(rows, []string{"ffprobe", "missing", "durations will show as unknown"})
			} else {
				rows = append(rows, []string{"ffprobe", "ok", probePath})
			}

			ff, err := ffmpeg.New(ffmpeg.Config{Binary: cfg.FFmpeg.Path})
			if err != nil {
				healthy = false
				rows = append(rows, []string{"ffmpeg", "missing", err.Error()})
			} else {
				sk := ff.Skills()
				rows = append(rows,
					[]string{"ffmpeg", "ok", ff.Binary()},
					[]string{"version", "ok", sk.FFmpeg.Version},
				)
				for _, pr := range profile.All() {
					status := "ok"
					for _, m := range ff.Missing([]profile.Profile{pr}) {
						status = "missing " + m.Encoder
					}
					rows = append(rows, []string{"profile " + pr.ID, status, pr.Encoder})
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if !healthy {
				return errors.New("ffmpeg is not usable")
			}
			return nil
		},
	}
}

func newPrefsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show the saved output directory and export profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := ctx.prefsStore()
			p, err := store.Load()
			if err != nil {
				return err
			}
			printPrefs(cmd, store.Path(), p)
			return nil
		},
	}

	var outputDir string
	var profileID string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change the saved output directory or export profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(outputDir) == "" && profileID == "" {
				return errors.New("nothing to change: pass --output or --profile")
			}
			store := ctx.prefsStore()
			p, err := store.Update(prefs.Preferences{OutputDir: outputDir, Profile: profileID})
			if err != nil {
				return err
			}
			printPrefs(cmd, store.Path(), p)
			return nil
		},
	}
	setCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory")
	setCmd.Flags().StringVarP(&profileID, "profile", "p", "", "Export profile id")
	cmd.AddCommand(setCmd)

	return cmd
}

func printPrefs(cmd *cobra.Command, path string, p prefs.Preferences) {
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Setting", "Value"},
		[][]string{
			{"output", p.OutputDir},
			{"profile", p.ExportProfile().ID},
			{"file", path},
		},
		nil,
	))
}

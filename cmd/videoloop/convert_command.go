// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ZSC714725/videoloop/internal/profile"
	"github.com/ZSC714725/videoloop/internal/queue"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var profileID string
	var besideSource bool

	cmd := &cobra.Command{
		Use:   "convert <file-or-dir>...",
		Short: "Convert video files and wait for the queue to finish",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := ctx.newLogger("videoloop", cmd.ErrOrStderr())

			p, err := ctx.prefsStore().Load()
			if err != nil {
				log.Error("loading preferences: %v", err)
			}
			if dir := strings.TrimSpace(outputDir); dir != "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
				p.OutputDir = abs
			}
			exportProfile := p.ExportProfile()
			if profileID != "" {
				pr, ok := profile.Lookup(profileID)
				if !ok {
					return fmt.Errorf("unknown profile %q", profileID)
				}
				exportProfile = pr
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			imported, importErr := ctx.newImporter(log, true).Import(runCtx, args...)
			if importErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", importErr)
			}
			if len(imported) == 0 {
				return fmt.Errorf("nothing to convert")
			}

			var groups []runGroup
			if besideSource {
				groups, err = groupBySourceDir(imported)
			} else {
				groups, err = singleGroup(p.OutputDir, imported)
			}
			if err != nil {
				return err
			}

			_, manager := ctx.pipeline(log, groups[0].jobs)
			defer manager.Close()

			out := cmd.OutOrStdout()
			var runErr error
			for _, g := range groups {
				if runCtx.Err() != nil {
					runErr = context.Canceled
					break
				}
				fmt.Fprintf(out, "Converting %d file(s) with %s into %s\n",
					g.jobs.Len(), exportProfile.Name, g.outputDir)

				if !manager.StartConversion(g.jobs, g.outputDir, exportProfile) {
					return fmt.Errorf("queue is already running")
				}
				if runErr = waitForRun(runCtx, out, manager); runErr != nil {
					break
				}
			}

			var all []queue.Job
			for _, g := range groups {
				all = append(all, g.jobs.Snapshot()...)
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Size", "Duration", "Status", "Output"},
				summaryRows(all),
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))

			if runErr != nil {
				return runErr
			}
			return runError(all)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to the saved preference)")
	cmd.Flags().StringVarP(&profileID, "profile", "p", "", "Export profile id")
	cmd.Flags().BoolVar(&besideSource, "beside-source", false, "Write each output next to its source file")
	cmd.MarkFlagsMutuallyExclusive("output", "beside-source")

	return cmd
}

// waitForRun renders progress until the run ends. Cancelling ctx cancels
// every job that has not finished and returns context.Canceled.
func waitForRun(ctx context.Context, out io.Writer, manager *queue.Manager) error {
	updates, unsubscribe := manager.ProgressUpdates()
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			manager.CancelAllConversions()
		case <-done:
		}
	}()

	last := ""
	for v := range updates {
		line := progressLine(v, manager)
		if line != last {
			fmt.Fprintln(out, line)
			last = line
		}
		if !manager.IsConverting() {
			break
		}
	}

	if ctx.Err() != nil {
		return context.Canceled
	}
	return nil
}

// runGroup is one run of the manager: jobs sharing an output directory
type runGroup struct {
	outputDir string
	jobs      *queue.List
}

func singleGroup(outputDir string, imported []queue.Job) ([]runGroup, error) {
	g := runGroup{outputDir: outputDir, jobs: queue.NewList()}
	for _, j := range imported {
		if _, err := g.jobs.Append(j); err != nil {
			return nil, err
		}
	}
	return []runGroup{g}, nil
}

// groupBySourceDir splits jobs by source directory, in first-seen order
func groupBySourceDir(imported []queue.Job) ([]runGroup, error) {
	var groups []runGroup
	index := map[string]int{}
	for _, j := range imported {
		dir := filepath.Dir(j.SourcePath)
		i, ok := index[dir]
		if !ok {
			i = len(groups)
			index[dir] = i
			groups = append(groups, runGroup{outputDir: dir, jobs: queue.NewList()})
		}
		if _, err := groups[i].jobs.Append(j); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func progressLine(overall float64, manager *queue.Manager) string {
	line := fmt.Sprintf("[%3.0f%%]", overall*100)
	if j, ok := manager.ActiveJob(); ok {
		line += fmt.Sprintf(" %s %3.0f%%", j.Name, j.Progress*100)
		if j.ETA != "" {
			line += " ETA " + j.ETA
		}
	}
	return line
}

func summaryRows(jobs []queue.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.Name,
			humanize.Bytes(uint64(max(j.Size, 0))),
			j.Duration,
			j.Status.String(),
			j.OutputPath,
		})
	}
	return rows
}

func runError(jobs []queue.Job) error {
	failed := 0
	for _, j := range jobs {
		if j.Status == queue.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(jobs))
	}
	return nil
}

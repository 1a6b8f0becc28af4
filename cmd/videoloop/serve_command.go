// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ZSC714725/videoloop/internal/api"
	"github.com/ZSC714725/videoloop/internal/ffmpeg"
	"github.com/ZSC714725/videoloop/internal/importer"
	"github.com/ZSC714725/videoloop/internal/logger"
	"github.com/ZSC714725/videoloop/internal/prefs"
	"github.com/ZSC714725/videoloop/internal/queue"
	"github.com/ZSC714725/videoloop/internal/watch"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var watchDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control API and the optional watch folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if bind == "" {
				bind = cfg.Server.Bind
			}
			if watchDir == "" {
				watchDir = cfg.Watch.Dir
			}

			log := ctx.newLogger("videoloop", cmd.ErrOrStderr())

			store := ctx.prefsStore()
			lockPath := filepath.Join(filepath.Dir(store.Path()), "serve.lock")
			if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
				return fmt.Errorf("lock dir: %w", err)
			}
			lock := flock.New(lockPath)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another videoloop server is already running")
			}
			defer lock.Unlock()

			ff, err := ffmpeg.New(ffmpeg.Config{Binary: cfg.FFmpeg.Path})
			if err != nil {
				log.Error("FFmpeg init: %v", err)
			}

			jobs := queue.NewList()
			sup, manager := ctx.pipeline(log, jobs)
			defer manager.Close()

			imp := ctx.newImporter(log, false)

			if cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			handler := api.NewHandler(api.Config{
				Jobs:     jobs,
				Manager:  manager,
				Importer: imp,
				Prefs:    store,
				FFmpeg:   ff,
				Stats:    sup.Stats,
				Logger:   logger.With(log, "component", "api"),
			})

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if watchDir != "" {
				w, err := watch.New(watch.Config{
					Dir:    watchDir,
					Logger: logger.With(log, "component", "watch"),
					OnReady: func(paths []string) {
						enqueueWatched(runCtx, log, imp, store, jobs, manager, cfg.Watch.Autostart, paths)
					},
				})
				if err != nil {
					return err
				}
				go func() {
					if err := w.Run(runCtx); err != nil {
						log.Error("watch %s: %v", w.Dir(), err)
					}
				}()
				log.Info("watching %s (autostart %s)", w.Dir(), yesNo(cfg.Watch.Autostart))
			}

			srv := &http.Server{
				Addr:    bind,
				Handler: api.SetupRouter(handler),
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info("VideoLoop listening on %s", bind)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server: %w", err)
				}
				return nil
			case <-runCtx.Done():
			}

			log.Info("shutting down")
			manager.CancelConversion()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Bind address (overrides config)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "Directory to watch for new videos (overrides config)")

	return cmd
}

// enqueueWatched appends settled files that are not queued yet and, with
// autostart, starts a run using the saved preferences. Files the queue
// writes itself are skipped, so a watch folder may double as the output
// folder.
func enqueueWatched(ctx context.Context, log logger.Logger, imp *importer.Importer, store *prefs.Store,
	jobs *queue.List, manager *queue.Manager, autostart bool, paths []string) {
	fresh := make([]string, 0, len(paths))
	for _, p := range paths {
		if !jobs.HasSource(p) && !jobs.HasOutput(p) {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		return
	}

	imported, err := imp.Import(ctx, fresh...)
	if err != nil {
		log.Error("importing watched files: %v", err)
	}
	for _, j := range imported {
		if _, err := jobs.Append(j); err != nil {
			log.Error("append %s: %v", j.SourcePath, err)
		}
	}
	if len(imported) == 0 || !autostart || manager.IsConverting() {
		return
	}

	p, err := store.Load()
	if err != nil {
		log.Error("loading preferences: %v", err)
	}
	manager.StartConversion(jobs, p.OutputDir, p.ExportProfile())
}

// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package main

import (
	"io"
	"strings"
	"sync"

	"github.com/ZSC714725/videoloop/internal/config"
	"github.com/ZSC714725/videoloop/internal/importer"
	"github.com/ZSC714725/videoloop/internal/logger"
	"github.com/ZSC714725/videoloop/internal/prefs"
	"github.com/ZSC714725/videoloop/internal/probe"
	"github.com/ZSC714725/videoloop/internal/process"
	"github.com/ZSC714725/videoloop/internal/queue"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg := config.Default()
		if c.configFlag != nil {
			if path := strings.TrimSpace(*c.configFlag); path != "" {
				loaded, err := config.Load(path)
				if err != nil {
					c.configErr = err
					return
				}
				cfg = loaded
			}
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Log.Level = *c.logLevelFlag
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return config.Default()
	}
	return cfg
}

func (c *commandContext) newLogger(component string, out io.Writer) logger.Logger {
	return logger.NewWithOptions(component, c.configValue().Log.Level, out)
}

func (c *commandContext) prefsStore() *prefs.Store {
	return prefs.NewStore(c.configValue().Preferences.Path)
}

func (c *commandContext) prober() probe.FFprobe {
	cfg := c.configValue()
	return probe.FFprobe{ProbeBinary: cfg.FFmpeg.ProbePath, FFmpegBinary: cfg.FFmpeg.Path}
}

func (c *commandContext) newImporter(log logger.Logger, skipThumbnails bool) *importer.Importer {
	return importer.New(importer.Config{
		Prober:         c.prober(),
		Logger:         logger.With(log, "component", "importer"),
		SkipThumbnails: skipThumbnails,
	})
}

// pipeline wires a supervisor and a manager bound to jobs
func (c *commandContext) pipeline(log logger.Logger, jobs *queue.List) (*process.Supervisor, *queue.Manager) {
	cfg := c.configValue()
	sup := process.New(process.Config{
		Binary:      cfg.FFmpeg.Path,
		KillTimeout: cfg.FFmpeg.KillTimeout,
		Logger:      logger.With(log, "component", "process"),
	})
	manager := queue.NewManager(sup,
		queue.WithJobs(jobs),
		queue.WithInterval(cfg.Queue.ProgressInterval),
		queue.WithLogger(logger.With(log, "component", "queue")),
	)
	return sup, manager
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Queue       QueueConfig       `yaml:"queue"`
	Log         LogConfig         `yaml:"log"`
	Preferences PreferencesConfig `yaml:"preferences"`
	Watch       WatchConfig       `yaml:"watch"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path        string        `yaml:"path"`
	ProbePath   string        `yaml:"probe_path"`
	KillTimeout time.Duration `yaml:"kill_timeout"`
}

// QueueConfig 队列配置
type QueueConfig struct {
	ProgressInterval time.Duration `yaml:"progress_interval"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
}

// PreferencesConfig 偏好设置文件位置
type PreferencesConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig 监视目录配置
type WatchConfig struct {
	Dir       string `yaml:"dir"`
	Autostart bool   `yaml:"autostart"`
}

const (
	defaultBind             = "127.0.0.1:8080"
	defaultFFmpeg           = "ffmpeg"
	defaultFFprobe          = "ffprobe"
	defaultKillTimeout      = 5 * time.Second
	defaultProgressInterval = 3 * time.Second
	defaultLogLevel         = "info"
)

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.fill()
	return cfg
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// 填充空值
	cfg.fill()
	return cfg, nil
}

func (c *Config) fill() {
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if c.FFmpeg.Path == "" {
		c.FFmpeg.Path = defaultFFmpeg
	}
	if c.FFmpeg.ProbePath == "" {
		c.FFmpeg.ProbePath = defaultFFprobe
	}
	if c.FFmpeg.KillTimeout <= 0 {
		c.FFmpeg.KillTimeout = defaultKillTimeout
	}
	if c.Queue.ProgressInterval <= 0 {
		c.Queue.ProgressInterval = defaultProgressInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Preferences.Path == "" {
		c.Preferences.Path = DefaultPreferencesPath()
	}
}

// DefaultPreferencesPath returns the per-user preferences file location
func DefaultPreferencesPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", "videoloop", "preferences.yaml")
	}
	return filepath.Join(dir, "videoloop", "preferences.yaml")
}

// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/videoloop/internal/ffmpeg"
	"github.com/ZSC714725/videoloop/internal/logger"
	"github.com/ZSC714725/videoloop/internal/prefs"
	"github.com/ZSC714725/videoloop/internal/process"
	"github.com/ZSC714725/videoloop/internal/profile"
	"github.com/ZSC714725/videoloop/internal/queue"
)

// Importer builds waiting jobs from paths
type Importer interface {
	Import(ctx context.Context, paths ...string) ([]queue.Job, error)
}

// Preferences is the persisted preference store
type Preferences interface {
	Load() (prefs.Preferences, error)
	Update(change prefs.Preferences) (prefs.Preferences, error)
}

// Config holds handler dependencies. FFmpeg and Stats may be nil.
type Config struct {
	Jobs     *queue.List
	Manager  *queue.Manager
	Importer Importer
	Prefs    Preferences
	FFmpeg   ffmpeg.FFmpeg
	Stats    func() process.Usage
	Logger   logger.Logger
}

// Handler holds dependencies
type Handler struct {
	jobs     *queue.List
	manager  *queue.Manager
	importer Importer
	prefs    Preferences
	ffmpeg   ffmpeg.FFmpeg
	stats    func() process.Usage
	logger   logger.Logger
}

// NewHandler creates API handler
func NewHandler(config Config) *Handler {
	h := &Handler{
		jobs:     config.Jobs,
		manager:  config.Manager,
		importer: config.Importer,
		prefs:    config.Prefs,
		ffmpeg:   config.FFmpeg,
		stats:    config.Stats,
		logger:   config.Logger,
	}
	if h.logger == nil {
		h.logger = logger.Nop()
	}
	return h
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

func jobErrResp(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrNotFound):
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
	case errors.Is(err, queue.ErrJobBusy):
		errResp(c, http.StatusConflict, "Job is converting", err.Error())
	case errors.Is(err, queue.ErrNotTerminal):
		errResp(c, http.StatusConflict, "Job has not finished", err.Error())
	default:
		errResp(c, http.StatusInternalServerError, "Job operation failed", err.Error())
	}
}

// ListJobs GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	status := c.DefaultQuery("status", "")

	jobs := h.jobs.Snapshot()
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if status != "" && j.Status.String() != status {
			continue
		}
		out = append(out, jobToAPI(j))
	}

	c.JSON(http.StatusOK, out)
}

// GetJob GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	j, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		jobErrResp(c, err)
		return
	}
	c.JSON(http.StatusOK, jobToAPI(j))
}

// GetThumbnail GET /api/v1/jobs/:id/thumbnail
func (h *Handler) GetThumbnail(c *gin.Context) {
	j, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		jobErrResp(c, err)
		return
	}
	if !j.HasThumbnail() {
		errResp(c, http.StatusNotFound, "No thumbnail", "")
		return
	}
	c.Data(http.StatusOK, "image/png", j.Thumbnail)
}

// AddJobs POST /api/v1/jobs
func (h *Handler) AddJobs(c *gin.Context) {
	var req AddJobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if len(req.Paths) == 0 {
		errResp(c, http.StatusBadRequest, "At least one path required", "")
		return
	}

	imported, importErr := h.importer.Import(c.Request.Context(), req.Paths...)
	if len(imported) == 0 {
		detail := ""
		if importErr != nil {
			detail = importErr.Error()
		}
		errResp(c, http.StatusBadRequest, "Nothing imported", detail)
		return
	}

	resp := AddJobsResponse{Jobs: make([]Job, 0, len(imported))}
	for _, j := range imported {
		stored, err := h.jobs.Append(j)
		if err != nil {
			h.logger.Error("append %s: %v", j.SourcePath, err)
			continue
		}
		resp.Jobs = append(resp.Jobs, jobToAPI(stored))
	}
	if importErr != nil {
		resp.Errors = importErr.Error()
	}

	c.JSON(http.StatusCreated, resp)
}

// DeleteJob DELETE /api/v1/jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	if err := h.jobs.Remove(c.Param("id")); err != nil {
		jobErrResp(c, err)
		return
	}
	c.JSON(http.StatusOK, "OK")
}

// ResetJob POST /api/v1/jobs/:id/reset
func (h *Handler) ResetJob(c *gin.Context) {
	id := c.Param("id")
	if err := h.jobs.Reset(id); err != nil {
		jobErrResp(c, err)
		return
	}
	h.GetJob(c)
}

// CancelJob POST /api/v1/jobs/:id/cancel
func (h *Handler) CancelJob(c *gin.Context) {
	if err := h.manager.CancelItem(c.Param("id")); err != nil {
		jobErrResp(c, err)
		return
	}
	h.GetJob(c)
}

// GetQueue GET /api/v1/queue
func (h *Handler) GetQueue(c *gin.Context) {
	c.JSON(http.StatusOK, h.queueState())
}

func (h *Handler) queueState() Queue {
	q := Queue{
		Running: h.manager.IsConverting(),
		Overall: h.manager.Overall(),
		Jobs:    h.jobs.Len(),
	}
	if j, ok := h.manager.ActiveJob(); ok {
		active := jobToAPI(j)
		q.Active = &active
		if h.stats != nil {
			usage := h.stats()
			q.Process = &usage
		}
	}
	return q
}

// StartQueue POST /api/v1/queue/start
func (h *Handler) StartQueue(c *gin.Context) {
	var req StartRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
			return
		}
	}

	p, err := h.prefs.Load()
	if err != nil {
		h.logger.Error("loading preferences: %v", err)
	}

	outputDir := p.OutputDir
	if dir := strings.TrimSpace(req.OutputDir); dir != "" {
		outputDir = dir
	}

	exportProfile := p.ExportProfile()
	if req.Profile != "" {
		pr, ok := profile.Lookup(req.Profile)
		if !ok {
			errResp(c, http.StatusBadRequest, "Unknown profile", req.Profile)
			return
		}
		exportProfile = pr
	}

	if !h.manager.StartConversion(h.jobs, outputDir, exportProfile) {
		errResp(c, http.StatusConflict, "Queue already running", "")
		return
	}

	c.JSON(http.StatusAccepted, h.queueState())
}

// CancelQueue POST /api/v1/queue/cancel
func (h *Handler) CancelQueue(c *gin.Context) {
	h.manager.CancelConversion()
	c.JSON(http.StatusOK, h.queueState())
}

// CancelAll POST /api/v1/queue/cancel-all
func (h *Handler) CancelAll(c *gin.Context) {
	h.manager.CancelAllConversions()
	c.JSON(http.StatusOK, h.queueState())
}

// ClearQueue DELETE /api/v1/queue
func (h *Handler) ClearQueue(c *gin.Context) {
	h.manager.ClearQueue()
	c.JSON(http.StatusOK, h.queueState())
}

// Progress GET /api/v1/queue/progress streams overall progress as
// server-sent events until the client goes away.
func (h *Handler) Progress(c *gin.Context) {
	updates, stop := h.manager.ProgressUpdates()
	defer stop()

	ctx := c.Request.Context()
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case v, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("progress", ProgressEvent{Overall: v, Running: h.manager.IsConverting()})
			return true
		}
	})
}

// ListProfiles GET /api/v1/profiles
func (h *Handler) ListProfiles(c *gin.Context) {
	all := profile.All()
	out := make([]Profile, 0, len(all))
	for _, p := range all {
		out = append(out, profileToAPI(p))
	}
	c.JSON(http.StatusOK, out)
}

// GetPreferences GET /api/v1/preferences
func (h *Handler) GetPreferences(c *gin.Context) {
	p, err := h.prefs.Load()
	if err != nil {
		errResp(c, http.StatusInternalServerError, "Reading preferences failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdatePreferences PUT /api/v1/preferences
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	p, err := h.prefs.Update(prefs.Preferences{OutputDir: req.OutputDir, Profile: req.Profile})
	if err != nil {
		if errors.Is(err, prefs.ErrUnknownProfile) {
			errResp(c, http.StatusBadRequest, "Unknown profile", err.Error())
			return
		}
		errResp(c, http.StatusInternalServerError, "Saving preferences failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, p)
}

// Skills GET /api/v1/ffmpeg
func (h *Handler) Skills(c *gin.Context) {
	if h.ffmpeg == nil {
		errResp(c, http.StatusServiceUnavailable, "FFmpeg not available", "")
		return
	}
	sk := h.ffmpeg.Skills()
	c.JSON(http.StatusOK, skillsToAPI(h.ffmpeg.Binary(), sk, h.ffmpeg.Missing(profile.All())))
}

// ReloadSkills POST /api/v1/ffmpeg/reload
func (h *Handler) ReloadSkills(c *gin.Context) {
	if h.ffmpeg == nil {
		errResp(c, http.StatusServiceUnavailable, "FFmpeg not available", "")
		return
	}
	if err := h.ffmpeg.ReloadSkills(); err != nil {
		errResp(c, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	h.Skills(c)
}

// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter registers the control API on a new engine
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/jobs", h.ListJobs)
		v1.POST("/jobs", h.AddJobs)
		v1.GET("/jobs/:id", h.GetJob)
		v1.DELETE("/jobs/:id", h.DeleteJob)
		v1.GET("/jobs/:id/thumbnail", h.GetThumbnail)
		v1.POST("/jobs/:id/reset", h.ResetJob)
		v1.POST("/jobs/:id/cancel", h.CancelJob)

		v1.GET("/queue", h.GetQueue)
		v1.DELETE("/queue", h.ClearQueue)
		v1.POST("/queue/start", h.StartQueue)
		v1.POST("/queue/cancel", h.CancelQueue)
		v1.POST("/queue/cancel-all", h.CancelAll)
		v1.GET("/queue/progress", h.Progress)

		v1.GET("/profiles", h.ListProfiles)
		v1.GET("/preferences", h.GetPreferences)
		v1.PUT("/preferences", h.UpdatePreferences)

		v1.GET("/ffmpeg", h.Skills)
		v1.POST("/ffmpeg/reload", h.ReloadSkills)
	}

	return r
}

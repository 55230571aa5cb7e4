package api

import (
	"fmt"
	"net/http"

	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/store"
	"github.com/gin-gonic/gin"
)

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	settings, err := ws.db.GetAppSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// handleUpdateSettings stores new rotation timings. Streams opened after the
// update use them; open streams keep the timings they started with.
func (ws *WebServer) handleUpdateSettings(c *gin.Context) {
	var req store.AppSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if req.RotationIntervalMillis <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "rotation_interval_ms must be positive"})
		return
	}
	if req.FadeMillis <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "fade_ms must be positive"})
		return
	}
	if req.FadeMillis >= req.RotationIntervalMillis {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "fade_ms must be shorter than rotation_interval_ms"})
		return
	}

	if err := ws.db.UpsertAppSettings(&req); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update settings: %v", err)})
		return
	}
	c.JSON(http.StatusOK, req)
}

func (ws *WebServer) handleGetSchedule(c *gin.Context) {
	schedule, err := ws.db.GetSchedule()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get schedule: %v", err)})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (ws *WebServer) handleUpdateSchedule(c *gin.Context) {
	var req store.Schedule
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if !validScheduleTime.MatchString(req.Start) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid start time format: need 23:15, got %s", req.Start)})
		return
	}
	if !validScheduleTime.MatchString(req.End) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid end time format: need 23:15, got %s", req.End)})
		return
	}

	newSchedule := &store.Schedule{
		Enabled: req.Enabled,
		Start:   req.Start,
		End:     req.End,
	}
	if err := ws.db.UpsertSchedule(newSchedule); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update schedule: %v", err)})
		return
	}

	open, err := IsOpen(newSchedule, ws.now().In(ws.loc))
	if err == nil {
		ws.SetOpen(open)
	}
	c.JSON(http.StatusOK, newSchedule)
}

func (ws *WebServer) handleStatus(c *gin.Context) {
	schedule, err := ws.db.GetSchedule()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get schedule: %v", err)})
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{
		Open:     ws.Open(),
		Schedule: schedule.Enabled,
		Start:    schedule.Start,
		End:      schedule.End,
	})
}

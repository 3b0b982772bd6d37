package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/watchpost-dev/watchpost/internal/store"
	"github.com/watchpost-dev/watchpost/internal/uptime"
	"github.com/watchpost-dev/watchpost/internal/utils"
	"go.uber.org/zap"
)

// Uptime is the shared service instance, wired once at startup.
var Uptime *uptime.Service

func Init(service *uptime.Service) {
	Uptime = service
}

type CreateMonitorRequest struct {
	Name               string            `json:"name" binding:"required"`
	URL                string            `json:"url" binding:"required,url"`
	Active             *bool             `json:"active"`
	Interval           *int              `json:"interval"` // seconds, one of the supported buckets
	Timeout            *int              `json:"timeout"`  // milliseconds
	ExpectedStatusCode *int              `json:"expected_status_code"`
	Headers            map[string]string `json:"headers"`
}

type UpdateMonitorRequest struct {
	Name               *string           `json:"name"`
	URL                *string           `json:"url" binding:"omitempty,url"`
	Active             *bool             `json:"active"`
	Interval           *int              `json:"interval"`
	Timeout            *int              `json:"timeout"`
	ExpectedStatusCode *int              `json:"expected_status_code"`
	Headers            map[string]string `json:"headers"`
}

func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, uptime.ErrMonitorNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
	case errors.Is(err, uptime.ErrMonitorInactive),
		errors.Is(err, uptime.ErrInvalidInterval),
		errors.Is(err, uptime.ErrInvalidTimeout):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		zap.L().Error("monitor request failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func CreateMonitor(ctx *gin.Context) {
	var req CreateMonitorRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	monitor, err := Uptime.CreateMonitor(userID, uptime.CreateMonitorInput{
		Name:               req.Name,
		URL:                req.URL,
		Active:             req.Active,
		Interval:           req.Interval,
		Timeout:            req.Timeout,
		ExpectedStatusCode: req.ExpectedStatusCode,
		Headers:            req.Headers,
	})

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, monitor)
}

func ListMonitors(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var filters store.MonitorFilters

	if raw := ctx.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid active filter"})
			return
		}
		filters.Active = &active
	}

	if raw := ctx.Query("interval"); raw != "" {
		interval, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid interval filter"})
			return
		}
		filters.Interval = &interval
	}

	if raw := ctx.Query("is_down"); raw != "" {
		isDown, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid is_down filter"})
			return
		}
		filters.IsDown = &isDown
	}

	monitors, err := Uptime.ListMonitors(userID, filters)

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, monitors)
}

func GetMonitor(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	monitorID, err := utils.GetMonitorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	monitor, err := Uptime.GetMonitor(userID, monitorID)

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, monitor)
}

func UpdateMonitor(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	monitorID, err := utils.GetMonitorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req UpdateMonitorRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	monitor, err := Uptime.UpdateMonitor(userID, monitorID, uptime.UpdateMonitorInput{
		Name:               req.Name,
		URL:                req.URL,
		Active:             req.Active,
		Interval:           req.Interval,
		Timeout:            req.Timeout,
		ExpectedStatusCode: req.ExpectedStatusCode,
		Headers:            req.Headers,
	})

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, monitor)
}

func DeleteMonitor(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	monitorID, err := utils.GetMonitorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := Uptime.DeleteMonitor(userID, monitorID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// TriggerCheck runs the same pipeline the scheduler uses, on demand. The
// monitor must belong to the caller and be active.
func TriggerCheck(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	monitorID, err := utils.GetMonitorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Ownership first, so a foreign monitor reads as missing instead of
	// leaking its active flag.
	if _, err := Uptime.GetMonitor(userID, monitorID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	check, err := Uptime.PerformCheck(ctx.Request.Context(), monitorID)

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, check)
}

func GetMonitorChecks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	monitorID, err := utils.GetMonitorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(ctx.Query("limit"))

	checks, err := Uptime.ListChecks(userID, monitorID, limit)

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, checks)
}

func GetMonitorIncidents(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	monitorID, err := utils.GetMonitorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(ctx.Query("limit"))

	incidents, err := Uptime.ListIncidents(userID, monitorID, limit)

	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, incidents)
}

package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/watchpost-dev/watchpost/internal/middleware"
	"github.com/watchpost-dev/watchpost/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uuid.UUID, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return uuid.Nil, err
	}

	return user.ID, nil
}

// GetMonitorID parses the :monitor_id path parameter.
func GetMonitorID(ctx *gin.Context) (uuid.UUID, error) {
	monitorIDStr := ctx.Param("monitor_id")

	if monitorIDStr == "" {
		return uuid.Nil, fmt.Errorf("Monitor ID not found")
	}

	monitorID, err := uuid.Parse(monitorIDStr)

	if err != nil {
		return uuid.Nil, fmt.Errorf("Invalid Monitor ID")
	}

	return monitorID, nil
}

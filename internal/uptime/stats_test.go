package uptime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchpost-dev/watchpost/internal/models"
	"gorm.io/gorm"
)

func insertCheckAt(t *testing.T, db *gorm.DB, monitorID uuid.UUID, success bool, responseTimeMs *float64, createdAt time.Time) {
	t.Helper()

	check := models.Check{
		MonitorID:    monitorID,
		Success:      success,
		ResponseTime: responseTimeMs,
	}
	require.NoError(t, db.Create(&check).Error)

	// BeforeCreate stamps created_at with now; push it back explicitly.
	require.NoError(t, db.Model(&models.Check{}).
		Where("id = ?", check.ID).
		Update("created_at", createdAt).Error)
}

func TestRefreshStatsMixedWindow(t *testing.T) {
	svc, _, db := newTestService(t)
	owner := newTestOwner(t, db)

	monitor := createTestMonitor(t, svc, owner, CreateMonitorInput{})

	latency := 100.0
	recent := time.Now().Add(-time.Hour)

	for i := 0; i < 8; i++ {
		insertCheckAt(t, db, monitor.ID, true, &latency, recent)
	}
	for i := 0; i < 2; i++ {
		insertCheckAt(t, db, monitor.ID, false, nil, recent)
	}

	require.NoError(t, svc.refreshStats(monitor.ID))

	reloaded, err := svc.GetMonitor(owner, monitor.ID)
	require.NoError(t, err)

	require.NotNil(t, reloaded.UptimePercentage)
	require.NotNil(t, reloaded.AverageResponseTime)
	require.NotNil(t, reloaded.LastCheckedAt)
	assert.InDelta(t, 80.0, *reloaded.UptimePercentage, 0.001)
	assert.InDelta(t, 100.0, *reloaded.AverageResponseTime, 0.001)
}

func TestRefreshStatsEmptyWindowLeavesStatsAlone(t *testing.T) {
	svc, _, db := newTestService(t)
	owner := newTestOwner(t, db)

	monitor := createTestMonitor(t, svc, owner, CreateMonitorInput{})

	require.NoError(t, db.Model(&models.Monitor{}).
		Where("id = ?", monitor.ID).
		Updates(map[string]interface{}{
			"uptime_percentage":     42.0,
			"average_response_time": 250.0,
		}).Error)

	require.NoError(t, svc.refreshStats(monitor.ID))

	reloaded, err := svc.GetMonitor(owner, monitor.ID)
	require.NoError(t, err)

	require.NotNil(t, reloaded.UptimePercentage)
	require.NotNil(t, reloaded.AverageResponseTime)
	assert.Equal(t, 42.0, *reloaded.UptimePercentage)
	assert.Equal(t, 250.0, *reloaded.AverageResponseTime)
	assert.Nil(t, reloaded.LastCheckedAt)
}

func TestRefreshStatsIgnoresChecksOutsideWindow(t *testing.T) {
	svc, _, db := newTestService(t)
	owner := newTestOwner(t, db)

	monitor := createTestMonitor(t, svc, owner, CreateMonitorInput{})

	latency := 500.0
	stale := time.Now().Add(-25 * time.Hour)
	insertCheckAt(t, db, monitor.ID, false, nil, stale)
	insertCheckAt(t, db, monitor.ID, true, &latency, stale)

	fresh := 90.0
	insertCheckAt(t, db, monitor.ID, true, &fresh, time.Now().Add(-time.Minute))

	require.NoError(t, svc.refreshStats(monitor.ID))

	reloaded, err := svc.GetMonitor(owner, monitor.ID)
	require.NoError(t, err)

	require.NotNil(t, reloaded.UptimePercentage)
	require.NotNil(t, reloaded.AverageResponseTime)
	assert.InDelta(t, 100.0, *reloaded.UptimePercentage, 0.001)
	assert.InDelta(t, 90.0, *reloaded.AverageResponseTime, 0.001)
}

// With no successful checks in the window the average collapses to zero
// rather than staying null.
func TestRefreshStatsAllFailures(t *testing.T) {
	svc, _, db := newTestService(t)
	owner := newTestOwner(t, db)

	monitor := createTestMonitor(t, svc, owner, CreateMonitorInput{})

	recent := time.Now().Add(-time.Hour)
	insertCheckAt(t, db, monitor.ID, false, nil, recent)
	insertCheckAt(t, db, monitor.ID, false, nil, recent)

	require.NoError(t, svc.refreshStats(monitor.ID))

	reloaded, err := svc.GetMonitor(owner, monitor.ID)
	require.NoError(t, err)

	require.NotNil(t, reloaded.UptimePercentage)
	require.NotNil(t, reloaded.AverageResponseTime)
	assert.Equal(t, 0.0, *reloaded.UptimePercentage)
	assert.Equal(t, 0.0, *reloaded.AverageResponseTime)
}

func TestPerformCheckUpdatesStats(t *testing.T) {
	svc, prober, db := newTestService(t)
	owner := newTestOwner(t, db)

	monitor := createTestMonitor(t, svc, owner, CreateMonitorInput{})
	prober.push(respondedWith(200, 150), respondedWith(200, 50))

	_, err := svc.PerformCheck(context.Background(), monitor.ID)
	require.NoError(t, err)
	_, err = svc.PerformCheck(context.Background(), monitor.ID)
	require.NoError(t, err)

	reloaded, err := svc.GetMonitor(owner, monitor.ID)
	require.NoError(t, err)

	require.NotNil(t, reloaded.UptimePercentage)
	require.NotNil(t, reloaded.AverageResponseTime)
	assert.InDelta(t, 100.0, *reloaded.UptimePercentage, 0.001)
	assert.InDelta(t, 100.0, *reloaded.AverageResponseTime, 0.001)
}

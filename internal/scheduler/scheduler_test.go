package scheduler

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchpost-dev/watchpost/internal/models"
	"github.com/watchpost-dev/watchpost/internal/probe"
	"github.com/watchpost-dev/watchpost/internal/store"
	"github.com/watchpost-dev/watchpost/internal/uptime"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// urlProber responds per target URL so one monitor in a bucket can fail
// while its siblings succeed.
type urlProber struct {
	failing map[string]bool
}

func (p *urlProber) Probe(ctx context.Context, target probe.Target) probe.Result {
	if p.failing[target.URL] {
		return probe.Result{Err: "connection refused"}
	}

	code := 200
	latency := 100.0
	return probe.Result{StatusCode: &code, ResponseTime: &latency}
}

func newTestScheduler(t *testing.T) (*Scheduler, *gorm.DB, *urlProber) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Monitor{},
		&models.Check{},
		&models.Incident{},
	))

	prober := &urlProber{failing: make(map[string]bool)}
	service := uptime.NewService(db, prober)

	return New(service, store.NewMonitorStore(db), zap.NewNop()), db, prober
}

func seedMonitor(t *testing.T, db *gorm.DB, url string, interval int, active bool) *models.Monitor {
	t.Helper()

	user := models.User{Name: "owner", Email: url + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	monitor := models.Monitor{
		OwnerID:            user.ID,
		Name:               url,
		URL:                url,
		Active:             active,
		Interval:           interval,
		Timeout:            models.DefaultTimeout,
		ExpectedStatusCode: models.DefaultExpectedStatusCode,
	}
	require.NoError(t, db.Create(&monitor).Error)

	return &monitor
}

func checkCount(t *testing.T, db *gorm.DB, monitor *models.Monitor) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Check{}).
		Where("monitor_id = ?", monitor.ID).
		Count(&count).Error)
	return count
}

func TestTickChecksOnlyDueMonitors(t *testing.T) {
	sched, db, _ := newTestScheduler(t)

	due := seedMonitor(t, db, "https://due.example.com", models.IntervalOneMinute, true)
	otherBucket := seedMonitor(t, db, "https://hourly.example.com", models.IntervalOneHour, true)
	paused := seedMonitor(t, db, "https://paused.example.com", models.IntervalOneMinute, false)

	sched.runChecksForInterval(context.Background(), models.IntervalOneMinute)

	assert.Equal(t, int64(1), checkCount(t, db, due))
	assert.Zero(t, checkCount(t, db, otherBucket))
	assert.Zero(t, checkCount(t, db, paused))
}

func TestTickAbsorbsSingleMonitorFailure(t *testing.T) {
	sched, db, prober := newTestScheduler(t)

	healthy := seedMonitor(t, db, "https://healthy.example.com", models.IntervalOneMinute, true)
	broken := seedMonitor(t, db, "https://broken.example.com", models.IntervalOneMinute, true)
	prober.failing[broken.URL] = true

	sched.runChecksForInterval(context.Background(), models.IntervalOneMinute)

	assert.Equal(t, int64(1), checkCount(t, db, healthy))
	assert.Equal(t, int64(1), checkCount(t, db, broken))

	var reloaded models.Monitor
	require.NoError(t, db.First(&reloaded, "id = ?", broken.ID).Error)
	assert.True(t, reloaded.IsDown)
}

// A tick caught by Stop mid-probe abandons its checks: nothing is
// persisted and no monitor is flagged down.
func TestCancelledTickRecordsNothing(t *testing.T) {
	sched, db, prober := newTestScheduler(t)

	monitor := seedMonitor(t, db, "https://slow.example.com", models.IntervalOneMinute, true)
	prober.failing[monitor.URL] = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sched.runChecksForInterval(ctx, models.IntervalOneMinute)

	assert.Zero(t, checkCount(t, db, monitor))

	var reloaded models.Monitor
	require.NoError(t, db.First(&reloaded, "id = ?", monitor.ID).Error)
	assert.False(t, reloaded.IsDown)
}

func TestTickWithEmptyBucket(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	// Must return promptly with nothing to do.
	sched.runChecksForInterval(context.Background(), models.IntervalOneMinute)
}

func TestStartStop(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	sched.Start()
	sched.Stop()

	// Stop on an already stopped scheduler is a no-op.
	stopped := New(sched.service, sched.monitors, zap.NewNop())
	stopped.Stop()
}

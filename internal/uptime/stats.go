package uptime

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const statsWindow = 24 * time.Hour

// refreshStats recomputes the trailing 24 hour rollup for a monitor. The
// window is created_at >= now-24h; the upper bound is implicit ("now"),
// which is equivalent in practice since no check can postdate the query.
//
// An empty window is a no-op: existing stats stay untouched rather than
// being reset. The average covers successful checks with a recorded
// latency and is written as 0 when that subset is empty. Consumers depend
// on the zero value, so it stays even though null would be cleaner.
func (s *Service) refreshStats(monitorID uuid.UUID) error {
	since := time.Now().Add(-statsWindow)

	total, err := s.checks.CountSince(monitorID, since)

	if err != nil {
		return fmt.Errorf("count checks: %w", err)
	}

	if total == 0 {
		return nil
	}

	successful, err := s.checks.CountSuccessfulSince(monitorID, since)

	if err != nil {
		return fmt.Errorf("count successful checks: %w", err)
	}

	uptimePercentage := float64(successful) / float64(total) * 100

	avg, err := s.checks.AverageResponseTimeSince(monitorID, since)

	if err != nil {
		return fmt.Errorf("average response time: %w", err)
	}

	averageResponseTime := 0.0
	if avg.Valid {
		averageResponseTime = avg.Float64
	}

	return s.monitors.Update(monitorID, map[string]interface{}{
		"uptime_percentage":     uptimePercentage,
		"average_response_time": averageResponseTime,
		"last_checked_at":       time.Now(),
	})
}

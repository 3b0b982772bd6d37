package uptime

import (
	"errors"
	"time"

	"github.com/watchpost-dev/watchpost/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const incidentReasonDown = "Service is down"

// trackTransition drives the incident state machine. The input is the
// success of the check just recorded; the current state is whatever
// is_down was when the monitor row was loaded at the start of the
// pipeline. Same-state inputs are no-ops, so a monitor flips on the first
// check that disagrees with its recorded flag.
//
// Caller holds the monitor's lock; the transaction keeps the incident row
// and the is_down flag consistent with each other.
func (s *Service) trackTransition(monitor *models.Monitor, success bool) error {
	was := stateFromFlag(monitor.IsDown)
	now := stateFromCheck(success)

	if was == now {
		return nil
	}

	switch now {
	case StateDown:
		return s.openIncident(monitor)
	default:
		return s.resolveIncident(monitor)
	}
}

func (s *Service) openIncident(monitor *models.Monitor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		incident := models.Incident{
			MonitorID: monitor.ID,
			StartedAt: time.Now(),
			Reason:    incidentReasonDown,
		}

		if err := s.incidents.WithTx(tx).Insert(&incident); err != nil {
			return err
		}

		return s.monitors.WithTx(tx).Update(monitor.ID, map[string]interface{}{"is_down": true})
	})
}

func (s *Service) resolveIncident(monitor *models.Monitor) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		open, err := s.incidents.WithTx(tx).FindOpenByMonitor(monitor.ID)

		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			// No open incident to close. The flag is cleared anyway
			// so the monitor self-heals, at the cost of losing the
			// duration of whatever outage got us here.
			zap.L().Warn("monitor flagged down without an open incident",
				zap.String("monitor_id", monitor.ID.String()))
		} else {
			resolvedAt := time.Now()
			duration := resolvedAt.Sub(open.StartedAt).Seconds()

			if err := s.incidents.WithTx(tx).Resolve(open.ID, resolvedAt, duration); err != nil {
				return err
			}
		}

		return s.monitors.WithTx(tx).Update(monitor.ID, map[string]interface{}{"is_down": false})
	})
}

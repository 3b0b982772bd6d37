// Package uptime implements the check pipeline: probing a monitor,
// recording the outcome, rolling up its 24 hour stats and driving the
// incident state machine.
package uptime

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/watchpost-dev/watchpost/internal/models"
	"github.com/watchpost-dev/watchpost/internal/probe"
	"github.com/watchpost-dev/watchpost/internal/store"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultChecksLimit    = 20
	DefaultIncidentsLimit = 10
)

type Service struct {
	db        *gorm.DB
	monitors  *store.MonitorStore
	checks    *store.CheckStore
	incidents *store.IncidentStore
	prober    probe.Prober
	locks     *monitorLocks

	onCheck func(monitor *models.Monitor, check *models.Check)
}

func NewService(db *gorm.DB, prober probe.Prober) *Service {
	return &Service{
		db:        db,
		monitors:  store.NewMonitorStore(db),
		checks:    store.NewCheckStore(db),
		incidents: store.NewIncidentStore(db),
		prober:    prober,
		locks:     newMonitorLocks(),
	}
}

// OnCheckRecorded registers a hook invoked after every successfully
// recorded check. Used to feed the websocket dashboard.
func (s *Service) OnCheckRecorded(fn func(monitor *models.Monitor, check *models.Check)) {
	s.onCheck = fn
}

type CreateMonitorInput struct {
	Name               string
	URL                string
	Active             *bool
	Interval           *int
	Timeout            *int
	ExpectedStatusCode *int
	Headers            map[string]string
}

func (s *Service) CreateMonitor(ownerID uuid.UUID, input CreateMonitorInput) (*models.Monitor, error) {
	monitor := models.Monitor{
		OwnerID:            ownerID,
		Name:               input.Name,
		URL:                input.URL,
		Active:             true,
		Interval:           models.IntervalFiveMinutes,
		Timeout:            models.DefaultTimeout,
		ExpectedStatusCode: models.DefaultExpectedStatusCode,
	}

	if input.Active != nil {
		monitor.Active = *input.Active
	}

	if input.Interval != nil {
		if !models.ValidInterval(*input.Interval) {
			return nil, ErrInvalidInterval
		}
		monitor.Interval = *input.Interval
	}

	if input.Timeout != nil {
		if *input.Timeout < models.MinTimeout || *input.Timeout > models.MaxTimeout {
			return nil, ErrInvalidTimeout
		}
		monitor.Timeout = *input.Timeout
	}

	if input.ExpectedStatusCode != nil {
		monitor.ExpectedStatusCode = *input.ExpectedStatusCode
	}

	if len(input.Headers) > 0 {
		monitor.Headers = headersToJSON(input.Headers)
	}

	if err := s.monitors.Create(&monitor); err != nil {
		return nil, fmt.Errorf("create monitor: %w", err)
	}

	return &monitor, nil
}

func (s *Service) ListMonitors(ownerID uuid.UUID, filters store.MonitorFilters) ([]models.Monitor, error) {
	return s.monitors.List(ownerID, filters)
}

func (s *Service) GetMonitor(ownerID, id uuid.UUID) (*models.Monitor, error) {
	monitor, err := s.monitors.FindOwned(ownerID, id)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMonitorNotFound
		}
		return nil, err
	}

	return monitor, nil
}

type UpdateMonitorInput struct {
	Name               *string
	URL                *string
	Active             *bool
	Interval           *int
	Timeout            *int
	ExpectedStatusCode *int
	Headers            map[string]string
}

func (s *Service) UpdateMonitor(ownerID, id uuid.UUID, input UpdateMonitorInput) (*models.Monitor, error) {
	if _, err := s.GetMonitor(ownerID, id); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})

	if input.Name != nil {
		fields["name"] = *input.Name
	}

	if input.URL != nil {
		fields["url"] = *input.URL
	}

	if input.Active != nil {
		fields["active"] = *input.Active
	}

	if input.Interval != nil {
		if !models.ValidInterval(*input.Interval) {
			return nil, ErrInvalidInterval
		}
		fields["interval"] = *input.Interval
	}

	if input.Timeout != nil {
		if *input.Timeout < models.MinTimeout || *input.Timeout > models.MaxTimeout {
			return nil, ErrInvalidTimeout
		}
		fields["timeout"] = *input.Timeout
	}

	if input.ExpectedStatusCode != nil {
		fields["expected_status_code"] = *input.ExpectedStatusCode
	}

	if input.Headers != nil {
		fields["headers"] = headersToJSON(input.Headers)
	}

	if len(fields) > 0 {
		if err := s.monitors.Update(id, fields); err != nil {
			return nil, fmt.Errorf("update monitor: %w", err)
		}
	}

	return s.GetMonitor(ownerID, id)
}

// DeleteMonitor removes a monitor together with its checks and incidents.
// The cascade is issued explicitly so it behaves identically on every
// driver the stores run against.
func (s *Service) DeleteMonitor(ownerID, id uuid.UUID) error {
	monitor, err := s.GetMonitor(ownerID, id)

	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.checks.WithTx(tx).DeleteByMonitor(monitor.ID); err != nil {
			return err
		}

		if err := s.incidents.WithTx(tx).DeleteByMonitor(monitor.ID); err != nil {
			return err
		}

		return s.monitors.WithTx(tx).Delete(monitor.ID)
	})

	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}

	s.locks.forget(monitor.ID)
	return nil
}

// PerformCheck runs one probe for the monitor and records the outcome.
// A dead or misbehaving target is not an error here: it becomes a Check
// with success=false. Only missing/paused monitors and persistence
// problems surface as errors.
//
// The whole pipeline holds the monitor's lock, so two overlapping checks
// of the same monitor (scheduler tick plus manual trigger) serialize and
// the incident machine sees transitions one at a time.
func (s *Service) PerformCheck(ctx context.Context, monitorID uuid.UUID) (*models.Check, error) {
	unlock := s.locks.lock(monitorID)
	defer unlock()

	monitor, err := s.monitors.FindByID(monitorID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMonitorNotFound
		}
		return nil, fmt.Errorf("load monitor: %w", err)
	}

	if !monitor.Active {
		return nil, ErrMonitorInactive
	}

	result := s.prober.Probe(ctx, probe.Target{
		URL:     monitor.URL,
		Timeout: monitor.Timeout,
		Headers: headersFromJSON(monitor.Headers),
	})

	// A probe cut short by a cancelled context (shutdown, dropped
	// request) says nothing about the target. The check is abandoned,
	// not recorded as a failure.
	if !result.Received() && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	check := models.Check{MonitorID: monitor.ID}

	if result.Received() {
		check.StatusCode = result.StatusCode
		check.ResponseTime = result.ResponseTime
		check.Success = *result.StatusCode == monitor.ExpectedStatusCode

		if !check.Success {
			msg := fmt.Sprintf("Expected status %d, got %d", monitor.ExpectedStatusCode, *result.StatusCode)
			check.Error = &msg
		}
	} else {
		check.Success = false
		msg := result.Err
		check.Error = &msg
	}

	if err := s.checks.Insert(&check); err != nil {
		return nil, fmt.Errorf("persist check: %w", err)
	}

	// Stats run before incident tracking by convention; the incident
	// machine only reads is_down, so a stats failure must not undo the
	// already persisted check.
	if err := s.refreshStats(monitor.ID); err != nil {
		zap.L().Error("failed to refresh monitor stats",
			zap.String("monitor_id", monitor.ID.String()),
			zap.Error(err))
	}

	if err := s.trackTransition(monitor, check.Success); err != nil {
		return &check, fmt.Errorf("apply status transition: %w", err)
	}

	if s.onCheck != nil {
		s.onCheck(monitor, &check)
	}

	return &check, nil
}

func (s *Service) ListChecks(ownerID, monitorID uuid.UUID, limit int) ([]models.Check, error) {
	if _, err := s.GetMonitor(ownerID, monitorID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultChecksLimit
	}

	return s.checks.RecentByMonitor(monitorID, limit)
}

func (s *Service) ListIncidents(ownerID, monitorID uuid.UUID, limit int) ([]models.Incident, error) {
	if _, err := s.GetMonitor(ownerID, monitorID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultIncidentsLimit
	}

	return s.incidents.RecentByMonitor(monitorID, limit)
}

func headersToJSON(headers map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}

func headersFromJSON(headers datatypes.JSONMap) map[string]string {
	if len(headers) == 0 {
		return nil
	}

	out := make(map[string]string, len(headers))
	for key, value := range headers {
		if str, ok := value.(string); ok {
			out[key] = str
		}
	}
	return out
}

package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/watchpost-dev/watchpost/internal/models"
	"gorm.io/gorm"
)

type IncidentStore struct {
	db *gorm.DB
}

func NewIncidentStore(db *gorm.DB) *IncidentStore {
	return &IncidentStore{db: db}
}

func (s *IncidentStore) WithTx(tx *gorm.DB) *IncidentStore {
	return &IncidentStore{db: tx}
}

func (s *IncidentStore) Insert(incident *models.Incident) error {
	return s.db.Create(incident).Error
}

// FindOpenByMonitor returns the newest unresolved incident, or
// gorm.ErrRecordNotFound when none is open.
func (s *IncidentStore) FindOpenByMonitor(monitorID uuid.UUID) (*models.Incident, error) {
	var incident models.Incident

	if err := s.db.Where("monitor_id = ? AND resolved_at IS NULL", monitorID).
		Order("started_at DESC").
		First(&incident).Error; err != nil {
		return nil, err
	}

	return &incident, nil
}

func (s *IncidentStore) Resolve(id uuid.UUID, resolvedAt time.Time, duration float64) error {
	return s.db.Model(&models.Incident{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resolved_at": resolvedAt,
			"duration":    duration,
		}).Error
}

func (s *IncidentStore) RecentByMonitor(monitorID uuid.UUID, limit int) ([]models.Incident, error) {
	var incidents []models.Incident

	if err := s.db.Where("monitor_id = ?", monitorID).
		Order("started_at DESC").
		Limit(limit).
		Find(&incidents).Error; err != nil {
		return nil, err
	}

	return incidents, nil
}

func (s *IncidentStore) DeleteByMonitor(monitorID uuid.UUID) error {
	return s.db.Where("monitor_id = ?", monitorID).Delete(&models.Incident{}).Error
}

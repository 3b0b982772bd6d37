// Package store wraps the GORM handle in one thin store type per
// aggregate. Stores never interpret results; policy lives in the uptime
// service.
package store

import (
	"github.com/google/uuid"
	"github.com/watchpost-dev/watchpost/internal/models"
	"gorm.io/gorm"
)

type MonitorStore struct {
	db *gorm.DB
}

func NewMonitorStore(db *gorm.DB) *MonitorStore {
	return &MonitorStore{db: db}
}

// WithTx returns a copy bound to the given transaction.
func (s *MonitorStore) WithTx(tx *gorm.DB) *MonitorStore {
	return &MonitorStore{db: tx}
}

func (s *MonitorStore) Create(monitor *models.Monitor) error {
	return s.db.Create(monitor).Error
}

func (s *MonitorStore) FindByID(id uuid.UUID) (*models.Monitor, error) {
	var monitor models.Monitor

	if err := s.db.Where("id = ?", id).First(&monitor).Error; err != nil {
		return nil, err
	}

	return &monitor, nil
}

// FindOwned resolves a monitor scoped to its owner. An existing monitor
// owned by someone else is indistinguishable from a missing one.
func (s *MonitorStore) FindOwned(ownerID, id uuid.UUID) (*models.Monitor, error) {
	var monitor models.Monitor

	if err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&monitor).Error; err != nil {
		return nil, err
	}

	return &monitor, nil
}

type MonitorFilters struct {
	Active   *bool
	Interval *int
	IsDown   *bool
}

func (s *MonitorStore) List(ownerID uuid.UUID, filters MonitorFilters) ([]models.Monitor, error) {
	query := s.db.Where("owner_id = ?", ownerID)

	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}

	if filters.Interval != nil {
		query = query.Where("interval = ?", *filters.Interval)
	}

	if filters.IsDown != nil {
		query = query.Where("is_down = ?", *filters.IsDown)
	}

	var monitors []models.Monitor

	if err := query.Order("created_at DESC").Find(&monitors).Error; err != nil {
		return nil, err
	}

	return monitors, nil
}

func (s *MonitorStore) FindActiveByInterval(interval int) ([]models.Monitor, error) {
	var monitors []models.Monitor

	if err := s.db.Where("active = ? AND interval = ?", true, interval).Find(&monitors).Error; err != nil {
		return nil, err
	}

	return monitors, nil
}

// Update applies a partial column update so concurrent writers of
// unrelated fields never clobber each other.
func (s *MonitorStore) Update(id uuid.UUID, fields map[string]interface{}) error {
	return s.db.Model(&models.Monitor{}).Where("id = ?", id).Updates(fields).Error
}

func (s *MonitorStore) Delete(id uuid.UUID) error {
	return s.db.Where("id = ?", id).Delete(&models.Monitor{}).Error
}

package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/watchpost-dev/watchpost/internal/models"
	"gorm.io/gorm"
)

type CheckStore struct {
	db *gorm.DB
}

func NewCheckStore(db *gorm.DB) *CheckStore {
	return &CheckStore{db: db}
}

func (s *CheckStore) WithTx(tx *gorm.DB) *CheckStore {
	return &CheckStore{db: tx}
}

func (s *CheckStore) Insert(check *models.Check) error {
	return s.db.Create(check).Error
}

func (s *CheckStore) RecentByMonitor(monitorID uuid.UUID, limit int) ([]models.Check, error) {
	var checks []models.Check

	if err := s.db.Where("monitor_id = ?", monitorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&checks).Error; err != nil {
		return nil, err
	}

	return checks, nil
}

func (s *CheckStore) CountSince(monitorID uuid.UUID, since time.Time) (int64, error) {
	var total int64

	err := s.db.Model(&models.Check{}).
		Where("monitor_id = ? AND created_at >= ?", monitorID, since).
		Count(&total).Error

	return total, err
}

func (s *CheckStore) CountSuccessfulSince(monitorID uuid.UUID, since time.Time) (int64, error) {
	var successful int64

	err := s.db.Model(&models.Check{}).
		Where("monitor_id = ? AND success = ? AND created_at >= ?", monitorID, true, since).
		Count(&successful).Error

	return successful, err
}

// AverageResponseTimeSince averages latency over successful checks that
// actually recorded one. The NullFloat64 is invalid when that set is empty.
func (s *CheckStore) AverageResponseTimeSince(monitorID uuid.UUID, since time.Time) (sql.NullFloat64, error) {
	var avg sql.NullFloat64

	err := s.db.Model(&models.Check{}).
		Select("AVG(response_time)").
		Where("monitor_id = ? AND success = ? AND response_time IS NOT NULL AND created_at >= ?",
			monitorID, true, since).
		Scan(&avg).Error

	return avg, err
}

func (s *CheckStore) DeleteByMonitor(monitorID uuid.UUID) error {
	return s.db.Where("monitor_id = ?", monitorID).Delete(&models.Check{}).Error
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Incident is one contiguous down period for a monitor. It is open while
// ResolvedAt is null; at most one open incident exists per monitor.
type Incident struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MonitorID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"monitor_id"`
	StartedAt  time.Time  `gorm:"not null;index" json:"started_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
	Duration   *float64   `json:"duration"` // seconds, set only on resolution
	Reason     string     `json:"reason"`

	// Relationships
	Monitor Monitor `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.StartedAt.IsZero() {
		i.StartedAt = time.Now()
	}
	return nil
}

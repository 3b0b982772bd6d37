package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Check is one recorded probe outcome. Rows are immutable once written and
// only disappear when their monitor is deleted.
type Check struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MonitorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"monitor_id"`
	Success      bool      `gorm:"not null" json:"success"`
	StatusCode   *int      `json:"status_code"`
	ResponseTime *float64  `json:"response_time"` // milliseconds, set iff a response was received
	Error        *string   `json:"error"`         // set iff the check failed
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`

	// Relationships
	Monitor Monitor `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func (c *Check) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Check intervals supported by the scheduler, in seconds. Every active
// monitor belongs to exactly one of these buckets.
const (
	IntervalOneMinute      = 60
	IntervalFiveMinutes    = 300
	IntervalFifteenMinutes = 900
	IntervalThirtyMinutes  = 1800
	IntervalOneHour        = 3600
)

var CheckIntervals = []int{
	IntervalOneMinute,
	IntervalFiveMinutes,
	IntervalFifteenMinutes,
	IntervalThirtyMinutes,
	IntervalOneHour,
}

// Timeout bounds in milliseconds.
const (
	MinTimeout     = 1000
	MaxTimeout     = 30000
	DefaultTimeout = 5000
)

const DefaultExpectedStatusCode = 200

func ValidInterval(interval int) bool {
	for _, i := range CheckIntervals {
		if interval == i {
			return true
		}
	}
	return false
}

type Monitor struct {
	BaseModel

	OwnerID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name               string            `gorm:"not null" json:"name"`
	URL                string            `gorm:"not null" json:"url"`
	// No column default on Active: GORM omits zero-valued fields that
	// carry a default tag from the INSERT, which would persist a paused
	// creation as active. Writers always set the field explicitly.
	Active             bool              `gorm:"not null" json:"active"`
	Interval           int               `gorm:"not null;default:300" json:"interval"` // seconds
	Timeout            int               `gorm:"not null;default:5000" json:"timeout"` // milliseconds
	ExpectedStatusCode int               `gorm:"not null;default:200" json:"expected_status_code"`
	Headers            datatypes.JSONMap `json:"headers,omitempty"` // optional extra request headers

	// Derived fields, written only by the check pipeline.
	UptimePercentage    *float64   `json:"uptime_percentage"`
	AverageResponseTime *float64   `json:"average_response_time"` // milliseconds
	LastCheckedAt       *time.Time `json:"last_checked_at"`
	IsDown              bool       `gorm:"not null;default:false" json:"is_down"`

	// Relationships
	Owner     User       `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Checks    []Check    `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Incidents []Incident `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

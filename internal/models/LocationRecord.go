package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// UnknownLocationName is stored when reverse geocoding produced nothing usable.
	UnknownLocationName = "Unknown"
)

// LocationRecord is a bookmarked position on the user's timeline.
type LocationRecord struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Timestamp    *time.Time `json:"timestamp" gorm:"index"`
	LocationName string     `json:"location_name"`
	CustomName   *string    `json:"custom_name,omitempty"`
	Category     string     `json:"category" gorm:"index"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an id when the caller left it empty and applies the column defaults.
func (r *LocationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Timestamp == nil {
		now := time.Now()
		r.Timestamp = &now
	}
	r.Normalize()
	return nil
}

// Normalize applies the placeholder name, default category and unset custom name rules.
func (r *LocationRecord) Normalize() {
	if strings.TrimSpace(r.LocationName) == "" {
		r.LocationName = UnknownLocationName
	}
	r.Category = NormalizeCategory(r.Category)
	r.CustomName = NormalizeCustomName(r.CustomName)
}

// DisplayName is what the timeline and share payloads show for the record.
func (r LocationRecord) DisplayName() string {
	if r.CustomName != nil && *r.CustomName != "" {
		return *r.CustomName
	}
	if r.LocationName != "" {
		return r.LocationName
	}
	return UnknownLocationName
}

// SortTime is the timestamp used for timeline ordering; a missing timestamp counts as now.
func (r LocationRecord) SortTime(now time.Time) time.Time {
	if r.Timestamp == nil {
		return now
	}
	return *r.Timestamp
}

// NormalizeCustomName treats an empty override as unset.
func NormalizeCustomName(name *string) *string {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil
	}
	v := *name
	return &v
}

package models

import "time"

const (
	// SettingsID is the primary key of the single settings row.
	SettingsID      = 1
	DefaultLanguage = "en"
)

// Settings holds the app-wide preferences. There is exactly one row.
type Settings struct {
	ID         uint      `json:"-" gorm:"primaryKey"`
	Language   string    `json:"language" gorm:"not null;default:en"`
	IsDarkMode bool      `json:"is_dark_mode" gorm:"not null;default:false"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DefaultSettings returns the row created on first fetch.
func DefaultSettings() Settings {
	return Settings{ID: SettingsID, Language: DefaultLanguage}
}

package models

import "time"

// Theme is the UI theme preference stored for a user.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ExportFormat is the format used when a user exports their data.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

// Settings represents a user's preferences. Exactly one row exists per user;
// the row is created lazily on the first write.
type Settings struct {
	Base
	UserID               string       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Currency             string       `gorm:"size:3;not null" json:"currency"`
	Theme                Theme        `gorm:"not null" json:"theme"`
	NotificationsEnabled bool         `gorm:"default:true" json:"notifications_enabled"`
	ExportFormat         ExportFormat `gorm:"not null" json:"export_format"`
	SyncedAt             *time.Time   `json:"synced_at,omitempty"`
}

// DefaultSettings returns the settings a user has before ever saving any.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:               userID,
		Currency:             "USD",
		Theme:                ThemeSystem,
		NotificationsEnabled: true,
		ExportFormat:         ExportFormatCSV,
	}
}

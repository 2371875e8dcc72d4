package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Global sync settings
	SettingKeyActiveService = "active_service"

	// Library sync settings
	SettingKeyLibrarySyncEnabled     = "library_sync_enabled"
	SettingKeyLibrarySyncSchedule    = "library_sync_schedule"
	SettingKeyLibrarySyncLastAt      = "library_sync_last_at"
	SettingKeyLibrarySyncLastStatus  = "library_sync_last_status"
	SettingKeyLibrarySyncLastMessage = "library_sync_last_message"
	SettingKeyLibrarySyncEntries     = "library_sync_entries_synced"
)

// Per-service setting keys. Each service stores its own username and
// transport preference under "<service>_" prefixed keys.
func ServiceSettingKeyUsername(service string) string {
	return service + "_username"
}

func ServiceSettingKeyUseHTTPS(service string) string {
	return service + "_use_https"
}

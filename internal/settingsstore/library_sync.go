package settingsstore

import (
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/anisync/internal/entities"
)

// LibrarySyncConfig represents the effective configuration for periodic
// library synchronization.
type LibrarySyncConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
	Service  string `json:"service"`
	Username string `json:"username"`
}

// LibrarySyncStatus represents the last sync status.
type LibrarySyncStatus struct {
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
	Status        string     `json:"status,omitempty"` // "success", "failed", "running", ""
	Message       string     `json:"message,omitempty"`
	EntriesSynced int        `json:"entries_synced,omitempty"`
}

// GetLibrarySyncEnabled returns whether periodic sync is enabled
// (database > env > default).
func (s *SettingsStore) GetLibrarySyncEnabled() bool {
	setting, err := s.db.GetSetting(entities.SettingKeyLibrarySyncEnabled)
	if err == nil && setting.Value != "" {
		return setting.Value == "true" || setting.Value == "1"
	}

	if envVal := os.Getenv("LIBRARY_SYNC_ENABLED"); envVal != "" {
		return envVal == "true" || envVal == "1"
	}

	return false
}

func (s *SettingsStore) SetLibrarySyncEnabled(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyLibrarySyncEnabled, strconv.FormatBool(enabled))
}

// GetLibrarySyncSchedule returns the cron schedule (database > env > default).
func (s *SettingsStore) GetLibrarySyncSchedule() string {
	setting, err := s.db.GetSetting(entities.SettingKeyLibrarySyncSchedule)
	if err == nil && setting.Value != "" {
		return setting.Value
	}

	if envVal := os.Getenv("LIBRARY_SYNC_SCHEDULE"); envVal != "" {
		return envVal
	}

	return "0 */6 * * *" // Every 6 hours
}

func (s *SettingsStore) SetLibrarySyncSchedule(schedule string) error {
	return s.db.SetSetting(entities.SettingKeyLibrarySyncSchedule, schedule)
}

// GetLibrarySyncConfig returns the complete effective configuration.
func (s *SettingsStore) GetLibrarySyncConfig() LibrarySyncConfig {
	service := s.GetActiveService()
	return LibrarySyncConfig{
		Enabled:  s.GetLibrarySyncEnabled(),
		Schedule: s.GetLibrarySyncSchedule(),
		Service:  service,
		Username: s.GetUsername(service),
	}
}

// GetLibrarySyncLastAt returns when the last successful sync completed.
func (s *SettingsStore) GetLibrarySyncLastAt() *time.Time {
	setting, err := s.db.GetSetting(entities.SettingKeyLibrarySyncLastAt)
	if err != nil || setting.Value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, setting.Value)
	if err != nil {
		return nil
	}
	return &t
}

// SetLibrarySyncStatus records the outcome of a sync run.
func (s *SettingsStore) SetLibrarySyncStatus(status, message string, entriesSynced int) error {
	if status == "success" {
		now := time.Now().Format(time.RFC3339)
		if err := s.db.SetSetting(entities.SettingKeyLibrarySyncLastAt, now); err != nil {
			return err
		}
	}
	if err := s.db.SetSetting(entities.SettingKeyLibrarySyncLastStatus, status); err != nil {
		return err
	}
	if err := s.db.SetSetting(entities.SettingKeyLibrarySyncLastMessage, message); err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeyLibrarySyncEntries, strconv.Itoa(entriesSynced))
}

// GetLibrarySyncStatus returns the last recorded sync outcome.
func (s *SettingsStore) GetLibrarySyncStatus() LibrarySyncStatus {
	status := LibrarySyncStatus{
		LastSyncAt: s.GetLibrarySyncLastAt(),
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyLibrarySyncLastStatus); err == nil {
		status.Status = setting.Value
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyLibrarySyncLastMessage); err == nil {
		status.Message = setting.Value
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyLibrarySyncEntries); err == nil {
		status.EntriesSynced, _ = strconv.Atoi(setting.Value)
	}
	return status
}

// ValidateCronSchedule validates a cron schedule string.
func ValidateCronSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule.
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next sync will run based on the schedule.
func GetNextRunTime(schedule string) (*time.Time, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

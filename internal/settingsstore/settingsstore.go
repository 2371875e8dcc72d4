// Package settingsstore resolves application settings from layered sources.
//
// Priority: database > environment > default
package settingsstore

import (
	"os"
	"strings"

	"github.com/mrlokans/anisync/internal/database"
	"github.com/mrlokans/anisync/internal/entities"
)

const DefaultService = "anilist"

type SettingsStore struct {
	db *database.Database
}

func New(db *database.Database) *SettingsStore {
	return &SettingsStore{db: db}
}

// GetActiveService returns the canonical name of the service the library
// synchronizes with.
func (s *SettingsStore) GetActiveService() string {
	setting, err := s.db.GetSetting(entities.SettingKeyActiveService)
	if err == nil && setting.Value != "" {
		return setting.Value
	}

	if envVal := os.Getenv("ACTIVE_SERVICE"); envVal != "" {
		return envVal
	}

	return DefaultService
}

func (s *SettingsStore) SetActiveService(service string) error {
	return s.db.SetSetting(entities.SettingKeyActiveService, service)
}

// GetUsername returns the account name configured for a service. For Kitsu
// this is the numeric user id.
func (s *SettingsStore) GetUsername(service string) string {
	setting, err := s.db.GetSetting(entities.ServiceSettingKeyUsername(service))
	if err == nil && setting.Value != "" {
		return setting.Value
	}

	if envVal := os.Getenv(envKey(service, "USERNAME")); envVal != "" {
		return envVal
	}

	return ""
}

func (s *SettingsStore) SetUsername(service, username string) error {
	return s.db.SetSetting(entities.ServiceSettingKeyUsername(service), username)
}

// GetUseSecureTransport returns whether requests to a service go over HTTPS.
// Defaults to secure; plain HTTP has to be opted into explicitly.
func (s *SettingsStore) GetUseSecureTransport(service string) bool {
	setting, err := s.db.GetSetting(entities.ServiceSettingKeyUseHTTPS(service))
	if err == nil && setting.Value != "" {
		return setting.Value == "true" || setting.Value == "1"
	}

	if envVal := os.Getenv(envKey(service, "USE_HTTPS")); envVal != "" {
		return envVal == "true" || envVal == "1"
	}

	return true
}

func (s *SettingsStore) SetUseSecureTransport(service string, secure bool) error {
	value := "false"
	if secure {
		value = "true"
	}
	return s.db.SetSetting(entities.ServiceSettingKeyUseHTTPS(service), value)
}

func envKey(service, suffix string) string {
	return strings.ToUpper(service) + "_" + suffix
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrlokans/anisync/internal/scheduler"
	"github.com/mrlokans/anisync/internal/settingsstore"
	"github.com/mrlokans/anisync/internal/sync"
	"github.com/mrlokans/anisync/internal/tokenstore"
)

// SettingsController manages the active service, per-service account
// settings and stored access tokens.
type SettingsController struct {
	settingsStore *settingsstore.SettingsStore
	tokenStore    *tokenstore.TokenStore
	manager       *sync.Manager
	scheduler     *scheduler.LibrarySyncScheduler
}

func NewSettingsController(store *settingsstore.SettingsStore, tokens *tokenstore.TokenStore, manager *sync.Manager, sched *scheduler.LibrarySyncScheduler) *SettingsController {
	return &SettingsController{
		settingsStore: store,
		tokenStore:    tokens,
		manager:       manager,
		scheduler:     sched,
	}
}

// ServiceSettings describes one registered service in the settings response.
type ServiceSettings struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	UseHTTPS bool   `json:"use_https"`
	HasToken bool   `json:"has_token"`
	IsActive bool   `json:"is_active"`
}

// SettingsResponse is the response for GET /api/settings.
type SettingsResponse struct {
	ActiveService string            `json:"active_service"`
	Services      []ServiceSettings `json:"services"`
	SyncEnabled   bool              `json:"sync_enabled"`
	SyncSchedule  string            `json:"sync_schedule"`
	NextRun       *time.Time        `json:"next_run,omitempty"`
}

// GetSettings returns the current settings for every registered service.
func (controller *SettingsController) GetSettings(c *gin.Context) {
	active := controller.settingsStore.GetActiveService()

	var services []ServiceSettings
	for _, name := range controller.manager.Registry().Names() {
		hasToken := false
		if controller.tokenStore != nil {
			hasToken, _ = controller.tokenStore.HasToken(name)
		}
		services = append(services, ServiceSettings{
			Name:     name,
			Username: controller.settingsStore.GetUsername(name),
			UseHTTPS: controller.settingsStore.GetUseSecureTransport(name),
			HasToken: hasToken,
			IsActive: name == active,
		})
	}

	response := SettingsResponse{
		ActiveService: active,
		Services:      services,
		SyncEnabled:   controller.settingsStore.GetLibrarySyncEnabled(),
		SyncSchedule:  controller.settingsStore.GetLibrarySyncSchedule(),
	}
	if controller.scheduler != nil {
		response.NextRun = controller.scheduler.GetNextRunTime()
	}

	c.IndentedJSON(http.StatusOK, response)
}

// UpdateSettingsRequest is the request body for POST /api/settings.
type UpdateSettingsRequest struct {
	ActiveService string `json:"active_service"`
	Service       string `json:"service"`
	Username      string `json:"username"`
	UseHTTPS      *bool  `json:"use_https"`
	SyncEnabled   *bool  `json:"sync_enabled"`
	SyncSchedule  string `json:"sync_schedule"`
}

// UpdateSettings applies the provided settings and reschedules the sync job
// when its configuration changed.
func (controller *SettingsController) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if req.ActiveService != "" {
		if _, err := controller.manager.Registry().Get(req.ActiveService); err != nil {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := controller.settingsStore.SetActiveService(req.ActiveService); err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to save active service: " + err.Error()})
			return
		}
	}

	if req.Username != "" {
		service := req.Service
		if service == "" {
			service = controller.settingsStore.GetActiveService()
		}
		if err := controller.settingsStore.SetUsername(service, req.Username); err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to save username: " + err.Error()})
			return
		}
	}

	if req.UseHTTPS != nil {
		service := req.Service
		if service == "" {
			service = controller.settingsStore.GetActiveService()
		}
		if err := controller.settingsStore.SetUseSecureTransport(service, *req.UseHTTPS); err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to save transport setting: " + err.Error()})
			return
		}
	}

	rescheduleNeeded := false

	if req.SyncSchedule != "" {
		if err := settingsstore.ValidateCronSchedule(req.SyncSchedule); err != nil {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid cron schedule: " + err.Error()})
			return
		}
		if err := controller.settingsStore.SetLibrarySyncSchedule(req.SyncSchedule); err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to save schedule: " + err.Error()})
			return
		}
		rescheduleNeeded = true
	}

	if req.SyncEnabled != nil {
		if err := controller.settingsStore.SetLibrarySyncEnabled(*req.SyncEnabled); err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to save sync flag: " + err.Error()})
			return
		}
		rescheduleNeeded = true
	}

	if rescheduleNeeded && controller.scheduler != nil {
		if err := controller.scheduler.Reschedule(); err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "settings saved but reschedule failed: " + err.Error()})
			return
		}
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "settings saved"})
}

// SaveTokenRequest is the request body for POST /api/settings/token.
type SaveTokenRequest struct {
	Service string `json:"service"`
	Token   string `json:"token" binding:"required"`
}

// SaveToken stores an access token for a service, encrypted at rest.
func (controller *SettingsController) SaveToken(c *gin.Context) {
	if controller.tokenStore == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": "token store not available"})
		return
	}

	var req SaveTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	service := req.Service
	if service == "" {
		service = controller.settingsStore.GetActiveService()
	}
	if _, err := controller.manager.Registry().Get(service); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := controller.tokenStore.SaveToken(service, req.Token, time.Time{}); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to save token: " + err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "token saved", "service": service})
}

// DeleteToken removes the stored access token for a service.
func (controller *SettingsController) DeleteToken(c *gin.Context) {
	if controller.tokenStore == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": "token store not available"})
		return
	}

	service := c.Query("service")
	if service == "" {
		service = controller.settingsStore.GetActiveService()
	}

	if err := controller.tokenStore.DeleteToken(service); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to delete token: " + err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "token deleted", "service": service})
}

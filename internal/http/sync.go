package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrlokans/anisync/internal/scheduler"
	"github.com/mrlokans/anisync/internal/settingsstore"
	"github.com/mrlokans/anisync/internal/sync"
)

// SyncController exposes on-demand operations against the active service:
// library sync, title search and metadata fetch.
type SyncController struct {
	manager       *sync.Manager
	settingsStore *settingsstore.SettingsStore
	scheduler     *scheduler.LibrarySyncScheduler
}

func NewSyncController(manager *sync.Manager, store *settingsstore.SettingsStore, sched *scheduler.LibrarySyncScheduler) *SyncController {
	return &SyncController{
		manager:       manager,
		settingsStore: store,
		scheduler:     sched,
	}
}

// SyncStatusResponse is the response for GET /api/sync/status.
type SyncStatusResponse struct {
	Service   string                          `json:"service"`
	Status    settingsstore.LibrarySyncStatus `json:"status"`
	NextRun   *time.Time                      `json:"next_run,omitempty"`
	IsRunning bool                            `json:"is_running"`
	IsSyncing bool                            `json:"is_syncing"`
}

// TriggerLibrarySync starts a library sync in the background.
func (controller *SyncController) TriggerLibrarySync(c *gin.Context) {
	if controller.scheduler == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"error": "sync scheduler not available"})
		return
	}

	if controller.scheduler.IsSyncing() {
		c.IndentedJSON(http.StatusConflict, gin.H{"error": "sync already in progress"})
		return
	}

	if err := controller.scheduler.RunNow(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusAccepted, gin.H{"message": "library sync started"})
}

// GetSyncStatus returns the result of the last sync and the scheduler state.
func (controller *SyncController) GetSyncStatus(c *gin.Context) {
	response := SyncStatusResponse{
		Service: controller.settingsStore.GetActiveService(),
		Status:  controller.settingsStore.GetLibrarySyncStatus(),
	}

	if controller.scheduler != nil {
		response.NextRun = controller.scheduler.GetNextRunTime()
		response.IsRunning = controller.scheduler.IsRunning()
		response.IsSyncing = controller.scheduler.IsSyncing()
	}

	c.IndentedJSON(http.StatusOK, response)
}

// Search performs a title search against the active service. Matches are
// stored locally as a side effect; the response lists their external ids.
func (controller *SyncController) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	service := controller.settingsStore.GetActiveService()

	req := sync.NewRequest(sync.RequestSearchTitle)
	req.Data["title"] = query

	resp, err := controller.manager.Do(c.Request.Context(), service, req)
	if err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if msg := resp.Err(); msg != "" {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": msg})
		return
	}

	var ids []string
	if raw := resp.Data["ids"]; raw != "" {
		ids = strings.Split(raw, ",")
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"service": service,
		"query":   query,
		"ids":     ids,
		"count":   len(ids),
	})
}

// FetchMetadata fetches fresh metadata for one title by its external id on
// the active service and upserts it into the store.
func (controller *SyncController) FetchMetadata(c *gin.Context) {
	externalID := c.Param("id")
	if _, err := strconv.Atoi(externalID); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid anime id"})
		return
	}

	service := controller.settingsStore.GetActiveService()

	req := sync.NewRequest(sync.RequestGetMetadataByID)
	req.Data["id"] = externalID

	resp, err := controller.manager.Do(c.Request.Context(), service, req)
	if err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if msg := resp.Err(); msg != "" {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": msg})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"service": service,
		"id":      resp.Data["id"],
		"message": "metadata updated",
	})
}

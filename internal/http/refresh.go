package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/anisync/internal/database/anime"
	"github.com/mrlokans/anisync/internal/tasks"
	"gorm.io/gorm"
)

// RefreshController enqueues background metadata refreshes.
type RefreshController struct {
	taskClient *tasks.Client
	repo       *anime.Repository
}

func NewRefreshController(client *tasks.Client, repo *anime.Repository) *RefreshController {
	return &RefreshController{
		taskClient: client,
		repo:       repo,
	}
}

// RefreshAnime enqueues a refresh task for one stored anime.
func (controller *RefreshController) RefreshAnime(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid anime id"})
		return
	}

	if _, err := controller.repo.GetByID(uint(id)); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "anime not found"})
			return
		}
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ids, err := controller.taskClient.Add(tasks.RefreshAnimeTask{AnimeID: uint(id)}).Save()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue task: " + err.Error()})
		return
	}

	c.IndentedJSON(http.StatusAccepted, gin.H{"message": "refresh queued", "task_ids": ids})
}

// RefreshLibraryRequest is the optional request body for POST /api/library/refresh.
type RefreshLibraryRequest struct {
	StaleDays int `json:"stale_days"`
	BatchSize int `json:"batch_size"`
}

// RefreshLibrary enqueues a fan-out refresh over stale library items.
func (controller *RefreshController) RefreshLibrary(c *gin.Context) {
	var req RefreshLibraryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
	}

	task := tasks.RefreshLibraryTask{
		StaleDays: req.StaleDays,
		BatchSize: req.BatchSize,
	}
	ids, err := controller.taskClient.Add(task).Save()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue task: " + err.Error()})
		return
	}

	c.IndentedJSON(http.StatusAccepted, gin.H{"message": "library refresh queued", "task_ids": ids})
}

// GetTaskStatus returns the state of a queued task by its id.
func (controller *RefreshController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := controller.taskClient.Status(ctx, taskID)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"id": taskID, "status": taskStatusToString(status)})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mrlokans/anisync/internal/database/anime"
	"gorm.io/gorm"
)

// LibraryController serves the locally stored anime library.
type LibraryController struct {
	repo *anime.Repository
}

func NewLibraryController(repo *anime.Repository) *LibraryController {
	return &LibraryController{
		repo: repo,
	}
}

// GetLibrary returns every stored anime that has a library entry.
func (controller *LibraryController) GetLibrary(c *gin.Context) {
	items, err := controller.repo.GetLibrary()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"anime": items, "count": len(items)})
}

// GetByID returns one stored anime with its library entry.
func (controller *LibraryController) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid anime id"})
		return
	}

	item, err := controller.repo.GetByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "anime not found"})
			return
		}
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, item)
}

// GetStats returns counters over the local store.
func (controller *LibraryController) GetStats(c *gin.Context) {
	total, inLibrary, err := controller.repo.Count()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats := gin.H{
		"total_anime":     total,
		"library_entries": inLibrary,
	}

	c.IndentedJSON(http.StatusOK, stats)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/cinedex/internal/settings"
	"github.com/your-org/cinedex/internal/storage"
)

// AdminHandler exposes maintenance operations. The whole group sits
// behind the demo-mode guard in the router.
type AdminHandler struct {
	db       *storage.PostgresStore
	settings *settings.Store
}

func NewAdminHandler(db *storage.PostgresStore, settingsStore *settings.Store) *AdminHandler {
	return &AdminHandler{db: db, settings: settingsStore}
}

func (h *AdminHandler) Status(c *gin.Context) {
	status, err := h.db.GetAdminStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *AdminHandler) ResetFailedJobs(c *gin.Context) {
	n, err := h.db.ResetFailedJobs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": n})
}

func (h *AdminHandler) ResetProcessingJobs(c *gin.Context) {
	n, err := h.db.ResetProcessingJobs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": n})
}

func (h *AdminHandler) PurgeDeleted(c *gin.Context) {
	n, err := h.db.PurgeDeletedFiles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": n})
}

// PurgeOrphans hard-deletes file rows that no longer sit under any
// configured watch folder.
func (h *AdminHandler) PurgeOrphans(c *gin.Context) {
	folders, err := h.settings.WatchFolders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	n, err := h.db.PurgeOrphanFiles(c.Request.Context(), folders)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": n})
}

// WipeDatabase truncates the archive tables. Settings survive so the
// operator keeps watch folders and tunables.
func (h *AdminHandler) WipeDatabase(c *gin.Context) {
	if err := h.db.WipeArchive(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "wiped"})
}

// Stats serves archive-wide totals.
type StatsHandler struct {
	db *storage.PostgresStore
}

func NewStatsHandler(db *storage.PostgresStore) *StatsHandler {
	return &StatsHandler{db: db}
}

func (h *StatsHandler) Archive(c *gin.Context) {
	stats, err := h.db.GetArchiveStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Vectors(c *gin.Context) {
	stats, err := h.db.GetVectorStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": stats})
}

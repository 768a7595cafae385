package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/cinedex/internal/settings"
	"github.com/your-org/cinedex/internal/storage"
	"github.com/your-org/cinedex/pkg/dto"
)

type QueueHandler struct {
	db       *storage.PostgresStore
	settings *settings.Store
}

func NewQueueHandler(db *storage.PostgresStore, settingsStore *settings.Store) *QueueHandler {
	return &QueueHandler{db: db, settings: settingsStore}
}

// Status reports queue depth by state plus the job currently being
// enriched, if any.
func (h *QueueHandler) Status(c *gin.Context) {
	counts, err := h.db.CountJobsByStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.QueueStatusResponse{
		Counts: dto.QueueCounts{
			Pending:    counts.Pending,
			Processing: counts.Processing,
			Complete:   counts.Complete,
			Failed:     counts.Failed,
		},
	}

	current, err := h.db.CurrentJob(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if current != nil {
		jr := jobToResponse(&current.Job)
		jr.Filename = current.Filename
		jr.Path = current.Path
		resp.Current = &jr
	}

	c.JSON(http.StatusOK, resp)
}

// ScanProgress returns the live scan status document.
func (h *QueueHandler) ScanProgress(c *gin.Context) {
	progress, err := h.settings.ScanProgress(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/cinedex/internal/export"
	"github.com/your-org/cinedex/internal/storage"
	"github.com/your-org/cinedex/pkg/dto"
)

type ExportHandler struct {
	db *storage.PostgresStore
}

func NewExportHandler(db *storage.PostgresStore) *ExportHandler {
	return &ExportHandler{db: db}
}

// EDL renders the selected scenes as a CMX 3600 edit decision list and
// returns it as a download. Unknown scenes are skipped and counted in
// a response header.
func (h *ExportHandler) EDL(c *gin.Context) {
	var req dto.ExportEDLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clips, unresolved, err := export.ResolveScenes(c.Request.Context(), h.db, req.SceneIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(clips) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no selected scenes could be resolved"})
		return
	}

	title := req.Title
	if title == "" {
		title = "cinedex export"
	}
	edl := export.Generate(title, clips)

	filename := strings.ReplaceAll(title, " ", "_") + ".edl"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if len(unresolved) > 0 {
		c.Header("X-Unresolved-Scenes", fmt.Sprintf("%d", len(unresolved)))
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(edl))
}

package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/storage"
)

// MediaHandler serves scene posters and source video bytes.
type MediaHandler struct {
	db      *storage.PostgresStore
	posters storage.PosterStore
}

func NewMediaHandler(db *storage.PostgresStore, posters storage.PosterStore) *MediaHandler {
	return &MediaHandler{db: db, posters: posters}
}

// Thumbnail serves a scene's poster. Posters are immutable per key, so
// clients may cache them for a year.
func (h *MediaHandler) Thumbnail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("sceneId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scene id"})
		return
	}

	scene, err := h.db.GetScene(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if scene == nil || scene.PosterKey == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "poster not found"})
		return
	}

	data, err := h.posters.Get(c.Request.Context(), *scene.PosterKey)
	if err != nil {
		slog.Warn("poster fetch failed", "scene_id", id, "key", *scene.PosterKey, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "poster not found"})
		return
	}

	contentType := "image/webp"
	if strings.HasSuffix(*scene.PosterKey, ".jpg") {
		contentType = "image/jpeg"
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, contentType, data)
}

// Video streams the source file from disk with byte-range support for
// scrubbing.
func (h *MediaHandler) Video(c *gin.Context) {
	id, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	file, err := h.db.GetFile(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if file == nil || file.DeletedAt != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if _, err := os.Stat(file.Path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not available on disk"})
		return
	}

	c.File(file.Path)
}

package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/your-org/cinedex/internal/settings"
	"github.com/your-org/cinedex/pkg/dto"
)

type ConfigHandler struct {
	settings *settings.Store
}

func NewConfigHandler(settingsStore *settings.Store) *ConfigHandler {
	return &ConfigHandler{settings: settingsStore}
}

// WatchFolders lists the configured scan roots with a liveness check,
// so the UI can flag unmounted shares.
func (h *ConfigHandler) WatchFolders(c *gin.Context) {
	folders, err := h.settings.WatchFolders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.WatchFoldersResponse{Folders: make([]dto.WatchFolderStatus, 0, len(folders))}
	for _, f := range folders {
		accessible := false
		if info, err := os.Stat(f); err == nil && info.IsDir() {
			accessible = true
		}
		resp.Folders = append(resp.Folders, dto.WatchFolderStatus{Path: f, Accessible: accessible})
	}

	c.JSON(http.StatusOK, resp)
}

// Get reads one settings key. Unset keys return a null value rather
// than 404 so the UI can treat defaults uniformly.
func (h *ConfigHandler) Get(c *gin.Context) {
	key := c.Param("key")
	value, err := h.settings.Raw(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ConfigValue{Key: key, Value: value})
}

// Put writes one settings key. The body is {"value": <json>}; the
// value must be valid JSON but is otherwise uninterpreted here.
func (h *ConfigHandler) Put(c *gin.Context) {
	key := c.Param("key")

	var req dto.ConfigValue
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Value) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	if err := h.settings.SetRaw(c.Request.Context(), key, req.Value); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, settings.ErrInvalidValue) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ConfigValue{Key: key, Value: req.Value})
}

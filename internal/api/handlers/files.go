package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/storage"
	"github.com/your-org/cinedex/pkg/dto"
)

type FileHandler struct {
	db *storage.PostgresStore
}

func NewFileHandler(db *storage.PostgresStore) *FileHandler {
	return &FileHandler{db: db}
}

func (h *FileHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	files, total, err := h.db.ListFiles(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.FileResponse, 0, len(files))
	for i := range files {
		fr := fileToResponse(&files[i].File)
		fr.SceneCount = files[i].SceneCount
		resp = append(resp, fr)
	}

	c.JSON(http.StatusOK, dto.FileListResponse{Files: resp, Total: total, Limit: limit, Offset: offset})
}

func (h *FileHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	file, err := h.db.GetFile(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if file == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	scenes, err := h.db.ScenesForFile(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.FileDetailResponse{File: fileToResponse(file)}
	resp.File.SceneCount = len(scenes)
	resp.Scenes = make([]dto.SceneResponse, 0, len(scenes))
	for i := range scenes {
		resp.Scenes = append(resp.Scenes, sceneToResponse(&scenes[i]))
	}

	c.JSON(http.StatusOK, resp)
}

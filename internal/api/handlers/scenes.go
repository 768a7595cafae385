package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/storage"
	"github.com/your-org/cinedex/pkg/dto"
)

type SceneHandler struct {
	db *storage.PostgresStore
}

func NewSceneHandler(db *storage.PostgresStore) *SceneHandler {
	return &SceneHandler{db: db}
}

// List returns recently indexed scenes, newest first, with their faces
// attached.
func (h *SceneHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "40"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	details, err := h.db.ListRecentScenes(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.SceneResponse, 0, len(details))
	ids := make([]uuid.UUID, 0, len(details))
	for i := range details {
		resp = append(resp, sceneDetailToResponse(&details[i]))
		ids = append(ids, details[i].Scene.ID)
	}

	faces, err := h.db.FacesForScenes(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attachFaces(resp, faces)

	c.JSON(http.StatusOK, dto.SceneListResponse{Scenes: resp, Limit: limit, Offset: offset})
}

// Get returns one scene with file context, faces and stored embedding
// descriptions.
func (h *SceneHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scene id"})
		return
	}

	detail, err := h.db.GetSceneDetail(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "scene not found"})
		return
	}

	resp := dto.SceneDetailResponse{SceneResponse: sceneDetailToResponse(detail)}

	faces, err := h.db.FacesForScenes(c.Request.Context(), []uuid.UUID{id})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, f := range faces[id] {
		resp.Faces = append(resp.Faces, faceToSceneFace(f))
	}

	embeddings, err := h.db.SceneEmbeddingInfo(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp.Embeddings = make([]dto.EmbeddingInfo, 0, len(embeddings))
	for _, e := range embeddings {
		resp.Embeddings = append(resp.Embeddings, dto.EmbeddingInfo{
			ModelName:    e.ModelName,
			ModelVersion: e.ModelVersion,
			Dimension:    e.Dimension,
			CreatedAt:    e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, resp)
}

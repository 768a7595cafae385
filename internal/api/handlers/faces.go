package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/storage"
	"github.com/your-org/cinedex/pkg/dto"
)

type FaceHandler struct {
	db *storage.PostgresStore
}

func NewFaceHandler(db *storage.PostgresStore) *FaceHandler {
	return &FaceHandler{db: db}
}

// List returns identity clusters with their representative face, sized
// descending. Noise detections are excluded.
func (h *FaceHandler) List(c *gin.Context) {
	clusters, err := h.db.ListFaceClusters(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.FaceClusterResponse, 0, len(clusters))
	for _, cl := range clusters {
		resp = append(resp, dto.FaceClusterResponse{
			ClusterID:    cl.ClusterID,
			Size:         cl.Size,
			FaceID:       cl.FaceID,
			SceneID:      cl.SceneID,
			ThumbnailURL: "/api/thumbnail/" + cl.SceneID.String(),
		})
	}

	c.JSON(http.StatusOK, dto.FaceClustersResponse{Clusters: resp, Total: len(resp)})
}

func (h *FaceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face id"})
		return
	}

	detail, err := h.db.GetFaceDetail(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "face not found"})
		return
	}

	c.JSON(http.StatusOK, dto.FaceDetailResponse{
		Face:  faceToResponse(&detail.Face),
		Scene: sceneToResponse(&detail.Scene),
		File:  fileToResponse(&detail.File),
	})
}

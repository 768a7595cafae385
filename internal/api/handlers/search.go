package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/search"
	"github.com/your-org/cinedex/internal/storage"
	"github.com/your-org/cinedex/pkg/dto"
)

type SearchHandler struct {
	db     *storage.PostgresStore
	engine *search.Engine
}

func NewSearchHandler(db *storage.PostgresStore, engine *search.Engine) *SearchHandler {
	return &SearchHandler{db: db, engine: engine}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var q dto.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := search.Query{
		Filter: storage.CandidateFilter{
			FilenameContains:   q.Filename,
			PathContains:       q.Path,
			TranscriptContains: q.Transcript,
			Codec:              q.Codec,
			DurationMin:        q.DurationMin,
			DurationMax:        q.DurationMax,
			WidthMin:           q.WidthMin,
			WidthMax:           q.WidthMax,
			HeightMin:          q.HeightMin,
			HeightMax:          q.HeightMax,
			FPSMin:             q.FPSMin,
			FPSMax:             q.FPSMax,
		},
		Visual:               q.Q,
		VisualThreshold:      q.Threshold,
		VisualMatchThreshold: q.MatchThreshold,
		FaceThreshold:        q.FaceThreshold,
		TranscriptSemantic:   q.TranscriptSemantic,
		TranscriptThreshold:  q.TranscriptThreshold,
		Limit:                q.Limit,
	}

	if q.MatchSceneID != "" {
		id, err := uuid.Parse(q.MatchSceneID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match_scene_id"})
			return
		}
		query.VisualMatchScene = &id
	}
	if q.FaceID != "" {
		id, err := uuid.Parse(q.FaceID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face_id"})
			return
		}
		query.Face = &id
	}

	hits, err := h.engine.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, search.ErrRefNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]dto.SearchResult, 0, len(hits))
	ids := make([]uuid.UUID, 0, len(hits))
	for i := range hits {
		results = append(results, dto.SearchResult{
			SceneResponse:        sceneDetailToResponse(&hits[i].SceneDetail),
			Similarity:           hits[i].Similarity,
			FaceSimilarity:       hits[i].FaceSimilarity,
			TranscriptSimilarity: hits[i].TranscriptSimilarity,
		})
		ids = append(ids, hits[i].Scene.ID)
	}

	faces, err := h.db.FacesForScenes(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for i := range results {
		for _, f := range faces[results[i].ID] {
			results[i].Faces = append(results[i].Faces, faceToSceneFace(f))
		}
	}

	c.JSON(http.StatusOK, dto.SearchResponse{Results: results, Total: len(results)})
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/cinedex/internal/embed"
	"github.com/your-org/cinedex/internal/settings"
	"github.com/your-org/cinedex/internal/storage"
	"github.com/your-org/cinedex/pkg/dto"
)

type SystemHandler struct {
	db        *storage.PostgresStore
	inference *embed.Client
	settings  *settings.Store
	demoMode  bool
}

func NewSystemHandler(db *storage.PostgresStore, inference *embed.Client, settingsStore *settings.Store, demoMode bool) *SystemHandler {
	return &SystemHandler{db: db, inference: inference, settings: settingsStore, demoMode: demoMode}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz gates on the database only; the API can serve cached archive
// state without the inference sidecar.
func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "postgres": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "postgres": "ok"})
}

// Ready reports full-stack readiness for the UI: database, inference
// sidecar and the indexer run state.
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := dto.ReadyResponse{Database: "ok", Inference: "ok", DemoMode: h.demoMode}

	dbOK := true
	if err := h.db.Ping(ctx); err != nil {
		resp.Database = err.Error()
		dbOK = false
	}

	inferenceOK := true
	if err := h.inference.Healthy(ctx); err != nil {
		resp.Inference = err.Error()
		inferenceOK = false
	}

	state, err := h.settings.IndexerState(ctx)
	if err != nil {
		state = "unknown"
	}
	resp.IndexerState = state
	resp.Ready = dbOK && inferenceOK

	c.JSON(http.StatusOK, resp)
}

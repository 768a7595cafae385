package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/cinedex/internal/api/handlers"
	"github.com/your-org/cinedex/internal/api/ws"
	"github.com/your-org/cinedex/internal/embed"
	"github.com/your-org/cinedex/internal/search"
	"github.com/your-org/cinedex/internal/settings"
	"github.com/your-org/cinedex/internal/storage"
)

type RouterConfig struct {
	DB        *storage.PostgresStore
	Posters   storage.PosterStore
	Settings  *settings.Store
	Inference *embed.Client
	Engine    *search.Engine
	Hub       *ws.Hub
	DemoMode  bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	systemH := handlers.NewSystemHandler(cfg.DB, cfg.Inference, cfg.Settings, cfg.DemoMode)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	api.GET("/ready", systemH.Ready)

	searchH := handlers.NewSearchHandler(cfg.DB, cfg.Engine)
	api.GET("/search", searchH.Search)

	sceneH := handlers.NewSceneHandler(cfg.DB)
	api.GET("/scenes", sceneH.List)
	api.GET("/scenes/:id", sceneH.Get)

	fileH := handlers.NewFileHandler(cfg.DB)
	api.GET("/files", fileH.List)
	api.GET("/files/:id", fileH.Get)

	faceH := handlers.NewFaceHandler(cfg.DB)
	api.GET("/faces", faceH.List)
	api.GET("/faces/:id", faceH.Get)

	mediaH := handlers.NewMediaHandler(cfg.DB, cfg.Posters)
	api.GET("/thumbnail/:sceneId", mediaH.Thumbnail)
	api.GET("/video/:fileId", mediaH.Video)

	queueH := handlers.NewQueueHandler(cfg.DB, cfg.Settings)
	api.GET("/queue", queueH.Status)
	api.GET("/scan/progress", queueH.ScanProgress)

	configH := handlers.NewConfigHandler(cfg.Settings)
	api.GET("/watch-folders", configH.WatchFolders)
	api.GET("/config/:key", configH.Get)
	api.PUT("/config/:key", configH.Put)

	exportH := handlers.NewExportHandler(cfg.DB)
	api.POST("/export/edl", exportH.EDL)

	statsH := handlers.NewStatsHandler(cfg.DB)
	api.GET("/stats", statsH.Archive)
	api.GET("/stats/vectors", statsH.Vectors)

	api.GET("/events/ws", cfg.Hub.HandleWS)

	adminH := handlers.NewAdminHandler(cfg.DB, cfg.Settings)
	admin := api.Group("/admin")
	admin.Use(DemoGuard(cfg.DemoMode))
	admin.GET("/status", adminH.Status)
	admin.POST("/reset-failed-jobs", adminH.ResetFailedJobs)
	admin.POST("/reset-processing-jobs", adminH.ResetProcessingJobs)
	admin.POST("/purge-deleted", adminH.PurgeDeleted)
	admin.POST("/purge-orphans", adminH.PurgeOrphans)
	admin.DELETE("/database", adminH.WipeDatabase)

	return r
}

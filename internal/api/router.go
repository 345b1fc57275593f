package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/gradgate/internal/api/handlers"
	"github.com/your-org/gradgate/internal/api/ws"
	"github.com/your-org/gradgate/internal/auth"
	"github.com/your-org/gradgate/internal/checkin"
	"github.com/your-org/gradgate/internal/faceid"
	"github.com/your-org/gradgate/internal/queue"
	"github.com/your-org/gradgate/internal/storage"
)

type RouterConfig struct {
	SigningKey string
	Issuer     string
	DB         *storage.PostgresStore
	MinIO      *storage.MinIOStore
	Producer   *queue.Producer
	Hub        *ws.Hub
	Faces      *faceid.Service
	Checkin    *checkin.Service
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.Middleware(cfg.SigningKey, cfg.Issuer))

	// WebSocket feed for stage displays
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Students
	studentH := handlers.NewStudentHandler(cfg.Faces, cfg.DB)
	v1.POST("/students", studentH.Create)
	v1.GET("/students", studentH.List)
	v1.GET("/students/:pid", studentH.Get)
	v1.POST("/students/:pid/faces", studentH.AddFace)
	v1.DELETE("/students/:pid", auth.RequireAdmin(), studentH.Delete)

	// Identification
	identifyH := handlers.NewIdentifyHandler(cfg.Faces)
	v1.POST("/identify", identifyH.Identify)

	// Check-in queue
	queueH := handlers.NewQueueHandler(cfg.Checkin)
	v1.POST("/queue/push", queueH.Push)
	v1.POST("/queue/pop", queueH.Pop)
	v1.GET("/queue/:ceremonyId", queueH.View)

	// Reference data
	refH := handlers.NewReferenceHandler(cfg.DB)
	v1.GET("/ceremonies", refH.ListCeremonies)
	v1.GET("/degrees", refH.ListDegrees)

	return r
}

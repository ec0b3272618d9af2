package routes

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cppla/blogpub/config"
	"github.com/cppla/blogpub/controllers"
	"github.com/cppla/blogpub/events"
	"github.com/cppla/blogpub/middleware"
	"github.com/cppla/blogpub/repositories"
	"github.com/cppla/blogpub/utils"
	"github.com/cppla/blogpub/validators"
)

// Dependencies are the long-lived services the router hands to controllers.
type Dependencies struct {
	Config    config.AppConfig
	Repo      repositories.PublicationRepository
	Publisher events.Publisher
	// Redis backs the rate limiter when set
	Redis *redis.Client
	// AccessLog receives the request log; defaults to the rolling gin log
	AccessLog *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	switch cfg.GinMode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	r.Use(middleware.RequestID())
	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = ginLogger(cfg)
	}
	r.Use(ginzap.Ginzap(accessLog, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(accessLog, true))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins, "/public/"))

	health := controllers.NewHealthController(deps.Repo)
	// registered before the rate limiter so probes are never throttled
	r.GET("/health", health.Health)

	r.Use(middleware.NewRateLimiter(cfg.RateLimitPerMinute, deps.Redis).Middleware())

	public := r.Group("/public", middleware.PublicAssets())
	public.Static("/", cfg.PublicDir)

	pubController := controllers.NewPublicationController(deps.Repo, deps.Publisher)
	uploader := middleware.NewUploader(cfg.UploadDir(), cfg.UploadMaxMB, middleware.ImageExtensions)

	publications := r.Group(cfg.BasePath + "/publication")
	publications.POST("",
		uploader.Single("image"),
		middleware.ValidateFields(validators.CreatePublication, middleware.Sanitized(middleware.FormSource, "title", "description")),
		middleware.DeleteFileOnError(),
		middleware.HandleErrors(),
		pubController.Create,
	)
	publications.GET("/filter",
		middleware.ValidateFields(validators.FilterPublication, middleware.QuerySource),
		middleware.HandleErrors(),
		pubController.Filter,
	)
	publications.GET("", pubController.List)
	publications.GET("/:id", pubController.GetByID)
	publications.DELETE("/:id", pubController.SoftDelete)
	publications.PATCH("/:id",
		middleware.ValidateFields(validators.CreateComment, middleware.Sanitized(middleware.BodySource, "name", "comment")),
		middleware.HandleErrors(),
		pubController.AddComment,
	)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "route not found")
	})

	return r
}

// ginLogger opens the rolling access log, falling back to the app logger.
func ginLogger(cfg config.AppConfig) *zap.Logger {
	if cfg.GinPath == "" {
		return utils.Logger
	}
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnf("gin access log disabled, using app logger: %v", err)
		return utils.Logger
	}
	return gl
}

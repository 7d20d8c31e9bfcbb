// Package server is the HTTP boundary of kanmind: routing, payload binding,
// wire shapes and the mapping of domain errors to status codes.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"kanmind/internal/auth"
	"kanmind/internal/domain/errors"
	"kanmind/internal/kanban"
	"kanmind/internal/metrics"
	"kanmind/internal/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
)

// Pinger reports whether the entity store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Service *kanban.Service
	Tokens  *auth.Tokens
	Store   Pinger
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Limiter guards login and registration. Nil disables it.
	Limiter *ratelimit.Limiter
}

type API struct {
	httpSrv *http.Server
	svc     *kanban.Service
	tokens  *auth.Tokens
	store   Pinger
	logger  *slog.Logger
	metrics *metrics.Metrics
	limiter *ratelimit.Limiter
	valid   *validator.Validate
	origins []string
}

func NewAPI(cfg *Config, deps Deps) *API {
	if cfg == nil || deps.Service == nil || deps.Tokens == nil {
		return nil
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	api := &API{
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:     deps.Service,
		tokens:  deps.Tokens,
		store:   deps.Store,
		logger:  logger,
		metrics: m,
		limiter: deps.Limiter,
		valid:   newValidator(),
		origins: cfg.AllowedOrigins,
	}
	api.configRoutes()
	return api
}

func (api *API) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}
	api.logger.Info("http server listening", "addr", api.httpSrv.Addr)
	return api.httpSrv.ListenAndServe()
}

func (api *API) Shutdown(ctx context.Context) error {
	return api.httpSrv.Shutdown(ctx)
}

func (api *API) Handler() http.Handler {
	return api.httpSrv.Handler
}

func (api *API) configRoutes() {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(requestLogger(api.logger))
	router.Use(api.observe())
	router.Use(cors.New(corsConfig(api.origins)))
	router.Use(decompressRequest())
	router.Use(compressResponse())

	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method not allowed."})
	})
	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})

	router.GET("/healthz", api.healthz)
	router.GET("/metrics", gin.WrapH(api.metrics.Handler()))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login/", api.rateLimit(), api.login)
		authGroup.POST("/register/", api.rateLimit(), api.register)
		authGroup.GET("/email-check/", api.authenticate(), api.emailCheck)
	}

	boards := router.Group("/boards", api.authenticate())
	{
		boards.GET("/", api.listBoards)
		boards.POST("/", api.createBoard)
		boards.GET("/:boardID/", api.getBoard)
		boards.PATCH("/:boardID/", api.patchBoard)
		boards.PUT("/:boardID/", api.putBoard)
		boards.DELETE("/:boardID/", api.deleteBoard)
	}

	tasks := router.Group("/tasks", api.authenticate())
	{
		tasks.GET("/", api.listTasks)
		tasks.POST("/", api.createTask)
		tasks.GET("/assigned-to-me/", api.listAssignedTasks)
		tasks.GET("/reviewing/", api.listReviewingTasks)
		tasks.GET("/:taskID/", api.getTask)
		tasks.PATCH("/:taskID/", api.patchTask)
		tasks.PUT("/:taskID/", api.putTask)
		tasks.DELETE("/:taskID/", api.deleteTask)

		tasks.GET("/:taskID/comments/", api.listComments)
		tasks.POST("/:taskID/comments/", api.createComment)
		tasks.GET("/:taskID/comments/:commentID/", api.getComment)
		tasks.DELETE("/:taskID/comments/:commentID/", api.deleteComment)
	}

	api.httpSrv.Handler = router
}

// corsConfig allows every origin when none is configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

func (api *API) healthz(ctx *gin.Context) {
	if api.store == nil {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	if err := api.store.Ping(pingCtx); err != nil {
		api.logger.Warn("health check failed", "error", err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bind decodes the JSON body into req and runs its validate tags.
func (api *API) bind(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		api.writeError(ctx, bindErrorToErrorResponse(err))
		return false
	}
	if err := api.valid.Struct(req); err != nil {
		api.writeError(ctx, validationErrorToErrorResponse(err))
		return false
	}
	return true
}

package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner/internal/handler"
	"github.com/noah-isme/study-planner/internal/middleware"
	"github.com/noah-isme/study-planner/internal/service"
	"github.com/noah-isme/study-planner/internal/session"
	"github.com/noah-isme/study-planner/pkg/config"
	"github.com/noah-isme/study-planner/pkg/logger"
	corsmiddleware "github.com/noah-isme/study-planner/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/study-planner/pkg/middleware/requestid"
)

type routerDeps struct {
	metrics     *service.MetricsService
	holder      *session.Holder
	checks      map[string]handler.Pinger
	auth        *handler.AuthHandler
	subjects    *handler.SubjectHandler
	assessments *handler.AssessmentHandler
	dashboard   *handler.DashboardHandler
	transitions *handler.TransitionHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	ops := handler.NewMetricsHandler(deps.metrics, deps.checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/login", deps.auth.Login)
	auth.POST("/register", deps.auth.Register)
	auth.POST("/logout", deps.auth.Logout)
	auth.GET("/session", deps.auth.Session)

	protected := api.Group("", middleware.RequireSession(deps.holder))

	protected.GET("/subjects", deps.subjects.List)
	protected.POST("/subjects", deps.subjects.Create)
	protected.PUT("/subjects/:id", deps.subjects.Update)
	protected.DELETE("/subjects/:id", deps.subjects.Delete)

	protected.GET("/assessments", deps.assessments.List)
	protected.POST("/assessments", deps.assessments.Create)
	protected.PUT("/assessments/:id", deps.assessments.Update)
	protected.DELETE("/assessments/:id", deps.assessments.Delete)

	protected.GET("/stats", deps.dashboard.Stats)
	protected.GET("/dashboard", deps.dashboard.Dashboard)
	protected.GET("/dashboard/export", deps.dashboard.Export)
	protected.GET("/transitions", deps.transitions.List)

	return r
}

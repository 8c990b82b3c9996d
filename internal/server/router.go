package server

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/vive890/academic-resource-depot/internal/admin"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/config"
	"github.com/vive890/academic-resource-depot/internal/logger"
	"github.com/vive890/academic-resource-depot/internal/metrics"
	"github.com/vive890/academic-resource-depot/internal/resource"
	"github.com/vive890/academic-resource-depot/internal/stats"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config          config.Config
	DB              *pgxpool.Pool
	ObjectStore     *minio.Client
	Redis           *redis.Client
	AuthService     *auth.Service
	ResourceService *resource.Service
	StatsService    *stats.Service
	AdminService    *admin.Service
	// HealthChecks overrides the probes derived from DB, ObjectStore and Redis.
	HealthChecks []HealthCheck
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	metrics.InitMetrics()
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	checks := deps.HealthChecks
	if checks == nil {
		checks = defaultHealthChecks(deps)
	}
	registerHealthRoutes(router, checks)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.ResourceService != nil {
		resource.RegisterPublicRoutes(api, deps.ResourceService)
	}

	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService))

		if deps.ResourceService != nil {
			resource.RegisterRoutes(protected, deps.ResourceService)
		}
		if deps.StatsService != nil {
			stats.RegisterRoutes(protected, deps.StatsService)
		}
		if deps.AdminService != nil {
			admin.RegisterRoutes(protected, deps.AdminService)
		}
	}

	return router
}

func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	if err := resource.RegisterValidators(v); err != nil {
		zap.L().Error("register validators", zap.Error(err))
	}
}

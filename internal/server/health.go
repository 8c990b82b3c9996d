package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vive890/academic-resource-depot/internal/storage"
)

const readinessTimeout = 5 * time.Second

// HealthCheck is one dependency probed by /health/ready.
type HealthCheck struct {
	Component string
	Check     func(ctx context.Context) error
}

func registerHealthRoutes(router *gin.Engine, checks []HealthCheck) {
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "degraded",
					"component": hc.Component,
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func defaultHealthChecks(deps Dependencies) []HealthCheck {
	var checks []HealthCheck
	if deps.DB != nil {
		checks = append(checks, HealthCheck{Component: "postgres", Check: deps.DB.Ping})
	}
	if deps.ObjectStore != nil {
		checks = append(checks, HealthCheck{Component: "minio", Check: func(ctx context.Context) error {
			return storage.PingBucket(ctx, deps.ObjectStore, deps.Config.MinIO.Bucket)
		}})
	}
	if deps.Redis != nil {
		checks = append(checks, HealthCheck{Component: "redis", Check: func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}})
	}
	return checks
}

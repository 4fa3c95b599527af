// Package api wires the HTTP routes and the health endpoint.
package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/handlers"
	"github.com/earnwise/earnwise-go/internal/middleware"
)

type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	Services  Services      `json:"services"`
	System    SystemMetrics `json:"system"`
}

type Services struct {
	Redis string `json:"redis"`
}

type SystemMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryUsedPct float64 `json:"memoryUsedPct"`
	CPUUsedPct    float64 `json:"cpuUsedPct"`
}

// Dependencies carries everything the route table needs.
type Dependencies struct {
	Optimization *handlers.OptimizationHandler
	Auth         *handlers.AuthHandler
	AuthMW       *middleware.AuthMiddleware
	Redis        *redis.Client
	Logger       *logrus.Logger
}

// SetupRoutes registers the health endpoint and the /api/v1 route groups.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", healthCheck(deps.Redis))

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", deps.Auth.Register)
			authGroup.POST("/login", deps.Auth.Login)
			authGroup.POST("/refresh", deps.Auth.Refresh)
			authGroup.POST("/logout", deps.Auth.Logout)
			authGroup.GET("/session", deps.Auth.Session)
			authGroup.GET("/events", deps.AuthMW.RequireAuth(), deps.Auth.EventHistory)
		}

		optimization := v1.Group("/optimization", deps.AuthMW.RequireAuth())
		{
			optimization.GET("/recommendations", deps.Optimization.GetRecommendations)
			optimization.GET("/surge-zones", deps.Optimization.GetSurgeZones)
			optimization.GET("/current", deps.Optimization.GetSurgeData)
		}
	}
}

func healthCheck(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
			Version:   "1.0.0",
			Services:  Services{Redis: "ok"},
			System: SystemMetrics{
				Goroutines: runtime.NumGoroutine(),
			},
		}

		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				response.Services.Redis = "error"
				response.Status = "degraded"
			}
		} else {
			response.Services.Redis = "disabled"
		}

		if vm, err := mem.VirtualMemory(); err == nil {
			response.System.MemoryUsedPct = vm.UsedPercent
		}
		// Zero interval samples since the last call instead of blocking.
		if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
			response.System.CPUUsedPct = pcts[0]
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}

// Package router wires the gin engine: middleware, health and metrics
// endpoints, and the /api/v1 resource groups.
package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/serviconli/citas-api/internal/handler"
	appointmentHandler "github.com/serviconli/citas-api/internal/handler/appointment"
	requestHandler "github.com/serviconli/citas-api/internal/handler/request"
	"github.com/serviconli/citas-api/internal/middleware"
	"github.com/serviconli/citas-api/pkg/logger"
)

type Router struct {
	engine       *gin.Engine
	h            *handler.Handler
	requestH     *requestHandler.Handler
	appointmentH *appointmentHandler.Handler
	logger       *logger.Logger
}

func NewRouter(
	h *handler.Handler,
	requestH *requestHandler.Handler,
	appointmentH *appointmentHandler.Handler,
	log *logger.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	return &Router{
		engine:       gin.New(),
		h:            h,
		requestH:     requestH,
		appointmentH: appointmentH,
		logger:       log,
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) Setup() {
	middleware.RegisterValidators()

	r.engine.Use(gin.Recovery())
	r.engine.Use(r.requestLogger())

	r.engine.GET("/health/live", r.h.LivenessCheck)
	r.engine.GET("/health/ready", r.h.ReadinessCheck)
	r.engine.GET("/metrics", r.h.MetricsHandler)

	api := r.engine.Group("/api/v1")

	requests := api.Group("/requests")
	{
		requests.POST("", r.requestH.CreateRequest)
		requests.GET("", r.requestH.ListRequests)
		requests.GET("/:id", r.requestH.GetRequest)
		requests.POST("/:id/start", r.requestH.StartProcessing)
		requests.POST("/:id/complete", r.requestH.MarkCompleted)
		requests.POST("/:id/fail", r.requestH.MarkFailed)
		requests.POST("/:id/cancel", r.requestH.CancelRequest)
		requests.DELETE("/:id", r.requestH.DeleteRequest)
	}

	appointments := api.Group("/appointments")
	{
		appointments.POST("", r.appointmentH.CreateAppointment)
		appointments.GET("", r.appointmentH.ListAppointments)
		appointments.GET("/today", r.appointmentH.TodayAppointments)
		appointments.GET("/stats", r.appointmentH.GetDashboardStats)
		appointments.GET("/:id", r.appointmentH.GetAppointment)
		appointments.PUT("/:id", r.appointmentH.UpdateAppointment)
		appointments.POST("/:id/status", r.appointmentH.ChangeStatus)
		appointments.POST("/:id/send-confirmation", r.appointmentH.SendConfirmation)
		appointments.GET("/:id/history", r.appointmentH.GetHistory)
		appointments.DELETE("/:id", r.appointmentH.DeleteAppointment)
	}
}

func (r *Router) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		r.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

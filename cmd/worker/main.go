package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/serviconli/citas-api/internal/config"
	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/notification"
	"github.com/serviconli/citas-api/internal/notification/email"
	"github.com/serviconli/citas-api/internal/notification/whatsapp"
	"github.com/serviconli/citas-api/internal/repository/postgres"
	historyService "github.com/serviconli/citas-api/internal/service/history"
	reminderService "github.com/serviconli/citas-api/internal/service/reminder"
	"github.com/serviconli/citas-api/pkg/logger"
	"github.com/serviconli/citas-api/pkg/metrics"
)

// The worker owns the reminder dispatch loop: one sweep per poll interval,
// selecting due reminders and delivering them over WhatsApp.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("citas_worker")

	appointmentRepo := postgres.NewAppointmentRepository(db)
	reminderRepo := postgres.NewReminderRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)

	historySvc := historyService.NewService(historyRepo, log)
	channels := map[model.ReminderChannel]notification.Channel{
		model.ChannelWhatsApp: whatsapp.NewService(cfg.WhatsApp, log),
		model.ChannelEmail:    email.NewService(cfg.SMTP, log),
	}

	dispatcher := reminderService.NewDispatcher(
		reminderRepo,
		appointmentRepo,
		patientRepo,
		channels,
		historySvc,
		cfg.Reminders,
		reminderService.TemplateConfig{
			Reminder:     cfg.WhatsApp.TemplateReminder,
			Confirmation: cfg.WhatsApp.TemplateConfirmation,
			Language:     cfg.WhatsApp.Language,
		},
		log,
		m,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go dispatcher.Start(ctx)

	srv := healthServer(cfg.Server.Port, db.Ping)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start health server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down worker")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err, "health server forced to shutdown")
	}

	log.Info("worker exited")
}

func healthServer(port int, ping func() error) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "time": time.Now()})
	})
	engine.GET("/health/ready", func(c *gin.Context) {
		if err := ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "time": time.Now()})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
}

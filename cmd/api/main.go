package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"checkin/internal/checkin"
	"checkin/internal/config"
	"checkin/internal/directory"
	"checkin/internal/event"
	"checkin/internal/export"
	"checkin/internal/httpmiddleware"
	"checkin/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	ctx := context.Background()

	var (
		eventStore event.Store
		db         *store.DB
		redisConn  *store.Redis
	)
	switch cfg.StoreBackend {
	case "postgres":
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		pg := event.NewPostgresStore(db.Client, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		eventStore = pg
	case "redis":
		redisConn = store.NewRedis(cfg.RedisAddr)
		eventStore = event.NewRedisStore(redisConn.Client, cfg.RedisKey, logger)
	default:
		eventStore = event.NewFileStore(cfg.StorePath, logger)
	}

	events, err := event.NewService(ctx, eventStore, logger)
	if err != nil {
		return err
	}

	dir := directory.New(cfg.DirectoryBaseURL, cfg.LookupTimeout)
	sessions := checkin.NewManager(events, dir, cfg.FeedbackTTL, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics", "/v1/sessions/active"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok", "store": cfg.StoreBackend}
		if redisConn != nil && !redisConn.Healthy(c.Request.Context()) {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		if db != nil {
			if err := db.Client.PingContext(c.Request.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	})

	r.GET("/v1/events", func(c *gin.Context) {
		list := events.List()
		out := make([]gin.H, 0, len(list))
		for _, evt := range list {
			out = append(out, gin.H{
				"id":          evt.ID,
				"name":        evt.Name,
				"date":        evt.Date,
				"description": evt.Description,
				"checked_in":  len(evt.Attendees),
			})
		}
		c.JSON(http.StatusOK, gin.H{"events": out})
	})

	r.POST("/v1/events", func(c *gin.Context) {
		var req struct {
			Name        string `json:"name" binding:"required"`
			Date        string `json:"date" binding:"required"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		evt, err := events.Create(c.Request.Context(), req.Name, req.Date, req.Description)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, evt)
	})

	r.GET("/v1/events/:id", func(c *gin.Context) {
		evt, ok := events.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusOK, evt)
	})

	r.DELETE("/v1/events/:id", func(c *gin.Context) {
		id := c.Param("id")
		sessions.StopIfEvent(id)
		if err := events.Delete(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.GET("/v1/events/:id/export", func(c *gin.Context) {
		evt, ok := events.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		buf, err := export.Workbook(evt)
		if err != nil {
			if errors.Is(err, export.ErrNoAttendees) {
				c.JSON(http.StatusConflict, gin.H{"error": "no attendees to export"})
				return
			}
			logger.Error("export failed", zap.String("event_id", evt.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.Filename(evt)+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	})

	r.POST("/v1/sessions", func(c *gin.Context) {
		var req struct {
			EventID string `json:"event_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		st, err := sessions.Start(req.EventID)
		switch {
		case errors.Is(err, event.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		case errors.Is(err, checkin.ErrSessionActive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusCreated, st)
		}
	})

	r.DELETE("/v1/sessions/active", func(c *gin.Context) {
		if err := sessions.Stop(); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.GET("/v1/sessions/active", func(c *gin.Context) {
		st, err := sessions.Status()
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, st)
	})

	r.POST("/v1/sessions/active/scans", func(c *gin.Context) {
		var req struct {
			Input string `json:"input"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sessions.Submit(req.Input); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusAccepted)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

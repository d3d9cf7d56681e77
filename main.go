package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AgentDance/yt-subs/config"
	"github.com/AgentDance/yt-subs/cookies"
	"github.com/AgentDance/yt-subs/handlers"
	"github.com/AgentDance/yt-subs/logger"
	"github.com/AgentDance/yt-subs/repository"
	"github.com/AgentDance/yt-subs/repository/sqlite"
	"github.com/AgentDance/yt-subs/services/acquisition"
	"github.com/AgentDance/yt-subs/storage"
	"github.com/AgentDance/yt-subs/transcript"
	"github.com/AgentDance/yt-subs/validation"
	"github.com/AgentDance/yt-subs/ytdlp"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logConfig, err := logger.Setup(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Write secret-injected cookie material to disk before anything needs it.
	cookies.Hydrate(cfg.Cookies.Text, cfg.Cookies.Path, logrus.StandardLogger())

	var repo repository.ArtifactRepository
	var closeDB func() error
	if cfg.Database.Enabled {
		db, err := sqlite.InitDB(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		closeDB = db.Close
		repo = sqlite.NewRepository(db)
	}

	publisher, err := storage.NewS3Publisher(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	transcriptClient := transcript.NewClient(cfg.Transcript)
	structured := transcript.NewBackend(transcriptClient, cfg.Transcript)
	generic := ytdlp.NewBackend(cfg.Extractor, cfg.TempDir)

	service := acquisition.NewService(structured, generic, repo, cfg.Cookies, cfg.TempDir)
	validator := validation.NewValidator(cfg)

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: !cfg.Debug,
		StrictRouting:         true,
		CaseSensitive:         true,
		AppName:               "yt-subs " + cfg.Version,
	})

	setupMiddleware(app, cfg, logConfig)

	subtitleHandler := handlers.NewSubtitleHandler(service, validator, publisherOrNil(publisher))
	app.Post("/api/subtitles", subtitleHandler.Fetch)
	app.Get("/health", handlers.NewHealthHandler(cfg.Cookies, cfg.Version).Check)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if closeDB != nil {
			if err := closeDB(); err != nil {
				log.Printf("Database shutdown error: %v", err)
			}
		}
	}()

	serverAddr := ":" + cfg.ServerPort
	if cfg.Debug {
		log.Printf("Server starting on http://localhost%s", serverAddr)
	}

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// publisherOrNil keeps a disabled publisher as a nil interface so handlers
// can test for it directly.
func publisherOrNil(p *storage.S3Publisher) storage.Publisher {
	if p == nil {
		return nil
	}
	return p
}

func setupMiddleware(app *fiber.App, cfg *config.Config, logConfig *fiberLogger.Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	app.Use(fiberLogger.New(*logConfig))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST",
		AllowHeaders: "Content-Type,X-Request-ID",
	}))

	if cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"ok":    false,
					"error": "Rate limit exceeded",
				})
			},
		}))
	}
}

package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okastudio/tripsplit/internal/auth"
	"github.com/okastudio/tripsplit/internal/config"
	"github.com/okastudio/tripsplit/internal/middleware"
	"github.com/okastudio/tripsplit/internal/service"
	"github.com/okastudio/tripsplit/internal/storage/sqlite"
	"github.com/okastudio/tripsplit/pkg/logging"
)

const version = "0.1.0"

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// errorHandler renders every handler error as a JSON body.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

func main() {
	cfg, err := config.Load(getEnv("TRIPSPLIT_CONFIG", "config.toml"))
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logging.SetupWithLevel(logging.ParseLevel(cfg.Logging.Level))

	tokenDuration, err := cfg.TokenDuration()
	if err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Usable out of the box, but sessions won't survive a restart.
		secret = uuid.New().String()
		slog.Warn("JWT_SECRET not configured, using an ephemeral secret")
	}

	store, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Storage.DBPath)

	jwtManager := auth.NewJWTManager(secret, tokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)
	requireAuth := middleware.RequireAuth(jwtManager)
	optionalAuth := middleware.OptionalAuth(jwtManager)

	app := fiber.New(fiber.Config{
		AppName:      "tripsplit " + version,
		ErrorHandler: errorHandler,
	})
	app.Use(recoverer.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type, Authorization",
	}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Metrics())

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": version})
	})

	api := app.Group("/api")
	service.NewAuthService(authenticator, jwtManager, store).RegisterRoutes(api, requireAuth)
	service.NewTripService(store).RegisterRoutes(api, requireAuth, optionalAuth)

	protected := app.Group("/api", requireAuth)
	service.NewExpenseService(store).RegisterRoutes(protected)

	if cfg.Server.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("Metrics listener starting", "address", cfg.Server.MetricsAddr)
			if err := http.ListenAndServe(cfg.Server.MetricsAddr, mux); err != nil {
				slog.Error("Metrics listener failed", "error", err)
			}
		}()
	}

	slog.Info("Server starting", "address", cfg.Server.Addr)
	if err := app.Listen(cfg.Server.Addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

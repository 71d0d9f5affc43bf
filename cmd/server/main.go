package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"querydash/internal/config"
	"querydash/internal/database"
	"querydash/internal/handlers"
	"querydash/internal/jobs"
	"querydash/internal/logging"
	"querydash/internal/middleware"
	"querydash/internal/services"
	"querydash/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting QueryDash Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Open the record store
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Session store: Redis in production, in-memory fallback otherwise
	var sessionStore services.SessionStore
	if cfg.RedisURL != "" {
		sessionStore, err = services.NewRedisSessionStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
	} else {
		if cfg.IsProduction() {
			log.Println("⚠️  REDIS_URL not set - sessions will not survive restarts")
		}
		sessionStore = services.NewMemorySessionStore(cfg.SessionTTL)
		log.Println("✅ In-memory session store initialized")
	}
	defer sessionStore.Close()

	// Optional API access tokens
	var tokenIssuer *auth.TokenIssuer
	if cfg.JWTSecret != "" {
		tokenIssuer, err = auth.NewTokenIssuer(cfg.JWTSecret, 24*time.Hour)
		if err != nil {
			log.Fatalf("❌ Failed to initialize token issuer: %v", err)
		}
		log.Println("✅ API access tokens enabled")
	} else {
		log.Println("⚠️  JWT_SECRET not set - API access tokens disabled (session cookies only)")
	}

	// Authentication gate: single admin identity, hashed once at startup
	authService, err := services.NewAuthService(cfg.AdminEmail, cfg.AdminPassword, sessionStore, tokenIssuer)
	if err != nil {
		log.Fatalf("❌ Failed to initialize authentication: %v", err)
	}
	log.Println("✅ Admin identity configured")

	statsService := services.NewStatsService(db, cfg.TimelineWindowDays)
	queryService := services.NewQueryService(db)

	// Custom Prometheus metrics
	services.InitMetrics()

	// Retention cleanup job
	if cfg.RetentionEnabled {
		scheduler, err := jobs.StartRetentionScheduler(db, cfg.RetentionDays, cfg.RetentionSchedule)
		if err != nil {
			log.Fatalf("❌ Failed to start retention scheduler: %v", err)
		}
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				log.Printf("⚠️ Error stopping scheduler: %v", err)
			}
		}()
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "QueryDash v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB is plenty for records and credentials
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("querydash")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Fiber's CORS middleware does not allow AllowCredentials with
	// wildcard origins; same-origin deployments set ALLOWED_ORIGINS=*.
	allowCredentials := cfg.AllowedOrigins != "*"
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowCredentials,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(authService)
	statsHandler := handlers.NewStatsHandler(statsService, cfg.IsProduction())
	queryHandler := handlers.NewQueryHandler(queryService)
	pagesHandler := handlers.NewPagesHandler()
	statsSocketHandler := handlers.NewStatsSocketHandler(statsService, 0)

	// Public routes
	app.Get("/health", healthHandler.Handle)
	app.Get("/login", pagesHandler.Login)
	app.Post("/api/auth/login", middleware.LoginRateLimiter(), authHandler.Login)
	app.Post("/api/auth/logout", authHandler.Logout)

	// Page routes: unauthenticated requests are redirected to /login
	app.Get("/", middleware.RequirePage(authService, "/login"), pagesHandler.Dashboard)

	// API routes: unauthenticated requests get a structured 401
	api := app.Group("/api", middleware.RequireAuth(authService))
	api.Get("/auth/me", authHandler.Me)
	api.Get("/stats", statsHandler.Get)
	api.Get("/queries", queryHandler.List)
	api.Post("/queries", queryHandler.Create)
	api.Get("/queries/:id", queryHandler.Get)
	api.Put("/queries/:id", queryHandler.Update)
	api.Delete("/queries/:id", queryHandler.Delete)

	// Live dashboard stream
	app.Use("/ws/stats", middleware.RequireAuth(authService), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/stats", statsSocketHandler.Handler())

	log.Printf("🌐 Server starting on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("📈 Dashboard: http://localhost:%s/", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

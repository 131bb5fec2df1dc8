// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"atelier/internal/blob"
	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/database"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"
	"atelier/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo      repository.UserRepository
	workshopRepo  repository.WorkshopRepository
	regRepo       repository.RegistrationRepository
	assignRepo    repository.AssignmentRepository
	xpRepo        repository.XpRepository
	communityRepo repository.CommunityRepository

	blobs    blob.Store
	notifier *notifications.Notifier

	catalogService      *service.CatalogService
	registrationService *service.RegistrationService
	attendanceService   *service.AttendanceService
	assignmentService   *service.AssignmentService
	xpService           *service.XpService
}

// NewServer creates a new server instance with all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	blobs := blob.NewLocalStore(cfg.UploadDir, cfg.UploadURLPrefix)
	return NewServerWithDeps(cfg, db, redisClient, blobs)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and blob store.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, blobs blob.Store) (*Server, error) {
	middleware.InitMiddleware(cfg)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("atelier-api"),
		userRepo:       repository.NewUserRepository(db),
		workshopRepo:   repository.NewWorkshopRepository(db),
		regRepo:        repository.NewRegistrationRepository(db),
		assignRepo:     repository.NewAssignmentRepository(db),
		xpRepo:         repository.NewXpRepository(db),
		communityRepo:  repository.NewCommunityRepository(db),
		blobs:          blobs,
	}

	server.xpService = service.NewXpService(db, server.xpRepo, cfg.XpBase)
	server.catalogService = service.NewCatalogService(db, server.workshopRepo, server.communityRepo, blobs)
	server.registrationService = service.NewRegistrationService(db, server.regRepo, server.communityRepo, server.xpService)
	server.attendanceService = service.NewAttendanceService(db, server.regRepo, server.xpService, cfg.AttendanceXp)
	server.assignmentService = service.NewAssignmentService(db, server.assignRepo, blobs, server.xpService)

	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP).
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public catalog routes
	publicWorkshops := api.Group("/workshops")
	publicWorkshops.Get("/", s.GetWorkshops)
	publicWorkshops.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchWorkshops)
	publicWorkshops.Get("/slug/:slug", s.GetWorkshopBySlug)
	publicWorkshops.Get("/:id/assignments", s.GetAssignments)
	publicWorkshops.Get("/:id", s.GetWorkshop)

	// Public community routes
	communities := api.Group("/communities")
	communities.Get("/", s.GetCommunities)
	communities.Get("/:slug/workshops", s.GetCommunityWorkshops)
	communities.Get("/:slug", s.GetCommunityBySlug)

	// Uploaded files are public by blob ID.
	api.Get("/files/:id", s.DownloadFile)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)

	// Workshop management
	workshops := protected.Group("/workshops")
	workshops.Post("/", s.CreateWorkshop)
	workshops.Put("/:id/mode", s.SetWorkshopMode)
	workshops.Post("/:id/schedule", s.ScheduleWorkshop)
	workshops.Post("/:id/publish", s.PublishWorkshop)
	workshops.Post("/:id/archive", s.ArchiveWorkshop)
	workshops.Post("/:id/cohosts/:userId", s.AddCoHost)
	workshops.Delete("/:id/cohosts/:userId", s.RemoveCoHost)
	workshops.Put("/:id", s.UpdateWorkshop)
	workshops.Delete("/:id", s.DeleteWorkshop)

	// Registration
	workshops.Post("/:id/register", middleware.RateLimit(
		s.redis, 10, time.Minute, "register"), s.Register)
	workshops.Delete("/:id/register", s.CancelRegistration)
	workshops.Get("/:id/registrations", s.GetRegistrations)
	workshops.Post("/:id/registrations/:userId/approve", s.ApproveRegistration)
	workshops.Post("/:id/registrations/:userId/reject", s.RejectRegistration)
	protected.Get("/registrations/me", s.GetMyRegistrations)

	// Attendance
	workshops.Post("/:id/checkin", middleware.RateLimit(
		s.redis, 10, time.Minute, "checkin"), s.CheckIn)
	workshops.Post("/:id/checkin-code/refresh", s.RefreshCheckInCode)
	workshops.Get("/:id/checkin-code", s.GetCheckInCode)
	workshops.Post("/:id/attendance/:userId", s.ManualCheckIn)
	workshops.Get("/:id/attendance", s.GetAttendance)

	// Assignments and submissions
	workshops.Post("/:id/assignments", s.CreateAssignment)
	assignments := protected.Group("/assignments")
	assignments.Post("/:id/submissions", s.SubmitAssignment)
	assignments.Get("/:id/submissions/me", s.GetMySubmission)
	assignments.Get("/:id/submissions", s.GetSubmissions)
	assignments.Put("/:id", s.UpdateAssignment)
	assignments.Delete("/:id", s.DeleteAssignment)
	protected.Post("/submissions/:id/review", s.ReviewSubmission)
	protected.Get("/submissions/me", s.GetMySubmissions)
	protected.Post("/quiz-completions", s.RecordQuizCompletion)

	// XP
	xp := protected.Group("/xp")
	xp.Get("/me", s.GetMyLevelInfo)
	xp.Get("/me/transactions", s.GetMyTransactions)
	xp.Get("/users/:id", s.GetUserLevelInfo)

	// Communities (joining requires auth)
	protectedCommunities := protected.Group("/communities")
	protectedCommunities.Post("/:id/join", s.JoinCommunity)

	// File uploads
	protected.Post("/files", middleware.RateLimit(
		s.redis, 10, time.Minute, "upload"), s.UploadFile)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Post("/communities", s.CreateCommunity)
	admin.Post("/xp/bonus", s.GrantBonus)
	admin.Post("/xp/boosts", s.CreateBoost)
	admin.Delete("/xp/boosts/:id", s.DeactivateBoost)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.isAdminByUserID(c.Context(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// Start starts the server.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Atelier API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// Package server contains HTTP handlers and route registration for the
// application's endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogicum/internal/config"
	"blogicum/internal/database"
	"blogicum/internal/middleware"
	"blogicum/internal/models"
	"blogicum/internal/observability"
	"blogicum/internal/repository"
	"blogicum/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo     repository.UserRepository
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	categoryRepo repository.CategoryRepository
	locationRepo repository.LocationRepository

	postService     *service.PostService
	commentService  *service.CommentService
	userService     *service.UserService
	taxonomyService *service.TaxonomyService

	// db is used directly only for readiness checks and the admin flag lookup.
	db *gorm.DB
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, initRedis(cfg.RedisURL)), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and no Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	locationRepo := repository.NewLocationRepository(db)

	s := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		userRepo:     userRepo,
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		categoryRepo: categoryRepo,
		locationRepo: locationRepo,
	}
	// HTTP metrics register into the global Prometheus registry, so tests
	// (which build many servers per process) skip them.
	if cfg.Env != "test" {
		s.promMiddleware = observability.InitHTTPMetrics("blogicum")
	}
	s.postService = service.NewPostService(postRepo, categoryRepo, locationRepo, userRepo)
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	s.userService = service.NewUserService(userRepo)
	s.taxonomyService = service.NewTaxonomyService(categoryRepo, locationRepo)

	middleware.InitMiddleware(cfg)

	return s
}

// initRedis creates the rate-limiter Redis client. A broken address is
// logged and the limiter runs disabled (fail open).
func initRedis(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			middleware.Logger.Warn("invalid REDIS_URL, rate limiting disabled")
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	return redis.NewClient(opts)
}

// ErrorHandler renders the dedicated error pages: 404 for missing records,
// 500 for everything unexpected.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return models.RespondWithError(c, fiberErr.Code, errors.New(fiberErr.Message))
	}
	if models.IsNotFound(err) {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error: "+err.Error())
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(nil))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID and user ID into the request context for logging
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public listings; the viewer identity (when present) decides whether
	// author-only posts appear.
	app.Get("/", middleware.OptionalAuth, s.Index)
	app.Get("/category/:slug", middleware.OptionalAuth, s.CategoryPosts)

	// Reference data
	app.Get("/categories", s.ListCategories)
	app.Get("/locations", s.ListLocations)
	app.Post("/categories", middleware.AuthRequired, s.AdminRequired, s.CreateCategory)
	app.Delete("/categories/:id", middleware.AuthRequired, s.AdminRequired, s.DeleteCategory)
	app.Post("/locations", middleware.AuthRequired, s.AdminRequired, s.CreateLocation)
	app.Delete("/locations/:id", middleware.AuthRequired, s.AdminRequired, s.DeleteLocation)

	// Profile routes; /profile/edit must precede /profile/:username
	app.Get("/profile/edit", middleware.AuthRequired, s.GetOwnProfile)
	app.Post("/profile/edit", middleware.AuthRequired, s.UpdateOwnProfile)
	app.Get("/profile/:username", middleware.OptionalAuth, s.ProfilePosts)

	// Post routes; /posts/create must precede /posts/:id
	posts := app.Group("/posts")
	posts.Get("/create", middleware.AuthRequired, s.GetPostForm)
	posts.Post("/create", middleware.AuthRequired, s.CreatePost)
	posts.Get("/:id", middleware.OptionalAuth, s.PostDetail)
	posts.Get("/:id/edit", middleware.AuthRequired, s.GetPostEditForm)
	posts.Post("/:id/edit", middleware.AuthRequired, s.UpdatePost)
	posts.Get("/:id/delete", middleware.AuthRequired, s.GetPostDeleteForm)
	posts.Post("/:id/delete", middleware.AuthRequired, s.DeletePost)

	// Comment routes
	posts.Post("/:id/comment", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 10, time.Minute, "add_comment"), s.AddComment)
	posts.Get("/:id/comment/:commentId/edit", middleware.AuthRequired, s.GetCommentEditForm)
	posts.Post("/:id/comment/:commentId/edit", middleware.AuthRequired, s.UpdateComment)
	posts.Get("/:id/comment/:commentId/delete", middleware.AuthRequired, s.GetCommentDeleteForm)
	posts.Post("/:id/comment/:commentId/delete", middleware.AuthRequired, s.DeleteComment)
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ReadinessCheck reports whether the backing database is reachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Context()) != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "database unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Shutdown releases server-owned resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}

// AdminRequired allows only users with the admin flag through. It must run
// after AuthRequired.
func (s *Server) AdminRequired(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var user models.User
	if err := s.db.WithContext(c.Context()).Select("is_admin").First(&user, userID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	if !user.IsAdmin {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Admin privileges required"))
	}
	return c.Next()
}

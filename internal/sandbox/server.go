// Package sandbox is an in-memory fiber implementation of the REST API the client talks to.
// It backs local development and end-to-end tests.
package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"snapfeed/internal/observability"
	_ "snapfeed/internal/sandbox/apidocs" // swagger docs

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

// Config configures a sandbox Server.
type Config struct {
	JWTSecret string
	// TokenTTL defaults to 24 hours.
	TokenTTL time.Duration
	// SeedUsers is the number of fake accounts created at startup. Zero starts empty.
	SeedUsers int
	// Seed makes the fake dataset reproducible. Zero picks a random seed.
	Seed int64
	Now  func() time.Time
}

// Server is the sandbox API.
type Server struct {
	cfg   Config
	app   *fiber.App
	state *state
	prom  *fiberprometheus.FiberPrometheus
	log   *slog.Logger

	faultMu sync.Mutex
	faults  map[string]int
}

// New builds the sandbox app and seeds it.
func New(cfg Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("sandbox: JWT secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		cfg:    cfg,
		state:  newState(cfg.Now),
		log:    observability.GlobalLogger.With("component", "sandbox"),
		faults: make(map[string]int),
		// A private registry keeps several sandboxes in one process from colliding.
		prom: fiberprometheus.NewWithRegistry(prometheus.NewRegistry(), "snapfeed-sandbox", "http", "", nil),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "snapfeed-sandbox",
		DisableStartupMessage: true,
		BodyLimit:             8 << 20,
		UnescapePath:          true,
		ErrorHandler:          s.handleError,
	})
	s.setupMiddleware()
	s.setupRoutes()

	if cfg.SeedUsers > 0 {
		if err := s.seed(cfg.SeedUsers, cfg.Seed); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// App exposes the fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Handler adapts the app to net/http, for httptest servers.
func (s *Server) Handler() http.HandlerFunc { return adaptor.FiberApp(s.app) }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("sandbox listening", slog.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// FailNext makes the next request on route answer 500. Routes are named by
// method and template without the /api prefix, e.g. "POST /posts/:id/like".
func (s *Server) FailNext(route string) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[route]++
}

func (s *Server) takeFault(route string) bool {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if s.faults[route] == 0 {
		return false
	}
	s.faults[route]--
	return true
}

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(s.prom.Middleware)
	s.app.Use(s.requestLogger)
}

// requestLogger logs each request after it completes.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	attrs := []any{
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	}
	if rid, ok := c.Locals("requestid").(string); ok {
		attrs = append(attrs, slog.String("request_id", rid))
	}
	if status >= 500 {
		s.log.Error("sandbox request", attrs...)
	} else {
		s.log.Debug("sandbox request", attrs...)
	}
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	msg := err.Error()
	if code == fiber.StatusInternalServerError && fe == nil {
		msg = "Internal server error"
	}
	return c.Status(code).JSON(fiber.Map{"success": false, "message": msg})
}

// route registers h under method and path, honouring FailNext.
func (s *Server) route(r fiber.Router, method, path string, handlers ...fiber.Handler) {
	name := method + " " + path
	wrapped := make([]fiber.Handler, 0, len(handlers)+1)
	wrapped = append(wrapped, func(c *fiber.Ctx) error {
		if s.takeFault(name) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Injected failure",
			})
		}
		return c.Next()
	})
	wrapped = append(wrapped, handlers...)
	r.Add(method, path, wrapped...)
}

func (s *Server) setupRoutes() {
	s.prom.RegisterAt(s.app, "/metrics")
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)
	auth, optional := s.AuthRequired(), s.AuthOptional()

	s.route(api, fiber.MethodPost, "/auth/register", s.Register)
	s.route(api, fiber.MethodPost, "/auth/login", s.Login)

	s.route(api, fiber.MethodGet, "/me", auth, s.Me)
	s.route(api, fiber.MethodPatch, "/me", auth, s.UpdateMe)
	s.route(api, fiber.MethodGet, "/me/saved", auth, s.SavedPosts)
	s.route(api, fiber.MethodGet, "/me/likes", auth, s.LikedPosts)

	s.route(api, fiber.MethodGet, "/feed", auth, s.Feed)

	s.route(api, fiber.MethodGet, "/posts", optional, s.Explore)
	s.route(api, fiber.MethodPost, "/posts", auth, s.CreatePost)
	s.route(api, fiber.MethodGet, "/posts/:id", optional, s.GetPost)
	s.route(api, fiber.MethodDelete, "/posts/:id", auth, s.DeletePost)
	s.route(api, fiber.MethodPost, "/posts/:id/like", auth, s.LikePost)
	s.route(api, fiber.MethodDelete, "/posts/:id/like", auth, s.UnlikePost)
	s.route(api, fiber.MethodGet, "/posts/:id/likes", optional, s.PostLikes)
	s.route(api, fiber.MethodPost, "/posts/:id/save", auth, s.SavePost)
	s.route(api, fiber.MethodDelete, "/posts/:id/save", auth, s.UnsavePost)
	s.route(api, fiber.MethodGet, "/posts/:id/comments", optional, s.ListComments)
	s.route(api, fiber.MethodPost, "/posts/:id/comments", auth, s.AddComment)
	s.route(api, fiber.MethodDelete, "/comments/:id", auth, s.DeleteComment)

	s.route(api, fiber.MethodPost, "/follow/:username", auth, s.Follow)
	s.route(api, fiber.MethodDelete, "/follow/:username", auth, s.Unfollow)

	// Specific routes before /users/:username.
	s.route(api, fiber.MethodGet, "/users/search", optional, s.SearchUsers)
	s.route(api, fiber.MethodGet, "/users/:username", optional, s.GetProfile)
	s.route(api, fiber.MethodGet, "/users/:username/posts", optional, s.UserPosts)
	s.route(api, fiber.MethodGet, "/users/:username/followers", optional, s.Followers)
	s.route(api, fiber.MethodGet, "/users/:username/following", optional, s.Following)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

func trimmed(c *fiber.Ctx, key string) string {
	return strings.TrimSpace(c.FormValue(key))
}

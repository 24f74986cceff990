package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/bark-labs/devicemgt/internal/config"
	"github.com/bark-labs/devicemgt/internal/model"
	"github.com/bark-labs/devicemgt/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// DeviceManager is the provider behind the device type endpoints.
type DeviceManager interface {
	AvailableDeviceTypes(ctx context.Context) ([]string, error)
	DeviceTypes(ctx context.Context) ([]*model.DeviceType, error)
	DeviceType(ctx context.Context, name string) (*model.DeviceType, error)
	FeatureManager(ctx context.Context, name string) (service.FeatureManager, error)
	SaveDeviceType(ctx context.Context, deviceType *model.DeviceType) error
	SaveFeatures(ctx context.Context, name string, features []model.Feature) error
}

// Pinger reports backend health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers.
type Server struct {
	app     *fiber.App
	devices DeviceManager
	authSvc *service.AuthService
	health  Pinger
	cfg     *config.Config
	log     zerolog.Logger
}

// New builds a server instance.
func New(cfg *config.Config, devices DeviceManager, authSvc *service.AuthService, health Pinger, log zerolog.Logger) *Server {
	s := &Server{
		devices: devices,
		authSvc: authSvc,
		health:  health,
		cfg:     cfg,
		log:     log,
	}
	s.app = fiber.New(fiber.Config{
		IdleTimeout:           cfg.HTTP.ReadTimeout,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		AppName:               "devicemgt",
		UnescapePath:          true,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.registerRoutes()
	return s
}

// Start listens and serves HTTP traffic.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.HTTP.Addr).Msg("listening")
	return s.app.Listen(s.cfg.HTTP.Addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	// accessLog wraps recover so panicking requests are still logged
	s.app.Use(s.accessLog, s.recoverer(), s.requestID())

	s.app.Get("/healthz", s.handleHealth)
	s.app.Post("/auth/login", s.handleLogin)

	deviceTypes := s.app.Group("/device-types")
	deviceTypes.Get("/", s.handleDeviceTypeNames)
	deviceTypes.Get("/all", s.handleDeviceTypes)
	// must precede /all/:type so that a type named "all" keeps its features route
	deviceTypes.Get("/:type/features", s.handleFeatures)
	deviceTypes.Get("/all/:type?", s.handleDeviceTypeByName)

	admin := s.app.Group("/admin", s.requireAuth)
	admin.Post("/device-types", s.handleSaveDeviceType)
	admin.Put("/device-types/:type/features", s.handleSaveFeatures)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{"status": "ok"}
	if s.health == nil {
		return c.Status(http.StatusOK).JSON(resp)
	}
	if err := s.health.Ping(c.UserContext()); err != nil {
		resp["status"] = "degraded"
		resp["storage"] = fiber.Map{"status": "down", "error": err.Error()}
		return c.Status(http.StatusServiceUnavailable).JSON(resp)
	}
	resp["storage"] = fiber.Map{"status": "up"}
	return c.Status(http.StatusOK).JSON(resp)
}

// handleError turns errors escaping handlers into JSON error bodies.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	msg := "Internal server error."
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		msg = fiberErr.Message
	}
	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(model.ErrorWithCode(int64(code), msg))
}

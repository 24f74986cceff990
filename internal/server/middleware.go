package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bark-labs/devicemgt/internal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const localRequestID = "requestid"

func (s *Server) recoverer() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			s.log.Error().Interface("panic", e).Str("path", c.Path()).Msg("handler panicked")
		},
	})
}

func (s *Server) requestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: localRequestID,
	})
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		// the error handler has not run yet; report what it will write
		status = http.StatusInternalServerError
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
	}
	s.log.Info().
		Str("request_id", requestIDOf(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("request")
	return err
}

func requestIDOf(c *fiber.Ctx) string {
	if id, ok := c.Locals(localRequestID).(string); ok {
		return id
	}
	return ""
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	if s.authSvc == nil || !s.authSvc.Enabled() {
		return c.Next()
	}
	token := extractBearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return c.Status(http.StatusUnauthorized).JSON(model.Error("Authentication required."))
	}
	claims, err := s.authSvc.Validate(token)
	if err != nil {
		s.log.Debug().Err(err).Msg("rejected admin token")
		return c.Status(http.StatusUnauthorized).JSON(model.Error("Invalid or expired token."))
	}
	c.Locals("username", claims.Username)
	return c.Next()
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

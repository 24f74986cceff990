package server

import (
	"errors"
	"net/http"

	"github.com/bark-labs/devicemgt/internal/model"
	"github.com/bark-labs/devicemgt/internal/service"
	"github.com/bark-labs/devicemgt/internal/storage"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Error("Malformed login request."))
	}
	if s.authSvc == nil || !s.authSvc.Enabled() {
		return c.JSON(fiber.Map{
			"token":    "",
			"enabled":  false,
			"username": "guest",
		})
	}
	token, err := s.authSvc.Authenticate(req.Username, req.Password)
	if err != nil {
		s.log.Warn().Str("username", req.Username).Msg("admin login rejected")
		return c.Status(http.StatusUnauthorized).JSON(model.Error(err.Error()))
	}
	return c.JSON(fiber.Map{
		"token":    token,
		"enabled":  true,
		"username": s.authSvc.Username(),
	})
}

func (s *Server) handleSaveDeviceType(c *fiber.Ctx) error {
	var deviceType model.DeviceType
	if err := c.BodyParser(&deviceType); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Error("Malformed device type."))
	}
	if err := s.devices.SaveDeviceType(c.UserContext(), &deviceType); err != nil {
		return s.adminFailure(c, err)
	}
	return c.Status(http.StatusOK).JSON(deviceType)
}

func (s *Server) handleSaveFeatures(c *fiber.Ctx) error {
	var features []model.Feature
	if err := c.BodyParser(&features); err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.Error("Malformed feature list."))
	}
	name := c.Params("type")
	if err := s.devices.SaveFeatures(c.UserContext(), name, features); err != nil {
		return s.adminFailure(c, err)
	}
	if features == nil {
		features = []model.Feature{}
	}
	return c.Status(http.StatusOK).JSON(features)
}

func (s *Server) adminFailure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidDeviceType):
		return c.Status(http.StatusBadRequest).JSON(model.Error(err.Error()))
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(model.Error("Device type is not registered."))
	default:
		s.log.Error().Err(err).Str("path", c.Path()).Msg("admin update failed")
		return c.Status(http.StatusInternalServerError).JSON(model.Error("Error occurred while updating device type."))
	}
}

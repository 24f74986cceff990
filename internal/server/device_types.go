package server

import (
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/bark-labs/devicemgt/internal/model"
	"github.com/bark-labs/devicemgt/internal/service"
	"github.com/gofiber/fiber/v2"
)

const (
	msgListNamesFailed   = "Error occurred while fetching the list of device types."
	msgDeviceTypeFailed  = "Error occurred at server side while fetching device type."
	msgFeatureListFailed = "Error occurred while retrieving the list of features of '%s' device type"
	msgNoFeatureManager  = "No feature manager is registered with the given type '%s'"
	msgNoSuchDeviceType  = "Device type does not exist, %s"
)

// handleDeviceTypeNames serves GET /device-types. If-Modified-Since is
// accepted but not evaluated.
func (s *Server) handleDeviceTypeNames(c *fiber.Ctx) error {
	names, err := s.devices.AvailableDeviceTypes(c.UserContext())
	if err != nil {
		s.log.Error().Err(err).Msg(msgListNamesFailed)
		return c.Status(http.StatusInternalServerError).JSON(model.Error(msgListNamesFailed))
	}
	if names == nil {
		names = []string{}
	}
	return c.Status(http.StatusOK).JSON(model.DeviceTypeList{
		Count: len(names),
		List:  names,
	})
}

// handleFeatures serves GET /device-types/:type/features.
func (s *Server) handleFeatures(c *fiber.Ctx) error {
	deviceType := c.Params("type")
	if utf8.RuneCountInString(deviceType) > service.MaxDeviceTypeNameLength {
		return c.Status(http.StatusBadRequest).JSON(model.Error(
			fmt.Sprintf("Device type name exceeds %d characters.", service.MaxDeviceTypeNameLength)))
	}
	ctx := c.UserContext()
	fm, err := s.devices.FeatureManager(ctx, deviceType)
	if err != nil {
		return s.featureListFailed(c, deviceType, err)
	}
	if fm == nil {
		return c.Status(http.StatusNotFound).JSON(model.Error(fmt.Sprintf(msgNoFeatureManager, deviceType)))
	}
	features, err := fm.Features(ctx)
	if err != nil {
		return s.featureListFailed(c, deviceType, err)
	}
	if features == nil {
		features = []model.Feature{}
	}
	return c.Status(http.StatusOK).JSON(features)
}

func (s *Server) featureListFailed(c *fiber.Ctx, deviceType string, err error) error {
	msg := fmt.Sprintf(msgFeatureListFailed, deviceType)
	s.log.Error().Err(err).Str("device_type", deviceType).Msg(msg)
	return c.Status(http.StatusInternalServerError).JSON(model.Error(msg))
}

// handleDeviceTypes serves GET /device-types/all. Every record is redacted;
// failures are answered in plain text.
func (s *Server) handleDeviceTypes(c *fiber.Ctx) error {
	deviceTypes, err := s.devices.DeviceTypes(c.UserContext())
	if err != nil {
		s.log.Error().Err(err).Msg(msgDeviceTypeFailed)
		return c.Status(http.StatusInternalServerError).SendString(msgDeviceTypeFailed)
	}
	filtered := make([]*model.DeviceType, 0, len(deviceTypes))
	for _, dt := range deviceTypes {
		filtered = append(filtered, dt.Redacted())
	}
	return c.Status(http.StatusOK).JSON(filtered)
}

// handleDeviceTypeByName serves GET /device-types/all/:type. The record is
// returned as stored, without redaction.
func (s *Server) handleDeviceTypeByName(c *fiber.Ctx) error {
	name := c.Params("type")
	if name == "" {
		return c.SendStatus(http.StatusBadRequest)
	}
	deviceType, err := s.devices.DeviceType(c.UserContext(), name)
	if err != nil {
		s.log.Error().Err(err).Str("device_type", name).Msg(msgDeviceTypeFailed)
		return c.Status(http.StatusInternalServerError).SendString(msgDeviceTypeFailed)
	}
	if deviceType == nil {
		msg := fmt.Sprintf(msgNoSuchDeviceType, name)
		if s.cfg.API.StrictNoContent {
			return c.Status(http.StatusNotFound).JSON(model.Error(msg))
		}
		// a 204 body never reaches the wire; the header keeps the reason visible
		c.Set("X-Device-Mgt-Message", msg)
		return c.Status(http.StatusNoContent).SendString(msg)
	}
	return c.Status(http.StatusOK).JSON(deviceType)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bark-labs/devicemgt/internal/model"
	"github.com/bark-labs/devicemgt/internal/storage"
	"github.com/rs/zerolog"
)

// MaxDeviceTypeNameLength bounds device type names accepted by the API.
const MaxDeviceTypeNameLength = 45

// ErrInvalidDeviceType is returned by the save operations for names that are
// empty or too long.
var ErrInvalidDeviceType = errors.New("invalid device type name")

// FeatureManager exposes the features supported by one device type.
type FeatureManager interface {
	Features(ctx context.Context) ([]model.Feature, error)
}

// DeviceManagementService backs the device type endpoints.
type DeviceManagementService struct {
	store storage.Store
	log   zerolog.Logger
}

// NewDeviceManagementService constructs DeviceManagementService.
func NewDeviceManagementService(store storage.Store, log zerolog.Logger) *DeviceManagementService {
	return &DeviceManagementService{store: store, log: log}
}

// AvailableDeviceTypes returns the names of all registered device types.
func (s *DeviceManagementService) AvailableDeviceTypes(ctx context.Context) ([]string, error) {
	deviceTypes, err := s.store.ListDeviceTypes(ctx)
	if err != nil {
		return nil, managementError("list device type names", err)
	}
	names := make([]string, 0, len(deviceTypes))
	for _, dt := range deviceTypes {
		names = append(names, dt.Name)
	}
	return names, nil
}

// DeviceTypes returns every registered device type as stored.
func (s *DeviceManagementService) DeviceTypes(ctx context.Context) ([]*model.DeviceType, error) {
	deviceTypes, err := s.store.ListDeviceTypes(ctx)
	if err != nil {
		return nil, managementError("list device types", err)
	}
	return deviceTypes, nil
}

// DeviceType returns the named device type, or nil when it is not registered.
func (s *DeviceManagementService) DeviceType(ctx context.Context, name string) (*model.DeviceType, error) {
	deviceType, err := s.store.GetDeviceType(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, managementError("get device type", err)
	}
	return deviceType, nil
}

// FeatureManager returns the feature manager of the named device type, or nil
// when no such type is registered.
func (s *DeviceManagementService) FeatureManager(ctx context.Context, name string) (FeatureManager, error) {
	deviceType, err := s.DeviceType(ctx, name)
	if err != nil || deviceType == nil {
		return nil, err
	}
	return &storeFeatureManager{store: s.store, deviceType: deviceType}, nil
}

// SaveDeviceType registers or replaces a device type.
func (s *DeviceManagementService) SaveDeviceType(ctx context.Context, deviceType *model.DeviceType) error {
	if deviceType == nil {
		return fmt.Errorf("%w: missing device type", ErrInvalidDeviceType)
	}
	deviceType.Name = strings.TrimSpace(deviceType.Name)
	if err := validateName(deviceType.Name); err != nil {
		return err
	}
	if err := s.store.UpsertDeviceType(ctx, deviceType); err != nil {
		return managementError("save device type", err)
	}
	s.log.Info().Str("device_type", deviceType.Name).Int("id", deviceType.ID).Msg("device type saved")
	return nil
}

// SaveFeatures replaces the feature list of a registered device type. It
// returns storage.ErrNotFound when the type is unknown.
func (s *DeviceManagementService) SaveFeatures(ctx context.Context, name string, features []model.Feature) error {
	if err := validateName(name); err != nil {
		return err
	}
	deviceType, err := s.DeviceType(ctx, name)
	if err != nil {
		return err
	}
	if deviceType == nil {
		return storage.ErrNotFound
	}
	for i := range features {
		features[i].DeviceType = name
	}
	if err := s.store.PutFeatures(ctx, name, features); err != nil {
		return managementError("save features", err)
	}
	s.log.Info().Str("device_type", name).Int("features", len(features)).Msg("features saved")
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDeviceType)
	}
	if utf8.RuneCountInString(name) > MaxDeviceTypeNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDeviceType, MaxDeviceTypeNameLength)
	}
	return nil
}

type storeFeatureManager struct {
	store      storage.Store
	deviceType *model.DeviceType
}

// Features prefers the stored feature list and falls back to the features
// declared in the meta definition.
func (m *storeFeatureManager) Features(ctx context.Context) ([]model.Feature, error) {
	features, err := m.store.ListFeatures(ctx, m.deviceType.Name)
	switch {
	case err == nil:
		return features, nil
	case errors.Is(err, storage.ErrNotFound):
		if meta := m.deviceType.DeviceTypeMetaDefinition; meta != nil && meta.Features != nil {
			return meta.Features, nil
		}
		return []model.Feature{}, nil
	default:
		return nil, managementError("list features", err)
	}
}

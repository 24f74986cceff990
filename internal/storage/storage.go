package storage

import (
	"context"
	"errors"

	"github.com/bark-labs/devicemgt/internal/model"
)

// ErrNotFound is returned for device types and feature lists that were never
// stored.
var ErrNotFound = errors.New("not found")

// Store abstracts device type persistence.
type Store interface {
	UpsertDeviceType(ctx context.Context, deviceType *model.DeviceType) error
	GetDeviceType(ctx context.Context, name string) (*model.DeviceType, error)
	ListDeviceTypes(ctx context.Context) ([]*model.DeviceType, error)
	PutFeatures(ctx context.Context, deviceType string, features []model.Feature) error
	// ListFeatures returns ErrNotFound when no feature list was stored for
	// deviceType.
	ListFeatures(ctx context.Context, deviceType string) ([]model.Feature, error)
	Ping(ctx context.Context) error
	Close() error
}

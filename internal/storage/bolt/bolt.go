package bolt

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/bark-labs/devicemgt/internal/model"
	"github.com/bark-labs/devicemgt/internal/storage"
	bolt "go.etcd.io/bbolt"
)

var _ storage.Store = (*Store)(nil)

var (
	bucketDeviceTypes = []byte("device_types")
	bucketFeatures    = []byte("features")
)

// Store is a BoltDB-backed Store implementation. Device types are keyed by
// name; their IDs come from the bucket sequence.
type Store struct {
	db *bolt.DB
}

// New initialises the Bolt store.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDeviceTypes); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketFeatures)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes underlying Bolt DB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping runs an empty read transaction.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error { return nil })
}

// UpsertDeviceType stores or replaces a device type. A new name gets the next
// sequence ID; an existing one keeps its ID.
func (s *Store) UpsertDeviceType(ctx context.Context, deviceType *model.DeviceType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketDeviceTypes)
		key := []byte(deviceType.Name)
		if existing := bkt.Get(key); existing != nil {
			var prev model.DeviceType
			if err := json.Unmarshal(existing, &prev); err != nil {
				return err
			}
			deviceType.ID = prev.ID
		} else {
			id, err := bkt.NextSequence()
			if err != nil {
				return err
			}
			deviceType.ID = int(id)
		}
		payload, err := json.Marshal(deviceType)
		if err != nil {
			return err
		}
		return bkt.Put(key, payload)
	})
}

// GetDeviceType fetches a device type by name.
func (s *Store) GetDeviceType(ctx context.Context, name string) (*model.DeviceType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result *model.DeviceType
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDeviceTypes).Get([]byte(name))
		if v == nil {
			return nil
		}
		var deviceType model.DeviceType
		if err := json.Unmarshal(v, &deviceType); err != nil {
			return err
		}
		result = &deviceType
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, storage.ErrNotFound
	}
	return result, nil
}

// ListDeviceTypes returns all device types ordered by name.
func (s *Store) ListDeviceTypes(ctx context.Context) ([]*model.DeviceType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deviceTypes := []*model.DeviceType{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeviceTypes).ForEach(func(_, v []byte) error {
			var deviceType model.DeviceType
			if err := json.Unmarshal(v, &deviceType); err != nil {
				return err
			}
			deviceTypes = append(deviceTypes, &deviceType)
			return nil
		})
	})
	return deviceTypes, err
}

// PutFeatures replaces the feature list of a device type.
func (s *Store) PutFeatures(ctx context.Context, deviceType string, features []model.Feature) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if features == nil {
		features = []model.Feature{}
	}
	payload, err := json.Marshal(features)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFeatures).Put([]byte(deviceType), payload)
	})
}

// ListFeatures returns the stored feature list of a device type.
func (s *Store) ListFeatures(ctx context.Context, deviceType string) ([]model.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		features []model.Feature
		found    bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketFeatures).Get([]byte(deviceType))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &features)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}
	return features, nil
}

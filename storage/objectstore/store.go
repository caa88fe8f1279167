// Package objectstore implements storage.Store on a NATS JetStream
// ObjectStore bucket. The bucket is created on first use, with retry to ride
// out server startup.
package objectstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/pkg/retry"
)

// Config holds objectstore settings.
type Config struct {
	// Bucket is the JetStream ObjectStore bucket name.
	Bucket string `json:"bucket" yaml:"bucket"`
	// Description is attached to the bucket on creation.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Replicas sets the bucket replica count. Zero means server default.
	Replicas int `json:"replicas,omitempty" yaml:"replicas,omitempty"`
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: bucket name is required", errors.ErrInvalidConfig),
			"objectstore", "Validate", "validate config")
	}
	return nil
}

// Store is a storage.Store backed by a JetStream ObjectStore bucket.
type Store struct {
	bucket jetstream.ObjectStore
}

// New connects the store to its bucket, creating the bucket if it does not
// exist. Bucket creation is retried with backoff since the JetStream layer
// may lag behind the NATS connection at startup.
func New(ctx context.Context, nc *nats.Conn, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, errors.WrapFatal(err, "objectstore", "New", "create jetstream context")
	}

	bucket, err := retry.DoWithResult(ctx, retry.Quick(), func() (jetstream.ObjectStore, error) {
		return js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      cfg.Bucket,
			Description: cfg.Description,
			Replicas:    cfg.Replicas,
		})
	})
	if err != nil {
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: bucket %q: %w", errors.ErrStorageUnavailable, cfg.Bucket, err),
			"objectstore", "New", "create bucket")
	}
	return &Store{bucket: bucket}, nil
}

// Put stores data at key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.bucket.PutBytes(ctx, key, data); err != nil {
		return errors.WrapTransient(err, "objectstore", "Put", "put object")
	}
	return nil
}

// Get retrieves the value at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.GetBytes(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, errors.WrapTransient(
				fmt.Errorf("%w: %s", errors.ErrKeyNotFound, key),
				"objectstore", "Get", "get object")
		}
		return nil, errors.WrapTransient(err, "objectstore", "Get", "get object")
	}
	return data, nil
}

// List returns keys with the given prefix in lexicographic order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	infos, err := s.bucket.List(ctx)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrNoObjectsFound) {
			return []string{}, nil
		}
		return nil, errors.WrapTransient(err, "objectstore", "List", "list objects")
	}
	keys := []string{}
	for _, info := range infos {
		if strings.HasPrefix(info.Name, prefix) {
			keys = append(keys, info.Name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the value at key. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil && !stderrors.Is(err, jetstream.ErrObjectNotFound) {
		return errors.WrapTransient(err, "objectstore", "Delete", "delete object")
	}
	return nil
}

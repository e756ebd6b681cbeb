package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// ErrBackupsNotConfigured is returned by the no-op blob store handed out
// when no backup bucket is configured.
var ErrBackupsNotConfigured = errors.New("backups not configured: set JSMCP_BACKUP_BUCKET")

// BlobStore is the object storage surface backups are written to.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]BlobInfo, error)
	Configured() bool
}

// BlobInfo describes one stored blob.
type BlobInfo struct {
	Name string
	Size uint64
}

// BackupStore opens (creating on first use) the object store bucket that
// holds stream backups.
func (c *Client) BackupStore(ctx context.Context, bucket string) (BlobStore, error) {
	if bucket == "" {
		return noBlobStore{}, nil
	}

	os, err := c.js.ObjectStore(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		os, err = c.js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "jsmcp stream backups",
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open backup bucket '%s': %w", bucket, err)
	}

	return &objectBlobStore{os: os}, nil
}

type objectBlobStore struct {
	os jetstream.ObjectStore
}

func (s *objectBlobStore) Configured() bool { return true }

func (s *objectBlobStore) Put(ctx context.Context, name string, data []byte) error {
	if _, err := s.os.PutBytes(ctx, name, data); err != nil {
		return fmt.Errorf("failed to store backup '%s': %w", name, err)
	}
	return nil
}

func (s *objectBlobStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.os.GetBytes(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch backup '%s': %w", name, err)
	}
	return data, nil
}

func (s *objectBlobStore) List(ctx context.Context) ([]BlobInfo, error) {
	objects, err := s.os.List(ctx)
	if errors.Is(err, jetstream.ErrNoObjectsFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	infos := make([]BlobInfo, 0, len(objects))
	for _, obj := range objects {
		if obj == nil || obj.Deleted {
			continue
		}
		infos = append(infos, BlobInfo{Name: obj.Name, Size: obj.Size})
	}
	return infos, nil
}

// noBlobStore is the not-configured variant. Every call reports the missing
// configuration instead of probing per call site.
type noBlobStore struct{}

func (noBlobStore) Configured() bool { return false }

func (noBlobStore) Put(context.Context, string, []byte) error {
	return ErrBackupsNotConfigured
}

func (noBlobStore) Get(context.Context, string) ([]byte, error) {
	return nil, ErrBackupsNotConfigured
}

func (noBlobStore) List(context.Context) ([]BlobInfo, error) {
	return nil, ErrBackupsNotConfigured
}

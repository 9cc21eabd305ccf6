package minio

import (
	"context"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// Metadata keys attached to pushed checkpoints.
const (
	MetaModelVersion = "Model-Version"
)

// ModelInfo describes a stored checkpoint.
type ModelInfo struct {
	Object  string
	Size    int64
	ETag    string
	Version string
}

// PullResult reports where a checkpoint was written.
type PullResult struct {
	Path    string
	Info    ModelInfo
	Skipped bool
}

// ModelStore moves model checkpoints between the object store and a local
// model directory.
type ModelStore struct {
	client *Client
}

func NewModelStore(client *Client) *ModelStore {
	return &ModelStore{client: client}
}

// Stat returns the stored checkpoint's metadata, or LOGK_ARTIFACT_MISSING.
func (s *ModelStore) Stat(ctx context.Context, object string) (*ModelInfo, error) {
	info, err := s.client.api.StatObject(ctx, s.client.bucket, object, minio.StatObjectOptions{})
	if err != nil {
		return nil, s.objectError(err, object, "failed to stat model artifact")
	}
	return &ModelInfo{
		Object:  object,
		Size:    info.Size,
		ETag:    info.ETag,
		Version: info.UserMetadata[MetaModelVersion],
	}, nil
}

// Pull downloads object into dir/fileName.  A local file of the same size
// is kept unless force is set.
func (s *ModelStore) Pull(ctx context.Context, object, dir, fileName string, force bool) (*PullResult, error) {
	if object == "" || dir == "" || fileName == "" {
		return nil, errors.New(errors.CodeInvalidParam, "object, directory and file name are required")
	}
	info, err := s.Stat(ctx, object)
	if err != nil {
		return nil, err
	}

	dest := filepath.Join(dir, fileName)
	if !force {
		if fi, err := os.Stat(dest); err == nil && fi.Size() == info.Size {
			s.client.logger.Info("Model checkpoint up to date", logging.String("path", dest))
			return &PullResult{Path: dest, Info: *info, Skipped: true}, nil
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to create model directory").WithDetail(dir)
	}
	if err := s.client.api.FGetObject(ctx, s.client.bucket, object, dest, minio.GetObjectOptions{}); err != nil {
		return nil, s.objectError(err, object, "failed to download model artifact")
	}

	s.client.logger.Info("Model checkpoint pulled",
		logging.String("object", object),
		logging.String("path", dest),
		logging.Any("size", info.Size))
	return &PullResult{Path: dest, Info: *info}, nil
}

// Push uploads the checkpoint at path as object, tagging it with version.
func (s *ModelStore) Push(ctx context.Context, path, object, version string) (*ModelInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Newf(errors.CodeModelNotFound, "model file not found at %s", path)
	}
	if err := s.client.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	opts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
	if version != "" {
		opts.UserMetadata = map[string]string{MetaModelVersion: version}
	}
	up, err := s.client.api.FPutObject(ctx, s.client.bucket, object, path, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to upload model artifact").WithDetail(object)
	}
	s.client.logger.Info("Model checkpoint pushed", logging.String("object", object), logging.Any("size", up.Size))
	return &ModelInfo{Object: object, Size: up.Size, ETag: up.ETag, Version: version}, nil
}

func (s *ModelStore) objectError(err error, object, msg string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.Newf(errors.CodeArtifactMissing, "model artifact %s not found in bucket %s", object, s.client.bucket)
	}
	return errors.Wrap(err, errors.CodeStorageError, msg).WithDetail(object)
}

package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/infrastructure/storage/minio"
	"github.com/turtacn/logkpredict/pkg/errors"
)

type fakeStore struct {
	info    *minio.ModelInfo
	pulled  []string
	force   bool
	pushed  string
	version string
	err     error
}

func (f *fakeStore) Stat(_ context.Context, object string) (*minio.ModelInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func (f *fakeStore) Pull(_ context.Context, object, dir, fileName string, force bool) (*minio.PullResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pulled = append(f.pulled, object, dir, fileName)
	f.force = force
	return &minio.PullResult{Path: filepath.Join(dir, fileName), Info: *f.info}, nil
}

func (f *fakeStore) Push(_ context.Context, path, object, version string) (*minio.ModelInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pushed, f.version = path, version
	return &minio.ModelInfo{Object: object, Size: 10, ETag: "etag", Version: version}, nil
}

func stubStore(t *testing.T, store *fakeStore) {
	t.Helper()
	orig := newModelStore
	newModelStore = func(config.MinIOConfig, logging.Logger) (modelStore, error) { return store, nil }
	t.Cleanup(func() { newModelStore = orig })
}

func TestModelPull(t *testing.T) {
	store := &fakeStore{info: &minio.ModelInfo{Object: "model.pt", Size: 42}}
	stubStore(t, store)
	e := newEnv(t, "")
	dest := t.TempDir()

	out, err := e.run("model", "pull", "--model-dir", dest, "--force")
	require.NoError(t, err)
	assert.Equal(t, []string{"model.pt", dest, config.DefaultModelFile}, store.pulled)
	assert.True(t, store.force)
	assert.Equal(t, "pulled model.pt to "+filepath.Join(dest, config.DefaultModelFile)+" (42 bytes)\n", out)

	// without the flag the configured model directory is used
	store.pulled = nil
	_, err = e.run("model", "pull")
	require.NoError(t, err)
	assert.Equal(t, e.modelDir, store.pulled[1])
}

func TestModelPull_NoDirectory(t *testing.T) {
	stubStore(t, &fakeStore{info: &minio.ModelInfo{}})
	t.Setenv(config.LegacyModelDirEnv, "")
	_, err := execute("model", "pull")
	assert.True(t, errors.IsEnvironment(err))
}

func TestModelPushAndInfo(t *testing.T) {
	store := &fakeStore{info: &minio.ModelInfo{Object: "model.pt", Size: 42, ETag: "abc", Version: "2.0.0"}}
	stubStore(t, store)
	e := newEnv(t, "")

	out, err := e.run("model", "push", "--version", "2.0.0", "-o", "json", "/tmp/ckpt.pt")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ckpt.pt", store.pushed)
	var info minio.ModelInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "2.0.0", info.Version)

	out, err = e.run("model", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "OBJECT")
	assert.Contains(t, out, "2.0.0")
}

func TestModel_StoreError(t *testing.T) {
	stubStore(t, &fakeStore{err: errors.New(errors.CodeArtifactMissing, "model artifact model.pt not found")})
	e := newEnv(t, "")
	_, err := e.run("model", "info")
	assert.True(t, errors.IsCode(err, errors.CodeArtifactMissing))
}

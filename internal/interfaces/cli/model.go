package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/logkpredict/internal/bootstrap"
	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/infrastructure/storage/minio"
	"github.com/turtacn/logkpredict/internal/intelligence/logk"
	"github.com/turtacn/logkpredict/pkg/errors"
)

type modelStore interface {
	Stat(ctx context.Context, object string) (*minio.ModelInfo, error)
	Pull(ctx context.Context, object, dir, fileName string, force bool) (*minio.PullResult, error)
	Push(ctx context.Context, path, object, version string) (*minio.ModelInfo, error)
}

var newModelStore = func(cfg config.MinIOConfig, log logging.Logger) (modelStore, error) {
	s, err := bootstrap.NewModelStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewModelCmd creates the model command group.
func NewModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the model checkpoint in object storage",
	}
	cmd.AddCommand(newModelPullCmd(), newModelPushCmd(), newModelInfoCmd())
	return cmd
}

// withStore runs fn with the configured store and a bounded context.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, cliCtx *CLIContext, store modelStore) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.commandContext(cmd)
	defer cancel()

	store, err := newModelStore(cliCtx.Config.MinIO, cliCtx.Logger)
	if err != nil {
		return err
	}
	return fn(ctx, cliCtx, store)
}

func newModelPullCmd() *cobra.Command {
	var (
		modelDir string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download the checkpoint into the model directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cliCtx *CLIContext, store modelStore) error {
				if modelDir == "" {
					modelDir = cliCtx.Config.Predictor.ModelDir
				}
				dir, err := logk.ResolveModelDir(modelDir)
				if err != nil {
					return err
				}
				res, err := store.Pull(ctx, cliCtx.Config.MinIO.ModelObject, dir, cliCtx.Config.Predictor.ModelFile, force)
				if err != nil {
					return err
				}
				return PrintResult(cmd, pullView{res})
			})
		},
	}
	cmd.Flags().StringVar(&modelDir, "model-dir", "", "destination directory (default: config, then $LOGKPREDICT_DIR)")
	cmd.Flags().BoolVar(&force, "force", false, "download even when a local file of the same size exists")
	return cmd
}

func newModelPushCmd() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "push <checkpoint>",
		Short: "Upload a checkpoint as the configured model object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cliCtx *CLIContext, store modelStore) error {
				info, err := store.Push(ctx, args[0], cliCtx.Config.MinIO.ModelObject, version)
				if err != nil {
					return err
				}
				return PrintResult(cmd, infoView{info})
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version label stored with the object")
	return cmd
}

func newModelInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the stored checkpoint's metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cliCtx *CLIContext, store modelStore) error {
				object := cliCtx.Config.MinIO.ModelObject
				if object == "" {
					return errors.New(errors.CodeConfiguration, "minio.model_object is not set")
				}
				info, err := store.Stat(ctx, object)
				if err != nil {
					return err
				}
				return PrintResult(cmd, infoView{info})
			})
		},
	}
}

type pullView struct{ *minio.PullResult }

func (v pullView) JSONValue() interface{} { return v.PullResult }

func (v pullView) String() string {
	if v.Skipped {
		return fmt.Sprintf("%s is up to date (%d bytes)", v.Path, v.Info.Size)
	}
	return fmt.Sprintf("pulled %s to %s (%d bytes)", v.Info.Object, v.Path, v.Info.Size)
}

type infoView struct{ *minio.ModelInfo }

func (v infoView) JSONValue() interface{} { return v.ModelInfo }

func (v infoView) TableHeaders() []string { return []string{"OBJECT", "SIZE", "ETAG", "VERSION"} }

func (v infoView) TableRows() [][]string {
	return [][]string{{v.Object, fmt.Sprint(v.Size), v.ETag, v.Version}}
}

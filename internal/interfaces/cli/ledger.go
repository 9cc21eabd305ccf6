package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/logkpredict/internal/application/prediction"
	domain "github.com/turtacn/logkpredict/internal/domain/prediction"
	"github.com/turtacn/logkpredict/internal/infrastructure/database/redis"
	"github.com/turtacn/logkpredict/pkg/client"
)

// ledgerReader is the lookup half of the prediction service, or the
// equivalent calls of the API client.
type ledgerReader interface {
	Get(ctx context.Context, id string) (*client.Record, error)
	Recent(ctx context.Context, limit int) ([]*client.Record, error)
}

// localLedger reads the redis ledger directly.
type localLedger struct{ svc prediction.Service }

func (l localLedger) Get(ctx context.Context, id string) (*client.Record, error) {
	rec, err := l.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toClientRecord(rec), nil
}

func (l localLedger) Recent(ctx context.Context, limit int) ([]*client.Record, error) {
	recs, err := l.svc.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*client.Record, len(recs))
	for i, r := range recs {
		out[i] = toClientRecord(r)
	}
	return out, nil
}

func toClientRecord(r *domain.Record) *client.Record {
	return &client.Record{
		ID:           r.ID.String(),
		Source:       r.Source,
		Status:       string(r.Status),
		LogK:         r.LogK,
		Sequence:     r.Sequence,
		DativeBonds:  r.DativeBonds,
		ErrorCode:    r.ErrorCode,
		ErrorMessage: r.ErrorMessage,
		DurationMs:   r.DurationMs,
		CreatedAt:    r.CreatedAt,
	}
}

// openLedger returns the API client when --server is set, else the redis
// ledger.  A disabled ledger is reported by the lookup itself.
func openLedger(cliCtx *CLIContext) (ledgerReader, func(), error) {
	api, err := cliCtx.apiClient()
	if err != nil {
		return nil, nil, err
	}
	if api != nil {
		return api, func() {}, nil
	}

	cfg := cliCtx.Config
	opts := prediction.Options{Logger: cliCtx.Logger}
	closeFn := func() {}
	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(cfg.Redis, cliCtx.Logger)
		if err != nil {
			return nil, nil, err
		}
		opts.Repository = redis.NewPredictionLedger(rc, cfg.Redis.KeyPrefix, cfg.Redis.ResultTTL, cliCtx.Logger)
		closeFn = func() { _ = rc.Close() }
	}
	return localLedger{svc: prediction.NewService(nil, opts)}, closeFn, nil
}

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <request-id>",
		Short: "Show the ledger entry of a prediction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			ledger, closeFn, err := openLedger(cliCtx)
			if err != nil {
				return err
			}
			defer closeFn()

			rec, err := ledger.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordsView{records: []*client.Record{rec}, single: true})
		},
	}
}

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent predictions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			ledger, closeFn, err := openLedger(cliCtx)
			if err != nil {
				return err
			}
			defer closeFn()

			recs, err := ledger.Recent(ctx, limit)
			if err != nil {
				return err
			}
			return PrintResult(cmd, recordsView{records: recs})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	return cmd
}

// recordsView renders ledger entries as a table in text mode too.  A
// single lookup is a JSON object, a listing a JSON array.
type recordsView struct {
	records []*client.Record
	single  bool
}

func (v recordsView) JSONValue() interface{} {
	if v.single && len(v.records) == 1 {
		return v.records[0]
	}
	if v.records == nil {
		return []*client.Record{}
	}
	return v.records
}

func (v recordsView) TableHeaders() []string {
	return []string{"ID", "CREATED", "SOURCE", "STATUS", "LOG K", "SEQUENCE / ERROR"}
}

func (v recordsView) TableRows() [][]string {
	rows := make([][]string, len(v.records))
	for i, r := range v.records {
		logK := "-"
		if r.LogK != nil {
			logK = fmt.Sprintf("%.2f", *r.LogK)
		}
		detail := r.Sequence
		if r.ErrorCode != "" {
			detail = r.ErrorCode
		}
		rows[i] = []string{r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.Status, logK, detail}
	}
	return rows
}

func (v recordsView) String() string {
	return FormatTable(v.TableHeaders(), v.TableRows()) + strconv.Itoa(len(v.records)) + " record(s)"
}

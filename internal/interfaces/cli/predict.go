package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/logkpredict/internal/application/prediction"
	"github.com/turtacn/logkpredict/internal/bootstrap"
	domain "github.com/turtacn/logkpredict/internal/domain/prediction"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/intelligence/logk"
	"github.com/turtacn/logkpredict/pkg/client"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// DefaultInputFile is read when no input is named.
const DefaultInputFile = "logk_input"

type predictOptions struct {
	input     string
	modelDir  string
	requestID string
	explain   bool
}

// NewPredictCmd creates the predict command.
func NewPredictCmd() *cobra.Command {
	opts := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict [input...]",
		Short: "Predict log K for one or more input records",
		Long: "Reads input records (header line, scalar feature line, V2000 MOL block\n" +
			"terminated by $$$$) and prints the predicted log K with two decimals.\n" +
			"Several inputs are predicted as one batch; \"-\" reads standard input.",
		Example: "  logkpredict predict\n" +
			"  logkpredict predict --model-dir ./model --explain complex.sdf\n" +
			"  logkpredict predict -o json a.sdf b.sdf\n" +
			"  logkpredict predict --server http://localhost:8080 complex.sdf",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, args, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", DefaultInputFile, "input record when no positional input is given")
	f.StringVar(&opts.modelDir, "model-dir", "", "directory holding model.pt (default: config, then $LOGKPREDICT_DIR)")
	f.StringVar(&opts.requestID, "request-id", "", "request id recorded in the ledger (single input only)")
	f.BoolVar(&opts.explain, "explain", false, "print the normalized sequence, descriptors and feature vector")
	return cmd
}

func runPredict(cmd *cobra.Command, args []string, opts *predictOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := cliCtx.commandContext(cmd)
	defer cancel()

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{opts.input}
	}
	if opts.requestID != "" && len(inputs) > 1 {
		return errors.New(errors.CodeInvalidParam, "--request-id applies to a single input")
	}
	reqs := make([]*prediction.Request, len(inputs))
	for i, in := range inputs {
		text, err := readInput(cmd, in)
		if err != nil {
			return err
		}
		reqs[i] = &prediction.Request{
			RequestID: opts.requestID,
			Record:    text,
			Explain:   opts.explain,
			Source:    prediction.SourceCLI,
		}
	}

	runner, closeFn, err := newPredictRunner(cliCtx, opts.modelDir)
	if err != nil {
		return err
	}
	defer closeFn()

	if len(reqs) == 1 {
		res, err := runner.predict(ctx, reqs[0])
		if err != nil {
			return err
		}
		return PrintResult(cmd, predictionView{res: res, explain: opts.explain})
	}

	results, err := runner.batch(ctx, reqs)
	if err != nil {
		return err
	}
	view := batchView{inputs: inputs, results: results}
	if err := PrintResult(cmd, view); err != nil {
		return err
	}
	return view.err()
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidInput, "cannot open input file "+path)
	}
	return string(data), nil
}

// predictRunner runs predictions in-process or against --server.
type predictRunner struct {
	predict func(context.Context, *prediction.Request) (*prediction.Result, error)
	batch   func(context.Context, []*prediction.Request) ([]*prediction.Result, error)
}

func newPredictRunner(cliCtx *CLIContext, modelDir string) (*predictRunner, func(), error) {
	api, err := cliCtx.apiClient()
	if err != nil {
		return nil, nil, err
	}
	if api != nil {
		return remoteRunner(api), func() {}, nil
	}

	cfg := *cliCtx.Config
	if modelDir != "" {
		cfg.Predictor.ModelDir = modelDir
	}
	comps, err := bootstrap.Build(&cfg, cliCtx.Logger)
	if errors.IsCode(err, errors.CodeCacheError) {
		cliCtx.Logger.Warn("prediction ledger unavailable, continuing without it", logging.Err(err))
		comps, err = bootstrap.Build(&cfg, cliCtx.Logger, bootstrap.WithoutLedger())
	}
	if err != nil {
		return nil, nil, err
	}
	return &predictRunner{predict: comps.Service.Predict, batch: comps.Service.PredictBatch},
		func() { _ = comps.Close() }, nil
}

func remoteRunner(api *client.Client) *predictRunner {
	return &predictRunner{
		predict: func(ctx context.Context, req *prediction.Request) (*prediction.Result, error) {
			p, err := api.Predict(ctx, toClientRequest(req))
			if err != nil {
				return nil, err
			}
			return fromClientPrediction(p), nil
		},
		batch: func(ctx context.Context, reqs []*prediction.Request) ([]*prediction.Result, error) {
			creqs := make([]*client.PredictionRequest, len(reqs))
			for i, r := range reqs {
				creqs[i] = toClientRequest(r)
			}
			br, err := api.PredictBatch(ctx, creqs)
			if err != nil {
				return nil, err
			}
			out := make([]*prediction.Result, len(br.Results))
			for i, p := range br.Results {
				out[i] = fromClientPrediction(p)
			}
			return out, nil
		},
	}
}

func toClientRequest(r *prediction.Request) *client.PredictionRequest {
	return &client.PredictionRequest{
		RequestID:      r.RequestID,
		ScalarFeatures: r.Scalar,
		MolBlock:       r.MolBlock,
		Record:         r.Record,
		Explain:        r.Explain,
	}
}

func fromClientPrediction(p *client.Prediction) *prediction.Result {
	res := &prediction.Result{
		RequestID:   p.RequestID,
		Status:      domain.Status(p.Status),
		LogK:        p.LogK,
		Sequence:    p.Sequence,
		DativeBonds: p.DativeBonds,
		DurationMs:  p.DurationMs,
	}
	if p.Error != nil {
		res.Error = &prediction.ErrorInfo{Code: p.Error.Code, Message: p.Error.Message}
	}
	if len(p.Trace) > 0 {
		var tr logk.PipelineTrace
		if json.Unmarshal(p.Trace, &tr) == nil {
			res.Trace = &tr
		}
	}
	return res
}

// predictionView renders one result.  Text output is the log K with two
// decimals, preceded by the pipeline trace when explain is set.
type predictionView struct {
	res     *prediction.Result
	explain bool
}

func (v predictionView) JSONValue() interface{} { return v.res }

func (v predictionView) String() string {
	logK := "n/a"
	if v.res.LogK != nil {
		logK = fmt.Sprintf("%.2f", *v.res.LogK)
	}
	if !v.explain || v.res.Trace == nil {
		return logK
	}

	tr := v.res.Trace
	var sb strings.Builder
	fmt.Fprintf(&sb, "sequence:      %s\n", tr.Sequence)
	fmt.Fprintf(&sb, "dative bonds:  %d\n", tr.DativeBonds)
	for _, d := range tr.Diagnostics {
		fmt.Fprintf(&sb, "diagnostic:    %s\n", d)
	}
	rows := descriptorRows(tr)
	if len(rows) > 0 {
		sb.WriteString("descriptors:\n")
		for _, r := range rows {
			fmt.Fprintf(&sb, "  %-24s %s\n", r[0], r[1])
		}
	}
	fmt.Fprintf(&sb, "features:      %s\n", tr.Features.String())
	sb.WriteString("log K:         " + logK)
	return sb.String()
}

func (v predictionView) TableHeaders() []string {
	return []string{"REQUEST ID", "LOG K", "SEQUENCE", "DATIVE", "MS"}
}

func (v predictionView) TableRows() [][]string {
	return [][]string{resultRow(v.res)}
}

// descriptorRows lists descriptors in calculation order, or by name when
// the order was lost in transit.
func descriptorRows(tr *logk.PipelineTrace) [][2]string {
	if dv := tr.DescriptorVector(); dv.Len() > 0 {
		rows := make([][2]string, dv.Len())
		for i, n := range dv.Names {
			rows[i] = [2]string{n, logk.FormatFeature(dv.Values[i])}
		}
		return rows
	}
	names := make([]string, 0, len(tr.Descriptors))
	for n := range tr.Descriptors {
		names = append(names, n)
	}
	sort.Strings(names)
	rows := make([][2]string, len(names))
	for i, n := range names {
		rows[i] = [2]string{n, logk.FormatFeature(tr.Descriptors[n])}
	}
	return rows
}

func resultRow(r *prediction.Result) []string {
	logK := "-"
	if r.LogK != nil {
		logK = fmt.Sprintf("%.2f", *r.LogK)
	}
	seq := r.Sequence
	if r.Error != nil {
		seq = r.Error.Code
	}
	return []string{r.RequestID, logK, seq, fmt.Sprint(r.DativeBonds), fmt.Sprintf("%.1f", r.DurationMs)}
}

// batchView renders several results in input order.
type batchView struct {
	inputs  []string
	results []*prediction.Result
}

func (v batchView) JSONValue() interface{} { return v.results }

func (v batchView) String() string {
	var sb strings.Builder
	for i, r := range v.results {
		if i > 0 {
			sb.WriteString("\n")
		}
		if r.LogK != nil {
			fmt.Fprintf(&sb, "%s\t%.2f", v.inputs[i], *r.LogK)
		} else if r.Error != nil {
			fmt.Fprintf(&sb, "%s\terror: [%s] %s", v.inputs[i], r.Error.Code, r.Error.Message)
		}
	}
	return sb.String()
}

func (v batchView) TableHeaders() []string {
	return append([]string{"INPUT"}, predictionView{}.TableHeaders()...)
}

func (v batchView) TableRows() [][]string {
	rows := make([][]string, len(v.results))
	for i, r := range v.results {
		rows[i] = append([]string{v.inputs[i]}, resultRow(r)...)
	}
	return rows
}

// err reports failed items so the process exits non-zero.
func (v batchView) err() error {
	failed := 0
	var first *prediction.ErrorInfo
	for _, r := range v.results {
		if r.Status != domain.StatusSucceeded {
			failed++
			if first == nil {
				first = r.Error
			}
		}
	}
	if failed == 0 {
		return nil
	}
	code := errors.CodeUnknown
	if first != nil {
		code = errors.ErrorCode(first.Code)
	}
	return errors.Newf(code, "%d of %d predictions failed", failed, len(v.results))
}

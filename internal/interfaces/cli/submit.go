package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/logkpredict/internal/application/prediction"
	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// SubmitSource is the envelope source of requests queued from the CLI.
const SubmitSource = "logkpredict-cli"

type publisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
	Close() error
}

var newPublisher = func(cfg config.KafkaConfig, log logging.Logger) (publisher, error) {
	p, err := kafka.NewProducer(cfg, log)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewSubmitCmd creates the submit command.
func NewSubmitCmd() *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "submit <input...>",
		Short: "Queue input records for the batch worker",
		Long: "Publishes each input record to the request topic and prints its request\n" +
			"id.  The worker publishes the outcome to the result topic and, when the\n" +
			"ledger is enabled, it can be read back with \"logkpredict get\".",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			kcfg := cliCtx.Config.Kafka
			if len(kcfg.Brokers) == 0 || kcfg.RequestTopic == "" {
				return errors.New(errors.CodeConfiguration, "kafka brokers and request topic are required")
			}
			pub, err := newPublisher(kcfg, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer pub.Close()

			ids := make([]string, 0, len(args))
			for _, in := range args {
				text, err := readInput(cmd, in)
				if err != nil {
					return err
				}
				req := &prediction.Request{Record: text, Explain: explain}
				msg, err := prediction.NewRequestMessage(kcfg.RequestTopic, SubmitSource, req)
				if err != nil {
					return err
				}
				if err := pub.Publish(ctx, msg); err != nil {
					return err
				}
				cliCtx.Logger.Debug("request queued", logging.RequestID(req.RequestID), logging.String("input", in))
				ids = append(ids, req.RequestID)
			}
			return PrintResult(cmd, submittedView(ids))
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "ask the worker to include the pipeline trace")
	return cmd
}

type submittedView []string

func (v submittedView) String() string { return strings.Join(v, "\n") }

func (v submittedView) JSONValue() interface{} {
	return map[string][]string{"request_ids": v}
}

// Package cli provides the jobflow command line interface.
//
//	jobflow run [-c config.yaml] [--items 20] [--timeout 30s] [--serve]
//	jobflow records [-c config.yaml] [--state failed]
//	jobflow validate -c config.yaml
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/jobflow"
	"github.com/viant/jobflow/internal/admin"
	"github.com/viant/jobflow/service/dao"
	"github.com/viant/jobflow/service/processor"
)

// Version is the CLI version
var Version = "0.1.0"

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand(os.Stdout).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree writing results to out
func NewRootCommand(out io.Writer) *cobra.Command {
	var configURL string
	root := &cobra.Command{
		Use:           "jobflow",
		Short:         "Job graph execution engine",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configURL, "config", "c", "", "config file URL")
	root.AddCommand(newRunCommand(out, &configURL), newRecordsCommand(out, &configURL), newValidateCommand(out, &configURL))
	return root
}

func loadConfig(ctx context.Context, URL string) (*jobflow.Config, error) {
	if URL == "" {
		return jobflow.DefaultConfig(), nil
	}
	return jobflow.LoadConfig(ctx, URL)
}

func newService(ctx context.Context, URL string) (*jobflow.Service, error) {
	config, err := loadConfig(ctx, URL)
	if err != nil {
		return nil, err
	}
	return jobflow.New(ctx, jobflow.WithConfig(config))
}

func newRunCommand(out io.Writer, configURL *string) *cobra.Command {
	var items int
	var timeout time.Duration
	var serve bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion demonstration graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, err := newService(ctx, *configURL)
			if err != nil {
				return err
			}
			if err = srv.Start(ctx); err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					srv.Logger().Warn("shutdown failed", "error", err)
				}
			}()

			adminDone := make(chan error, 1)
			adminCtx, stopAdmin := context.WithCancel(ctx)
			defer stopAdmin()
			if config := srv.Config().Admin; config.Enabled || serve {
				go func() { adminDone <- newAdminServer(srv, config.Addr).Run(adminCtx) }()
			} else {
				close(adminDone)
			}

			aDemo := newDemo()
			engine, err := srv.Engine(aDemo.graph())
			if err != nil {
				return err
			}
			var options []processor.InvokeOption
			if timeout > 0 {
				options = append(options, processor.WithTimeout(timeout))
			}
			process, err := engine.Invoke(ctx, "extract", items, options...)
			if err != nil {
				return err
			}
			outcome, err := process.Wait(ctx)
			if err != nil {
				return err
			}
			report := map[string]interface{}{
				"processId": outcome.ProcessID,
				"state":     outcome.State,
				"took":      outcome.TimeTaken.String(),
				"summary":   aDemo.summary(outcome.ProcessID),
			}
			if outcome.Err != nil {
				report["error"] = outcome.Err.Error()
			}
			if err = writeJSON(out, report); err != nil {
				return err
			}
			if serve {
				<-ctx.Done()
			}
			stopAdmin()
			if err = <-adminDone; err != nil {
				return err
			}
			if outcome.Err != nil {
				return fmt.Errorf("process %v failed: %w", outcome.ProcessID, outcome.Err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&items, "items", 20, "number of items to ingest")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "interrupt the process after this duration")
	cmd.Flags().BoolVar(&serve, "serve", false, "keep serving the admin API until interrupted")
	return cmd
}

func newAdminServer(srv *jobflow.Service, addr string) *admin.Server {
	var options []admin.Option
	if collector := srv.Metrics(); collector != nil {
		options = append(options, admin.WithMetrics(collector.Handler()))
	}
	options = append(options, admin.WithInterrupter(srv))
	return admin.NewServer(addr, srv.Processes(), srv.Records(), srv.Logger(), options...)
}

func newRecordsCommand(out io.Writer, configURL *string) *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List finished process records of the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, err := newService(ctx, *configURL)
			if err != nil {
				return err
			}
			defer srv.Shutdown(context.Background())
			var parameters []*dao.Parameter
			if state != "" {
				parameters = append(parameters, dao.NewStateParameter(state))
			}
			records, err := srv.Records().List(ctx, parameters...)
			if err != nil {
				return err
			}
			return writeJSON(out, records)
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "filter by process state")
	return cmd
}

func newValidateCommand(out io.Writer, configURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if *configURL == "" {
				return errors.New("--config is required")
			}
			if _, err := jobflow.LoadConfig(cmd.Context(), *configURL); err != nil {
				return err
			}
			_, err := fmt.Fprintf(out, "%v: ok\n", *configURL)
			return err
		},
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

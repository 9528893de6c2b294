package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/shelterpair/internal/metrics"
	"github.com/roach88/shelterpair/internal/server"
	"github.com/roach88/shelterpair/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	DBDriver string
	Addr     string

	// Ready, if set, receives the bound listener address once serving
	// (for testing with --addr 127.0.0.1:0).
	Ready chan<- string
}

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over HTTP",
		Long: `Start a read-only HTTP API over the runs recorded in a database.

Routes:
  GET /health
  GET /runs?limit=N
  GET /runs/{runID}
  GET /runs/{runID}/records?format=csv|ndjson
  GET /metrics

Example:
  shelterpair serve --db runs.db --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database the runs are recorded in")
	cmd.Flags().StringVar(&opts.DBDriver, "db-driver", "", "database driver (sqlite3|pgx)")
	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, cfg, err := openStore(opts.RootOptions, cmd, opts.Database, opts.DBDriver)
	if err != nil {
		return storeFailure(formatter, err)
	}
	defer st.Close()

	log := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())

	m := metrics.New()
	if err := seedMetrics(cmd.Context(), st, m); err != nil {
		return storeFailure(formatter, err)
	}

	router := server.NewRouter(server.Options{
		Runs:    st,
		Metrics: m.Handler(),
		Logger:  log,
	})
	srv := server.NewHTTPServer(opts.Addr, router)

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("failed to listen on %s: %v", opts.Addr, err), nil)
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Info("serving", "addr", ln.Addr().String(), "driver", st.Driver())
	if opts.Ready != nil {
		opts.Ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

// seedMetrics loads the gauges from the newest succeeded run.
func seedMetrics(ctx context.Context, runs server.RunReader, m *metrics.Metrics) error {
	list, err := runs.ListRuns(ctx, server.DefaultListLimit)
	if err != nil {
		return err
	}
	for _, r := range list {
		if r.Status == store.StatusSucceeded {
			m.SetLatest(r.Stats, r.FinishedAt)
			return nil
		}
	}
	return nil
}

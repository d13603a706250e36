package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-mediakit/internal/server"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
)

// ServeCmd creates the serve command.
func ServeCmd(env *Env) *cobra.Command {
	var (
		addr       string
		jobTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve probing, silence detection, formatting and split jobs over HTTP.

Routes:
  GET  /healthz
  GET  /probe?path=<file>
  POST /silences          {"path", "duration", "threshold"}
  POST /format?ext=.wav   request body in, formatted audio out
  POST /jobs/split        {"path", "outputDir", "chunkDuration"}
  GET  /jobs/{id}
  GET  /jobs/{id}/ws      job events over a websocket`,
		Example: `  mediakit serve
  mediakit serve --addr 127.0.0.1:9000 --job-timeout 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), env, addr, jobTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Listen address")
	cmd.Flags().DurationVar(&jobTimeout, "job-timeout", server.DefaultJobTimeout, "Maximum duration of a background job")

	return cmd
}

func runServe(ctx context.Context, env *Env, addr string, jobTimeout time.Duration) error {
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	srv := server.New(s.tools.Prober, s.tools.Splitter, s.tools.Splitter, s.tools.Editor,
		server.WithLogger(s.logger),
		server.WithJobTimeout(jobTimeout))
	defer srv.Close()

	s.logger.Info("listening", "addr", addr)
	fmt.Fprintf(env.Stderr, "Listening on %s\n", addr)
	return env.Serve(ctx, addr, srv.Router())
}

// serveHTTP runs an http.Server on addr and shuts it down gracefully when
// ctx is cancelled.
func serveHTTP(ctx context.Context, addr string, h http.Handler) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/config"
	chiTransport "github.com/kailas-cloud/simdex/internal/transport/chi"
	mcpTransport "github.com/kailas-cloud/simdex/internal/transport/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the similarity tools over MCP",
	Long: `Starts an MCP server. With mcp.transport=stdio (the default) the protocol runs
over stdin/stdout and logs go to stderr. With mcp.transport=http only the
streamable HTTP endpoint is served on http.port at mcp.path.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcpTransport.NewServer(a.ranking, a.tickets, a.logger).
		WithResponseMaxBytes(a.cfg.MCP.ResponseMaxBytes)

	if a.cfg.MCP.Transport != config.MCPTransportHTTP {
		a.logger.Info("Starting MCP server over stdio")
		return srv.RunStdio(ctx)
	}

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(a.logger))
	r.Use(chiTransport.BearerAuthMiddleware(a.cfg.Auth.APIKeys))
	r.Handle(a.cfg.MCP.Path, srv.HTTPHandler())

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting MCP HTTP server", zap.String("addr", addr), zap.String("path", a.cfg.MCP.Path))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

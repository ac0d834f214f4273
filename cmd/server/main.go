package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jrsteele09/docusign-mcp-server/identity"
	"github.com/jrsteele09/docusign-mcp-server/internal/config"
	"github.com/jrsteele09/docusign-mcp-server/internal/logging"
	"github.com/jrsteele09/docusign-mcp-server/server"
	"github.com/jrsteele09/docusign-mcp-server/sessions"
	"github.com/jrsteele09/docusign-mcp-server/tools"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "docusign-mcp",
	Short: "DocuSign eSignature tools over the Model Context Protocol",
	Long: `Serves DocuSign envelope and template operations as MCP tools, over stdio
(default) or streamable HTTP (MCP_TRANSPORT=http). Authenticates with the
JWT grant using DS_INTEGRATION_KEY, DS_USER_ID and an RSA private key.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

func main() {
	rootCmd.AddCommand(whoamiCmd, keygenCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the wiring shared by the commands.
type app struct {
	config  config.Config
	logger  zerolog.Logger
	manager *sessions.Manager
}

func newApp() (*app, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg, os.Stderr)
	log.Logger = logger

	httpClient := &http.Client{Timeout: cfg.GetHTTPTimeout()}
	provider := identity.New(cfg.GetAuthBaseURL(),
		identity.WithHTTPClient(httpClient),
		identity.WithLogger(logger),
	)
	manager := sessions.NewManager(cfg, provider,
		sessions.WithHTTPClient(httpClient),
		sessions.WithLogger(logger),
	)

	return &app{config: cfg, logger: logger, manager: manager}, nil
}

func run(ctx context.Context) (returnError error) {
	a, err := newApp()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(a.config.GetAppName())

	mcpServer := mcpserver.NewMCPServer(a.config.GetAppName(), Version, mcpserver.WithToolCapabilities(true))
	tools.Register(mcpServer, tools.NewService(a.manager, tools.WithLogger(a.logger)))

	switch transport := a.config.GetTransport(); transport {
	case config.StdioTransport:
		return a.serveStdio(ctx, mcpServer)
	case config.HTTPTransport:
		return a.serveHTTP(ctx, mcpServer)
	default:
		return fmt.Errorf("unknown MCP_TRANSPORT %q, expected %q or %q", transport, config.StdioTransport, config.HTTPTransport)
	}
}

// serveStdio speaks MCP on stdin/stdout until the client disconnects or ctx
// is cancelled. Nothing else may write to stdout.
func (a *app) serveStdio(ctx context.Context, mcpServer *mcpserver.MCPServer) error {
	a.logger.Info().Str("version", Version).Msg("serving MCP over stdio")

	stdio := mcpserver.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(newStdLogger(a.logger))

	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio.Listen: %w", err)
	}
	a.logger.Info().Msg("server stopped")
	return nil
}

func (a *app) serveHTTP(ctx context.Context, mcpServer *mcpserver.MCPServer) error {
	handler := server.New(a.config, mcpserver.NewStreamableHTTPServer(mcpServer), a.manager, server.WithLogger(a.logger))
	httpServer := &http.Server{Addr: a.config.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errs := make(chan error, 1)
	go func() {
		errs <- a.listenAndServe(httpServer)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	if err := shutdown(httpServer); err != nil {
		return err
	}
	a.logger.Info().Msg("server stopped")
	return nil
}

func (a *app) listenAndServe(httpServer *http.Server) error {
	a.logger.Info().Str("addr", httpServer.Addr).Str("version", Version).Msg("serving MCP over streamable HTTP")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe: %w", err)
	}
	return nil
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

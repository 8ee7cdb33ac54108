// Command swift-mcp-server serves Swift workspace intelligence to MCP
// clients over stdio, HTTP or WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	mcp "github.com/ClassicalDude/swift-mcp-server"
	"github.com/ClassicalDude/swift-mcp-server/config"
	"github.com/ClassicalDude/swift-mcp-server/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "swift-mcp-server:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a TOML configuration file")
		root       = flag.String("workspace", "", "workspace root (overrides workspace.root)")
		mode       = flag.String("transport", "", "stdio, http or websocket (overrides transport.mode)")
		addr       = flag.String("addr", "", "listen address for http and websocket (overrides transport.addr)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *root != "" {
		cfg.Workspace.Root = *root
	}
	if *mode != "" {
		cfg.Transport.Mode = *mode
	}
	if *addr != "" {
		cfg.Transport.Addr = *addr
	}

	// stdout carries the protocol in stdio mode; logs always go to stderr.
	logger := middleware.NewSlogLogger(mcp.NewSlogLogger(cfg.Logging, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []mcp.Option{mcp.WithLogger(logger)}
	if cfg.Telemetry.Enabled {
		tp, mp := telemetry(cfg.Telemetry)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := errors.Join(tp.Shutdown(shutdownCtx), mp.Shutdown(shutdownCtx)); err != nil {
				logger.Warn("telemetry shutdown", middleware.F("error", err.Error()))
			}
		}()
		opts = append(opts, mcp.WithTracerProvider(tp), mcp.WithMeterProvider(mp))
	}

	app, err := mcp.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Serve(ctx)
}

// telemetry builds the SDK providers tagged with the service name.
// Exporters are attached by registering span processors and readers on
// the returned providers.
func telemetry(cfg config.TelemetryConfig) (*sdktrace.TracerProvider, *sdkmetric.MeterProvider) {
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	return tp, mp
}

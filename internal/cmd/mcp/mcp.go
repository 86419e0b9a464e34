// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/eigital/eos-bridge/internal/eos"
	"github.com/eigital/eos-bridge/internal/mcp/service"
	"github.com/eigital/eos-bridge/internal/platform/config"
	"github.com/eigital/eos-bridge/internal/platform/otel"
)

// Config holds MCP command configuration.
type Config struct {
	BaseURL   string        `env:"EOS_API_BASE_URL"        envDefault:"http://localhost:3000/api"`
	Timeout   time.Duration `env:"EOS_API_TIMEOUT"         envDefault:"10s"`
	Transport string        `env:"EOS_BRIDGE_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr  string        `env:"EOS_BRIDGE_MCP_HTTP_ADDR" envDefault:"localhost:8081"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "EOS API base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "EOS API request timeout")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP front end against the configured EOS API.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	client, err := eos.New(eos.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
	if err != nil {
		return err
	}

	return service.Run(ctx, client, service.Config{
		Transport: service.TransportKind(cfg.Transport),
		HTTPAddr:  cfg.HTTPAddr,
	})
}

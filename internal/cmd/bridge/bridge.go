// Package bridge runs both bridge front ends in one process: the REST
// façade and the MCP server over HTTP, sharing a single EOS session.
package bridge

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/eigital/eos-bridge/internal/eos"
	"github.com/eigital/eos-bridge/internal/mcp/service"
	"github.com/eigital/eos-bridge/internal/platform/config"
	"github.com/eigital/eos-bridge/internal/platform/otel"
	"github.com/eigital/eos-bridge/internal/rest"
	"golang.org/x/sync/errgroup"
)

// Config holds bridge command configuration.
type Config struct {
	BaseURL     string        `env:"EOS_API_BASE_URL"        envDefault:"http://localhost:3000/api"`
	Timeout     time.Duration `env:"EOS_API_TIMEOUT"         envDefault:"10s"`
	HTTPAddr    string        `env:"EOS_BRIDGE_HTTP_ADDR"    envDefault:"localhost:8080"`
	MCPHTTPAddr string        `env:"EOS_BRIDGE_MCP_HTTP_ADDR" envDefault:"localhost:8081"`
	Environment string        `env:"EOS_BRIDGE_ENV"          envDefault:"production"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "EOS API base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "EOS API request timeout")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "REST listener address")
	fs.StringVar(&cfg.MCPHTTPAddr, "mcp-http-addr", cfg.MCPHTTPAddr, "MCP HTTP listener address")
	fs.StringVar(&cfg.Environment, "env", cfg.Environment, "Environment: development or production")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts both front ends and blocks until the context ends or either
// listener fails. Both share one client, so a login through REST is visible
// to MCP callers and vice versa.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "bridge")
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

	restServer, err := rest.New(client, rest.Config{
		Addr:        cfg.HTTPAddr,
		Environment: rest.Environment(cfg.Environment),
	})
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return restServer.Start(groupCtx)
	})
	group.Go(func() error {
		return service.Run(groupCtx, client, service.Config{
			Transport: service.TransportHTTP,
			HTTPAddr:  cfg.MCPHTTPAddr,
		})
	})
	return group.Wait()
}

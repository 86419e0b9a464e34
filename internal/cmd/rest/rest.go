// Package rest parses REST command flags and runs the JSON façade.
package rest

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/eigital/eos-bridge/internal/eos"
	"github.com/eigital/eos-bridge/internal/platform/config"
	"github.com/eigital/eos-bridge/internal/platform/otel"
	"github.com/eigital/eos-bridge/internal/rest"
)

// Config holds REST command configuration.
type Config struct {
	BaseURL     string        `env:"EOS_API_BASE_URL"     envDefault:"http://localhost:3000/api"`
	Timeout     time.Duration `env:"EOS_API_TIMEOUT"      envDefault:"10s"`
	HTTPAddr    string        `env:"EOS_BRIDGE_HTTP_ADDR" envDefault:"localhost:8080"`
	Environment string        `env:"EOS_BRIDGE_ENV"       envDefault:"production"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "EOS API base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "EOS API request timeout")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listener address")
	fs.StringVar(&cfg.Environment, "env", cfg.Environment, "Environment: development or production")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the REST front end against the configured EOS API.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "rest")
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

	server, err := rest.New(client, rest.Config{
		Addr:        cfg.HTTPAddr,
		Environment: rest.Environment(cfg.Environment),
	})
	if err != nil {
		return err
	}
	return server.Start(ctx)
}

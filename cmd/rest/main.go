package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	restcmd "github.com/eigital/eos-bridge/internal/cmd/rest"
	"github.com/eigital/eos-bridge/internal/platform/config"
)

// main starts the REST façade.
func main() {
	cfg, err := restcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[REST] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := restcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve REST: %v", err)
	}
}

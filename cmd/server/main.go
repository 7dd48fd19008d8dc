package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nomis52/signupboard/apiclient"
	"github.com/nomis52/signupboard/buildinfo"
	"github.com/nomis52/signupboard/config"
	"github.com/nomis52/signupboard/logging"
	"github.com/nomis52/signupboard/server"
)

type Args struct {
	ConfigPath  string
	EnvFile     string
	ShowVersion bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	if args.ShowVersion {
		props := buildinfo.Get()
		fmt.Printf("signupboard-server\nBuilt: %s\nCommit: %s\n", props.BuildTime, props.GitCommit)
		return nil
	}

	if err := config.LoadDotEnv(args.EnvFile); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	client, err := apiclient.New(cfg.API.BaseURL, apiclient.WithLogger(logger.Logger))
	if err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}

	opts := []server.Option{
		server.WithListenAddr(cfg.Listener.Addr),
		server.WithLogger(logger.Logger),
		server.WithConfig(&cfg),
		server.WithAPIURL(cfg.API.BaseURL),
		server.WithMetricsPrefix(cfg.Monitoring.MetricsPrefix),
		server.WithMaxSessions(cfg.Page.MaxSessions),
	}
	if cfg.Page.Markup != "" {
		opts = append(opts, server.WithMarkupFile(cfg.Page.Markup))
	}
	if cfg.Reload.Schedule != "" {
		opts = append(opts, server.WithCron(cfg.Reload.Schedule))
	}
	if cfg.Listener.TLSCert != "" {
		opts = append(opts, server.WithTLS(cfg.Listener.TLSCert, cfg.Listener.TLSKey))
	}

	srv, err := server.New(client, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		srv.Logger().Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	return srv.Run(ctx)
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")
	envFile := flag.String("env", ".env", "Path to an optional env file")
	showVersion := flag.Bool("version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nSignup Board Server - activities catalog and signup page\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSettings can be overridden with %s* environment variables.\n", config.EnvPrefix)
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --config /etc/signupboard/config.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  SIGNUPBOARD_API_URL=http://localhost:8000 %s\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	return Args{
		ConfigPath:  path,
		EnvFile:     *envFile,
		ShowVersion: *showVersion,
	}
}

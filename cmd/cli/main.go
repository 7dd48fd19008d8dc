package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nomis52/signupboard/apiclient"
	"github.com/nomis52/signupboard/buildinfo"
	"github.com/nomis52/signupboard/config"
	"github.com/nomis52/signupboard/loader"
	"github.com/nomis52/signupboard/logging"
	"github.com/nomis52/signupboard/metrics"
	"github.com/nomis52/signupboard/page"
	"github.com/nomis52/signupboard/signup"
	"github.com/nomis52/signupboard/status"
)

type Args struct {
	ConfigPath  string
	EnvFile     string
	Command     string
	CommandArgs []string
}

// errFailed marks a command whose outcome was already reported to the user.
var errFailed = errors.New("command failed")

type app struct {
	cfg    config.Config
	logger *logging.Logger
	client *apiclient.Client
	board  *metrics.Board
	out    io.Writer
}

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	switch args.Command {
	case "version":
		showVersion()
		return nil
	case "list", "signup", "unregister":
	case "":
		flag.Usage()
		return errors.New("a command is required")
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args.Command)
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

	board, err := newBoard(cfg, logger)
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, logger: logger, client: client, board: board, out: os.Stdout}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args.Command {
	case "list":
		return a.list(ctx, args.CommandArgs)
	case "signup":
		return a.signup(ctx, args.CommandArgs)
	default:
		return a.unregister(ctx, args.CommandArgs)
	}
}

// newBoard creates push-based metrics when a remote write endpoint is configured. A CLI run exits
// before anything could scrape it.
func newBoard(cfg config.Config, logger *logging.Logger) (*metrics.Board, error) {
	if cfg.Monitoring.VictoriaMetricsURL == "" {
		return nil, nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to get hostname: %w", err)
	}
	registry := metrics.NewPushRegistry(metrics.PushConfig{
		URL:      cfg.Monitoring.VictoriaMetricsURL,
		Job:      cfg.Monitoring.JobName,
		Instance: hostname,
		OnError: func(err error) {
			logger.Warn("failed to push metrics", "error", err)
		},
	})
	return metrics.NewBoard(registry, cfg.Monitoring.MetricsPrefix)
}

func (a *app) newPage() (*page.Page, error) {
	if a.cfg.Page.Markup == "" {
		return page.NewDefault(page.WithLogger(a.logger.Logger))
	}
	f, err := os.Open(a.cfg.Page.Markup)
	if err != nil {
		return nil, fmt.Errorf("failed to open page markup: %w", err)
	}
	defer f.Close()
	return page.New(f, page.WithLogger(a.logger.Logger))
}

func (a *app) list(ctx context.Context, argv []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	asHTML := fs.Bool("html", false, "Print the rendered page markup")
	if err := fs.Parse(argv); err != nil {
		return err
	}

	p, err := a.newPage()
	if err != nil {
		return err
	}
	loader.New(a.client, loader.WithMetrics(a.board)).Load(ctx, p)

	if *asHTML {
		if err := p.Render(a.out); err != nil {
			return err
		}
	} else {
		writeSummary(a.out, p)
	}

	if errs := p.Console().Errors(); len(errs) > 0 {
		return errFailed
	}
	return nil
}

func (a *app) signup(ctx context.Context, argv []string) error {
	req, err := parseParticipant("signup", argv)
	if err != nil {
		return err
	}

	p, err := a.newPage()
	if err != nil {
		return err
	}
	line := status.New(p)
	defer line.Stop()

	signup.New(a.client, p, line, signup.WithMetrics(a.board)).Submit(ctx, req)

	msg := line.Current()
	fmt.Fprintln(a.out, msg.Text)
	if msg.Kind != status.Success {
		return errFailed
	}
	return nil
}

func (a *app) unregister(ctx context.Context, argv []string) error {
	req, err := parseParticipant("unregister", argv)
	if err != nil {
		return err
	}

	reply, err := a.client.Unregister(ctx, req.Activity, req.Email)
	if err != nil {
		a.board.Submission("unregister", metrics.OutcomeFailed)
		return fmt.Errorf("failed to unregister: %w", err)
	}
	if !reply.OK() {
		a.board.Submission("unregister", metrics.OutcomeRejected)
		detail := reply.Detail
		if detail == "" {
			detail = signup.FallbackErrorText
		}
		fmt.Fprintln(a.out, detail)
		return errFailed
	}
	a.board.Submission("unregister", metrics.OutcomeSuccess)
	fmt.Fprintln(a.out, reply.Message)
	return nil
}

func parseParticipant(name string, argv []string) (signup.Request, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	activity := fs.String("activity", "", "Activity name")
	email := fs.String("email", "", "Participant email")
	if err := fs.Parse(argv); err != nil {
		return signup.Request{}, err
	}
	if *activity == "" || *email == "" {
		return signup.Request{}, fmt.Errorf("%s requires -activity and -email", name)
	}
	return signup.Request{Activity: *activity, Email: *email}, nil
}

func showVersion() {
	props := buildinfo.Get()
	fmt.Printf("signupboard\n")
	fmt.Printf("Built: %s\n", props.BuildTime)
	fmt.Printf("Commit: %s\n", props.GitCommit)
	fmt.Printf("Go: %s\n", props.GoVersion)
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")
	envFile := flag.String("env", ".env", "Path to an optional env file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [command options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nSignup Board CLI - browse activities and manage signups\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  list [-html]                        Show the activities catalog\n")
		fmt.Fprintf(os.Stderr, "  signup -activity NAME -email EMAIL  Sign up for an activity\n")
		fmt.Fprintf(os.Stderr, "  unregister -activity NAME -email EMAIL\n")
		fmt.Fprintf(os.Stderr, "                                      Remove a signup\n")
		fmt.Fprintf(os.Stderr, "  version                             Show version information\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  SIGNUPBOARD_API_URL=http://localhost:8000 %s signup -activity \"Chess Club\" -email a@mergington.edu\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	args := Args{ConfigPath: path, EnvFile: *envFile}
	if flag.NArg() > 0 {
		args.Command = flag.Arg(0)
		args.CommandArgs = flag.Args()[1:]
	}
	return args
}

// Package main is the shopcheck CLI: it drives generated actors through the
// shop workflows and exits non-zero when any check fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/config"
	"github.com/example/shopcheck/internal/logger"
	"github.com/example/shopcheck/internal/metrics"
	"github.com/example/shopcheck/internal/runner"
	"github.com/example/shopcheck/internal/workflow"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Exit codes besides check.ExitCodeSuccess and check.ExitCodeFailure.
const exitCodeError = 1

type options struct {
	configPath  string
	protocol    string
	graphqlURL  string
	restURL     string
	actors      int
	iterations  int
	concurrency int
	spawnRate   float64
	workflows   string
	mode        string
	prometheus  string
	logLevel    string
	verbose     bool
	list        bool
	validate    bool
	showVersion bool
}

func newFlagSet(opts *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("shopcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to the YAML configuration file")
	fs.StringVar(&opts.configPath, "c", "", "Path to the YAML configuration file (shorthand)")

	fs.StringVar(&opts.protocol, "protocol", "", "Override target protocol: graphql or rest")
	fs.StringVar(&opts.graphqlURL, "graphql-url", "", "Override the GraphQL endpoint URL")
	fs.StringVar(&opts.restURL, "rest-url", "", "Override the REST API root URL")
	fs.IntVar(&opts.actors, "actors", 0, "Override number of actors")
	fs.IntVar(&opts.iterations, "iterations", 0, "Override iterations per actor")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "Override maximum concurrent actors")
	fs.Float64Var(&opts.spawnRate, "spawn-rate", -1, "Override actors started per second (0 = unthrottled)")
	fs.StringVar(&opts.workflows, "workflows", "", "Comma-separated workflows to run (default: all)")
	fs.StringVar(&opts.mode, "mode", "", "Override workflow selection: sequence or weighted")
	fs.StringVar(&opts.prometheus, "prometheus", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Override log level: debug, info, warn, error")

	fs.BoolVar(&opts.verbose, "verbose", false, "List passed checks in the report")
	fs.BoolVar(&opts.verbose, "v", false, "List passed checks in the report (shorthand)")
	fs.BoolVar(&opts.list, "list", false, "List available workflows and exit")
	fs.BoolVar(&opts.list, "l", false, "List available workflows and exit (shorthand)")
	fs.BoolVar(&opts.validate, "validate", false, "Validate configuration and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")

	fs.Usage = func() { printUsage(stderr) }
	return fs
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `shopcheck - Shop Backend Workflow Checker

USAGE:
    shopcheck [-config <path>] [options]

DESCRIPTION:
    Registers generated actors against a shop backend, drives them through the
    auth, cart, order, wallet and catalog workflows over GraphQL or REST, and
    records a check for every expectation. Exits 0 when every check passes and
    2 when any check fails or a workflow cannot be set up.

CONFIGURATION:
    -config, -c <path>    YAML configuration (default: shopcheck.yaml in . or ./configs)
                          Environment variables prefixed SHOPCHECK_ override the file.

OVERRIDE OPTIONS:
    -protocol <p>         graphql or rest
    -graphql-url <url>    GraphQL endpoint
    -rest-url <url>       REST API root
    -actors <n>           Number of actors
    -iterations <n>       Iterations per actor
    -concurrency <n>      Maximum concurrent actors
    -spawn-rate <r>       Actors started per second (0 = unthrottled)
    -workflows <list>     Comma-separated workflow names
    -mode <m>             sequence (all workflows each iteration) or weighted (one per iteration)
    -log-level <level>    debug, info, warn, error

UTILITY OPTIONS:
    -list, -l             List available workflows
    -validate             Validate configuration and exit
    -verbose, -v          Include passed checks in the report
    -prometheus <addr>    Enable Prometheus metrics endpoint (e.g., :9090)
    -version              Show version information
    -help, -h             Show this help message

EXAMPLES:
    # Run every workflow once over GraphQL
    shopcheck -graphql-url http://localhost:4000/graphql

    # 50 REST actors, 10 at a time, 5 spawned per second
    shopcheck -protocol rest -rest-url http://localhost:4000 -actors 50 -concurrency 10 -spawn-rate 5

    # Only the order workflows, with metrics
    shopcheck -c configs/shopcheck.yaml -workflows order,order-negative -prometheus :9090
`)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return check.ExitCodeSuccess
		}
		return exitCodeError
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "shopcheck %s (built %s, commit %s)\n", version, buildTime, gitCommit)
		return check.ExitCodeSuccess
	}

	reg := workflow.NewRegistry()
	if opts.list {
		printWorkflows(stdout, reg)
		return check.ExitCodeSuccess
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: loading configuration: %v\n", err)
		return exitCodeError
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCodeError
	}
	if _, err := reg.Resolve(cfg.Run.Workflows); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCodeError
	}

	if opts.validate {
		fmt.Fprintln(stdout, "Configuration is valid")
		printConfigSummary(stdout, cfg)
		return check.ExitCodeSuccess
	}

	log, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		fmt.Fprintf(stderr, "Error: creating logger: %v\n", err)
		return exitCodeError
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := execute(logger.WithContext(ctx, log), cfg, reg)
	if err != nil && summary == nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCodeError
	}
	if err != nil {
		log.Warn("run interrupted", zap.Error(err))
	}

	fmt.Fprintln(stdout, check.FormatReport(summary.Report, cfg.Report.Verbose))
	for _, f := range summary.SetupFailures {
		fmt.Fprintf(stdout, "SETUP FAILED  actor %d  %s: %v\n", f.Actor, f.Username, f.Err)
	}
	fmt.Fprintln(stdout, summary.String())
	return summary.ExitCode()
}

// execute runs the checks with an optional metrics endpoint.
func execute(ctx context.Context, cfg *config.Config, reg *workflow.Registry) (*runner.Summary, error) {
	log := logger.FromContext(ctx)

	exp := metrics.New(metrics.Config{Listen: cfg.Metrics.Listen, Path: cfg.Metrics.Path})
	if err := exp.Start(); err != nil {
		return nil, err
	}
	if exp.IsRunning() {
		log.Info("metrics endpoint started", zap.String("address", exp.Address()))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = exp.Stop(shutdownCtx)
		}()
	}

	r, err := runner.New(runner.Options{Config: cfg, Logger: log, Metrics: exp, Registry: reg})
	if err != nil {
		return nil, err
	}
	summary, err := r.Run(ctx)

	if totals, terr := exp.Totals(); terr == nil {
		log.Info("metrics totals",
			zap.Int("checksPassed", totals.ChecksPassed),
			zap.Int("checksFailed", totals.ChecksFailed),
			zap.Int("workflowsAborted", totals.WorkflowsAborted),
			zap.Int("requests", totals.Requests),
		)
	}
	return summary, err
}

// applyOverrides applies CLI flag overrides to the configuration.
func applyOverrides(cfg *config.Config, opts options) {
	if opts.protocol != "" {
		cfg.Target.Protocol = strings.ToLower(opts.protocol)
	}
	if opts.graphqlURL != "" {
		cfg.Target.GraphQLURL = opts.graphqlURL
	}
	if opts.restURL != "" {
		cfg.Target.RESTURL = opts.restURL
	}
	if opts.actors > 0 {
		cfg.Run.Actors = opts.actors
	}
	if opts.iterations > 0 {
		cfg.Run.Iterations = opts.iterations
	}
	if opts.concurrency > 0 {
		cfg.Run.Concurrency = opts.concurrency
	}
	if opts.spawnRate >= 0 {
		cfg.Run.SpawnRate = opts.spawnRate
	}
	if opts.workflows != "" {
		var names []string
		for _, name := range strings.Split(opts.workflows, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		cfg.Run.Workflows = names
	}
	if opts.mode != "" {
		cfg.Run.Mode = strings.ToLower(opts.mode)
	}
	if opts.prometheus != "" {
		cfg.Metrics.Listen = opts.prometheus
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.verbose {
		cfg.Report.Verbose = true
	}
}

func printWorkflows(w io.Writer, reg *workflow.Registry) {
	fmt.Fprintln(w, "Available workflows:")
	for _, name := range reg.Names() {
		def, _ := reg.Lookup(name)
		fmt.Fprintf(w, "  %-16s weight %-2d %s\n", name, def.Weight, def.Description)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	target := cfg.Target.GraphQLURL
	if cfg.Target.Protocol == "rest" {
		target = cfg.Target.RESTURL
	}
	workflows := "all"
	if len(cfg.Run.Workflows) > 0 {
		workflows = strings.Join(cfg.Run.Workflows, ", ")
	}
	fmt.Fprintf(w, "  Target:      %s (%s)\n", target, cfg.Target.Protocol)
	fmt.Fprintf(w, "  Actors:      %d x %d iterations, %d concurrent\n", cfg.Run.Actors, cfg.Run.Iterations, cfg.Run.Concurrency)
	fmt.Fprintf(w, "  Mode:        %s\n", cfg.Run.Mode)
	fmt.Fprintf(w, "  Workflows:   %s\n", workflows)
	fmt.Fprintf(w, "  Product:     %s (%s)\n", cfg.Fixtures.ProductSlug, cfg.Fixtures.Currency)
}

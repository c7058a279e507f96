// Command steametl runs the Steam catalog ETL described by a pipeline file.
//
//	steametl -config configs/pipelines/steam.yaml
//	steametl -config configs/pipelines/steam.yaml -validate
//	steametl -dump-config
//
// Without -config the pipeline is built from STEAMETL_* environment variables.
// A .env file in the working directory is loaded first when present.
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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"steametl/internal/config"
	"steametl/internal/metrics"
	"steametl/internal/metrics/datadog"
	"steametl/internal/metrics/prompush"
	"steametl/internal/pipeline"

	// register all backends with the storage factory.
	_ "steametl/internal/storage/all"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	cfgPath        string
	validate       bool
	dumpConfig     bool
	verbose        bool
	metricsBackend string
	pushgatewayURL string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("steametl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.cfgPath, "config", "", "pipeline file (JSON or YAML); empty reads STEAMETL_* env only")
	fs.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&o.dumpConfig, "dump-config", false, "print the effective configuration as YAML and exit")
	fs.BoolVar(&o.verbose, "v", false, "enable verbose logs")
	fs.StringVar(&o.metricsBackend, "metrics-backend", "", "override metrics.backend (none, prometheus, datadog)")
	fs.StringVar(&o.pushgatewayURL, "pushgateway-url", "", "override metrics.pushgateway_url")
	err := fs.Parse(args)
	return o, err
}

// run returns the process exit code: 0 ok, 1 runtime failure, 2 bad usage or
// invalid configuration.
func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "load .env: %v\n", err)
		return 2
	}

	p, err := loadPipeline(o.cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if o.metricsBackend != "" {
		p.Metrics.Backend = o.metricsBackend
	}
	if o.pushgatewayURL != "" {
		p.Metrics.PushgatewayURL = o.pushgatewayURL
	}

	if o.dumpConfig {
		if err := config.Dump(stdout, *p); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	issues := config.ValidatePipeline(*p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintf(stderr, "configuration is invalid: %s\n", describe(o.cfgPath))
		return 2
	}
	if o.validate {
		fmt.Fprintf(stdout, "configuration is valid: %s\n", describe(o.cfgPath))
		return 0
	}

	logger, err := newLogger(o.verbose)
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	flush := setupMetrics(p.Job, p.Metrics, logger)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := pipeline.FromConfig(*p)
	if err != nil {
		logger.Error("build pipeline", zap.Error(err))
		return 1
	}
	runner, err := pipeline.New(s, logger)
	if err != nil {
		logger.Error("build pipeline", zap.Error(err))
		return 1
	}

	logger.Info("pipeline starting",
		zap.String("job", s.Job),
		zap.String("run_id", s.RunID),
		zap.String("source", p.Source.Kind),
		zap.String("storage", p.Storage.Kind),
		zap.String("output_dir", s.OutputDir),
	)
	if _, err := runner.Run(ctx); err != nil {
		logger.Error("pipeline failed", zap.String("run_id", s.RunID), zap.Error(err))
		return 1
	}
	return 0
}

func loadPipeline(path string) (*config.Pipeline, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.Load(path)
}

func describe(path string) string {
	if path == "" {
		return "environment"
	}
	return path
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setupMetrics installs the configured backend and returns its flush func.
// A backend that fails to initialize leaves metrics disabled.
func setupMetrics(job string, m config.Metrics, logger *zap.Logger) func() {
	log := logger.Named("metrics")
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "", "none":
		log.Debug("metrics disabled")
		return func() {}
	case "prometheus":
		b, err = prompush.NewBackend(job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			GlobalTags: []string{"job:" + job},
		})
	default:
		log.Warn("unknown metrics backend; metrics disabled", zap.String("backend", m.Backend))
		return func() {}
	}
	if err != nil {
		log.Warn("metrics backend init failed; metrics disabled", zap.String("backend", m.Backend), zap.Error(err))
		return func() {}
	}

	metrics.SetBackend(b)
	log.Info("metrics enabled", zap.String("backend", m.Backend))
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush", zap.Error(err))
		}
	}
}

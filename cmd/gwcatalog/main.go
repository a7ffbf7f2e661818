package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gwcatalog/internal/catalog"
	"gwcatalog/internal/config"
	"gwcatalog/internal/cosmology"
	"gwcatalog/internal/dataprocessing"
	"gwcatalog/internal/exporter"
	"gwcatalog/internal/files"
	"gwcatalog/internal/infrastructure"
	"gwcatalog/internal/validation"
	"gwcatalog/pkg/contracts/domain"
)

// options holds the parsed command line.
type options struct {
	producer   string
	inDir      string
	outFile    string
	format     string
	policy     string
	workers    int
	configFile string
	failures   string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if err := run(context.Background(), opts); err != nil {
		slog.Error("catalog run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("gwcatalog", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.producer, "producer", "", "producer to summarize: lvc, pycbc or ias (required)")
	fs.StringVar(&opts.inDir, "in", "", "directory of sample files (defaults to <data_dir>/<producer>)")
	fs.StringVar(&opts.outFile, "out", "", "catalog output file (defaults to <output_dir>/<producer>_catalog.<format>)")
	fs.StringVar(&opts.format, "format", string(exporter.FormatJSON), "output format: json, csv or xlsx")
	fs.StringVar(&opts.policy, "policy", "", "per-event failure policy: skip or halt (overrides config)")
	fs.IntVar(&opts.workers, "workers", 0, "events summarized concurrently (overrides config)")
	fs.StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.failures, "failures", "", "optional JSON file listing events that failed")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.producer == "" {
		fmt.Fprintln(output, "gwcatalog: -producer is required")
		fs.Usage()
		return options{}, fmt.Errorf("missing -producer")
	}
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	producer, err := domain.ParseProducer(opts.producer)
	if err != nil {
		return err
	}
	format, err := exporter.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.policy != "" {
		cfg.Summary.ErrorPolicy = opts.policy
	}
	if opts.workers > 0 {
		cfg.Summary.Workers = opts.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.WithRunID(ctx, infrastructure.GenerateRunID())
	start := time.Now()

	registry, err := config.LoadRegistry(cfg.Paths.RegistryFile)
	if err != nil {
		return err
	}

	converter, err := cosmology.NewConverter(cosmology.Config{
		Model:         cosmology.Model{H0: cfg.Cosmology.H0, Om0: cfg.Cosmology.Om0},
		ZMax:          cfg.Cosmology.ZMax,
		GridPoints:    cfg.Cosmology.GridPoints,
		Interpolation: cfg.Cosmology.Interpolation,
	})
	if err != nil {
		return err
	}

	providers, err := infrastructure.InitializeOTel(ctx, infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()
	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return err
	}

	summarizer, err := dataprocessing.NewSummarizer(logger, registry, converter, dataprocessing.SummarizerConfig{
		Quantiles: dataprocessing.Quantiles{Lower: cfg.Summary.LowerQuantile, Upper: cfg.Summary.UpperQuantile},
		Tracer:    providers.Tracer,
		Metrics:   metrics,
	})
	if err != nil {
		return err
	}

	assembler, err := catalog.NewAssembler(summarizer, logger, catalog.Options{
		Producer: producer,
		Policy:   catalog.ErrorPolicy(cfg.Summary.ErrorPolicy),
		Workers:  cfg.Summary.Workers,
	})
	if err != nil {
		return err
	}

	inDir := opts.inDir
	if inDir == "" {
		inDir = filepath.Join(cfg.Paths.DataDir, string(producer))
	}
	outFile := opts.outFile
	if outFile == "" {
		outFile = filepath.Join(cfg.Paths.OutputDir, string(producer)+"_catalog"+format.Extension())
	}

	logger.InfoContext(ctx, "starting catalog run",
		slog.String("producer", string(producer)),
		slog.String("input_dir", inDir),
		slog.String("output", outFile),
		slog.String("schema", registry.SchemaVersion()))

	validator := validation.NewFileValidator(logger)
	if _, err := validator.ValidateInputDirectory(inDir); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(filepath.Dir(outFile)); err != nil {
		return err
	}
	manager := files.NewManager("")
	if opts.failures != "" {
		if err := manager.EnsureDirectory(filepath.Dir(opts.failures)); err != nil {
			return err
		}
	}

	source := catalog.NewDirectorySource(files.NewDiscovery(""), registry, logger, inDir, producer)
	result, err := assembler.Assemble(ctx, source)
	if err != nil {
		return err
	}

	exp := exporter.NewExporter(manager, registry.SchemaKeys(), logger)
	if err := exp.Export(ctx, result.Document, outFile, format); err != nil {
		return err
	}
	if opts.failures != "" {
		if err := exp.ExportFailures(ctx, result.Failures, opts.failures); err != nil {
			return err
		}
	}
	for _, failure := range result.Failures {
		logger.WarnContext(ctx, "event skipped",
			slog.String("event", failure.Event),
			slog.String("step", string(failure.Step)),
			slog.String("cause", failure.Cause))
	}

	if err := providers.WriteMetrics(cfg.Telemetry.MetricsTextfile); err != nil {
		logger.WarnContext(ctx, "metrics not written", slog.String("error", err.Error()))
	}

	logger.InfoContext(ctx, "catalog run finished",
		slog.Int("events", len(result.Document.Events)),
		slog.Int("failed", len(result.Failures)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

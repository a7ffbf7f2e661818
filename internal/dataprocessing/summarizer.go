package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"gwcatalog/internal/config"
	"gwcatalog/internal/cosmology"
	"gwcatalog/internal/errors"
	"gwcatalog/internal/infrastructure"
	"gwcatalog/pkg/contracts/domain"
)

// SourceSuffix marks the source-frame counterpart of a detector-frame parameter.
const SourceSuffix = "_source"

// Summarizer turns one event's raw posterior table into a catalog record.
// It holds only read-only state and may be shared between goroutines.
type Summarizer struct {
	logger    *slog.Logger
	registry  *config.Registry
	converter *cosmology.Converter
	quantiles Quantiles
	tracer    trace.Tracer
	metrics   *infrastructure.PipelineMetrics
}

// SummarizerConfig holds the optional collaborators of a Summarizer.
type SummarizerConfig struct {
	Quantiles Quantiles // zero value means DefaultQuantiles
	Tracer    trace.Tracer
	Metrics   *infrastructure.PipelineMetrics
}

// NewSummarizer creates a summarizer over a loaded registry and converter.
func NewSummarizer(logger *slog.Logger, registry *config.Registry, converter *cosmology.Converter, cfg SummarizerConfig) (*Summarizer, error) {
	if registry == nil {
		return nil, errors.NewConfigError("summarizer needs a registry", nil)
	}
	if converter == nil {
		return nil, errors.NewConfigError("summarizer needs a cosmology converter", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Quantiles == (Quantiles{}) {
		cfg.Quantiles = DefaultQuantiles()
	}
	if err := cfg.Quantiles.Validate(); err != nil {
		return nil, err
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	if err := checkSchemaCoverage(registry); err != nil {
		return nil, err
	}

	return &Summarizer{
		logger:    infrastructure.WithComponent(logger, "summarizer"),
		registry:  registry,
		converter: converter,
		quantiles: cfg.Quantiles,
		tracer:    cfg.Tracer,
		metrics:   cfg.Metrics,
	}, nil
}

// Quantiles returns the interval bounds in use.
func (s *Summarizer) Quantiles() Quantiles {
	return s.quantiles
}

// SummarizeEvent derives, summarizes, converts and projects one event.
// Failures are returned as *errors.EventError naming the event and step.
func (s *Summarizer) SummarizeEvent(ctx context.Context, producer domain.Producer, name string, raw *SampleTable) (summary domain.EventSummary, err error) {
	start := time.Now()
	ctx = infrastructure.WithEvent(ctx, name)
	ctx, span := s.tracer.Start(ctx, "SummarizeEvent", trace.WithAttributes(
		attribute.String("event", name),
		attribute.String("producer", string(producer)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.WarnContext(ctx, "event summary failed", slog.String("error", err.Error()))
		}
		span.End()
		if s.metrics != nil {
			samples := 0
			if raw != nil {
				samples = raw.Len()
			}
			s.metrics.RecordEvent(ctx, string(producer), time.Since(start).Seconds(), samples, err)
		}
	}()

	if raw == nil {
		return domain.EventSummary{}, errors.NewEventError(name, errors.StepLoad, errors.NewInputError("", "no sample table"))
	}

	deriver, err := DeriverFor(producer)
	if err != nil {
		return domain.EventSummary{}, errors.NewEventError(name, errors.StepDerive, err)
	}
	info, err := s.registry.Producer(producer)
	if err != nil {
		return domain.EventSummary{}, errors.NewEventError(name, errors.StepProject, err)
	}

	canonical, err := deriver.Derive(raw)
	if err != nil {
		return domain.EventSummary{}, errors.NewEventError(name, errors.StepDerive, err)
	}
	s.logger.DebugContext(ctx, "derived canonical table",
		slog.Int("columns", canonical.NumColumns()),
		slog.Int("samples", canonical.Len()))

	values, err := s.summarizeColumns(canonical)
	if err != nil {
		return domain.EventSummary{}, errors.NewEventError(name, errors.StepSummarize, err)
	}

	if err := s.applyCosmology(values); err != nil {
		return domain.EventSummary{}, errors.NewEventError(name, errors.StepCosmology, err)
	}

	fields, err := s.project(deriver, values)
	if err != nil {
		return domain.EventSummary{}, errors.NewEventError(name, errors.StepProject, err)
	}
	s.attachIdentity(fields, producer, info, name, values)

	summary, err = domain.NewEventSummary(fields)
	if err != nil {
		return domain.EventSummary{}, errors.NewEventError(name, errors.StepProject, err)
	}

	s.logger.InfoContext(ctx, "event summarized",
		slog.String("producer", string(producer)),
		slog.Int("samples", raw.Len()),
		slog.Duration("duration", time.Since(start)))
	return summary, nil
}

// summarizeColumns stores p, p_lower and p_upper for every canonical column.
func (s *Summarizer) summarizeColumns(canonical *SampleTable) (map[string]float64, error) {
	values := make(map[string]float64, 3*canonical.NumColumns()+12)
	for _, name := range canonical.Names() {
		column, _ := canonical.Column(name)
		summary, err := SummarizeColumn(name, column, s.quantiles)
		if err != nil {
			return nil, err
		}
		values[name+domain.VariantMedian] = summary.Median
		values[name+domain.VariantLower] = summary.Lower
		values[name+domain.VariantUpper] = summary.Upper
	}
	return values, nil
}

// applyCosmology converts each variant with its own distance and redshift.
// A lower-bound mass is only ever paired with the lower-bound redshift.
func (s *Summarizer) applyCosmology(values map[string]float64) error {
	for _, variant := range domain.Variants() {
		distanceKey := ParamLuminosityDistance + variant
		distance, ok := values[distanceKey]
		if !ok {
			return errors.NewMissingColumnError(distanceKey)
		}
		z, err := s.converter.DistanceToRedshift(distance)
		if err != nil {
			return fmt.Errorf("%s: %w", distanceKey, err)
		}
		values[ParamRedshift+variant] = z

		for _, param := range SourceFrameParameters {
			mass, ok := values[param+variant]
			if !ok {
				return errors.NewMissingColumnError(param + variant)
			}
			values[param+SourceSuffix+variant] = cosmology.ToSourceFrame(mass, z)
		}
	}
	return nil
}

// requiredKeys lists every key a complete record of this producer carries.
func requiredKeys(deriver Deriver) []string {
	params := append([]string{}, deriver.CanonicalParameters()...)
	params = append(params, ParamRedshift)
	for _, param := range SourceFrameParameters {
		params = append(params, param+SourceSuffix)
	}

	keys := make([]string, 0, 3*len(params))
	for _, param := range params {
		for _, variant := range domain.Variants() {
			keys = append(keys, param+variant)
		}
	}
	return keys
}

// checkSchemaCoverage fails when the registry schema leaves out a key some
// producer's records must carry.
func checkSchemaCoverage(registry *config.Registry) error {
	for _, producer := range domain.Producers() {
		deriver, err := DeriverFor(producer)
		if err != nil {
			return err
		}
		for _, key := range requiredKeys(deriver) {
			if !registry.InSchema(key) {
				return errors.NewConfigError(
					fmt.Sprintf("registry schema is missing %q required by %s records", key, producer), nil)
			}
		}
	}
	return nil
}

// project keeps schema keys only. Schema keys without a value become null;
// a required key without a value fails the event.
func (s *Summarizer) project(deriver Deriver, values map[string]float64) (map[string]any, error) {
	for _, key := range requiredKeys(deriver) {
		if _, ok := values[key]; !ok {
			return nil, errors.NewMissingColumnError(key)
		}
	}

	keys := s.registry.SchemaKeys()
	fields := make(map[string]any, len(keys))
	for _, key := range keys {
		if value, ok := values[key]; ok {
			fields[key] = value
		} else {
			fields[key] = nil
		}
	}
	return fields, nil
}

func (s *Summarizer) attachIdentity(fields map[string]any, producer domain.Producer, info config.ProducerInfo, name string, values map[string]float64) {
	fields[domain.KeyCommonName] = name
	fields[domain.KeyReference] = info.Reference
	fields[domain.KeyShortName] = info.ShortName
	fields[domain.KeyVersion] = info.Version

	// known merger times win over the sampled coalescence time, which only
	// counts when the producer samples a geocentric GPS time
	if gps, ok := s.registry.GPSTime(producer, name); ok {
		fields[domain.KeyGPS] = gps
	} else if gps, ok := values[ParamGPS]; ok && info.SampledGPS {
		fields[domain.KeyGPS] = gps
	} else {
		fields[domain.KeyGPS] = nil
	}
}

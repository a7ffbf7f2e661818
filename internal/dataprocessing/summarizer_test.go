package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwcatalog/internal/config"
	"gwcatalog/internal/cosmology"
	"gwcatalog/internal/errors"
	"gwcatalog/internal/shared/testutil"
	"gwcatalog/pkg/contracts/domain"
)

// Redshift of 500 Mpc in flat LCDM with H0=67.74, Om0=0.3075.
const redshiftAt500Mpc = 0.10484

var (
	converterOnce sync.Once
	converter     *cosmology.Converter
	converterErr  error
)

func testConverter(t *testing.T) *cosmology.Converter {
	t.Helper()
	converterOnce.Do(func() {
		converter, converterErr = cosmology.NewConverter(cosmology.DefaultConfig())
	})
	require.NoError(t, converterErr)
	return converter
}

func testSummarizer(t *testing.T) *Summarizer {
	t.Helper()
	registry, err := config.DefaultRegistry()
	require.NoError(t, err)

	s, err := NewSummarizer(nil, registry, testConverter(t), SummarizerConfig{})
	require.NoError(t, err)
	return s
}

func TestSummarizeEventEqualMassAt500Mpc(t *testing.T) {
	s := testSummarizer(t)
	raw := tableOf(t,
		"luminosity_distance_Mpc", filled(100, 500),
		"m1_detector_frame_Msun", filled(100, 30),
		"m2_detector_frame_Msun", filled(100, 30),
		"right_ascension", filled(100, 1.5),
		"declination", filled(100, -1.2),
	)

	summary, err := s.SummarizeEvent(context.Background(), domain.ProducerLVC, "GW000001", raw)
	require.NoError(t, err)

	z, ok := summary.Float("redshift")
	require.True(t, ok)
	assert.InDelta(t, redshiftAt500Mpc, z, 5e-4)

	chirp, _ := summary.Float("chirp_mass")
	assert.InDelta(t, 30*math.Pow(2, -0.2), chirp, 1e-9)

	m1, _ := summary.Float("mass_1")
	m1Source, ok := summary.Float("mass_1_source")
	require.True(t, ok)
	assert.Less(t, m1Source, m1)
	assert.InDelta(t, 30/(1+z), m1Source, 1e-9)

	total, _ := summary.Float("total_mass_source")
	assert.InDelta(t, 60/(1+z), total, 1e-9)

	q, _ := summary.Float("mass_ratio")
	assert.Equal(t, 1.0, q)
}

func TestSummarizeEventBoundOrdering(t *testing.T) {
	s := testSummarizer(t)
	rng := rand.New(rand.NewSource(42))

	n := 4000
	distance := make([]float64, n)
	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		distance[i] = 480 + 40*rng.Float64()
		a[i] = 20 + 20*rng.Float64()
		b[i] = 20 + 20*rng.Float64()
	}
	raw := tableOf(t,
		"luminosity_distance_Mpc", distance,
		"m1_detector_frame_Msun", a,
		"m2_detector_frame_Msun", b,
		"right_ascension", filled(n, 1),
		"declination", filled(n, 0),
	)

	summary, err := s.SummarizeEvent(context.Background(), domain.ProducerLVC, "GW000002", raw)
	require.NoError(t, err)

	for _, param := range []string{"mass_1", "mass_2", "chirp_mass", "total_mass", "luminosity_distance", "redshift",
		"mass_1_source", "mass_2_source", "chirp_mass_source", "total_mass_source"} {
		lower, ok := summary.Float(param + "_lower")
		require.True(t, ok, param)
		median, _ := summary.Float(param)
		upper, _ := summary.Float(param + "_upper")
		assert.LessOrEqual(t, lower, median, param)
		assert.LessOrEqual(t, median, upper, param)
	}

	// Each variant pairs a mass with its own redshift.
	for _, variant := range domain.Variants() {
		mass, _ := summary.Float("mass_1" + variant)
		z, _ := summary.Float("redshift" + variant)
		source, _ := summary.Float("mass_1_source" + variant)
		assert.InDelta(t, mass/(1+z), source, 1e-9, variant)
	}
}

func TestSummarizeEventProjection(t *testing.T) {
	s := testSummarizer(t)
	registry, err := config.DefaultRegistry()
	require.NoError(t, err)

	raw := minimalRaw(t, domain.ProducerPyCBC, 200)
	summary, err := s.SummarizeEvent(context.Background(), domain.ProducerPyCBC, "GW150914", raw)
	require.NoError(t, err)

	assert.ElementsMatch(t, registry.SchemaKeys(), summary.Keys())

	// Schema keys nobody computed are explicit nulls.
	assert.True(t, summary.IsNull("jsonurl"))
	assert.True(t, summary.IsNull("far"))
	assert.True(t, summary.IsNull("a_1"))

	// Sampled-only keys outside the schema are dropped.
	assert.False(t, summary.Has("GPS_lower"))
	assert.False(t, summary.Has("GPS_upper"))

	name, _ := summary.String(domain.KeyCommonName)
	assert.Equal(t, "GW150914", name)
	short, _ := summary.String(domain.KeyShortName)
	assert.Equal(t, "PyCBC", short)
	ref, _ := summary.String(domain.KeyReference)
	assert.Equal(t, "https://github.com/gwastro/2-ogc", ref)
	version, _ := summary.Float(domain.KeyVersion)
	assert.Equal(t, 1.0, version)

	gps, ok := summary.Float(domain.KeyGPS)
	require.True(t, ok)
	assert.Equal(t, 1126259462.4, gps, "sampled merger time is used when the registry has none")
}

func TestSummarizeEventRegistryGPSOverridesSamples(t *testing.T) {
	s := testSummarizer(t)

	raw := minimalRaw(t, domain.ProducerIAS, 100)
	summary, err := s.SummarizeEvent(context.Background(), domain.ProducerIAS, "GW150914", raw)
	require.NoError(t, err)

	gps, ok := summary.Float(domain.KeyGPS)
	require.True(t, ok)
	assert.Equal(t, 1126259462.411, gps)
}

func TestSummarizeEventIASWithoutKnownGPS(t *testing.T) {
	s := testSummarizer(t)

	raw := minimalRaw(t, domain.ProducerIAS, 100)
	summary, err := s.SummarizeEvent(context.Background(), domain.ProducerIAS, "GW170999", raw)
	require.NoError(t, err)

	assert.True(t, summary.Has(domain.KeyGPS))
	assert.True(t, summary.IsNull(domain.KeyGPS), "IAS arrival times carry an arbitrary offset")
}

func TestSummarizeEventFailures(t *testing.T) {
	s := testSummarizer(t)

	nanDistance := minimalRaw(t, domain.ProducerLVC, 10)
	nanTable := NewSampleTable()
	for _, name := range nanDistance.Names() {
		values := append([]float64(nil), column(t, nanDistance, name)...)
		if name == "declination" {
			values[3] = math.NaN()
		}
		require.NoError(t, nanTable.AddColumn(name, values))
	}

	farTable := tableOf(t,
		"luminosity_distance_Mpc", filled(5, 1e7),
		"m1_detector_frame_Msun", filled(5, 30),
		"m2_detector_frame_Msun", filled(5, 30),
		"right_ascension", filled(5, 1),
		"declination", filled(5, 0),
	)

	missing := tableOf(t, "mass1", filled(3, 10))

	tests := []struct {
		name  string
		raw   *SampleTable
		step  errors.Step
		check func(error) bool
	}{
		{name: "non-finite sample", raw: nanTable, step: errors.StepSummarize, check: errors.IsInputError},
		{name: "distance beyond grid", raw: farTable, step: errors.StepCosmology, check: errors.IsDomainError},
		{name: "missing column", raw: missing, step: errors.StepDerive, check: errors.IsMissingColumn},
		{name: "no table", raw: nil, step: errors.StepLoad, check: errors.IsInputError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SummarizeEvent(context.Background(), domain.ProducerLVC, "GW999999", tt.raw)
			require.Error(t, err)

			report := errors.Report("", err)
			assert.Equal(t, "GW999999", report.Event)
			assert.Equal(t, tt.step, report.Step)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestSummarizeEventNamesFailingColumn(t *testing.T) {
	s := testSummarizer(t)
	raw := minimalRaw(t, domain.ProducerPyCBC, 10)
	trimmed := NewSampleTable()
	for _, name := range raw.Names() {
		if name != "tc" {
			require.NoError(t, trimmed.AddColumn(name, column(t, raw, name)))
		}
	}

	_, err := s.SummarizeEvent(context.Background(), domain.ProducerPyCBC, "GW170104", trimmed)
	got, ok := errors.MissingColumn(err)
	require.True(t, ok)
	assert.Equal(t, "tc", got)
}

func TestProjectRequiresEveryCanonicalParameter(t *testing.T) {
	s := testSummarizer(t)

	deriver := PyCBCDeriver{}
	canonical, err := deriver.Derive(minimalRaw(t, domain.ProducerPyCBC, 50))
	require.NoError(t, err)
	values, err := s.summarizeColumns(canonical)
	require.NoError(t, err)
	require.NoError(t, s.applyCosmology(values))

	_, err = s.project(deriver, values)
	require.NoError(t, err)

	// Dropping a single required key is already a failure.
	delete(values, "chi_eff_upper")
	_, err = s.project(deriver, values)
	got, ok := errors.MissingColumn(err)
	require.True(t, ok)
	assert.Equal(t, "chi_eff_upper", got)
}

func TestNewSummarizerValidation(t *testing.T) {
	registry, err := config.DefaultRegistry()
	require.NoError(t, err)

	_, err = NewSummarizer(nil, nil, testConverter(t), SummarizerConfig{})
	assert.Error(t, err)

	_, err = NewSummarizer(nil, registry, nil, SummarizerConfig{})
	assert.Error(t, err)

	_, err = NewSummarizer(nil, registry, testConverter(t), SummarizerConfig{
		Quantiles: Quantiles{Lower: 0.9, Upper: 0.1},
	})
	assert.Error(t, err)

	s, err := NewSummarizer(nil, registry, testConverter(t), SummarizerConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultQuantiles(), s.Quantiles())
}

// registryWithout builds a registry whose schema lacks the given key.
func registryWithout(t *testing.T, missing string) *config.Registry {
	t.Helper()
	defaults, err := config.DefaultRegistry()
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString("schema:\n  version: test\n  keys:\n")
	for _, key := range defaults.SchemaKeys() {
		if key != missing {
			fmt.Fprintf(&b, "    - %q\n", key)
		}
	}
	b.WriteString("producers:\n")
	for _, producer := range domain.Producers() {
		fmt.Fprintf(&b, "  %s:\n    short_name: %s\n    reference: https://example.org/%s\n", producer, producer, producer)
	}

	registry, err := config.ParseRegistry([]byte(b.String()))
	require.NoError(t, err)
	return registry
}

func TestNewSummarizerRejectsIncompleteSchema(t *testing.T) {
	_, err := NewSummarizer(nil, registryWithout(t, "jsonurl"), testConverter(t), SummarizerConfig{})
	require.NoError(t, err, "optional keys may be left out")

	_, err = NewSummarizer(nil, registryWithout(t, "mass_1_source"), testConverter(t), SummarizerConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "mass_1_source")
}

func TestSummarizeEventLogsOutcome(t *testing.T) {
	registry, err := config.DefaultRegistry()
	require.NoError(t, err)
	logger, logs := testutil.NewTestLogger(t)
	s, err := NewSummarizer(logger, registry, testConverter(t), SummarizerConfig{})
	require.NoError(t, err)

	_, err = s.SummarizeEvent(context.Background(), domain.ProducerPyCBC, "GW170729", minimalRaw(t, domain.ProducerPyCBC, 30))
	require.NoError(t, err)
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "event summarized")

	_, err = s.SummarizeEvent(context.Background(), domain.ProducerPyCBC, "GW170809", nil)
	require.Error(t, err)
	record, ok := logs.FindMessage("event summary failed")
	require.True(t, ok)
	assert.Equal(t, slog.LevelWarn, record.Level)
	assert.Contains(t, record.Attrs["error"], "GW170809")
	testutil.AssertNoErrors(t, logs)
}

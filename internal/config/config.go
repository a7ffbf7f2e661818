package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "GWCAT"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Summary   SummaryConfig   `yaml:"summary" envconfig:"SUMMARY"`
	Cosmology CosmologyConfig `yaml:"cosmology" envconfig:"COSMOLOGY"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	RegistryFile string `yaml:"registry_file" envconfig:"REGISTRY_FILE"`
}

// SummaryConfig controls quantile summaries and per-event failure handling.
type SummaryConfig struct {
	LowerQuantile float64 `yaml:"lower_quantile" envconfig:"LOWER_QUANTILE" validate:"gt=0,lt=1"`
	UpperQuantile float64 `yaml:"upper_quantile" envconfig:"UPPER_QUANTILE" validate:"gt=0,lt=1,gtfield=LowerQuantile"`
	ErrorPolicy   string  `yaml:"error_policy" envconfig:"ERROR_POLICY" validate:"oneof=skip halt"`
	Workers       int     `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=256"`
}

// CosmologyConfig pins the model and the lookup grid.
type CosmologyConfig struct {
	H0            float64 `yaml:"h0" envconfig:"H0" validate:"gt=0"`
	Om0           float64 `yaml:"om0" envconfig:"OM0" validate:"gt=0,lte=1"`
	ZMax          float64 `yaml:"zmax" envconfig:"ZMAX" validate:"gt=0,lte=1100"`
	GridPoints    int     `yaml:"grid_points" envconfig:"GRID_POINTS" validate:"min=1000"`
	Interpolation string  `yaml:"interpolation" envconfig:"INTERPOLATION" validate:"oneof=linear fritsch-butland"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Environment     string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter   string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio     float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	MetricsTextfile string  `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/gwcatalog.log",
		},
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "data",
		},
		Summary: SummaryConfig{
			LowerQuantile: 0.16,
			UpperQuantile: 0.84,
			ErrorPolicy:   "skip",
			Workers:       1,
		},
		Cosmology: CosmologyConfig{
			H0:            67.74,
			Om0:           0.3075,
			ZMax:          10,
			GridPoints:    10000,
			Interpolation: "linear",
		},
		Telemetry: TelemetryConfig{
			Environment:   "development",
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// GWCAT_* environment variables, in increasing order of precedence.
// An empty filePath falls back to the first config file found in the usual
// locations, if any.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath == "" {
		filePath = getConfigFilePath()
	}
	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"gwcatalog.yaml",
		"configs/gwcatalog.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Validate checks every struct tag rule and reports all failing fields at once.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.Struct(c); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return nil
}

package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"gwcatalog/pkg/contracts/domain"
)

//go:embed registry.yaml
var defaultRegistry []byte

// ProducerInfo is the provenance attached to every summary of a producer.
// SampledGPS marks producers whose sampled merger time is a geocentric GPS
// time that may stand in for a missing gps_times entry.
type ProducerInfo struct {
	ShortName        string             `yaml:"short_name"`
	Reference        string             `yaml:"reference"`
	Version          int                `yaml:"version"`
	SampledGPS       bool               `yaml:"sampled_gps"`
	SearchParameters map[string]string  `yaml:"search_parameters"`
	GPSTimes         map[string]float64 `yaml:"gps_times"`
}

type registryFile struct {
	Schema struct {
		Version string   `yaml:"version"`
		Keys    []string `yaml:"keys"`
	} `yaml:"schema"`
	Producers map[domain.Producer]ProducerInfo `yaml:"producers"`
}

// Registry is the immutable catalog lookup data: the output schema key list,
// producer provenance and known merger times. Load it once and pass it to
// the components that need it.
type Registry struct {
	schemaVersion string
	keys          []string
	keySet        map[string]struct{}
	producers     map[domain.Producer]ProducerInfo
}

// DefaultRegistry parses the registry compiled into the binary.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultRegistry)
}

// LoadRegistry reads a registry file, or the built-in one when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes and validates registry YAML.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	if len(file.Schema.Keys) == 0 {
		return nil, fmt.Errorf("registry schema has no keys")
	}
	keySet := make(map[string]struct{}, len(file.Schema.Keys))
	for _, key := range file.Schema.Keys {
		if _, dup := keySet[key]; dup {
			return nil, fmt.Errorf("registry schema key %q listed twice", key)
		}
		keySet[key] = struct{}{}
	}
	for _, key := range []string{domain.KeyCommonName, domain.KeyReference, domain.KeyShortName, domain.KeyVersion, domain.KeyGPS} {
		if _, ok := keySet[key]; !ok {
			return nil, fmt.Errorf("registry schema is missing identity key %q", key)
		}
	}

	for producer, info := range file.Producers {
		if _, err := domain.ParseProducer(string(producer)); err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		if info.ShortName == "" || info.Reference == "" {
			return nil, fmt.Errorf("registry producer %s needs short_name and reference", producer)
		}
	}

	keys := make([]string, len(file.Schema.Keys))
	copy(keys, file.Schema.Keys)

	return &Registry{
		schemaVersion: file.Schema.Version,
		keys:          keys,
		keySet:        keySet,
		producers:     file.Producers,
	}, nil
}

// SchemaVersion names the output schema revision.
func (r *Registry) SchemaVersion() string {
	return r.schemaVersion
}

// SchemaKeys returns a copy of the output schema keys in declaration order.
func (r *Registry) SchemaKeys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// InSchema reports whether key is part of the output schema.
func (r *Registry) InSchema(key string) bool {
	_, ok := r.keySet[key]
	return ok
}

// Producer returns the provenance registered for p.
func (r *Registry) Producer(p domain.Producer) (ProducerInfo, error) {
	info, ok := r.producers[p]
	if !ok {
		return ProducerInfo{}, fmt.Errorf("producer %q is not registered", p)
	}
	return info, nil
}

// GPSTime returns the known merger time of an event, if the registry has one.
func (r *Registry) GPSTime(p domain.Producer, event string) (float64, bool) {
	gps, ok := r.producers[p].GPSTimes[event]
	return gps, ok
}

// SearchParameters returns the raw parameter names documented for p, sorted.
func (r *Registry) SearchParameters(p domain.Producer) []string {
	params := r.producers[p].SearchParameters
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

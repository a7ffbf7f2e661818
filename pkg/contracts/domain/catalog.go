package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Producer identifies the pipeline that produced a posterior-sample dataset.
type Producer string

const (
	// ProducerLVC is the LVC GWTC-2 overall posterior release.
	ProducerLVC Producer = "lvc"
	// ProducerPyCBC is the PyCBC 2-OGC posterior release.
	ProducerPyCBC Producer = "pycbc"
	// ProducerIAS is the IAS O2 posterior release.
	ProducerIAS Producer = "ias"
)

// Producers lists every supported producer in a stable order.
func Producers() []Producer {
	return []Producer{ProducerLVC, ProducerPyCBC, ProducerIAS}
}

// ParseProducer resolves a producer identifier, case-insensitively.
func ParseProducer(s string) (Producer, error) {
	p := Producer(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Producers() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown producer %q", s)
}

// Identity and provenance keys attached to every summary.
const (
	KeyCommonName = "commonName"
	KeyReference  = "reference"
	KeyShortName  = "catalog.shortName"
	KeyVersion    = "version"
	KeyGPS        = "GPS"
)

// Statistic variant suffixes produced by the quantile summary.
const (
	VariantMedian = ""
	VariantLower  = "_lower"
	VariantUpper  = "_upper"
)

// Variants returns the three statistic variants in evaluation order.
func Variants() []string {
	return []string{VariantMedian, VariantLower, VariantUpper}
}

// EventSummary is the flat key to scalar record published for one event.
// Values are float64, int, string or nil (explicit null). The zero value is
// an empty summary; summaries are built once and never mutated afterwards.
type EventSummary struct {
	fields map[string]any
}

// NewEventSummary copies fields into a new summary. Values of unsupported
// types are rejected.
func NewEventSummary(fields map[string]any) (EventSummary, error) {
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		switch value.(type) {
		case nil, float64, int, string:
			copied[key] = value
		default:
			return EventSummary{}, fmt.Errorf("summary key %q: unsupported value type %T", key, value)
		}
	}
	return EventSummary{fields: copied}, nil
}

// Len returns the number of keys, including null ones.
func (s EventSummary) Len() int {
	return len(s.fields)
}

// Has reports whether key is part of the summary (possibly null).
func (s EventSummary) Has(key string) bool {
	_, ok := s.fields[key]
	return ok
}

// IsNull reports whether key is present with an explicit null value.
func (s EventSummary) IsNull(key string) bool {
	value, ok := s.fields[key]
	return ok && value == nil
}

// Get returns the raw value stored under key.
func (s EventSummary) Get(key string) (any, bool) {
	value, ok := s.fields[key]
	return value, ok
}

// Float returns the numeric value stored under key.
func (s EventSummary) Float(key string) (float64, bool) {
	switch v := s.fields[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// String returns the string value stored under key.
func (s EventSummary) String(key string) (string, bool) {
	v, ok := s.fields[key].(string)
	return v, ok
}

// Keys returns all keys in sorted order.
func (s EventSummary) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for key := range s.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Fields returns a copy of the underlying map.
func (s EventSummary) Fields() map[string]any {
	copied := make(map[string]any, len(s.fields))
	for key, value := range s.fields {
		copied[key] = value
	}
	return copied
}

// MarshalJSON writes the summary as an object with sorted keys and explicit nulls.
func (s EventSummary) MarshalJSON() ([]byte, error) {
	if s.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.fields)
}

// CatalogDocument maps event names to their summaries for a single producer run.
type CatalogDocument struct {
	Events map[string]EventSummary `json:"events"`
}

// NewCatalogDocument creates an empty document.
func NewCatalogDocument() *CatalogDocument {
	return &CatalogDocument{Events: make(map[string]EventSummary)}
}

// Names returns the event names in sorted order.
func (d *CatalogDocument) Names() []string {
	names := make([]string, 0, len(d.Events))
	for name := range d.Events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

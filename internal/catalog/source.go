package catalog

import (
	"context"
	"log/slog"

	"gwcatalog/internal/config"
	"gwcatalog/internal/dataprocessing"
	"gwcatalog/internal/files"
	"gwcatalog/internal/infrastructure"
	"gwcatalog/internal/validation"
	"gwcatalog/pkg/contracts/domain"
)

// Event is one named posterior table, loaded on demand.
type Event struct {
	Name string
	Load func(ctx context.Context) (*dataprocessing.SampleTable, error)
}

// EventSource lists the events of a run.
type EventSource interface {
	Events(ctx context.Context) ([]Event, error)
}

// TableSource serves tables that are already in memory, in insertion order.
type TableSource struct {
	events []Event
}

// NewTableSource creates an empty in-memory source.
func NewTableSource() *TableSource {
	return &TableSource{}
}

// Add appends a named table.
func (s *TableSource) Add(name string, table *dataprocessing.SampleTable) *TableSource {
	s.events = append(s.events, Event{
		Name: name,
		Load: func(context.Context) (*dataprocessing.SampleTable, error) {
			return table, nil
		},
	})
	return s
}

// Events implements EventSource.
func (s *TableSource) Events(context.Context) ([]Event, error) {
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events, nil
}

// DirectorySource discovers a producer's sample files in a directory and
// loads each one when its event is summarized. Loaded tables keep only the
// search parameters the registry documents for the producer.
type DirectorySource struct {
	discovery *files.Discovery
	loader    *files.Loader
	validator *validation.FileValidator
	logger    *slog.Logger
	params    []string
	dir       string
	producer  domain.Producer
}

// NewDirectorySource creates a source over dir for producer.
func NewDirectorySource(discovery *files.Discovery, registry *config.Registry, logger *slog.Logger, dir string, producer domain.Producer) *DirectorySource {
	if logger == nil {
		logger = slog.Default()
	}
	var params []string
	if registry != nil {
		params = registry.SearchParameters(producer)
	}
	return &DirectorySource{
		discovery: discovery,
		loader:    files.NewLoader(producer),
		validator: validation.NewFileValidator(logger),
		logger:    infrastructure.WithComponent(logger, "source"),
		params:    params,
		dir:       dir,
		producer:  producer,
	}
}

// Events implements EventSource.
func (s *DirectorySource) Events(context.Context) ([]Event, error) {
	eventFiles, err := s.discovery.FindEventFiles(s.dir, s.producer)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(eventFiles))
	for _, file := range eventFiles {
		path := file.Path
		events = append(events, Event{
			Name: file.Event,
			Load: func(ctx context.Context) (*dataprocessing.SampleTable, error) {
				if err := s.validator.ValidateSampleFile(path); err != nil {
					return nil, err
				}
				table, err := s.loader.LoadTable(path)
				if err != nil {
					return nil, err
				}
				return s.searchParameters(ctx, table), nil
			},
		})
	}
	return events, nil
}

// searchParameters drops columns the producer does not document. A registry
// without search parameters for the producer leaves the table untouched.
func (s *DirectorySource) searchParameters(ctx context.Context, table *dataprocessing.SampleTable) *dataprocessing.SampleTable {
	if len(s.params) == 0 {
		return table
	}
	selected, dropped := table.Select(s.params)
	if len(dropped) > 0 {
		s.logger.DebugContext(ctx, "ignoring undocumented columns",
			slog.Any("columns", dropped))
	}
	return selected
}

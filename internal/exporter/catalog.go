package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"gwcatalog/internal/errors"
	"gwcatalog/internal/files"
	"gwcatalog/internal/infrastructure"
	"gwcatalog/pkg/contracts/domain"
)

// EventColumn heads the event name column of tabular exports.
const EventColumn = "event"

// SheetName is the worksheet holding the catalog in workbook exports.
const SheetName = "catalog"

// Exporter writes catalog documents in the supported formats.
type Exporter struct {
	manager *files.Manager
	columns []string
	logger  *slog.Logger
}

// NewExporter creates an exporter. columns fixes the column order of
// tabular formats, normally the registry schema keys.
func NewExporter(manager *files.Manager, columns []string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		manager: manager,
		columns: append([]string{}, columns...),
		logger:  infrastructure.WithComponent(logger, "exporter"),
	}
}

// Export writes doc to path in format.
func (e *Exporter) Export(ctx context.Context, doc *domain.CatalogDocument, path string, format Format) error {
	var write func(io.Writer) error
	switch format {
	case FormatJSON:
		write = func(w io.Writer) error { return EncodeJSON(w, doc) }
	case FormatCSV:
		write = func(w io.Writer) error { return EncodeCSV(w, doc, e.columns) }
	case FormatXLSX:
		write = func(w io.Writer) error { return EncodeXLSX(w, doc, e.columns) }
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown export format %q", format), nil)
	}

	if err := e.manager.WriteAtomic(path, write); err != nil {
		return errors.NewStorageError(fmt.Sprintf("export catalog to %s", path), err)
	}

	e.logger.InfoContext(ctx, "catalog written",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("events", len(doc.Events)))
	return nil
}

// ExportFailures writes the failure list of a run as a JSON array.
func (e *Exporter) ExportFailures(ctx context.Context, failures []errors.FailureReport, path string) error {
	if failures == nil {
		failures = []errors.FailureReport{}
	}
	err := e.manager.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(failures)
	})
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("export failures to %s", path), err)
	}

	e.logger.InfoContext(ctx, "failure report written",
		slog.String("path", path),
		slog.Int("failures", len(failures)))
	return nil
}

// EncodeJSON writes doc as indented JSON. Map keys come out sorted, so the
// same catalog always produces the same bytes.
func EncodeJSON(w io.Writer, doc *domain.CatalogDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return nil
}

// tableRows lays doc out as rows of cells, header first, events sorted by name.
func tableRows(doc *domain.CatalogDocument, columns []string) [][]any {
	header := make([]any, 0, len(columns)+1)
	header = append(header, EventColumn)
	for _, column := range columns {
		header = append(header, column)
	}

	rows := [][]any{header}
	for _, name := range doc.Names() {
		summary := doc.Events[name]
		row := make([]any, 0, len(columns)+1)
		row = append(row, name)
		for _, column := range columns {
			value, _ := summary.Get(column)
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	return rows
}

// EncodeXLSX writes doc as a single-sheet workbook. Null cells stay empty.
func EncodeXLSX(w io.Writer, doc *domain.CatalogDocument, columns []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, row := range tableRows(doc, columns) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			if v == nil {
				values[j] = ""
				continue
			}
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"gwcatalog/pkg/contracts/domain"
)

// EncodeCSV writes doc as one row per event, sorted by name, with one
// column per entry of columns. Null values are empty cells.
func EncodeCSV(w io.Writer, doc *domain.CatalogDocument, columns []string) error {
	writer := csv.NewWriter(w)

	for i, row := range tableRows(doc, columns) {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = formatCell(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

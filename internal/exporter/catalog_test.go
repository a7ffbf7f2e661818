package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gwcatalog/internal/errors"
	"gwcatalog/internal/files"
	"gwcatalog/pkg/contracts/domain"
)

var testColumns = []string{"commonName", "version", "GPS", "mass_1", "jsonurl"}

func testDocument(t *testing.T) *domain.CatalogDocument {
	t.Helper()
	doc := domain.NewCatalogDocument()

	first, err := domain.NewEventSummary(map[string]any{
		"commonName": "GW170104",
		"version":    1,
		"GPS":        1167559936.6,
		"mass_1":     31.2,
		"jsonurl":    nil,
	})
	require.NoError(t, err)
	second, err := domain.NewEventSummary(map[string]any{
		"commonName": "GW150914",
		"version":    1,
		"GPS":        1126259462.4,
		"mass_1":     35.6,
		"jsonurl":    nil,
	})
	require.NoError(t, err)

	doc.Events["GW170104"] = first
	doc.Events["GW150914"] = second
	return doc
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, testDocument(t)))

	want := `{
  "events": {
    "GW150914": {
      "GPS": 1126259462.4,
      "commonName": "GW150914",
      "jsonurl": null,
      "mass_1": 35.6,
      "version": 1
    },
    "GW170104": {
      "GPS": 1167559936.6,
      "commonName": "GW170104",
      "jsonurl": null,
      "mass_1": 31.2,
      "version": 1
    }
  }
}
`
	assert.Equal(t, want, buf.String())

	// Encoding is deterministic.
	var again bytes.Buffer
	require.NoError(t, EncodeJSON(&again, testDocument(t)))
	assert.Equal(t, buf.String(), again.String())
}

func TestEncodeJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, domain.NewCatalogDocument()))

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Empty(t, decoded["events"])
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, testDocument(t), testColumns))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"event", "commonName", "version", "GPS", "mass_1", "jsonurl"},
		{"GW150914", "GW150914", "1", "1126259462.4", "35.6", ""},
		{"GW170104", "GW170104", "1", "1167559936.6", "31.2", ""},
	}, records)
}

func TestEncodeXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeXLSX(&buf, testDocument(t), testColumns))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"event", "commonName", "version", "GPS", "mass_1", "jsonurl"}, rows[0])
	assert.Equal(t, "GW150914", rows[1][0])
	assert.Equal(t, "35.6", rows[1][4])
	assert.Equal(t, "GW170104", rows[2][0])

	// Trailing empty cells are trimmed by GetRows; the null column is blank.
	value, err := f.GetCellValue(SheetName, "F2")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(files.NewManager(dir), testColumns, nil)
	ctx := context.Background()

	for _, format := range []Format{FormatJSON, FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			name := "lvc_catalog" + format.Extension()
			require.NoError(t, e.Export(ctx, testDocument(t), name, format))

			info, err := os.Stat(filepath.Join(dir, name))
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}

	err := e.Export(ctx, testDocument(t), "lvc_catalog.parquet", Format("parquet"))
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "only the finished catalogs remain")
}

func TestExportStorageError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0644))

	e := NewExporter(files.NewManager(""), testColumns, nil)
	err := e.Export(context.Background(), testDocument(t), filepath.Join(blocker, "catalog.json"), FormatJSON)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
}

func TestExportFailures(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(files.NewManager(dir), testColumns, nil)

	failures := []errors.FailureReport{
		{Event: "GW151012", Step: errors.StepSummarize, Type: errors.ErrTypeInput, Cause: "no samples"},
	}
	require.NoError(t, e.ExportFailures(context.Background(), failures, "failures.json"))

	data, err := os.ReadFile(filepath.Join(dir, "failures.json"))
	require.NoError(t, err)
	var decoded []errors.FailureReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, failures, decoded)

	require.NoError(t, e.ExportFailures(context.Background(), nil, "none.json"))
	data, err = os.ReadFile(filepath.Join(dir, "none.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: " CSV ", want: FormatCSV},
		{in: "Xlsx", want: FormatXLSX},
		{in: "hdf5", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "."+string(tt.want), tt.want.Extension())
		})
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: nil, want: ""},
		{in: 0.1, want: "0.1"},
		{in: 1e-7, want: "1e-07"},
		{in: 2.0, want: "2"},
		{in: 1126259462.411, want: "1126259462.411"},
		{in: 3e22, want: "3e+22"},
		{in: 3, want: "3"},
		{in: "GWTC-2", want: "GWTC-2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCell(tt.in))
	}
}

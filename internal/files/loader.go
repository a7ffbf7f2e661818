package files

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio/npy"
	"github.com/xuri/excelize/v2"

	"gwcatalog/internal/dataprocessing"
	"gwcatalog/internal/errors"
	"gwcatalog/pkg/contracts/domain"
)

// Supported sample file extensions.
const (
	ExtNPY  = ".npy"
	ExtCSV  = ".csv"
	ExtDAT  = ".dat"
	ExtTXT  = ".txt"
	ExtXLSX = ".xlsx"
)

// SupportedExtension reports whether LoadTable can read files named like name.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtNPY, ExtCSV, ExtDAT, ExtTXT, ExtXLSX:
		return true
	}
	return false
}

// Loader reads posterior sample files into sample tables. Header-less
// formats take their column names from the positional layout.
type Loader struct {
	positional []string
}

// NewLoader returns a loader for producer. IAS arrays carry no header, so
// the IAS layout is used for them.
func NewLoader(producer domain.Producer) *Loader {
	l := &Loader{}
	if producer == domain.ProducerIAS {
		l.positional = append([]string{}, dataprocessing.IASColumns...)
	}
	return l
}

// LoadTable reads the file at path, choosing the format by extension.
func (l *Loader) LoadTable(path string) (*dataprocessing.SampleTable, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ExtXLSX {
		return LoadXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	var table *dataprocessing.SampleTable
	switch ext {
	case ExtNPY:
		table, err = LoadNPY(bufio.NewReader(f), l.positional)
	case ExtCSV:
		table, err = LoadCSV(f)
	case ExtDAT, ExtTXT:
		table, err = LoadWhitespace(f)
	default:
		return nil, errors.NewParsingError(fmt.Sprintf("unsupported sample file %s", filepath.Base(path)), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return table, nil
}

// LoadNPY reads a two-dimensional float64 array with one sample per row.
// columns names the array columns in order and must match their count.
func LoadNPY(r io.Reader, columns []string) (*dataprocessing.SampleTable, error) {
	reader, err := npy.NewReader(r)
	if err != nil {
		return nil, errors.NewParsingError("read npy header", err)
	}
	shape := reader.Header.Descr.Shape
	if len(shape) != 2 {
		return nil, errors.NewParsingError(fmt.Sprintf("expected a 2-d array, got shape %v", shape), nil)
	}
	rows, cols := shape[0], shape[1]
	if cols != len(columns) {
		return nil, errors.NewParsingError(fmt.Sprintf("array has %d columns, layout names %d", cols, len(columns)), nil)
	}

	var data []float64
	if err := reader.Read(&data); err != nil {
		return nil, errors.NewParsingError("read npy data", err)
	}
	if len(data) != rows*cols {
		return nil, errors.NewParsingError(fmt.Sprintf("array holds %d values, shape %v", len(data), shape), nil)
	}

	fortran := reader.Header.Descr.Fortran
	table := dataprocessing.NewSampleTable()
	for j, name := range columns {
		column := make([]float64, rows)
		for i := range column {
			if fortran {
				column[i] = data[j*rows+i]
			} else {
				column[i] = data[i*cols+j]
			}
		}
		if err := table.AddColumn(name, column); err != nil {
			return nil, errors.NewParsingError("build table", err)
		}
	}
	return table, nil
}

// LoadCSV reads a comma separated file whose first row names the columns.
func LoadCSV(r io.Reader) (*dataprocessing.SampleTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewParsingError("csv has no header row", nil)
	}
	if err != nil {
		return nil, errors.NewParsingError("read csv", err)
	}

	var records []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParsingError("read csv", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	return tableFromRecords(header, records)
}

// LoadWhitespace reads a whitespace separated text file with a header row.
// A leading '#' on the header is ignored; other '#' lines are comments.
func LoadWhitespace(r io.Reader) (*dataprocessing.SampleTable, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var header []string
	var records []record
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if header == nil {
			header = strings.Fields(strings.TrimPrefix(text, "#"))
			continue
		}
		if strings.HasPrefix(text, "#") {
			continue
		}
		records = append(records, record{line: line, fields: strings.Fields(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewParsingError("read samples", err)
	}
	if len(header) == 0 {
		return nil, errors.NewParsingError("sample file has no header row", nil)
	}
	return tableFromRecords(header, records)
}

// LoadXLSX reads the first worksheet of a workbook whose first row names the columns.
func LoadXLSX(path string) (*dataprocessing.SampleTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("open workbook %s", path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError("workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("read sheet %s", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParsingError("sheet has no header row", nil)
	}

	var records []record
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		records = append(records, record{line: i + 2, fields: row})
	}
	return tableFromRecords(rows[0], records)
}

// record is one data row and the 1-based line (or sheet row) it came from.
type record struct {
	line   int
	fields []string
}

func tableFromRecords(header []string, records []record) (*dataprocessing.SampleTable, error) {
	names := make([]string, len(header))
	for j, name := range header {
		names[j] = strings.TrimSpace(name)
		if names[j] == "" {
			return nil, errors.NewParsingError(fmt.Sprintf("header column %d has no name", j+1), nil)
		}
	}

	columns := make([][]float64, len(names))
	for j := range columns {
		columns[j] = make([]float64, len(records))
	}
	for i, rec := range records {
		if len(rec.fields) != len(names) {
			return nil, errors.NewParsingError(
				fmt.Sprintf("line %d has %d fields, header has %d", rec.line, len(rec.fields), len(names)), nil).
				WithContext(errors.ContextLine, rec.line)
		}
		for j, field := range rec.fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.NewParsingError(
					fmt.Sprintf("line %d column %s: invalid number %q", rec.line, names[j], field), err).
					WithContext(errors.ContextLine, rec.line).
					WithContext(errors.ContextColumn, names[j])
			}
			columns[j][i] = v
		}
	}

	table := dataprocessing.NewSampleTable()
	for j, name := range names {
		if err := table.AddColumn(name, columns[j]); err != nil {
			return nil, errors.NewParsingError("build table", err)
		}
	}
	return table, nil
}

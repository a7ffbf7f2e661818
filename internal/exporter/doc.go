// Package exporter writes catalog documents to disk.
//
// Three formats are supported: the JSON catalog ({"events": {...}} with
// sorted keys and explicit nulls), a CSV table with one row per event and
// one column per schema key, and an .xlsx workbook with the same layout.
// Every file is written to a temporary name first and renamed into place.
//
// Example usage:
//
//	exp := exporter.NewExporter(files.NewManager("data"), registry.SchemaKeys(), logger)
//	err := exp.Export(ctx, result.Document, "lvc_catalog.json", exporter.FormatJSON)
package exporter

// Package files locates and reads posterior sample files and writes output
// files atomically.
//
// Discovery maps a producer's file naming onto event names. Loader turns
// .npy, .csv, whitespace separated .dat/.txt and .xlsx files into sample
// tables. HDF5 releases must be exported to one of these formats first.
//
// Example usage:
//
//	discovery := files.NewDiscovery("data")
//	eventFiles, err := discovery.FindEventFiles("ias", domain.ProducerIAS)
//
//	loader := files.NewLoader(domain.ProducerIAS)
//	table, err := loader.LoadTable(eventFiles[0].Path)
package files

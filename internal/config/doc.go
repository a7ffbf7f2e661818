// Package config loads the run configuration and the catalog registry.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern GWCAT_<SECTION>_<FIELD>:
//
//	GWCAT_LOGGING_LEVEL=debug
//	GWCAT_SUMMARY_ERROR_POLICY=halt
//	GWCAT_COSMOLOGY_GRID_POINTS=20000
//
// # Registry
//
// The registry holds the versioned output schema, producer provenance and
// known merger times. A default registry is compiled in; a file named by
// paths.registry_file replaces it.
package config

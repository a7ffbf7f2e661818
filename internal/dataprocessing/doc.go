// Package dataprocessing turns raw posterior samples into catalog summaries.
//
// # Architecture
//
// The package is organized into three stages:
//
//  1. Derivation: a per-producer Deriver maps raw columns onto canonical
//     parameters, filling in the binary mass relations and effective spin.
//  2. Summary: every canonical column is reduced to a median and a
//     lower/upper credible bound.
//  3. Conversion: each of the three statistics gets its own redshift from its
//     own luminosity distance, and the mass-like parameters are moved to the
//     source frame with that redshift.
//
// The Summarizer runs the stages in this order for one event and projects
// the result onto the registry schema.
//
// # Usage
//
//	deriver, err := dataprocessing.DeriverFor(domain.ProducerLVC)
//	canonical, err := deriver.Derive(raw)
//
//	summarizer, err := dataprocessing.NewSummarizer(logger, registry, converter, dataprocessing.SummarizerConfig{})
//	summary, err := summarizer.SummarizeEvent(ctx, domain.ProducerLVC, "GW150914", raw)
package dataprocessing

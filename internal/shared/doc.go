// Package shared holds helpers used by the tests of several packages.
//
// The testutil subpackage captures slog output in memory so tests can
// assert on what the pipeline logged about an event:
//
//	logger, logs := testutil.NewTestLogger(t)
//	summarizer, _ := dataprocessing.NewSummarizer(logger, registry, converter, cfg)
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "event summary failed")
//
// Nothing here is imported by production code.
package shared

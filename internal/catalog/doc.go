// Package catalog assembles per-event summaries of one producer into a
// catalog document.
//
// Events are summarized independently. A failing event is either reported
// and left out of the document (ErrorPolicySkip) or aborts the whole run
// (ErrorPolicyHalt). With more than one worker events are summarized
// concurrently; the resulting document and failure list do not depend on
// the worker count.
package catalog

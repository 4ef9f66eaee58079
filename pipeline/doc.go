// Package pipeline runs the ordered receiver verification chain:
// security, required values, GET/HEAD short-circuit, method, body type,
// ping. The order is a literal list in the orchestrator and never varies
// per receiver; a rejection at any stage terminates the run.
package pipeline

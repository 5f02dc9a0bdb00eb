package samealert

import (
	"fmt"
)

// Failures in the decode stages affect only the current burst or
// alert; the pipeline logs them and resumes scanning.  Only
// ConfigError is fatal, and only at startup.

// ConfigError reports an invalid configuration discovered before the
// pipeline starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

// ReconciliationError reports that the repetitions of one transmission
// could not be combined into a single trustworthy header.
type ReconciliationError struct {
	Reason     string
	Candidates int
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile %d candidates: %s", e.Candidates, e.Reason)
}

// FormatError reports a reconciled header that fails the SAME grammar.
type FormatError struct {
	Header string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bad header %q: %s", e.Header, e.Reason)
}

// TransportError reports a failure on the link to the mesh node.  It
// triggers the forwarder's reconnect-and-retry sequence and never
// propagates into the decode path.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

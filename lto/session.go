// Package lto implements link-time-optimization support: it lets the linker
// accept compiler-IR input objects, hands them to an external compiler
// backend over the linker plugin protocol, and splices the backend's compiled
// objects back into the link in place of the IR placeholders.
//
// The plugin protocol is not safe for concurrent use, so neither is this
// package: one Session exists per link and all calls into it must be made
// sequentially from a single goroutine.
package lto

import (
	"fmt"
	"sync"

	"weld/linker"
	"weld/plugapi"
	"weld/report"
)

// Phase is the session's position in its strict one-way lifecycle.
type Phase int

const (
	PhaseNotLoaded  Phase = iota // No IR object has been seen; the backend is not loaded.
	PhaseCollecting              // The backend is loaded and IR inputs are being claimed.
	PhaseCompiling               // Final backend compilation has been triggered.
)

func (p Phase) String() string {
	switch p {
	case PhaseCollecting:
		return "collecting"
	case PhaseCompiling:
		return "compiling"
	default:
		return "not-loaded"
	}
}

// -----------------------------------------------------------------------------

// Session is the LTO state of one link.  It is created at link start, passed
// by reference into every ingestion, resolution, and compilation call, and
// torn down with the link.
type Session struct {
	// ctx is the link context the session is bound to.
	ctx *linker.Context

	// phase is the session's lifecycle position.  It only ever moves
	// forward, through checked transitions.
	phase Phase

	// loadOnce guards the one-time backend load.
	loadOnce sync.Once

	// loadErr is the result of the one-time backend load.
	loadErr error

	// onload is the backend entry point.  Resolved from the configured
	// plugin library on first use unless an in-process backend was injected
	// with UseBackend.
	onload plugapi.OnloadFunc

	// The hooks the backend registered during onload.  claimFile and
	// allSymbolsRead are required; cleanup is optional.
	claimFile      plugapi.ClaimFileHandler
	allSymbolsRead plugapi.AllSymbolsReadHandler
	cleanup        plugapi.CleanupHandler

	// pluginSymbols is the transient symbol list populated by the backend's
	// add-symbols callback.  It only holds data between a claim call and the
	// synthesis step that consumes it.
	pluginSymbols []plugapi.Symbol

	// compileErr records the first error that occurred inside a callback
	// during final compilation, to be returned once the backend hands
	// control back.
	compileErr error
}

// NewSession creates the LTO session for the given link context.
func NewSession(ctx *linker.Context) *Session {
	return &Session{ctx: ctx}
}

// UseBackend injects an in-process backend entry point, bypassing the
// shared-library loader.  Must be called before the first IR object is
// ingested.
func (s *Session) UseBackend(onload plugapi.OnloadFunc) {
	s.onload = onload
}

// Phase returns the session's current lifecycle position.
func (s *Session) Phase() Phase {
	return s.phase
}

// transition advances the session's phase.  Out-of-order calls are contract
// violations and are rejected.
func (s *Session) transition(from, to Phase) error {
	if s.phase != from {
		return report.StateErrorf("lto session is in phase %s, expected %s", s.phase, from)
	}

	s.phase = to
	return nil
}

// Cleanup lets the backend delete any temporary files it created.  It is
// always safe to call, even if no IR object was ever ingested or the backend
// never registered a cleanup hook.
func (s *Session) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// message is the diagnostic sink handed to the backend in the capability
// table.
func (s *Session) message(level int, format string, args ...interface{}) plugapi.Status {
	report.ReportBackendMessage(level, fmt.Sprintf(format, args...))
	return plugapi.StatusOK
}

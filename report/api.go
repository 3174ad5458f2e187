package report

import "fmt"

// Enumeration of backend diagnostic levels, in order of increasing severity.
// These mirror the levels the plugin protocol's message sink is called with.
const (
	BackendInfo = iota
	BackendWarning
	BackendError
	BackendFatal
)

// -----------------------------------------------------------------------------

// ReportILE reports an internal linker error.  These are errors that result
// from a bug or contract violation inside the linker itself or from a
// misbehaving plugin backend: they are not intended to ever happen.
func ReportILE(msg string, args ...interface{}) {
	if rep.logLevel >= LogLevelError {
		rep.errorCount++
		displayILE(fmt.Sprintf(msg, args...))
	}
}

// ReportWarning reports a link warning.
func ReportWarning(msg string, args ...interface{}) {
	if rep.logLevel >= LogLevelWarn {
		displayWarning(fmt.Sprintf(msg, args...))
	}
}

// ReportFatal displays a fatal error.  Unlike the other report functions, this
// does not exit the program: the top-level driver decides the process exit.
func ReportFatal(err *FatalError) {
	if rep.logLevel >= LogLevelError {
		rep.errorCount++
		displayFatal(err.Error())
	}
}

// ReportBackendMessage reports a diagnostic message sent by the plugin
// backend through the protocol's message sink.  The level must be one of the
// enumerated backend diagnostic levels.
func ReportBackendMessage(level int, msg string) {
	switch level {
	case BackendInfo:
		if rep.logLevel == LogLevelVerbose {
			displayInfo("backend", msg)
		}
	case BackendWarning:
		if rep.logLevel >= LogLevelWarn {
			displayWarning(msg)
		}
	default:
		if rep.logLevel >= LogLevelError {
			rep.errorCount++
			displayError(msg)
		}
	}
}

// -----------------------------------------------------------------------------
// Below are the "aesthetic" reporting functions that only run if the log level
// is verbose.  These provide additional information about the link to the user.

// ReportLinkHeader reports the pre-link header: information about the output
// the linker is producing.
func ReportLinkHeader(outputPath, outputKind string) {
	if rep.logLevel == LogLevelVerbose {
		displayLinkHeader(outputPath, outputKind)
	}
}

// ReportLinkFinished reports the concluding message for a link.
func ReportLinkFinished(outputPath string) {
	if rep.logLevel == LogLevelVerbose {
		displayLinkFinished(rep.errorCount == 0, outputPath)
	}
}

// DisplayInfoMessage displays a labeled informational message to the user.
func DisplayInfoMessage(label, msg string) {
	displayInfo(label, msg)
}

package report

// reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user while the linker runs.  The reporter respects the set
// log level.  The linker is single-threaded by contract, so the reporter does
// not synchronize.
type reporter struct {
	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The number of errors displayed so far.
	errorCount int
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all link messages to the user (default).
)

// rep is the global reporter instance.
var rep = reporter{logLevel: LogLevelVerbose}

// InitReporter initializes the global reporter with the provided log level.
func InitReporter(logLevel int) {
	rep = reporter{logLevel: logLevel}
}

// ErrorCount returns the number of errors displayed so far.
func ErrorCount() int {
	return rep.errorCount
}

package report

import "fmt"

// FatalError is an unrecoverable link error: the condition it describes ends
// the whole link with a single diagnostic line.  Library code returns fatal
// errors as ordinary error values; only the top-level driver converts them
// into a process exit.
type FatalError struct {
	// Path is the file or library the error is about.  It may be empty when
	// the error is not tied to a particular input.
	Path string

	// The error message.
	Message string
}

func (fe *FatalError) Error() string {
	if fe.Path == "" {
		return fe.Message
	}

	return fmt.Sprintf("%s: %s", fe.Path, fe.Message)
}

// Fatalf creates a new fatal error about the given path.
func Fatalf(path, msg string, args ...interface{}) *FatalError {
	return &FatalError{Path: path, Message: fmt.Sprintf(msg, args...)}
}

// -----------------------------------------------------------------------------

// LinkStateError is a programming-error-tier condition: a contract violation
// inside the linker or a misbehaving plugin backend.  These are never expected
// at runtime with a correctly sequenced caller and a correct backend.
type LinkStateError struct {
	// The error message.
	Message string
}

func (lse *LinkStateError) Error() string {
	return lse.Message
}

// StateErrorf creates a new link state error and displays it as an internal
// linker error so that contract violations are visible even when the caller
// discards the returned error.
func StateErrorf(msg string, args ...interface{}) *LinkStateError {
	lse := &LinkStateError{Message: fmt.Sprintf(msg, args...)}
	ReportILE(lse.Message)
	return lse
}

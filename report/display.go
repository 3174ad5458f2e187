package report

import (
	"fmt"

	"github.com/pterm/pterm"
)

// displayILE displays an internal linker error message.
func displayILE(message string) {
	pterm.Error.Println(fmt.Sprintf("internal linker error: %s", message))
	pterm.Println("This error was not supposed to happen: please open an issue on GitHub.")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	pterm.Error.Println(fmt.Sprintf("fatal error: %s", message))
}

// displayError displays an ordinary error message.
func displayError(message string) {
	pterm.Error.Println(message)
}

// displayWarning displays a warning message.
func displayWarning(message string) {
	pterm.Warning.Println(message)
}

// displayInfo displays a labeled informational message.
func displayInfo(label, message string) {
	pterm.Info.Println(fmt.Sprintf("%s: %s", label, message))
}

// displayLinkHeader displays the pre-link header.
func displayLinkHeader(outputPath, outputKind string) {
	pterm.Info.Println(fmt.Sprintf("linking %s (%s)", outputPath, outputKind))
}

// displayLinkFinished displays the concluding message for a link.
func displayLinkFinished(ok bool, outputPath string) {
	if ok {
		pterm.Success.Println(fmt.Sprintf("link finished: %s", outputPath))
	} else {
		pterm.Error.Println("link failed")
	}
}

package cmd

import (
	"os"

	"github.com/ComedicChimera/olive"

	"weld/report"
)

// WeldVersion is the current version of the linker.
const WeldVersion = "0.1.0"

// Execute is the main entry point for the `weld` CLI utility.
func Execute() {
	// set up the argument parser and all its commands and arguments
	cli := olive.NewCLI("weld", "weld is an ELF linker with LTO support", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the linker log level", false,
		[]string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	linkCmd := cli.AddSubcommand("link", "link the inputs of a link profile", true)
	linkCmd.AddPrimaryArg("profile-path", "the path to the link profile", true)

	cli.AddSubcommand("version", "print the weld version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.ReportFatal(report.Fatalf("", err.Error()))
		os.Exit(1)
	}

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "link":
		execLinkCommand(subResult, result.Arguments["loglevel"].(string))
	case "version":
		report.DisplayInfoMessage("weld version", WeldVersion)
	}
}

// logLevels maps loglevel argument values to the reporter's log levels.
var logLevels = map[string]int{
	"silent":  report.LogLevelSilent,
	"error":   report.LogLevelError,
	"warn":    report.LogLevelWarn,
	"verbose": report.LogLevelVerbose,
}

// execLinkCommand executes the `link` subcommand and handles all its errors.
func execLinkCommand(result *olive.ArgParseResult, loglevel string) {
	// initialize the reporter
	report.InitReporter(logLevels[loglevel])

	// get the primary argument: the link profile path
	profilePath, _ := result.PrimaryArg()

	profile, err := LoadProfile(profilePath)
	if err != nil {
		exitFatal(err)
	}

	// run the link
	l := NewLinker(profile)
	if err := l.Link(); err != nil {
		exitFatal(err)
	}

	report.ReportLinkFinished(profile.Output)
}

// exitFatal displays a link-ending error and exits the process.  This is the
// only place an error becomes a process exit.
func exitFatal(err error) {
	if fe, ok := err.(*report.FatalError); ok {
		report.ReportFatal(fe)
	} else {
		report.ReportFatal(report.Fatalf("", err.Error()))
	}

	os.Exit(1)
}

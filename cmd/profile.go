package cmd

import (
	"os"

	"github.com/pelletier/go-toml"

	"weld/linker"
	"weld/report"
)

// LinkProfile describes one link: what to link, what to produce, and which
// LTO plugin backend to use for IR inputs.
type LinkProfile struct {
	// Output is the path of the output file.
	Output string

	// OutputKind is the kind of output being produced.
	OutputKind linker.OutputKind

	// Plugin is the path to the LTO plugin backend library.  The special
	// value `builtin` selects the in-process reference backend; empty means
	// no LTO support.
	Plugin string

	// PluginOpts is the ordered list of option strings for the backend.
	PluginOpts []string

	// Inputs is the ordered list of input object paths.
	Inputs []string
}

// tomlProfile represents a link profile as it is encoded in TOML.
type tomlProfile struct {
	Output     string   `toml:"output"`
	Kind       string   `toml:"kind"`
	Plugin     string   `toml:"plugin"`
	PluginOpts []string `toml:"plugin-opts"`
	Inputs     []string `toml:"inputs"`
}

// outputKinds maps profile kind strings to enumerated output kinds.
var outputKinds = map[string]linker.OutputKind{
	"exec":   linker.OutputExec,
	"pie":    linker.OutputPIE,
	"shared": linker.OutputShared,
}

// LoadProfile loads and validates a link profile.  `path` is the path to the
// profile's TOML file.
func LoadProfile(path string) (*LinkProfile, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, report.Fatalf(path, "unable to open link profile: %s", err.Error())
	}

	tomlProf := &tomlProfile{}
	if err := toml.Unmarshal(buff, tomlProf); err != nil {
		return nil, report.Fatalf(path, "error parsing link profile: %s", err.Error())
	}

	profile := &LinkProfile{
		Output:     tomlProf.Output,
		Plugin:     tomlProf.Plugin,
		PluginOpts: tomlProf.PluginOpts,
		Inputs:     tomlProf.Inputs,
	}

	if profile.Output == "" {
		profile.Output = "a.out"
	}

	if tomlProf.Kind != "" {
		kind, ok := outputKinds[tomlProf.Kind]
		if !ok {
			return nil, report.Fatalf(path, "unknown output kind `%s`", tomlProf.Kind)
		}
		profile.OutputKind = kind
	}

	if len(profile.Inputs) == 0 {
		return nil, report.Fatalf(path, "link profile names no inputs")
	}

	return profile, nil
}

package lto

import (
	goplugin "plugin"

	"weld/linker"
	"weld/plugapi"
	"weld/report"
)

// load performs the one-time backend load: resolve the entry point, build
// the capability table, and invoke the entry point with it.  Every function
// value placed in the table stays valid for the remaining process lifetime;
// the backend may call any of them at any later time, synchronously, from
// the thread that called into this package.
func (s *Session) load() error {
	if err := s.transition(PhaseNotLoaded, PhaseCollecting); err != nil {
		return err
	}

	if err := s.loadBackend(); err != nil {
		// A failed load leaves the session as if no IR input was ever seen,
		// so later calls hit the phase checks instead of nil hooks.
		s.phase = PhaseNotLoaded
		return err
	}

	return nil
}

// loadBackend resolves the entry point and runs it against the capability
// table.
func (s *Session) loadBackend() error {
	if s.onload == nil {
		onload, err := openPlugin(s.ctx.Args.Plugin)
		if err != nil {
			return err
		}
		s.onload = onload
	}

	if st := s.onload(s.buildTagTable()); st != plugapi.StatusOK {
		return report.Fatalf(s.ctx.Args.Plugin, "plugin initialization failed with status %d", st)
	}

	if s.claimFile == nil || s.allSymbolsRead == nil {
		return report.Fatalf(s.ctx.Args.Plugin, "plugin did not register the required claim-file and all-symbols-read hooks")
	}

	return nil
}

// openPlugin opens the backend shared library and resolves its entry point.
func openPlugin(path string) (plugapi.OnloadFunc, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, report.Fatalf(path, "could not open plugin file: %s", err.Error())
	}

	sym, err := p.Lookup("Onload")
	if err != nil {
		return nil, report.Fatalf(path, "failed to load plugin: %s", err.Error())
	}

	switch onload := sym.(type) {
	case func([]plugapi.TagValue) plugapi.Status:
		return onload, nil
	case plugapi.OnloadFunc:
		return onload, nil
	case *plugapi.OnloadFunc:
		return *onload, nil
	default:
		return nil, report.Fatalf(path, "plugin entry point has the wrong signature")
	}
}

// buildTagTable builds the ordered capability table handed to the backend's
// entry point.  The handful of capabilities this linker actually implements
// are bound to the session; the rest are no-ops that report success without
// providing data, since this linker does not support section-level
// introspection or reordering.
func (s *Session) buildTagTable() []plugapi.TagValue {
	tv := []plugapi.TagValue{
		{Tag: plugapi.TagMessage, Val: plugapi.MessageFunc(s.message)},
	}

	switch s.ctx.Args.OutputKind {
	case linker.OutputShared:
		tv = append(tv, plugapi.TagValue{Tag: plugapi.TagLinkerOutput, Val: plugapi.OutputShared})
	case linker.OutputPIE:
		tv = append(tv, plugapi.TagValue{Tag: plugapi.TagLinkerOutput, Val: plugapi.OutputPIE})
	default:
		tv = append(tv, plugapi.TagValue{Tag: plugapi.TagLinkerOutput, Val: plugapi.OutputExec})
	}

	for _, opt := range s.ctx.Args.PluginOpts {
		tv = append(tv, plugapi.TagValue{Tag: plugapi.TagOption, Val: opt})
	}

	tv = append(tv,
		plugapi.TagValue{Tag: plugapi.TagRegisterClaimFileHook,
			Val: plugapi.RegisterClaimFileFunc(func(fn plugapi.ClaimFileHandler) plugapi.Status {
				s.claimFile = fn
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagRegisterAllSymbolsReadHook,
			Val: plugapi.RegisterAllSymbolsReadFunc(func(fn plugapi.AllSymbolsReadHandler) plugapi.Status {
				s.allSymbolsRead = fn
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagRegisterCleanupHook,
			Val: plugapi.RegisterCleanupFunc(func(fn plugapi.CleanupHandler) plugapi.Status {
				s.cleanup = fn
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagAddSymbols, Val: plugapi.AddSymbolsFunc(s.addSymbols)},
		plugapi.TagValue{Tag: plugapi.TagGetSymbols, Val: plugapi.GetSymbolsFunc(s.getSymbolsV1)},
		plugapi.TagValue{Tag: plugapi.TagAddInputFile, Val: plugapi.AddInputFileFunc(s.addInputFile)},
		plugapi.TagValue{Tag: plugapi.TagGetInputFile,
			Val: plugapi.GetInputFileFunc(func(interface{}, *plugapi.InputFile) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagReleaseInputFile,
			Val: plugapi.ReleaseInputFileFunc(func(interface{}) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagAddInputLibrary,
			Val: plugapi.AddInputLibraryFunc(func(string) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagOutputName, Val: s.ctx.Args.Output},
		plugapi.TagValue{Tag: plugapi.TagSetExtraLibraryPath,
			Val: plugapi.SetExtraLibraryPathFunc(func(string) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagGetView, Val: plugapi.GetViewFunc(s.getView)},
		plugapi.TagValue{Tag: plugapi.TagGetInputSectionCount,
			Val: plugapi.GetInputSectionCountFunc(func(interface{}, *int) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagGetInputSectionType,
			Val: plugapi.GetInputSectionTypeFunc(func(plugapi.Section, *int) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagGetInputSectionName,
			Val: plugapi.GetInputSectionNameFunc(func(plugapi.Section, *string) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagGetInputSectionContents,
			Val: plugapi.GetInputSectionContentsFunc(func(plugapi.Section, *[]byte) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagUpdateSectionOrder,
			Val: plugapi.UpdateSectionOrderFunc(func([]plugapi.Section) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagAllowSectionOrdering,
			Val: plugapi.AllowSectionOrderingFunc(func() plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagGetSymbolsV2, Val: plugapi.GetSymbolsFunc(s.getSymbolsV2)},
		plugapi.TagValue{Tag: plugapi.TagAllowUniqueSegmentForSections,
			Val: plugapi.AllowUniqueSegmentForSectionsFunc(func() plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagUniqueSegmentForSections,
			Val: plugapi.UniqueSegmentForSectionsFunc(func(string, uint64, uint64, []plugapi.Section) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagGetSymbolsV3, Val: plugapi.GetSymbolsFunc(s.getSymbolsV3)},
		plugapi.TagValue{Tag: plugapi.TagGetInputSectionAlignment,
			Val: plugapi.GetInputSectionAlignmentFunc(func(plugapi.Section, *int) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagGetInputSectionSize,
			Val: plugapi.GetInputSectionSizeFunc(func(plugapi.Section, *uint64) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagRegisterNewInputHook,
			Val: plugapi.RegisterNewInputFunc(func(plugapi.NewInputHandler) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagGetWrapSymbols,
			Val: plugapi.GetWrapSymbolsFunc(func(*[]string) plugapi.Status {
				return plugapi.StatusOK
			})},
		plugapi.TagValue{Tag: plugapi.TagNull},
	)

	return tv
}

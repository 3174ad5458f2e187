package lto

import (
	"weld/linker"
	"weld/plugapi"
	"weld/report"
)

// getSymbols answers the backend's "how did my symbols resolve?" query for
// one previously claimed object.  Resolutions are recomputed from the
// link-wide symbol table's current ownership on every call, never cached,
// since ingestion of later objects can move ownership.
//
// If the object was already retired, every symbol is reported as preempted
// and the call reports StatusNoSyms instead of per-symbol data.  The three
// protocol variants differ only in how they surface that case.
func (s *Session) getSymbols(handle interface{}, syms []plugapi.Symbol) plugapi.Status {
	obj, ok := handle.(*linker.ObjectFile)
	if !ok {
		report.ReportILE("get-symbols called with an unknown handle")
		return plugapi.StatusBadHandle
	}

	if !obj.IsAlive {
		for i := range syms {
			syms[i].Resolution = plugapi.ResPreemptedReg
		}
		return plugapi.StatusNoSyms
	}

	if len(syms) != len(obj.ElfSyms)-1 {
		report.ReportILE("get-symbols for %s named %d symbols, %d were recorded at claim time",
			obj.Name, len(syms), len(obj.ElfSyms)-1)
		return plugapi.StatusErr
	}

	for i := range syms {
		syms[i].Resolution = resolutionFor(obj, obj.Symbols[i+1])
	}
	return plugapi.StatusOK
}

// resolutionFor classifies how one of obj's symbols currently resolves.
func resolutionFor(obj *linker.ObjectFile, sym *linker.Symbol) plugapi.Resolution {
	switch owner := sym.File; {
	case owner == nil:
		return plugapi.ResUndef
	case owner == obj:
		return plugapi.ResPrevailingDef
	case owner.IsShared():
		return plugapi.ResResolvedDyn
	case owner.IsIR():
		return plugapi.ResResolvedIR
	default:
		return plugapi.ResResolvedExec
	}
}

// getSymbolsV1 is the original protocol variant.  This linker never
// advertises it as usable, so reaching it is a backend contract violation.
func (s *Session) getSymbolsV1(handle interface{}, syms []plugapi.Symbol) plugapi.Status {
	report.ReportILE("plugin backend called the unsupported get-symbols v1 entry point")
	return plugapi.StatusErr
}

// getSymbolsV2 translates the "no symbols" outcome into ordinary success;
// callers of this variant never expected a distinct status for it.
func (s *Session) getSymbolsV2(handle interface{}, syms []plugapi.Symbol) plugapi.Status {
	if st := s.getSymbols(handle, syms); st != plugapi.StatusNoSyms {
		return st
	}
	return plugapi.StatusOK
}

// getSymbolsV3 propagates the "no symbols" outcome verbatim.
func (s *Session) getSymbolsV3(handle interface{}, syms []plugapi.Symbol) plugapi.Status {
	return s.getSymbols(handle, syms)
}

// getView exposes the raw bytes of a claimed object's region to the backend.
func (s *Session) getView(handle interface{}) ([]byte, plugapi.Status) {
	obj, ok := handle.(*linker.ObjectFile)
	if !ok {
		report.ReportILE("get-view called with an unknown handle")
		return nil, plugapi.StatusBadHandle
	}

	return obj.MF.Data, plugapi.StatusOK
}

package lto

import (
	"weld/linker"
	"weld/plugapi"
	"weld/report"
	"weld/util"
)

// Compile triggers final backend compilation.  It may be called exactly once
// per link, after all inputs have been discovered.  While the backend runs it
// hands back compiled replacement objects through the add-input-file
// callback; each is spliced into the active object set immediately.  Once the
// backend returns, every original IR object is retired: its placeholder
// symbols have been superseded by the compiled objects' real symbols through
// ordinary resolution, and the placeholder itself is removed from the link.
func (s *Session) Compile() error {
	if err := s.transition(PhaseCollecting, PhaseCompiling); err != nil {
		return err
	}

	if st := s.allSymbolsRead(); st != plugapi.StatusOK {
		report.ReportWarning("plugin backend compilation finished with status %d", st)
	}
	if s.compileErr != nil {
		return s.compileErr
	}

	for _, file := range s.ctx.Objs {
		if file.IsIR() {
			file.IsAlive = false
		}
	}
	s.ctx.Objs = util.Filter(s.ctx.Objs, func(file *linker.ObjectFile) bool {
		return !file.IsIR()
	})
	s.ctx.DropDeadSymbols()

	return nil
}

// addInputFile is the host callback the backend invokes during final
// compilation to hand over the path of a compiled replacement object.  The
// object is loaded and symbol-resolved synchronously, with a priority above
// every originally discovered input.
func (s *Session) addInputFile(path string) plugapi.Status {
	if s.phase != PhaseCompiling {
		report.ReportILE("add-input-file called in phase %s", s.phase)
		return plugapi.StatusErr
	}

	mf, err := linker.OpenFile(path)
	if err == nil {
		_, err = linker.LoadObject(s.ctx, mf)
	}
	if err != nil {
		if s.compileErr == nil {
			s.compileErr = err
		}
		return plugapi.StatusErr
	}

	return plugapi.StatusOK
}

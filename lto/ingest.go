package lto

import (
	"debug/elf"

	"golang.org/x/sys/unix"

	"weld/linker"
	"weld/plugapi"
	"weld/report"
)

// ReadIRObject turns one IR input region into a placeholder link object.  The
// backend is loaded lazily on the first call; the input is then offered to
// the backend's claim-file hook, which synchronously enumerates its symbols
// through the add-symbols callback.  One permanent symbol record is
// synthesized per enumerated symbol and registered into the link-wide symbol
// table through ordinary resolution, so normal multi-object resolution rules
// govern ownership of the placeholder symbols.
func (s *Session) ReadIRObject(mf *linker.MappedFile) (*linker.ObjectFile, error) {
	if s.ctx.Args.Plugin == "" && s.onload == nil {
		return nil, report.Fatalf(mf.Name,
			"don't know how to handle this LTO object file because no plugin was configured")
	}

	s.loadOnce.Do(func() { s.loadErr = s.load() })
	if s.loadErr != nil {
		return nil, s.loadErr
	}

	if s.phase != PhaseCollecting {
		return nil, report.StateErrorf("cannot ingest %s: lto session is in phase %s", mf.Name, s.phase)
	}

	obj := &linker.ObjectFile{
		Name:        mf.Name,
		MF:          mf,
		Kind:        linker.IRKind,
		IsAlive:     true,
		FirstGlobal: 1,
		Symbols:     []*linker.Symbol{{SymIdx: -1}},
		ElfSyms:     []linker.ElfSym{{}},
	}

	// The backend reads the input's bytes through its own file descriptor
	// rather than through our mapped region, so open one for it.  The
	// descriptor is owned by the backend from here on.
	root := mf.Root()
	fd, err := unix.Open(root.Name, unix.O_RDONLY, 0)
	if err != nil {
		return nil, report.Fatalf(root.Name, "cannot open: %s", err.Error())
	}

	file := &plugapi.InputFile{
		Name:   root.Name,
		FD:     fd,
		Offset: mf.RootOffset(),
		Size:   int64(len(mf.Data)),
		Handle: obj,
	}

	// The claim call fills s.pluginSymbols through the add-symbols callback.
	s.pluginSymbols = nil
	claimed, st := s.claimFile(file)
	if !claimed || st != plugapi.StatusOK {
		return nil, report.Fatalf(mf.Name, "plugin backend refused to claim this LTO object file")
	}

	for _, psym := range s.pluginSymbols {
		obj.ElfSyms = append(obj.ElfSyms, toElfSym(psym))
		obj.Symbols = append(obj.Symbols, linker.GetSymbol(s.ctx, psym.Name))
	}
	s.pluginSymbols = nil

	obj.Priority = s.ctx.NextPriority()
	s.ctx.Objs = append(s.ctx.Objs, obj)
	s.ctx.ResolveObject(obj)
	return obj, nil
}

// addSymbols is the host callback the backend invokes during a claim call to
// deliver the claimed object's symbol records.
func (s *Session) addSymbols(handle interface{}, syms []plugapi.Symbol) plugapi.Status {
	if s.phase != PhaseCollecting {
		report.ReportILE("add-symbols called in phase %s", s.phase)
		return plugapi.StatusErr
	}

	s.pluginSymbols = append([]plugapi.Symbol(nil), syms...)
	return plugapi.StatusOK
}

// toElfSym synthesizes the permanent ELF-shaped symbol record for one plugin
// symbol record.  Defined symbols are placed as absolute since IR objects
// have no sections for them to live in.
func toElfSym(psym plugapi.Symbol) linker.ElfSym {
	esym := linker.ElfSym{
		Name: psym.Name,
		Bind: elf.STB_GLOBAL,
		Size: psym.Size,
	}

	switch psym.Def {
	case plugapi.DefRegular:
		esym.Shndx = elf.SHN_ABS
	case plugapi.DefWeak:
		esym.Shndx = elf.SHN_ABS
		esym.Bind = elf.STB_WEAK
	case plugapi.DefUndef:
		esym.Shndx = elf.SHN_UNDEF
	case plugapi.DefWeakUndef:
		esym.Shndx = elf.SHN_UNDEF
		esym.Bind = elf.STB_WEAK
	case plugapi.DefCommon:
		esym.Shndx = elf.SHN_COMMON
	}

	switch psym.SymType {
	case plugapi.TypeFunction:
		esym.Type = elf.STT_FUNC
	case plugapi.TypeVariable:
		esym.Type = elf.STT_OBJECT
	}

	switch psym.Visibility {
	case plugapi.VisProtected:
		esym.Visibility = elf.STV_PROTECTED
	case plugapi.VisInternal:
		esym.Visibility = elf.STV_INTERNAL
	case plugapi.VisHidden:
		esym.Visibility = elf.STV_HIDDEN
	}

	return esym
}

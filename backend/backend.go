// Package backend is the built-in reference LTO backend.  It speaks the same
// plugin protocol an external shared-library backend would: it claims textual
// LLVM IR inputs, enumerates their symbols, and at final compilation emits
// one relocatable ELF object defining every symbol whose definition prevailed
// in a claimed input.
//
// It is not a compiler: the object it emits carries symbol definitions only,
// which is enough to drive the link's symbol resolution end to end.  Bitcode
// inputs are not supported.
package backend

import (
	"os"

	"golang.org/x/sys/unix"

	"weld/irscan"
	"weld/plugapi"
	"weld/util"
)

// claimedFile is one input the backend took ownership of.
type claimedFile struct {
	file *plugapi.InputFile
	syms []plugapi.Symbol
}

// Backend is one instance of the reference backend.  Its Onload method is
// the protocol entry point.
type Backend struct {
	// The output kind announced by the host.
	output plugapi.OutputKind

	// saveTemps disables temporary-file cleanup, per the "save-temps"
	// backend option.
	saveTemps bool

	// Host callbacks taken from the capability table.
	addSymbols   plugapi.AddSymbolsFunc
	getSymbols   plugapi.GetSymbolsFunc
	addInputFile plugapi.AddInputFileFunc
	message      plugapi.MessageFunc

	// claimed lists the inputs claimed so far, in claim order.
	claimed []*claimedFile

	// temps lists the temporary object files created during compilation.
	temps []string
}

// New creates a reference backend instance.
func New() *Backend {
	return &Backend{}
}

// Onload consumes the host's capability table and registers the backend's
// hooks.  It prefers the v3 get-symbols entry point and falls back to v2;
// the v1 entry point is never used.
func (b *Backend) Onload(tv []plugapi.TagValue) plugapi.Status {
	var getV2, getV3 plugapi.GetSymbolsFunc
	var opts []string

	for _, entry := range tv {
		switch entry.Tag {
		case plugapi.TagNull:
			// Table terminator.
		case plugapi.TagMessage:
			b.message = entry.Val.(plugapi.MessageFunc)
		case plugapi.TagLinkerOutput:
			b.output = entry.Val.(plugapi.OutputKind)
		case plugapi.TagOption:
			opts = append(opts, entry.Val.(string))
		case plugapi.TagAddSymbols:
			b.addSymbols = entry.Val.(plugapi.AddSymbolsFunc)
		case plugapi.TagGetSymbolsV2:
			getV2 = entry.Val.(plugapi.GetSymbolsFunc)
		case plugapi.TagGetSymbolsV3:
			getV3 = entry.Val.(plugapi.GetSymbolsFunc)
		case plugapi.TagAddInputFile:
			b.addInputFile = entry.Val.(plugapi.AddInputFileFunc)
		case plugapi.TagRegisterClaimFileHook:
			entry.Val.(plugapi.RegisterClaimFileFunc)(b.claimFile)
		case plugapi.TagRegisterAllSymbolsReadHook:
			entry.Val.(plugapi.RegisterAllSymbolsReadFunc)(b.allSymbolsRead)
		case plugapi.TagRegisterCleanupHook:
			entry.Val.(plugapi.RegisterCleanupFunc)(b.cleanup)
		}
	}

	// The message sink is an optional capability; discard diagnostics when
	// the host does not provide one.
	if b.message == nil {
		b.message = func(int, string, ...interface{}) plugapi.Status {
			return plugapi.StatusOK
		}
	}

	b.saveTemps = util.Contains(opts, "save-temps")

	b.getSymbols = getV3
	if b.getSymbols == nil {
		b.getSymbols = getV2
	}

	if b.addSymbols == nil || b.getSymbols == nil || b.addInputFile == nil {
		return plugapi.StatusErr
	}
	return plugapi.StatusOK
}

// claimFile reads the offered region through the file descriptor the host
// opened for us, claims it if it is LLVM IR we can scan, and delivers its
// symbol records through the add-symbols callback.
func (b *Backend) claimFile(file *plugapi.InputFile) (bool, plugapi.Status) {
	data := make([]byte, file.Size)
	n, err := unix.Pread(file.FD, data, file.Offset)
	if err != nil || int64(n) != file.Size {
		b.message(plugapi.LevelError, "%s: cannot read input region", file.Name)
		return false, plugapi.StatusErr
	}

	if !irscan.IsIR(data) {
		return false, plugapi.StatusOK
	}

	syms, err := irscan.Scan(file.Name, data)
	if err != nil {
		b.message(plugapi.LevelError, "%s: %s", file.Name, err.Error())
		return false, plugapi.StatusErr
	}

	if st := b.addSymbols(file.Handle, syms); st != plugapi.StatusOK {
		return false, st
	}

	b.claimed = append(b.claimed, &claimedFile{file: file, syms: syms})
	return true, plugapi.StatusOK
}

// allSymbolsRead runs "compilation": query the host for how every claimed
// symbol resolved, then hand back one object defining the symbols whose
// definitions prevailed in claimed inputs.
func (b *Backend) allSymbolsRead() plugapi.Status {
	var prevailing []plugapi.Symbol
	seen := make(map[string]struct{})

	for _, cf := range b.claimed {
		res := append([]plugapi.Symbol(nil), cf.syms...)
		if st := b.getSymbols(cf.file.Handle, res); st != plugapi.StatusOK {
			return st
		}

		for _, ps := range res {
			if ps.Resolution != plugapi.ResPrevailingDef {
				continue
			}
			if _, ok := seen[ps.Name]; ok {
				continue
			}

			seen[ps.Name] = struct{}{}
			prevailing = append(prevailing, ps)
		}
	}

	f, err := os.CreateTemp("", "weld-lto-*.o")
	if err != nil {
		b.message(plugapi.LevelError, "cannot create output object: %s", err.Error())
		return plugapi.StatusErr
	}
	path := f.Name()
	f.Close()

	if err := WriteObject(path, prevailing); err != nil {
		b.message(plugapi.LevelError, "%s: %s", path, err.Error())
		return plugapi.StatusErr
	}

	b.temps = append(b.temps, path)
	return b.addInputFile(path)
}

// cleanup removes the temporary objects created during compilation.
func (b *Backend) cleanup() plugapi.Status {
	if b.saveTemps {
		return plugapi.StatusOK
	}

	for _, path := range b.temps {
		os.Remove(path)
	}
	b.temps = nil
	return plugapi.StatusOK
}

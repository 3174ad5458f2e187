package linker

// Symbol is one entry of the link-wide symbol table.  Symbols are interned by
// name and shared between all objects that define or reference the name; the
// File field always identifies the object that currently owns the symbol.
type Symbol struct {
	Name string

	// File is the object the symbol currently resolves to, or nil if no
	// object has defined it yet.  Ownership can move as later objects are
	// added to the link.
	File *ObjectFile

	// SymIdx is the index of the owning definition within File.ElfSyms.
	// Meaningless while File is nil.
	SymIdx int
}

// GetSymbol interns the symbol with the given name into the link-wide symbol
// table, creating an undefined entry on first use.
func GetSymbol(ctx *Context, name string) *Symbol {
	if sym, ok := ctx.SymbolMap[name]; ok {
		return sym
	}

	sym := &Symbol{Name: name, SymIdx: -1}
	ctx.SymbolMap[name] = sym
	return sym
}

// -----------------------------------------------------------------------------

// Symbol resolution ranks, from strongest to weakest.  A definition with a
// lower rank displaces one with a higher rank.  Between equal ranks a
// machine-code definition beats an IR placeholder (IR placeholders exist to
// be replaced by compiled output), then the object with the lower priority
// wins.
const (
	rankStrongDef = iota
	rankCommonDef
	rankWeakDef
	rankUndef
)

// symRank returns the resolution rank of the symbol record.
func symRank(esym ElfSym) int {
	switch {
	case !esym.IsDefined():
		return rankUndef
	case esym.IsCommon():
		return rankCommonDef
	case esym.IsWeak():
		return rankWeakDef
	default:
		return rankStrongDef
	}
}

// ResolveObject runs ordinary symbol resolution for one object: every defined
// symbol record in the object competes for ownership of its interned symbol
// under the usual rules (defined over undefined, strong over weak and common,
// first discovered wins ties).  Calling this for objects added later in the
// link can move ownership away from earlier objects.
func (ctx *Context) ResolveObject(file *ObjectFile) {
	for i := file.FirstGlobal; i < len(file.ElfSyms); i++ {
		esym := file.ElfSyms[i]
		if !esym.IsDefined() {
			continue
		}

		sym := file.Symbols[i]
		if sym.File == nil {
			sym.File = file
			sym.SymIdx = i
			continue
		}

		if displaces(file, esym, sym.File, sym.File.ElfSyms[sym.SymIdx]) {
			sym.File = file
			sym.SymIdx = i
		}
	}
}

// displaces reports whether the new definition takes ownership from the
// current one.
func displaces(newFile *ObjectFile, newSym ElfSym, oldFile *ObjectFile, oldSym ElfSym) bool {
	newRank, oldRank := symRank(newSym), symRank(oldSym)
	if newRank != oldRank {
		return newRank < oldRank
	}

	if newFile.IsIR() != oldFile.IsIR() {
		return oldFile.IsIR()
	}

	return newFile.Priority < oldFile.Priority
}

// DropDeadSymbols clears ownership of every symbol owned by an object that is
// no longer alive and re-resolves the remaining objects, so retired objects
// stop participating in resolution.
func (ctx *Context) DropDeadSymbols() {
	for _, sym := range ctx.SymbolMap {
		if sym.File != nil && !sym.File.IsAlive {
			sym.File = nil
			sym.SymIdx = -1
		}
	}

	for _, file := range ctx.Objs {
		ctx.ResolveObject(file)
	}
}

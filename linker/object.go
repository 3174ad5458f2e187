package linker

import (
	"bytes"
	"debug/elf"

	"weld/report"
)

// ElfSym is the ELF-shaped symbol record an object carries for each of its
// link-visible symbols.  Index 0 of an object's record list is always the
// reserved null entry.
type ElfSym struct {
	Name       string
	Bind       elf.SymBind
	Type       elf.SymType
	Visibility elf.SymVis
	Shndx      elf.SectionIndex
	Size       uint64
}

// IsDefined returns whether the record defines the symbol (common counts as
// defined).
func (e ElfSym) IsDefined() bool {
	return e.Shndx != elf.SHN_UNDEF
}

// IsWeak returns whether the record has weak binding.
func (e ElfSym) IsWeak() bool {
	return e.Bind == elf.STB_WEAK
}

// IsCommon returns whether the record is a common (tentative) definition.
func (e ElfSym) IsCommon() bool {
	return e.Shndx == elf.SHN_COMMON
}

// -----------------------------------------------------------------------------

// FileKind classifies a link input.
type FileKind int

const (
	ObjectKind FileKind = iota // A regular relocatable object.
	SharedKind                 // A dynamic/shared object.
	IRKind                     // A compiler-IR object awaiting backend compilation.
)

// ObjectFile is one input object participating in the link.
type ObjectFile struct {
	// Name is the display name of the object.
	Name string

	// MF is the byte region backing the object.
	MF *MappedFile

	// Kind classifies the object.  Must be one of the enumerated file kinds.
	Kind FileKind

	// IsAlive indicates whether the object still participates in the link.
	// IR objects are retired (IsAlive = false) once their compiled
	// replacements have been spliced in.
	IsAlive bool

	// Priority is the object's input ordering priority, allocated from the
	// context when the object is added to the link.
	Priority int64

	// FirstGlobal is the index of the first link-visible symbol record.
	// Index 0 is the reserved null entry.
	FirstGlobal int

	// Symbols holds the interned link-wide symbol for each record in
	// ElfSyms, index for index.
	Symbols []*Symbol

	// ElfSyms holds the object's symbol records, including the reserved null
	// entry at index 0.
	ElfSyms []ElfSym
}

// IsShared returns whether the object is a dynamic/shared object.
func (o *ObjectFile) IsShared() bool {
	return o.Kind == SharedKind
}

// IsIR returns whether the object is a compiler-IR object.
func (o *ObjectFile) IsIR() bool {
	return o.Kind == IRKind
}

// -----------------------------------------------------------------------------

// LoadObject parses an ELF image from the given byte region, appends it to
// the active object set with a freshly allocated priority, and resolves its
// symbols through ordinary resolution.  Both relocatable objects and shared
// objects are accepted.
func LoadObject(ctx *Context, mf *MappedFile) (*ObjectFile, error) {
	ef, err := elf.NewFile(bytes.NewReader(mf.Data))
	if err != nil {
		return nil, report.Fatalf(mf.Name, "not a valid ELF file: %s", err.Error())
	}
	defer ef.Close()

	obj := &ObjectFile{
		Name:        mf.Name,
		MF:          mf,
		IsAlive:     true,
		FirstGlobal: 1,
		Symbols:     []*Symbol{{SymIdx: -1}},
		ElfSyms:     []ElfSym{{}},
	}

	var syms []elf.Symbol
	switch ef.Type {
	case elf.ET_REL:
		obj.Kind = ObjectKind
		syms, err = ef.Symbols()
	case elf.ET_DYN:
		obj.Kind = SharedKind
		syms, err = ef.DynamicSymbols()
	default:
		return nil, report.Fatalf(mf.Name, "unsupported ELF file type: %s", ef.Type)
	}
	if err != nil && err != elf.ErrNoSymbols {
		return nil, report.Fatalf(mf.Name, "cannot read symbol table: %s", err.Error())
	}

	for _, s := range syms {
		bind := elf.ST_BIND(s.Info)
		if bind == elf.STB_LOCAL {
			continue
		}

		obj.ElfSyms = append(obj.ElfSyms, ElfSym{
			Name:       s.Name,
			Bind:       bind,
			Type:       elf.ST_TYPE(s.Info),
			Visibility: elf.ST_VISIBILITY(s.Other),
			Shndx:      s.Section,
			Size:       s.Size,
		})
		obj.Symbols = append(obj.Symbols, GetSymbol(ctx, s.Name))
	}

	obj.Priority = ctx.NextPriority()
	ctx.Objs = append(ctx.Objs, obj)
	ctx.ResolveObject(obj)
	return obj, nil
}

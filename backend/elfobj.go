package backend

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"

	"weld/plugapi"
)

// Section header string table of the emitted object, with the byte offset of
// each name within it.
const (
	shstrtab = "\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00"

	textNameOff     = 1
	symtabNameOff   = 7
	strtabNameOff   = 15
	shstrtabNameOff = 23
)

// Section indices of the emitted object.
const (
	textShndx     = 1
	symtabShndx   = 2
	strtabShndx   = 3
	shstrtabShndx = 4
)

const (
	ehsize     = 64 // ELF64 header size
	shentsize  = 64 // ELF64 section header size
	symentsize = 24 // ELF64 symbol table entry size
)

// WriteObject writes a relocatable x86-64 ELF object defining the given
// symbols to the given path.  Defined symbols are placed in an empty .text
// section; undefined and common records keep their special section indices.
func WriteObject(path string, syms []plugapi.Symbol) error {
	// Build the symbol string table and the symbol entries, with the
	// reserved null entry first.
	strtab := []byte{0}
	entries := make([]elf.Sym64, 1, len(syms)+1)

	for _, ps := range syms {
		nameOff := uint32(len(strtab))
		strtab = append(strtab, ps.Name...)
		strtab = append(strtab, 0)

		entries = append(entries, elf.Sym64{
			Name:  nameOff,
			Info:  symInfo(ps),
			Other: uint8(symVis(ps)),
			Shndx: symShndx(ps),
			Size:  ps.Size,
		})
	}

	symtabOff := uint64(ehsize)
	symtabSize := uint64(len(entries) * symentsize)
	strtabOff := symtabOff + symtabSize
	strtabSize := uint64(len(strtab))
	shstrtabOff := strtabOff + strtabSize
	shstrtabSize := uint64(len(shstrtab))

	shoff := shstrtabOff + shstrtabSize
	shoff = (shoff + 7) &^ 7

	var buf bytes.Buffer

	ehdr := elf.Header64{
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shoff,
		Ehsize:    ehsize,
		Shentsize: shentsize,
		Shnum:     5,
		Shstrndx:  shstrtabShndx,
	}
	copy(ehdr.Ident[:], elf.ELFMAG)
	ehdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	ehdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ehdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	binary.Write(&buf, binary.LittleEndian, &ehdr)

	binary.Write(&buf, binary.LittleEndian, entries)
	buf.Write(strtab)
	buf.WriteString(shstrtab)

	for buf.Len() < int(shoff) {
		buf.WriteByte(0)
	}

	shdrs := []elf.Section64{
		{},
		{
			Name:      textNameOff,
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Off:       symtabOff,
			Addralign: 1,
		},
		{
			Name:      symtabNameOff,
			Type:      uint32(elf.SHT_SYMTAB),
			Off:       symtabOff,
			Size:      symtabSize,
			Link:      strtabShndx,
			Info:      1, // index of the first non-local symbol
			Addralign: 8,
			Entsize:   symentsize,
		},
		{
			Name:      strtabNameOff,
			Type:      uint32(elf.SHT_STRTAB),
			Off:       strtabOff,
			Size:      strtabSize,
			Addralign: 1,
		},
		{
			Name:      shstrtabNameOff,
			Type:      uint32(elf.SHT_STRTAB),
			Off:       shstrtabOff,
			Size:      shstrtabSize,
			Addralign: 1,
		},
	}
	binary.Write(&buf, binary.LittleEndian, shdrs)

	return os.WriteFile(path, buf.Bytes(), 0o666)
}

// symInfo packs the binding and type of a symbol record into the st_info byte.
func symInfo(ps plugapi.Symbol) uint8 {
	bind := elf.STB_GLOBAL
	if ps.Def == plugapi.DefWeak || ps.Def == plugapi.DefWeakUndef {
		bind = elf.STB_WEAK
	}

	typ := elf.STT_NOTYPE
	switch ps.SymType {
	case plugapi.TypeFunction:
		typ = elf.STT_FUNC
	case plugapi.TypeVariable:
		typ = elf.STT_OBJECT
	}

	return uint8(bind)<<4 | uint8(typ)
}

// symVis maps a symbol record's visibility to the st_other bits.
func symVis(ps plugapi.Symbol) elf.SymVis {
	switch ps.Visibility {
	case plugapi.VisProtected:
		return elf.STV_PROTECTED
	case plugapi.VisInternal:
		return elf.STV_INTERNAL
	case plugapi.VisHidden:
		return elf.STV_HIDDEN
	default:
		return elf.STV_DEFAULT
	}
}

// symShndx maps a symbol record's definition kind to its section index.
func symShndx(ps plugapi.Symbol) uint16 {
	switch ps.Def {
	case plugapi.DefUndef, plugapi.DefWeakUndef:
		return uint16(elf.SHN_UNDEF)
	case plugapi.DefCommon:
		return uint16(elf.SHN_COMMON)
	default:
		return textShndx
	}
}

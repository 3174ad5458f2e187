// Package irscan recognizes LLVM IR link inputs and enumerates the
// link-visible symbols of textual IR modules.  It performs no optimization
// and no validation beyond what parsing requires: it only transports symbol
// metadata out of an IR module.
package irscan

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir/enum"

	"weld/plugapi"
)

// bitcodeMagic is the magic number opening a raw LLVM bitcode stream.
var bitcodeMagic = []byte{'B', 'C', 0xC0, 0xDE}

// wrapperMagic is the magic number opening a bitcode wrapper header.
var wrapperMagic = []byte{0xDE, 0xC0, 0x17, 0x0B}

// IsIR reports whether the given bytes are an LLVM IR object: raw bitcode, a
// bitcode wrapper, or parseable textual IR.
func IsIR(data []byte) bool {
	if bytes.HasPrefix(data, bitcodeMagic) || bytes.HasPrefix(data, wrapperMagic) {
		return true
	}

	if !utf8.Valid(data) || len(bytes.TrimSpace(data)) == 0 {
		return false
	}

	m, err := asm.ParseBytes("input.ll", data)
	if err != nil {
		return false
	}

	return len(m.Funcs) > 0 || len(m.Globals) > 0 || m.TargetTriple != "" || m.DataLayout != ""
}

// Scan parses a textual LLVM IR module and produces one plugin symbol record
// per link-visible global.  Bitcode modules are recognized by IsIR but cannot
// be scanned.
func Scan(name string, data []byte) ([]plugapi.Symbol, error) {
	if bytes.HasPrefix(data, bitcodeMagic) || bytes.HasPrefix(data, wrapperMagic) {
		return nil, errors.New("LLVM bitcode is not supported; pass textual IR")
	}

	m, err := asm.ParseBytes(name, data)
	if err != nil {
		return nil, err
	}

	var syms []plugapi.Symbol

	for _, f := range m.Funcs {
		if !linkVisible(f.Linkage) {
			continue
		}

		syms = append(syms, plugapi.Symbol{
			Name:       f.GlobalName,
			Def:        defKind(f.Linkage, len(f.Blocks) > 0),
			SymType:    plugapi.TypeFunction,
			Visibility: visibility(f.Visibility),
		})
	}

	for _, g := range m.Globals {
		if !linkVisible(g.Linkage) {
			continue
		}

		syms = append(syms, plugapi.Symbol{
			Name:       g.GlobalName,
			Def:        defKind(g.Linkage, g.Init != nil),
			SymType:    plugapi.TypeVariable,
			Visibility: visibility(g.Visibility),
		})
	}

	return syms, nil
}

// linkVisible returns whether a global with the given linkage participates in
// symbol resolution at link scope.
func linkVisible(linkage enum.Linkage) bool {
	return linkage != enum.LinkageInternal && linkage != enum.LinkagePrivate
}

// defKind maps an LLVM linkage to the definition kind of the symbol record.
func defKind(linkage enum.Linkage, isDef bool) plugapi.DefKind {
	if !isDef {
		if linkage == enum.LinkageExternWeak {
			return plugapi.DefWeakUndef
		}
		return plugapi.DefUndef
	}

	switch linkage {
	case enum.LinkageCommon:
		return plugapi.DefCommon
	case enum.LinkageWeak, enum.LinkageWeakODR,
		enum.LinkageLinkOnce, enum.LinkageLinkOnceODR,
		enum.LinkageAvailableExternally:
		return plugapi.DefWeak
	default:
		return plugapi.DefRegular
	}
}

// visibility maps an LLVM visibility to the symbol record's visibility.
func visibility(vis enum.Visibility) plugapi.Visibility {
	switch vis {
	case enum.VisibilityHidden:
		return plugapi.VisHidden
	case enum.VisibilityProtected:
		return plugapi.VisProtected
	default:
		return plugapi.VisDefault
	}
}

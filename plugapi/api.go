// Package plugapi defines the linker plugin protocol: the capability table a
// host linker hands to an LTO backend's entry point, the hooks the backend
// registers in response, and the symbol records that cross the boundary in
// both directions.
//
// The protocol is callback-driven.  The host calls the backend's single entry
// point (Onload) exactly once with an ordered list of (tag, value) pairs
// terminated by a null tag; most values are function values.  The backend
// registers interest in a subset of hooks before returning.  Results of later
// hook invocations are "returned" by the backend calling host callbacks it
// found in the table rather than via return values.
package plugapi

// Tag identifies one entry of the capability table.
type Tag int

const (
	TagNull Tag = iota
	TagAPIVersion
	TagLinkerVersion
	TagLinkerOutput
	TagOption
	TagRegisterClaimFileHook
	TagRegisterAllSymbolsReadHook
	TagRegisterCleanupHook
	TagAddSymbols
	TagGetSymbols
	TagAddInputFile
	TagMessage
	TagGetInputFile
	TagReleaseInputFile
	TagAddInputLibrary
	TagOutputName
	TagSetExtraLibraryPath
	TagGetView
	TagGetInputSectionCount
	TagGetInputSectionType
	TagGetInputSectionName
	TagGetInputSectionContents
	TagUpdateSectionOrder
	TagAllowSectionOrdering
	TagGetSymbolsV2
	TagAllowUniqueSegmentForSections
	TagUniqueSegmentForSections
	TagGetSymbolsV3
	TagGetInputSectionAlignment
	TagGetInputSectionSize
	TagRegisterNewInputHook
	TagGetWrapSymbols
)

// TagValue is one capability table entry.
type TagValue struct {
	Tag Tag
	Val interface{}
}

// Status is the result code of every protocol call, host-to-backend and
// backend-to-host alike.
type Status int

const (
	StatusOK        Status = iota
	StatusNoSyms           // Active, but no symbols are available.
	StatusBadHandle        // The handle does not name a claimed object.
	StatusErr              // The call failed.
)

// Diagnostic levels for the message sink, in order of increasing severity.
const (
	LevelInfo = iota
	LevelWarning
	LevelError
	LevelFatal
)

// -----------------------------------------------------------------------------

// OutputKind tells the backend what kind of output the link produces.
type OutputKind int

const (
	OutputExec OutputKind = iota
	OutputPIE
	OutputShared
)

// DefKind is the definition kind of a symbol record.
type DefKind int

const (
	DefRegular DefKind = iota // An ordinary definition.
	DefWeak                   // A weak definition.
	DefUndef                  // An undefined reference.
	DefWeakUndef              // A weak undefined reference.
	DefCommon                 // A common (tentative) definition.
)

// SymType is the type of a symbol record.
type SymType int

const (
	TypeUnknown SymType = iota
	TypeFunction
	TypeVariable
)

// Visibility is the ELF visibility of a symbol record.
type Visibility int

const (
	VisDefault Visibility = iota
	VisProtected
	VisInternal
	VisHidden
)

// Resolution is the host's answer to the backend's "how did this symbol
// resolve?" query.
type Resolution int

const (
	ResUnknown              Resolution = iota
	ResUndef                           // No object defines the symbol.
	ResPrevailingDef                   // The queried object's definition prevails.
	ResPrevailingDefIronly             // Prevails and is only referenced from IR.
	ResPreemptedReg                    // Preempted by a regular object.
	ResPreemptedIR                     // Preempted by another IR object.
	ResResolvedIR                      // Reference resolved to an IR object.
	ResResolvedExec                    // Reference resolved to a regular object.
	ResResolvedDyn                     // Reference resolved to a dynamic object.
	ResPrevailingDefIronlyExp          // As Ironly, but exported outside IR.
)

// Symbol is one symbol record crossing the protocol boundary.  The backend
// fills Name through Size when claiming a file; the host fills Resolution in
// answer to a get-symbols query.
type Symbol struct {
	Name       string
	Def        DefKind
	SymType    SymType
	Visibility Visibility
	Size       uint64
	Resolution Resolution
}

// InputFile describes one input the host offers to the backend's claim-file
// hook.  The file descriptor is opened by the host and owned by the backend
// from then on; the region [Offset, Offset+Size) locates the object within
// the file, which matters for objects embedded in archives.
type InputFile struct {
	Name   string
	FD     int
	Offset int64
	Size   int64

	// Handle is the host's opaque identifier for the claimed object.  The
	// backend passes it back verbatim in get-symbols and get-view calls.
	Handle interface{}
}

// Section identifies one section of a claimed input in the optional
// section-introspection capabilities.
type Section struct {
	Handle interface{}
	Shndx  int
}

// -----------------------------------------------------------------------------
// Hooks registered by the backend.

// ClaimFileHandler decides whether the backend takes ownership of an input.
// Claiming synchronously enumerates the input's symbols through the host's
// add-symbols callback.
type ClaimFileHandler func(file *InputFile) (claimed bool, st Status)

// AllSymbolsReadHandler runs final backend compilation.  Compiled replacement
// objects are handed back synchronously through the host's add-input-file
// callback before the handler returns.
type AllSymbolsReadHandler func() Status

// CleanupHandler lets the backend delete temporary files it created.
type CleanupHandler func() Status

// NewInputHandler is called for files added to the link after claiming.
type NewInputHandler func(file *InputFile) Status

// OnloadFunc is the backend's single entry point.
type OnloadFunc func(tv []TagValue) Status

// -----------------------------------------------------------------------------
// Host callbacks placed in the capability table.

type RegisterClaimFileFunc func(ClaimFileHandler) Status
type RegisterAllSymbolsReadFunc func(AllSymbolsReadHandler) Status
type RegisterCleanupFunc func(CleanupHandler) Status
type RegisterNewInputFunc func(NewInputHandler) Status

// AddSymbolsFunc delivers the symbol records of a claimed object.  Only valid
// during the claim call for that object.
type AddSymbolsFunc func(handle interface{}, syms []Symbol) Status

// GetSymbolsFunc fills the Resolution of each record for a claimed object.
// The record count must match what was delivered at claim time.
type GetSymbolsFunc func(handle interface{}, syms []Symbol) Status

// AddInputFileFunc hands a compiled replacement object to the host.
type AddInputFileFunc func(path string) Status

// MessageFunc is the host's diagnostic message sink.
type MessageFunc func(level int, format string, args ...interface{}) Status

// GetViewFunc exposes the raw bytes of a claimed object's region.
type GetViewFunc func(handle interface{}) ([]byte, Status)

type GetInputFileFunc func(handle interface{}, file *InputFile) Status
type ReleaseInputFileFunc func(handle interface{}) Status
type AddInputLibraryFunc func(path string) Status
type SetExtraLibraryPathFunc func(path string) Status
type GetInputSectionCountFunc func(handle interface{}, count *int) Status
type GetInputSectionTypeFunc func(sec Section, typ *int) Status
type GetInputSectionNameFunc func(sec Section, name *string) Status
type GetInputSectionContentsFunc func(sec Section, data *[]byte) Status
type UpdateSectionOrderFunc func(secs []Section) Status
type AllowSectionOrderingFunc func() Status
type AllowUniqueSegmentForSectionsFunc func() Status
type UniqueSegmentForSectionsFunc func(segName string, flags, align uint64, secs []Section) Status
type GetInputSectionAlignmentFunc func(sec Section, align *int) Status
type GetInputSectionSizeFunc func(sec Section, size *uint64) Status
type GetWrapSymbolsFunc func(syms *[]string) Status

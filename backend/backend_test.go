package backend

import (
	"debug/elf"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weld/plugapi"
)

// fakeHost stands in for the linker on the other side of the protocol.
type fakeHost struct {
	claimFile      plugapi.ClaimFileHandler
	allSymbolsRead plugapi.AllSymbolsReadHandler
	cleanup        plugapi.CleanupHandler

	// resolutions maps symbol names to the resolution the host reports;
	// unnamed symbols resolve as undefined.
	resolutions map[string]plugapi.Resolution

	delivered map[interface{}][]plugapi.Symbol
	added     []string
	options   []string

	v2Calls, v3Calls int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		resolutions: make(map[string]plugapi.Resolution),
		delivered:   make(map[interface{}][]plugapi.Symbol),
	}
}

func (h *fakeHost) addSymbols(handle interface{}, syms []plugapi.Symbol) plugapi.Status {
	h.delivered[handle] = append([]plugapi.Symbol(nil), syms...)
	return plugapi.StatusOK
}

func (h *fakeHost) getSymbols(handle interface{}, syms []plugapi.Symbol) plugapi.Status {
	for i := range syms {
		res, ok := h.resolutions[syms[i].Name]
		if !ok {
			res = plugapi.ResUndef
		}
		syms[i].Resolution = res
	}
	return plugapi.StatusOK
}

func (h *fakeHost) addInputFile(path string) plugapi.Status {
	h.added = append(h.added, path)
	return plugapi.StatusOK
}

func (h *fakeHost) message(level int, format string, args ...interface{}) plugapi.Status {
	return plugapi.StatusOK
}

// table builds the capability table the host hands to Onload.
func (h *fakeHost) table() []plugapi.TagValue {
	tv := []plugapi.TagValue{
		{Tag: plugapi.TagMessage, Val: plugapi.MessageFunc(h.message)},
		{Tag: plugapi.TagLinkerOutput, Val: plugapi.OutputExec},
		{Tag: plugapi.TagRegisterClaimFileHook, Val: plugapi.RegisterClaimFileFunc(func(hook plugapi.ClaimFileHandler) plugapi.Status {
			h.claimFile = hook
			return plugapi.StatusOK
		})},
		{Tag: plugapi.TagRegisterAllSymbolsReadHook, Val: plugapi.RegisterAllSymbolsReadFunc(func(hook plugapi.AllSymbolsReadHandler) plugapi.Status {
			h.allSymbolsRead = hook
			return plugapi.StatusOK
		})},
		{Tag: plugapi.TagRegisterCleanupHook, Val: plugapi.RegisterCleanupFunc(func(hook plugapi.CleanupHandler) plugapi.Status {
			h.cleanup = hook
			return plugapi.StatusOK
		})},
		{Tag: plugapi.TagAddSymbols, Val: plugapi.AddSymbolsFunc(h.addSymbols)},
		{Tag: plugapi.TagGetSymbolsV2, Val: plugapi.GetSymbolsFunc(func(handle interface{}, syms []plugapi.Symbol) plugapi.Status {
			h.v2Calls++
			return h.getSymbols(handle, syms)
		})},
		{Tag: plugapi.TagGetSymbolsV3, Val: plugapi.GetSymbolsFunc(func(handle interface{}, syms []plugapi.Symbol) plugapi.Status {
			h.v3Calls++
			return h.getSymbols(handle, syms)
		})},
		{Tag: plugapi.TagAddInputFile, Val: plugapi.AddInputFileFunc(h.addInputFile)},
	}

	for _, opt := range h.options {
		tv = append(tv, plugapi.TagValue{Tag: plugapi.TagOption, Val: opt})
	}

	return append(tv, plugapi.TagValue{Tag: plugapi.TagNull})
}

// offer opens the given file and presents it to the claim-file hook the way
// the host would, with a freshly opened descriptor.
func (h *fakeHost) offer(t *testing.T, path string, handle interface{}) (bool, plugapi.Status) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	st, err2 := f.Stat()
	require.NoError(t, err2)

	return h.claimFile(&plugapi.InputFile{
		Name:   path,
		FD:     int(f.Fd()),
		Offset: 0,
		Size:   st.Size(),
		Handle: handle,
	})
}

func writeInput(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o666))
	return path
}

const irInput = `
define i32 @main() {
entry:
	ret i32 0
}

@counter = global i64 0

declare i32 @puts(i8*)
`

// -----------------------------------------------------------------------------

func TestOnloadRequiresHostCallbacks(t *testing.T) {
	st := New().Onload([]plugapi.TagValue{{Tag: plugapi.TagNull}})
	assert.Equal(t, plugapi.StatusErr, st)
}

func TestOnloadPrefersGetSymbolsV3(t *testing.T) {
	h := newFakeHost()
	h.resolutions["main"] = plugapi.ResPrevailingDef

	require.Equal(t, plugapi.StatusOK, New().Onload(h.table()))

	claimed, st := h.offer(t, writeInput(t, "a.ll", irInput), "h1")
	require.True(t, claimed)
	require.Equal(t, plugapi.StatusOK, st)

	require.Equal(t, plugapi.StatusOK, h.allSymbolsRead())
	assert.Zero(t, h.v2Calls)
	assert.Equal(t, 1, h.v3Calls)

	h.cleanup()
}

func TestClaimFileDeliversSymbols(t *testing.T) {
	h := newFakeHost()
	require.Equal(t, plugapi.StatusOK, New().Onload(h.table()))

	claimed, st := h.offer(t, writeInput(t, "a.ll", irInput), "h1")
	require.True(t, claimed)
	require.Equal(t, plugapi.StatusOK, st)

	syms := h.delivered["h1"]
	require.Len(t, syms, 3)

	byName := make(map[string]plugapi.Symbol)
	for _, sym := range syms {
		byName[sym.Name] = sym
	}
	assert.Equal(t, plugapi.DefRegular, byName["main"].Def)
	assert.Equal(t, plugapi.TypeFunction, byName["main"].SymType)
	assert.Equal(t, plugapi.TypeVariable, byName["counter"].SymType)
	assert.Equal(t, plugapi.DefUndef, byName["puts"].Def)
}

func TestClaimFileEmbeddedRegion(t *testing.T) {
	h := newFakeHost()
	require.Equal(t, plugapi.StatusOK, New().Onload(h.table()))

	// the module sits between non-IR bytes; only the exact region parses
	pad := "!<arch>\nmember header bytes\n"
	trailer := "trailing bytes that are not IR"
	path := writeInput(t, "lib.a", pad+irInput+trailer)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	claimed, st := h.claimFile(&plugapi.InputFile{
		Name:   path,
		FD:     int(f.Fd()),
		Offset: int64(len(pad)),
		Size:   int64(len(irInput)),
		Handle: "h1",
	})
	require.True(t, claimed)
	require.Equal(t, plugapi.StatusOK, st)

	byName := make(map[string]plugapi.Symbol)
	for _, sym := range h.delivered["h1"] {
		byName[sym.Name] = sym
	}
	require.Len(t, byName, 3)
	assert.Equal(t, plugapi.DefRegular, byName["main"].Def)
	assert.Equal(t, plugapi.DefUndef, byName["puts"].Def)
}

func TestClaimFileWithoutMessageSink(t *testing.T) {
	h := newFakeHost()

	var tv []plugapi.TagValue
	for _, entry := range h.table() {
		if entry.Tag != plugapi.TagMessage {
			tv = append(tv, entry)
		}
	}
	require.Equal(t, plugapi.StatusOK, New().Onload(tv))

	// a read failure is reported even though no sink was provided
	claimed, st := h.claimFile(&plugapi.InputFile{Name: "bad.o", FD: -1, Size: 8})
	assert.False(t, claimed)
	assert.Equal(t, plugapi.StatusErr, st)
}

func TestClaimFileRefusesNonIR(t *testing.T) {
	h := newFakeHost()
	require.Equal(t, plugapi.StatusOK, New().Onload(h.table()))

	claimed, st := h.offer(t, writeInput(t, "notes.txt", "just some text\n"), "h1")
	assert.False(t, claimed)
	assert.Equal(t, plugapi.StatusOK, st)
	assert.Empty(t, h.delivered)
}

func TestAllSymbolsReadEmitsPrevailingObject(t *testing.T) {
	h := newFakeHost()
	h.resolutions["main"] = plugapi.ResPrevailingDef
	h.resolutions["counter"] = plugapi.ResPreemptedReg
	h.resolutions["puts"] = plugapi.ResResolvedExec

	b := New()
	require.Equal(t, plugapi.StatusOK, b.Onload(h.table()))
	defer h.cleanup()

	claimed, _ := h.offer(t, writeInput(t, "a.ll", irInput), "h1")
	require.True(t, claimed)

	require.Equal(t, plugapi.StatusOK, h.allSymbolsRead())
	require.Len(t, h.added, 1)

	f, err := elf.Open(h.added[0])
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, elf.ET_REL, f.Type)

	syms, err := f.Symbols()
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "main", syms[0].Name)
	assert.Equal(t, elf.STB_GLOBAL, elf.ST_BIND(syms[0].Info))
	assert.Equal(t, elf.STT_FUNC, elf.ST_TYPE(syms[0].Info))
}

func TestCleanupRemovesTemps(t *testing.T) {
	h := newFakeHost()
	h.resolutions["main"] = plugapi.ResPrevailingDef

	require.Equal(t, plugapi.StatusOK, New().Onload(h.table()))

	claimed, _ := h.offer(t, writeInput(t, "a.ll", irInput), "h1")
	require.True(t, claimed)
	require.Equal(t, plugapi.StatusOK, h.allSymbolsRead())
	require.Len(t, h.added, 1)

	h.cleanup()
	_, err := os.Stat(h.added[0])
	assert.True(t, os.IsNotExist(err))
}

func TestSaveTempsKeepsObjects(t *testing.T) {
	h := newFakeHost()
	h.resolutions["main"] = plugapi.ResPrevailingDef
	h.options = []string{"save-temps"}

	require.Equal(t, plugapi.StatusOK, New().Onload(h.table()))

	claimed, _ := h.offer(t, writeInput(t, "a.ll", irInput), "h1")
	require.True(t, claimed)
	require.Equal(t, plugapi.StatusOK, h.allSymbolsRead())
	require.Len(t, h.added, 1)

	h.cleanup()
	_, err := os.Stat(h.added[0])
	assert.NoError(t, err)
	os.Remove(h.added[0])
}

// -----------------------------------------------------------------------------

func TestWriteObjectRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.o")

	require.NoError(t, WriteObject(path, []plugapi.Symbol{
		{Name: "run", Def: plugapi.DefRegular, SymType: plugapi.TypeFunction},
		{Name: "backing", Def: plugapi.DefWeak, SymType: plugapi.TypeVariable, Size: 16},
		{Name: "pool", Def: plugapi.DefCommon, SymType: plugapi.TypeVariable},
		{Name: "missing", Def: plugapi.DefUndef},
		{Name: "hidden_run", Def: plugapi.DefRegular, SymType: plugapi.TypeFunction, Visibility: plugapi.VisHidden},
	}))

	f, err := elf.Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, elf.ET_REL, f.Type)
	assert.Equal(t, elf.EM_X86_64, f.Machine)

	syms, err := f.Symbols()
	require.NoError(t, err)
	require.Len(t, syms, 5)

	byName := make(map[string]elf.Symbol)
	for _, sym := range syms {
		byName[sym.Name] = sym
	}

	run := byName["run"]
	assert.Equal(t, elf.STB_GLOBAL, elf.ST_BIND(run.Info))
	assert.Equal(t, elf.STT_FUNC, elf.ST_TYPE(run.Info))
	assert.NotEqual(t, elf.SHN_UNDEF, run.Section)

	backing := byName["backing"]
	assert.Equal(t, elf.STB_WEAK, elf.ST_BIND(backing.Info))
	assert.Equal(t, elf.STT_OBJECT, elf.ST_TYPE(backing.Info))
	assert.Equal(t, uint64(16), backing.Size)

	assert.Equal(t, elf.SHN_COMMON, byName["pool"].Section)
	assert.Equal(t, elf.SHN_UNDEF, byName["missing"].Section)
	assert.Equal(t, elf.STV_HIDDEN, elf.ST_VISIBILITY(byName["hidden_run"].Other))
}

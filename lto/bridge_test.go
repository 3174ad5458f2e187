package lto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weld/linker"
	"weld/plugapi"
)

func TestBridgeClassification(t *testing.T) {
	fb := newFakeBackend()
	fb.claims["a.ll"] = []plugapi.Symbol{pdef("foo")}
	fb.claims["b.ll"] = []plugapi.Symbol{
		pundef("foo"), pundef("nowhere"), pundef("dsym"), pundef("rsym"),
	}

	s, ctx := newTestSession(fb, linker.ContextArgs{})
	addRealObject(ctx, "libc.so", linker.SharedKind, "dsym")
	addRealObject(ctx, "crt.o", linker.ObjectKind, "rsym")

	dir := t.TempDir()
	_, err := s.ReadIRObject(writeIRFile(t, dir, "a.ll"))
	require.NoError(t, err)
	_, err = s.ReadIRObject(writeIRFile(t, dir, "b.ll"))
	require.NoError(t, err)

	// the defining object's symbol prevails in it
	resA := make([]plugapi.Symbol, 1)
	require.Equal(t, plugapi.StatusOK, fb.getV3(fb.handles["a.ll"], resA))
	assert.Equal(t, plugapi.ResPrevailingDef, resA[0].Resolution)

	// the referencing object sees its reference resolved per the owner's kind
	resB := make([]plugapi.Symbol, 4)
	require.Equal(t, plugapi.StatusOK, fb.getV3(fb.handles["b.ll"], resB))
	assert.Equal(t, plugapi.ResResolvedIR, resB[0].Resolution)
	assert.Equal(t, plugapi.ResUndef, resB[1].Resolution)
	assert.Equal(t, plugapi.ResResolvedDyn, resB[2].Resolution)
	assert.Equal(t, plugapi.ResResolvedExec, resB[3].Resolution)
}

func TestBridgeRecomputesAfterLaterIngestion(t *testing.T) {
	fb := newFakeBackend()
	fb.claims["a.ll"] = []plugapi.Symbol{pundef("foo")}
	fb.claims["b.ll"] = []plugapi.Symbol{pdef("foo")}

	s, _ := newTestSession(fb, linker.ContextArgs{})

	dir := t.TempDir()
	_, err := s.ReadIRObject(writeIRFile(t, dir, "a.ll"))
	require.NoError(t, err)

	res := make([]plugapi.Symbol, 1)
	require.Equal(t, plugapi.StatusOK, fb.getV3(fb.handles["a.ll"], res))
	assert.Equal(t, plugapi.ResUndef, res[0].Resolution)

	// ingesting the defining object moves ownership; the bridge must observe
	// the move on the next query
	_, err = s.ReadIRObject(writeIRFile(t, dir, "b.ll"))
	require.NoError(t, err)

	require.Equal(t, plugapi.StatusOK, fb.getV3(fb.handles["a.ll"], res))
	assert.Equal(t, plugapi.ResResolvedIR, res[0].Resolution)
}

func TestBridgeRetiredObject(t *testing.T) {
	fb := newFakeBackend()
	fb.claims["a.ll"] = []plugapi.Symbol{pdef("foo"), pdef("bar")}

	s, _ := newTestSession(fb, linker.ContextArgs{})

	_, err := s.ReadIRObject(writeIRFile(t, t.TempDir(), "a.ll"))
	require.NoError(t, err)
	require.NoError(t, s.Compile())

	// variant 3 propagates the "no symbols" status verbatim
	res := make([]plugapi.Symbol, 2)
	assert.Equal(t, plugapi.StatusNoSyms, fb.getV3(fb.handles["a.ll"], res))
	for _, ps := range res {
		assert.Equal(t, plugapi.ResPreemptedReg, ps.Resolution)
	}

	// variant 2 translates it into ordinary success
	res = make([]plugapi.Symbol, 2)
	assert.Equal(t, plugapi.StatusOK, fb.getV2(fb.handles["a.ll"], res))
	for _, ps := range res {
		assert.Equal(t, plugapi.ResPreemptedReg, ps.Resolution)
	}
}

func TestBridgeCountMismatch(t *testing.T) {
	fb := newFakeBackend()
	fb.claims["a.ll"] = []plugapi.Symbol{pdef("foo"), pdef("bar")}

	s, _ := newTestSession(fb, linker.ContextArgs{})

	_, err := s.ReadIRObject(writeIRFile(t, t.TempDir(), "a.ll"))
	require.NoError(t, err)

	res := make([]plugapi.Symbol, 5)
	assert.Equal(t, plugapi.StatusErr, fb.getV3(fb.handles["a.ll"], res))
}

func TestBridgeBadHandle(t *testing.T) {
	fb := newFakeBackend()
	fb.claims["a.ll"] = []plugapi.Symbol{pdef("foo")}

	s, _ := newTestSession(fb, linker.ContextArgs{})

	_, err := s.ReadIRObject(writeIRFile(t, t.TempDir(), "a.ll"))
	require.NoError(t, err)

	res := make([]plugapi.Symbol, 1)
	assert.Equal(t, plugapi.StatusBadHandle, fb.getV3("bogus", res))
}

func TestBridgeV1Unsupported(t *testing.T) {
	fb := newFakeBackend()
	fb.claims["a.ll"] = []plugapi.Symbol{pdef("foo")}

	s, _ := newTestSession(fb, linker.ContextArgs{})

	_, err := s.ReadIRObject(writeIRFile(t, t.TempDir(), "a.ll"))
	require.NoError(t, err)

	res := make([]plugapi.Symbol, 1)
	assert.Equal(t, plugapi.StatusErr, fb.getV1(fb.handles["a.ll"], res))
}

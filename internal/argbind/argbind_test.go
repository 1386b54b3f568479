package argbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk-org/fps/internal/fpsparam"
	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/fpsvalue"
)

func TestCoerceFloatToken(t *testing.T) {
	b, err := Coerce(Token{Kind: TokFloat, Number: 0.75}, fpsvalue.Float64, nil)
	require.NoError(t, err)
	assert.True(t, b.IsNumeric)
	assert.Equal(t, 0.75, b.Numeric)
}

func TestCoerceFloatTokenIntoIntRounds(t *testing.T) {
	b, err := Coerce(Token{Kind: TokFloat, Number: 2.6}, fpsvalue.Int64, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, b.Numeric)
}

func TestCoerceImageRefIntoFilenameFails(t *testing.T) {
	_, err := Coerce(Token{Kind: TokImageRef, String: "im1"}, fpsvalue.Filename, nil)
	assert.Error(t, err)
}

func TestCoerceImageRefIntoStreamNameOK(t *testing.T) {
	b, err := Coerce(Token{Kind: TokImageRef, String: "im1"}, fpsvalue.StreamName, nil)
	require.NoError(t, err)
	assert.Equal(t, "im1", b.Str)
}

func TestCoerceImageRefIntoGenericStringOK(t *testing.T) {
	b, err := Coerce(Token{Kind: TokImageRef, String: "im1"}, fpsvalue.String, nil)
	require.NoError(t, err)
	assert.Equal(t, "im1", b.Str)
}

func TestCoerceCommandWordIntoFilenameFails(t *testing.T) {
	_, err := Coerce(Token{Kind: TokCommandWord, String: "ls"}, fpsvalue.ExecFilename, nil)
	assert.Error(t, err)
}

func TestCoercePlainStringIntoFilenameOK(t *testing.T) {
	b, err := Coerce(Token{Kind: TokPlainString, String: "/tmp/x"}, fpsvalue.Filename, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", b.Str)
}

func TestCoercePlainStringIntoOnOff(t *testing.T) {
	b, err := Coerce(Token{Kind: TokPlainString, String: "on"}, fpsvalue.OnOff, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.Numeric)
}

func TestCoerceRawIntoFloat(t *testing.T) {
	b, err := Coerce(Token{Kind: TokRaw, String: "1.5"}, fpsvalue.Float64, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.5, b.Numeric)
}

func TestCoerceVarStringRequiresResolver(t *testing.T) {
	_, err := Coerce(Token{Kind: TokVarString, String: "gain"}, fpsvalue.Float64, nil)
	assert.Error(t, err)
}

type fakeResolver map[string]Bound

func (f fakeResolver) Resolve(name string) (Bound, bool) {
	v, ok := f[name]
	return v, ok
}

func TestCoerceVarStringResolves(t *testing.T) {
	resolver := fakeResolver{"gain": {IsNumeric: true, Numeric: 0.5}}
	b, err := Coerce(Token{Kind: TokVarString, String: "gain"}, fpsvalue.Float64, resolver)
	require.NoError(t, err)
	assert.Equal(t, 0.5, b.Numeric)
}

func newSchemaFixture() Schema {
	return Schema{
		{FPSTag: "loop.gain", ExpectedKind: fpsvalue.Float64},
		{FPSTag: "loop.niter", ExpectedKind: fpsvalue.Int64},
	}
}

func TestBindPositionalWritesThroughToFPS(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MILK_SHM_DIR", dir)
	fpsstore.ResetShmRootCacheForTest()
	t.Cleanup(fpsstore.ResetShmRootCacheForTest)

	fps, err := fpsstore.Create("aoloop0", t.TempDir(), 8)
	require.NoError(t, err)
	_, _, err = fps.AddEntry([]string{"loop", "gain"}, fpsvalue.Float64, "", fpsparam.Write)
	require.NoError(t, err)
	_, _, err = fps.AddEntry([]string{"loop", "niter"}, fpsvalue.Int64, "", fpsparam.Write)
	require.NoError(t, err)

	binder := NewArgBinder(newSchemaFixture(), fps)
	res, err := binder.Bind([]Token{
		{Kind: TokFloat, Number: 0.75},
		{Kind: TokInt, Number: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, ModePositional, res.Mode)
	assert.Equal(t, 0.75, res.Values["loop.gain"].Numeric)

	p, _, ok := fps.FindByFull("loop.gain")
	require.True(t, ok)
	assert.Equal(t, 0.75, p.Value.Current)
	assert.True(t, fps.Header.Signal.Has(fpsstore.SignalUpdate))
}

func TestBindPositionalArityMismatch(t *testing.T) {
	binder := NewArgBinder(newSchemaFixture(), nil)
	_, err := binder.Bind([]Token{{Kind: TokFloat, Number: 1}})
	assert.Error(t, err)
}

func TestBindKeywordMode(t *testing.T) {
	binder := NewArgBinder(newSchemaFixture(), nil)
	res, err := binder.Bind([]Token{
		{Kind: TokPlainString, String: "loop.gain"},
		{Kind: TokFloat, Number: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, ModeKeyword, res.Mode)
	assert.Equal(t, 0.9, res.Values["loop.gain"].Numeric)
	assert.Equal(t, 0.9, res.Values[FUNCPARAMSET].Numeric)
}

func TestBindLastValueSentinel(t *testing.T) {
	binder := NewArgBinder(newSchemaFixture(), nil)
	_, err := binder.Bind([]Token{
		{Kind: TokFloat, Number: 0.25},
		{Kind: TokInt, Number: 1},
	})
	require.NoError(t, err)

	res, err := binder.Bind([]Token{
		{Kind: TokPlainString, String: "."},
		{Kind: TokInt, Number: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.25, res.Values["loop.gain"].Numeric)
}

func TestBindLastValueSentinelWithoutHistoryErrors(t *testing.T) {
	binder := NewArgBinder(newSchemaFixture(), nil)
	_, err := binder.Bind([]Token{
		{Kind: TokPlainString, String: "."},
		{Kind: TokInt, Number: 1},
	})
	assert.Error(t, err)
}

func TestBindHelpSentinel(t *testing.T) {
	binder := NewArgBinder(newSchemaFixture(), nil)
	res, err := binder.Bind([]Token{
		{Kind: TokPlainString, String: "?"},
		{Kind: TokInt, Number: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "loop.gain", res.Help)
	assert.Nil(t, res.Values)
}

func TestBindSkipsNoFPSDescriptor(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MILK_SHM_DIR", dir)
	fpsstore.ResetShmRootCacheForTest()
	t.Cleanup(fpsstore.ResetShmRootCacheForTest)

	fps, err := fpsstore.Create("aoloop0", t.TempDir(), 8)
	require.NoError(t, err)
	_, _, err = fps.AddEntry([]string{"loop", "gain"}, fpsvalue.Float64, "", fpsparam.Write)
	require.NoError(t, err)

	schema := Schema{
		{FPSTag: "loop.gain", ExpectedKind: fpsvalue.Float64},
		{FPSTag: "scratch", ExpectedKind: fpsvalue.Float64, Flags: NoFPS},
	}
	binder := NewArgBinder(schema, fps)
	_, err = binder.Bind([]Token{
		{Kind: TokFloat, Number: 0.5},
		{Kind: TokFloat, Number: 42},
	})
	require.NoError(t, err)

	resolved, ok := binder.Resolve("scratch")
	require.True(t, ok)
	assert.Equal(t, 42.0, resolved.Numeric)
}

package wiresmith_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangee/wiresmith"
	"github.com/golangee/wiresmith/smith"
	"github.com/golangee/wiresmith/smith/gosmith"
)

func TestParseValidateComputeGenerate(t *testing.T) {
	src, err := os.ReadFile("testdata/pingpong.wire")
	require.NoError(t, err)

	file, errs := wiresmith.Parse("pingpong.wire", string(src))
	require.Empty(t, errs)

	m, verrs := wiresmith.Validate(file)
	require.Empty(t, verrs)

	root, ok := m.Lookup("Message")
	require.True(t, ok)

	plan, lerrs := wiresmith.Compute(m, root)
	require.Empty(t, lerrs)
	assert.True(t, plan.Dynamic)

	s := gosmith.New(smith.DefaultOptions())

	art, err := wiresmith.Generate(s, m, "Message", smith.DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, art.Types, "type Message struct")
	assert.Contains(t, art.Encoder, "func EncodeMessage")
	assert.Contains(t, art.Decoder, "func DecodeMessage")
}

func TestGenerateSkipsDecoderWhenDisabled(t *testing.T) {
	src, err := os.ReadFile("testdata/pingpong.wire")
	require.NoError(t, err)

	file, errs := wiresmith.Parse("pingpong.wire", string(src))
	require.Empty(t, errs)

	m, verrs := wiresmith.Validate(file)
	require.Empty(t, verrs)

	s := gosmith.New(smith.Options{Package: "wire"})

	opts := smith.Options{Package: "wire", EmitEncoder: true, EmitDecoder: false}

	art, err := wiresmith.Generate(s, m, "Message", opts)
	require.NoError(t, err)
	assert.NotEmpty(t, art.Encoder)
	assert.Empty(t, art.Decoder)
}

func TestParseReportsErrors(t *testing.T) {
	_, errs := wiresmith.Parse("bad.wire", "struct {{{")
	assert.NotEmpty(t, errs)
}

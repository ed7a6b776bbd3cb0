package gosmith_test

import (
	"go/parser"
	"go/token"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangee/wiresmith/model"
	"github.com/golangee/wiresmith/smith"
	"github.com/golangee/wiresmith/smith/gosmith"
	"github.com/golangee/wiresmith/syntax"
)

func mustPingPongModel(t *testing.T) *model.Model {
	t.Helper()

	src, err := os.ReadFile("../../testdata/pingpong.wire")
	require.NoError(t, err)

	file, errs := syntax.Parse("pingpong.wire", string(src))
	require.Empty(t, errs)

	m, verrs := model.Validate(file)
	require.Empty(t, verrs)

	return m
}

// parseGo asserts that src is syntactically valid Go, without ever
// invoking the Go toolchain: go/parser only builds an AST from text,
// it does not compile or run anything.
func parseGo(t *testing.T, src string) {
	t.Helper()

	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "generated.go", src, parser.AllErrors)
	require.NoError(t, err, "generated source must parse as valid Go:\n%s", src)
}

func TestEmitTypesPingPong(t *testing.T) {
	m := mustPingPongModel(t)
	s := gosmith.New(smith.Options{Package: "wire"})

	out, err := s.EmitTypes(m)
	require.NoError(t, err)
	parseGo(t, out)

	assert.Contains(t, out, "package wire")
	assert.Contains(t, out, "type MessageType uint64")
	assert.Contains(t, out, "MessageTypePing MessageType = 0")
	assert.Contains(t, out, "MessageTypePong MessageType = 1")
	assert.Contains(t, out, "type Ping struct")
	assert.Contains(t, out, "type Pong struct")
	assert.Contains(t, out, "type Payload interface")
	assert.Contains(t, out, "type PayloadPing struct")
	assert.Contains(t, out, "type PayloadPong struct")
	assert.Contains(t, out, "type Message struct")
	assert.NotContains(t, out, "MessageTypeReserved")
}

func TestEmitEncoderPingPong(t *testing.T) {
	m := mustPingPongModel(t)
	s := gosmith.New(smith.Options{Package: "wire"})

	out, err := s.EmitEncoder(m, "Message")
	require.NoError(t, err)
	parseGo(t, out)

	assert.Contains(t, out, "func EncodeMessage(v Message, endian codec.Endianness) ([]byte, error)")
	assert.Contains(t, out, "func toMessageStructValue(v Message) codec.StructValue")
	assert.Contains(t, out, "func toPingStructValue(v Ping) codec.StructValue")
	assert.Contains(t, out, "func toPongStructValue(v Pong) codec.StructValue")
	assert.Contains(t, out, "buildWireEncodeModel")
}

func TestEmitDecoderPingPong(t *testing.T) {
	m := mustPingPongModel(t)
	s := gosmith.New(smith.Options{Package: "wire"})

	out, err := s.EmitDecoder(m, "Message")
	require.NoError(t, err)
	parseGo(t, out)

	assert.Contains(t, out, "func DecodeMessage(buf []byte, endian codec.Endianness) (Message, error)")
	assert.Contains(t, out, "func fromMessageStructValue(sv codec.StructValue) Message")
	assert.Contains(t, out, "func fromPingStructValue(sv codec.StructValue) Ping")
	assert.Contains(t, out, "func fromPongStructValue(sv codec.StructValue) Pong")
	assert.Contains(t, out, "buildWireDecodeModel")
}

func TestEmitEncoderUnknownRoot(t *testing.T) {
	m := mustPingPongModel(t)
	s := gosmith.New(smith.Options{Package: "wire"})

	_, err := s.EmitEncoder(m, "NoSuchStruct")
	require.Error(t, err)

	var smithErr *smith.Error
	assert.ErrorAs(t, err, &smithErr)
}

func TestEmitDecoderUnknownRoot(t *testing.T) {
	m := mustPingPongModel(t)
	s := gosmith.New(smith.Options{Package: "wire"})

	_, err := s.EmitDecoder(m, "NoSuchStruct")
	require.Error(t, err)
}

func TestNewDefaultsPackage(t *testing.T) {
	s := gosmith.New(smith.Options{})
	assert.Equal(t, "wire", s.Options.Package)
}

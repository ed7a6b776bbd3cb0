package codec_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangee/wiresmith/codec"
	"github.com/golangee/wiresmith/model"
	"github.com/golangee/wiresmith/syntax"
)

func mustPingPongModel(t *testing.T) *model.Model {
	t.Helper()

	src, err := os.ReadFile("../testdata/pingpong.wire")
	require.NoError(t, err)

	f, errs := syntax.Parse("pingpong.wire", string(src))
	require.Empty(t, errs)

	m, verrs := model.Validate(f)
	require.Empty(t, verrs)

	return m
}

func TestEncodeDecodePing(t *testing.T) {
	m := mustPingPongModel(t)
	msg, ok := m.Lookup("Message")
	require.True(t, ok)

	value := codec.StructValue{
		"message_type": uint64(0),
		"payload": codec.StructValue{
			"seq": uint32(42),
		},
	}

	buf, err := codec.Encode(m, msg, value, codec.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 42, 0, 0, 0}, buf)

	got, err := codec.Decode(m, msg, buf, codec.LittleEndian)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), got["message_type"])

	payload, ok := got["payload"].(codec.StructValue)
	require.True(t, ok)
	assert.Equal(t, uint32(42), payload["seq"])
}

func TestEncodeDecodePong(t *testing.T) {
	m := mustPingPongModel(t)
	msg, _ := m.Lookup("Message")

	value := codec.StructValue{
		"message_type": uint64(1),
		"payload": codec.StructValue{
			"seq":        uint32(7),
			"latency_ms": uint16(250),
		},
	}

	buf, err := codec.Encode(m, msg, value, codec.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 7, 0, 0, 0, 250, 0}, buf)

	got, err := codec.Decode(m, msg, buf, codec.LittleEndian)
	require.NoError(t, err)

	payload, ok := got["payload"].(codec.StructValue)
	require.True(t, ok)
	assert.Equal(t, uint32(7), payload["seq"])
	assert.Equal(t, uint16(250), payload["latency_ms"])
}

// Reproduces spec §8 scenario 5: a synthesized message whose
// discriminator is out of range returns UnmatchedDiscriminator.
func TestEncodeUnmatchedDiscriminator(t *testing.T) {
	m := mustPingPongModel(t)
	msg, _ := m.Lookup("Message")

	value := codec.StructValue{
		"message_type": uint64(99),
		"payload":      codec.StructValue{},
	}

	_, err := codec.Encode(m, msg, value, codec.LittleEndian)
	require.Error(t, err)

	var cerr *codec.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, codec.UnmatchedDiscriminator, cerr.Code)
}

func TestDecodeUnmatchedDiscriminator(t *testing.T) {
	m := mustPingPongModel(t)
	msg, _ := m.Lookup("Message")

	buf := []byte{0xFF, 0, 0, 0, 0}

	_, err := codec.Decode(m, msg, buf, codec.LittleEndian)
	require.Error(t, err)

	var cerr *codec.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, codec.UnmatchedDiscriminator, cerr.Code)
}

func TestDecodeUnexpectedEndOfBuffer(t *testing.T) {
	m := mustPingPongModel(t)
	msg, _ := m.Lookup("Message")

	// message_type says Pong (6 more bytes needed) but only 3 follow.
	buf := []byte{0x01, 7, 0, 0}

	_, err := codec.Decode(m, msg, buf, codec.LittleEndian)
	require.Error(t, err)

	var cerr *codec.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, codec.UnexpectedEndOfBuffer, cerr.Code)
}

func TestEncodeDecodeStaticArray(t *testing.T) {
	f, errs := syntax.Parse("arr.wire", `
struct Frame {
    samples: uint16[3];
};
`)
	require.Empty(t, errs)

	am, verrs := model.Validate(f)
	require.Empty(t, verrs)

	h, ok := am.Lookup("Frame")
	require.True(t, ok)

	value := codec.StructValue{
		"samples": []any{uint16(1), uint16(2), uint16(3)},
	}

	buf, err := codec.Encode(am, h, value, codec.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0}, buf)

	got, err := codec.Decode(am, h, buf, codec.LittleEndian)
	require.NoError(t, err)

	samples, ok := got["samples"].([]any)
	require.True(t, ok)
	require.Len(t, samples, 3)
	assert.Equal(t, uint16(1), samples[0])
	assert.Equal(t, uint16(2), samples[1])
	assert.Equal(t, uint16(3), samples[2])
}

func TestEncodeDecodeDynamicTail(t *testing.T) {
	f, errs := syntax.Parse("tail.wire", `
struct Blob {
    count: uint8;
    data: byte[];
};
`)
	require.Empty(t, errs)

	m, verrs := model.Validate(f)
	require.Empty(t, verrs)

	h, _ := m.Lookup("Blob")

	value := codec.StructValue{
		"count": uint8(3),
		"data":  []any{uint8(0xAA), uint8(0xBB), uint8(0xCC)},
	}

	buf, err := codec.Encode(m, h, value, codec.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0xAA, 0xBB, 0xCC}, buf)

	got, err := codec.Decode(m, h, buf, codec.LittleEndian)
	require.NoError(t, err)

	data, ok := got["data"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{uint8(0xAA), uint8(0xBB), uint8(0xCC)}, data)
}

package codec

import (
	"fmt"
	"math"

	"github.com/golangee/wiresmith/layout"
	"github.com/golangee/wiresmith/model"
)

// StructValue is a dynamic representation of one struct's field values,
// keyed by field name. Encode/Decode exchange values in this shape
// rather than through generated Go structs, since this package has no
// target-language types of its own — smith.Smith back ends generate
// those, and the gosmith back end converts them to and from this shape
// around its calls to Encode and Decode.
type StructValue map[string]any

// UnionValue is a dynamic representation of one union's selected arm.
// It is only needed where no discriminator field picks the arm for
// you: a union-typed field with a discriminated_by attribute instead
// takes its arm's value directly, unwrapped (spec §4.5 — the arm is
// chosen by looking up the already-encoded discriminator).
type UnionValue struct {
	Arm   string
	Value any
}

// ErrorCode names one of the codec failure classes of spec §7.
type ErrorCode string

const (
	BufferTooSmall         ErrorCode = "BufferTooSmall"
	UnmatchedDiscriminator ErrorCode = "UnmatchedDiscriminator"
	UnexpectedEndOfBuffer  ErrorCode = "UnexpectedEndOfBuffer"
	Misaligned             ErrorCode = "Misaligned"
)

// Error is one encode/decode failure. Unlike token.PosError, this has
// no source span: it is a runtime condition over a value and a
// buffer, not a parse or schema location.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Msg }

func newErr(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Encode encodes value, a StructValue for the struct addressed by
// root, into a freshly allocated buffer and returns it (spec §4.5).
// Unlike the abstract algorithm's literal "buffer large enough"
// precondition, this Encode owns a growable buffer internally and
// extends it as the cursor advances — a caller never pre-sizes
// anything, which is the idiomatic Go shape (cf. encoding/json.Marshal)
// for a function whose output size depends on dynamic-array contents.
// BufferTooSmall therefore never surfaces from this entry point, nor
// from a generated gosmith encoder, which delegates to Encode; it is
// kept in the taxonomy, but no code in this repository returns it.
func Encode(m *model.Model, root model.Handle, value StructValue, e Endianness) ([]byte, error) {
	enc := &encoder{model: m, endian: e}

	if err := enc.encodeStruct(root, value); err != nil {
		return nil, err
	}

	return enc.buf[:bitsToBytes(enc.cursor)], nil
}

// Decode decodes a StructValue for the struct addressed by root out of
// buf (spec §4.5, symmetric to Encode).
func Decode(m *model.Model, root model.Handle, buf []byte, e Endianness) (StructValue, error) {
	dec := &decoder{model: m, endian: e, buf: buf, limit: len(buf) * 8}

	v, err := dec.decodeStruct(root)
	if err != nil {
		return nil, err
	}

	return v.(StructValue), nil
}

func bitsToBytes(bits int) int { return (bits + 7) / 8 }

// fieldEncoding classifies how a scalar (non-array, non-struct,
// non-union) field's bits are laid out on the wire, resolving the
// tension spec §3.3/§4.5 leave between the two primitives: a bits=N
// attribute always goes through the bit-cursor primitive (encode_bits),
// even when N is a whole number of bytes, because bit-packed fields
// are defined to share bytes with their neighbors with no padding; a
// bytes=N attribute or a bare fixed-width/enum field with neither
// attribute always goes through the aligned-byte primitive, since both
// are defined to start at a byte boundary. A bare bit field is the
// exception: it is one unaligned bit through the bit primitive. The
// two primitives disagree on big-endian multi-byte layout (see bits.go), so which one
// applies is not a cosmetic choice. See DESIGN.md.
type fieldEncoding struct {
	width   int
	aligned bool
}

func classifyBuiltin(b model.Builtin, attrBits, attrBytes int) fieldEncoding {
	switch {
	case attrBits != 0:
		return fieldEncoding{width: attrBits, aligned: false}
	case attrBytes != 0:
		return fieldEncoding{width: attrBytes * 8, aligned: true}
	case b == model.Bit:
		return fieldEncoding{width: 1, aligned: false}
	default:
		return fieldEncoding{width: b.Width(), aligned: true}
	}
}

func classifyEnum(en *model.Enum, attrBits int) fieldEncoding {
	if attrBits != 0 {
		return fieldEncoding{width: attrBits, aligned: false}
	}

	return fieldEncoding{width: layout.EnumNaturalWidth(en), aligned: true}
}

// --- encoder ---

type encoder struct {
	model  *model.Model
	endian Endianness
	buf    []byte
	cursor int // bits written so far
}

func (enc *encoder) ensure(bits int) {
	need := bitsToBytes(enc.cursor + bits)
	for len(enc.buf) < need {
		enc.buf = append(enc.buf, 0)
	}
}

func (enc *encoder) encodeStruct(h model.Handle, v any) error {
	sv, ok := v.(StructValue)
	if !ok {
		panic(fmt.Sprintf("codec: expected codec.StructValue for %q, got %T", enc.model.Name(h), v))
	}

	s := enc.model.Struct(h)

	for _, f := range s.Fields {
		if err := enc.encodeField(f, sv); err != nil {
			return err
		}
	}

	return nil
}

func (enc *encoder) encodeField(f model.Field, sv StructValue) error {
	if f.DiscriminatedBy != "" {
		return enc.encodeDiscriminatedField(f, sv)
	}

	return enc.encodeType(f.Type, f.Bits, f.Bytes, sv[f.Name])
}

func (enc *encoder) encodeDiscriminatedField(f model.Field, sv StructValue) error {
	t := enc.model.ResolveType(f.Type)
	u := enc.model.Union(t.User)

	discRaw, ok := toUint64(sv[f.DiscriminatedBy])
	if !ok {
		panic(fmt.Sprintf("codec: discriminator field %q must carry an integer-like value", f.DiscriminatedBy))
	}

	for _, arm := range u.Arms {
		if discRaw >= arm.Lo && discRaw <= arm.Hi {
			return enc.encodeType(arm.Type, 0, 0, sv[f.Name])
		}
	}

	return newErr(UnmatchedDiscriminator, "no arm of union %q matches discriminator %d", u.Name, discRaw)
}

func (enc *encoder) encodeType(t model.TypeRef, bits, bytes int, v any) error {
	t = enc.model.ResolveType(t)

	if t.IsArray() {
		return enc.encodeArray(t, v)
	}

	if !t.IsUser() {
		return enc.encodeBuiltin(t.Builtin, bits, bytes, v)
	}

	switch t.User.Kind {
	case model.KindEnum:
		return enc.encodeEnum(enc.model.Enum(t.User), bits, v)
	case model.KindStruct:
		return enc.encodeStruct(t.User, v)
	case model.KindUnion:
		uv, ok := v.(UnionValue)
		if !ok {
			panic(fmt.Sprintf("codec: expected codec.UnionValue for undiscriminated union %q, got %T",
				enc.model.Name(t.User), v))
		}

		return enc.encodeUnionArm(enc.model.Union(t.User), uv)
	default:
		panic("codec: unresolved type-ref")
	}
}

func (enc *encoder) encodeUnionArm(u *model.Union, uv UnionValue) error {
	for _, arm := range u.Arms {
		if arm.Name == uv.Arm {
			return enc.encodeType(arm.Type, 0, 0, uv.Value)
		}
	}

	panic(fmt.Sprintf("codec: union %q has no arm named %q", u.Name, uv.Arm))
}

func (enc *encoder) encodeArray(t model.TypeRef, v any) error {
	arr, ok := v.([]any)
	if !ok {
		panic(fmt.Sprintf("codec: expected []any for an array field, got %T", v))
	}

	elem := t.Elem()
	for _, item := range arr {
		if err := enc.encodeType(elem, 0, 0, item); err != nil {
			return err
		}
	}

	return nil
}

func (enc *encoder) encodeEnum(en *model.Enum, attrBits int, v any) error {
	raw, ok := toUint64(v)
	if !ok {
		panic(fmt.Sprintf("codec: expected an integer-like value for enum %q, got %T", en.Name, v))
	}

	fe := classifyEnum(en, attrBits)

	return enc.writeRaw(fe, raw)
}

func (enc *encoder) encodeBuiltin(b model.Builtin, attrBits, attrBytes int, v any) error {
	fe := classifyBuiltin(b, attrBits, attrBytes)

	if b.IsFloat() {
		f, ok := toFloat64(v)
		if !ok {
			panic(fmt.Sprintf("codec: expected a float value for %s, got %T", b, v))
		}

		var raw uint64
		if b == model.Float32 {
			raw = uint64(math.Float32bits(float32(f)))
		} else {
			raw = math.Float64bits(f)
		}

		return enc.writeRaw(fe, raw)
	}

	raw, ok := toUint64(v)
	if !ok {
		panic(fmt.Sprintf("codec: expected an integer-like value for %s, got %T", b, v))
	}

	return enc.writeRaw(fe, raw)
}

func (enc *encoder) writeRaw(fe fieldEncoding, raw uint64) error {
	if fe.aligned && enc.cursor%8 != 0 {
		return newErr(Misaligned, "field requires byte alignment at bit cursor %d", enc.cursor)
	}

	enc.ensure(fe.width)

	byteOff := enc.cursor / 8
	bitOff := enc.cursor % 8

	if fe.aligned {
		EncodeAlignedBytes(enc.buf, byteOff, raw, fe.width/8, enc.endian)
	} else {
		EncodeBits(enc.buf, byteOff, bitOff, raw, fe.width, enc.endian)
	}

	enc.cursor += fe.width

	return nil
}

// --- decoder ---

type decoder struct {
	model  *model.Model
	endian Endianness
	buf    []byte
	cursor int
	limit  int // total bits available in buf
}

func (dec *decoder) decodeStruct(h model.Handle) (any, error) {
	s := dec.model.Struct(h)

	sv := StructValue{}

	for _, f := range s.Fields {
		v, err := dec.decodeField(f, sv)
		if err != nil {
			return nil, err
		}

		sv[f.Name] = v
	}

	return sv, nil
}

func (dec *decoder) decodeField(f model.Field, sv StructValue) (any, error) {
	if f.DiscriminatedBy != "" {
		return dec.decodeDiscriminatedField(f, sv)
	}

	return dec.decodeType(f.Type, f.Bits, f.Bytes)
}

func (dec *decoder) decodeDiscriminatedField(f model.Field, sv StructValue) (any, error) {
	t := dec.model.ResolveType(f.Type)
	u := dec.model.Union(t.User)

	discRaw, ok := toUint64(sv[f.DiscriminatedBy])
	if !ok {
		panic(fmt.Sprintf("codec: discriminator field %q must have already been decoded to an integer-like value", f.DiscriminatedBy))
	}

	for _, arm := range u.Arms {
		if discRaw >= arm.Lo && discRaw <= arm.Hi {
			return dec.decodeType(arm.Type, 0, 0)
		}
	}

	return nil, newErr(UnmatchedDiscriminator, "no arm of union %q matches discriminator %d", u.Name, discRaw)
}

func (dec *decoder) decodeType(t model.TypeRef, bits, bytes int) (any, error) {
	t = dec.model.ResolveType(t)

	if t.IsArray() {
		return dec.decodeArray(t)
	}

	if !t.IsUser() {
		return dec.decodeBuiltin(t.Builtin, bits, bytes)
	}

	switch t.User.Kind {
	case model.KindEnum:
		return dec.decodeEnum(dec.model.Enum(t.User), bits)
	case model.KindStruct:
		return dec.decodeStruct(t.User)
	case model.KindUnion:
		return nil, fmt.Errorf("codec: cannot decode undiscriminated union %q without a selecting discriminator",
			dec.model.Name(t.User))
	default:
		panic("codec: unresolved type-ref")
	}
}

// decodeArray decodes a static array element-by-element, or, for a
// dynamic (trailing) array, decodes elements until the buffer is
// exhausted (spec §4.5: "reads elements of T until the buffer is
// exhausted").
func (dec *decoder) decodeArray(t model.TypeRef) (any, error) {
	elem := t.Elem()

	if t.IsDynamicArray() {
		var out []any

		for dec.cursor < dec.limit {
			v, err := dec.decodeType(elem, 0, 0)
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil
	}

	n := t.Dims[0]
	out := make([]any, 0, n)

	for i := 0; i < n; i++ {
		v, err := dec.decodeType(elem, 0, 0)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

func (dec *decoder) decodeEnum(en *model.Enum, attrBits int) (any, error) {
	fe := classifyEnum(en, attrBits)

	raw, err := dec.readRaw(fe)
	if err != nil {
		return nil, err
	}

	return raw, nil
}

func (dec *decoder) decodeBuiltin(b model.Builtin, attrBits, attrBytes int) (any, error) {
	fe := classifyBuiltin(b, attrBits, attrBytes)

	raw, err := dec.readRaw(fe)
	if err != nil {
		return nil, err
	}

	return fromRaw(b, raw), nil
}

func (dec *decoder) readRaw(fe fieldEncoding) (uint64, error) {
	if fe.aligned && dec.cursor%8 != 0 {
		return 0, newErr(Misaligned, "field requires byte alignment at bit cursor %d", dec.cursor)
	}

	if dec.cursor+fe.width > dec.limit {
		return 0, newErr(UnexpectedEndOfBuffer, "need %d more bits at cursor %d, only %d available",
			fe.width, dec.cursor, dec.limit-dec.cursor)
	}

	byteOff := dec.cursor / 8
	bitOff := dec.cursor % 8

	var raw uint64
	if fe.aligned {
		raw = DecodeAlignedBytes(dec.buf, byteOff, fe.width/8, dec.endian)
	} else {
		raw = DecodeBits(dec.buf, byteOff, bitOff, fe.width, dec.endian)
	}

	dec.cursor += fe.width

	return raw, nil
}

// fromRaw converts a decoded bit pattern back into the Go type natural
// to b: sign-extended for signed integers, IEEE-754 reinterpreted for
// floats, and the obviously-sized unsigned type otherwise.
func fromRaw(b model.Builtin, raw uint64) any {
	switch b {
	case model.Int8:
		return int8(raw)
	case model.Int16:
		return int16(raw)
	case model.Int32:
		return int32(raw)
	case model.Int64:
		return int64(raw)
	case model.Uint8:
		return uint8(raw)
	case model.Uint16:
		return uint16(raw)
	case model.Uint32:
		return uint32(raw)
	case model.Uint64:
		return raw
	case model.Float32:
		return math.Float32frombits(uint32(raw))
	case model.Float64:
		return math.Float64frombits(raw)
	case model.Bit:
		return uint8(raw)
	case model.Byte:
		return uint8(raw)
	default:
		return raw
	}
}

// toUint64 coerces the common Go numeric types callers plausibly pass
// for an integer-like field (including signed types, whose two's
// complement bit pattern is preserved by the uint64 conversion) into
// the raw form the bit primitives operate on.
func toUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case uint32:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint:
		return uint64(x), true
	case int64:
		return uint64(x), true
	case int32:
		return uint64(uint32(x)), true
	case int16:
		return uint64(uint16(x)), true
	case int8:
		return uint64(uint8(x)), true
	case int:
		return uint64(x), true
	case bool:
		if x {
			return 1, true
		}

		return 0, true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	default:
		return 0, false
	}
}

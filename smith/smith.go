// Package smith declares the Smith interface (spec §4.6): the
// contract a code-generation back-end must satisfy to turn a
// validated Protocol Model into target-language artifacts. The core
// never assumes a particular back-end; it only ever talks to this
// interface, treating each concrete target-language emitter as one
// pluggable implementation among others.
package smith

import "github.com/golangee/wiresmith/model"

// Smith is an external code-generation back-end (spec §4.6). A Smith
// MAY choose its own representation details (e.g. how to name union
// arms) but MUST NOT introduce semantic divergence from the codec
// semantics of spec §4.5: field names, variant keys, and the
// endianness parameterization at encode/decode call sites must all be
// preserved.
type Smith interface {
	// EmitTypes emits target-language declarations for every
	// enumeration, structure, union, and alias in m, using only
	// intrinsic target-language constructs.
	EmitTypes(m *model.Model) (string, error)

	// EmitEncoder emits a function that maps a value of the
	// generated type named root to a byte buffer.
	EmitEncoder(m *model.Model, root string) (string, error)

	// EmitDecoder emits the inverse of EmitEncoder.
	EmitDecoder(m *model.Model, root string) (string, error)
}

// Error wraps a back-end-specific failure. Per spec §7 its cause is
// opaque to the core: callers should not switch on Cause, only render
// it.
type Error struct {
	Smith string
	Cause error
}

func (e *Error) Error() string {
	return "smith " + e.Smith + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError wraps cause as an Error attributed to the named back-end.
func NewError(smithName string, cause error) *Error {
	return &Error{Smith: smithName, Cause: cause}
}

// Package wiresmith is the public entry point to this repository: it
// composes token/syntax/model/layout/smith into the language-neutral
// operations of spec §6.3 (parse, validate, layout, generate), so a
// caller gets one Parse/Validate/Compute/Generate surface without
// needing to import any of those packages directly.
package wiresmith

import (
	"github.com/golangee/wiresmith/layout"
	"github.com/golangee/wiresmith/model"
	"github.com/golangee/wiresmith/smith"
	"github.com/golangee/wiresmith/syntax"
)

// Parse turns schema source text into a syntax tree, or the full set
// of parse errors found while recovering across malformed definitions.
func Parse(filename, src string) (*syntax.File, []*syntax.ParseError) {
	return syntax.Parse(filename, src)
}

// Validate turns a syntax tree into a Protocol Model, or the full set
// of validation errors. It is kept separate from Parse, rather than
// folded into one ParseAndValidate, since a caller recovering from
// partial parse errors may still want to validate whatever tree did
// come out the other end.
func Validate(file *syntax.File) (*model.Model, []*model.ValidationError) {
	return model.Validate(file)
}

// Compute lays out the struct addressed by root within m.
func Compute(m *model.Model, root model.Handle) (*layout.Plan, []*layout.Error) {
	return layout.Compute(m, root)
}

// Artifact is the result of a successful Generate call: target-language
// source text for m's declarations, plus an encoder and/or decoder for
// the struct named root, depending on which half opts requested.
type Artifact struct {
	Types   string
	Encoder string
	Decoder string
}

// Generate runs back end s against m to produce an Artifact for the
// struct named root, honoring opts.EmitEncoder/opts.EmitDecoder to
// skip either half (spec §6.3's generate(Model, SmithId, Options)).
// There is no SmithId registry here: with no CLI in scope (spec §1),
// callers already hold a concrete smith.Smith value, the same way a Go
// caller of encoding/json already holds a concrete io.Writer rather
// than naming one by string.
func Generate(s smith.Smith, m *model.Model, root string, opts smith.Options) (Artifact, error) {
	types, err := s.EmitTypes(m)
	if err != nil {
		return Artifact{}, err
	}

	art := Artifact{Types: types}

	if opts.EmitEncoder {
		enc, err := s.EmitEncoder(m, root)
		if err != nil {
			return Artifact{}, err
		}

		art.Encoder = enc
	}

	if opts.EmitDecoder {
		dec, err := s.EmitDecoder(m, root)
		if err != nil {
			return Artifact{}, err
		}

		art.Decoder = dec
	}

	return art, nil
}

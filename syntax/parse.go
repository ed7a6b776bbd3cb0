package syntax

import (
	"errors"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/golangee/wiresmith/token"
)

var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Hex", Pattern: `0x[0-9A-Fa-f]+`},
	{Name: "Bin", Pattern: `0b[01]+`},
	{Name: "Dec", Pattern: `[0-9]+`},
	{Name: "DotDot", Pattern: `\.\.`},
	{Name: "Arrow", Pattern: `=>`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[{}\[\];:,=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var schemaParser = participle.MustBuild[File](
	participle.Lexer(schemaLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// ParseError carries a source span and a human-readable expectation,
// per spec §4.2. It is always a *token.PosError.
type ParseError = token.PosError

// Parse consumes schema source text and produces a raw syntax tree.
// On a grammar violation, Parse recovers to the next top-level
// definition (the closing ";" of the malformed definition at brace
// depth zero) and keeps parsing, so a single file can yield multiple
// ParseErrors in one pass (spec §4.2). Recovered definitions are
// still appended to the returned File, in source order, even when
// some definitions in between were skipped.
func Parse(filename, src string) (*File, []*ParseError) {
	file := &File{}

	var errs []*ParseError

	remaining := src
	lineOffset := 0

	for {
		f := &File{}

		err := schemaParser.ParseString(filename, remaining, f)
		if err == nil {
			file.Definitions = append(file.Definitions, f.Definitions...)

			break
		}

		errs = append(errs, adjustLine(toParseError(err, filename), lineOffset))
		file.Definitions = append(file.Definitions, f.Definitions...)

		errAt := 0

		var perr participle.Error
		if errors.As(err, &perr) {
			errAt = perr.Position().Offset
		}

		// Skip whole definitions until the cut lies past the error, so
		// the malformed definition is the last one skipped.
		skip, ok := 0, true
		for ok && skip <= errAt {
			var n int
			n, ok = recoveryOffset(filename, remaining[skip:])
			skip += n
		}

		if !ok {
			break
		}

		lineOffset += strings.Count(remaining[:skip], "\n")
		remaining = remaining[skip:]

		if strings.TrimSpace(remaining) == "" {
			break
		}
	}

	if len(errs) > 0 {
		return file, errs
	}

	return file, nil
}

// toParseError adapts a raw parse failure into a *ParseError. A
// participle grammar violation is handed to token.FromParticipleError,
// which already knows how to turn a participle.Error's position into
// our own token.Pos; anything else becomes a bare message anchored at
// the start of the file.
func toParseError(err error, filename string) *ParseError {
	var perr participle.Error
	if errors.As(err, &perr) {
		return token.FromParticipleError(perr)
	}

	at := token.Pos{File: filename}

	return token.NewPosError(token.NewNode(at, at), err.Error())
}

// adjustLine corrects the line number of an error produced by parsing
// a suffix of the original source, since each recovery pass restarts
// its own line counter at 1. Column is left as reported: it is exact
// on every line after the first of the recovered slice; on that first
// line (the rest of the line holding the ";" that recoveryOffset cut
// after) it counts from the cut, not from the start of the line.
func adjustLine(e *ParseError, lineOffset int) *ParseError {
	if lineOffset == 0 || len(e.Details) == 0 {
		return e
	}

	adjusted := make([]token.ErrDetail, len(e.Details))

	for i, d := range e.Details {
		begin, end := d.Node.Begin(), d.Node.End()
		begin.Line += lineOffset
		end.Line += lineOffset
		adjusted[i] = token.NewErrDetail(token.NewNode(begin, end), d.Message)
	}

	out := token.NewPosError(adjusted[0].Node, adjusted[0].Message, adjusted[1:]...)
	out.SetCause(e.Cause)
	out.SetHint(e.Hint)

	return out
}

// recoveryOffset scans remaining for the end of the current top-level
// definition (its closing "};" at brace depth zero) and returns the
// byte offset just past it. It returns false if no such boundary
// exists (e.g. an unterminated final definition).
func recoveryOffset(filename, remaining string) (int, bool) {
	lex := token.NewLexer(filename, strings.NewReader(remaining))

	depth := 0
	seenOpen := false

	for {
		tok, err := lex.Token()
		if err != nil {
			return 0, false
		}

		if tok.Kind == token.EOF {
			return 0, false
		}

		if tok.Kind != token.Punct {
			continue
		}

		switch tok.Text {
		case "{":
			depth++
			seenOpen = true
		case "}":
			if depth > 0 {
				depth--
			}
		case ";":
			if seenOpen && depth == 0 {
				return tok.End().Offset, true
			}
		}
	}
}

// Package syntax implements the schema language's parser: a
// participle-driven recursive-descent grammar (spec §6.1) that turns
// schema source text into a raw, name-unresolved syntax tree. Semantic
// rules (cycles, overlap, legality) are not enforced here; see model.
package syntax

import (
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/golangee/wiresmith/token"
)

// wrapPos adapts a participle lexer.Position into our own token.Pos so
// that every syntax node can satisfy token.Node without depending on
// participle outside this package.
func wrapPos(p lexer.Position) token.Pos {
	return token.Pos{File: p.Filename, Line: p.Line, Col: p.Column, Offset: p.Offset}
}

// IntLit is an integer literal in any of the three accepted bases. The
// numeric value is not computed here — only the lexer guarantees the
// shape, width and range checking are model/validator concerns.
type IntLit struct {
	Pos, EndPos lexer.Position
	Text        string `@(Hex|Bin|Dec)`
}

func (n *IntLit) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *IntLit) End() token.Pos   { return wrapPos(n.EndPos) }

// KeyOrRange is either a single uint literal or an inclusive lo..hi range.
type KeyOrRange struct {
	Pos, EndPos lexer.Position
	Lo          *IntLit `@@`
	Hi          *IntLit `(".." @@)?`
}

func (n *KeyOrRange) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *KeyOrRange) End() token.Pos   { return wrapPos(n.EndPos) }

// ArrayDim is one trailing "[N]" or "[]" suffix on a type-ref. Size is
// nil for a dynamic array dimension.
type ArrayDim struct {
	Pos, EndPos lexer.Position
	Size        *IntLit `"[" @@? "]"`
}

func (n *ArrayDim) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *ArrayDim) End() token.Pos   { return wrapPos(n.EndPos) }

// TypeRef names a builtin or user type, optionally followed by one or
// more array dimensions applied outer-to-inner, left to right: T[2][3]
// is an array of 2 elements, each an array of 3 elements of T.
type TypeRef struct {
	Pos, EndPos lexer.Position
	Name        string      `@Ident`
	Dims        []*ArrayDim `@@*`
}

func (n *TypeRef) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *TypeRef) End() token.Pos   { return wrapPos(n.EndPos) }

// Attr is one of the three closed-set field attributes (spec §3.3).
// Exactly one of the three pointers is non-nil.
type Attr struct {
	Pos, EndPos     lexer.Position
	Bits            *IntLit `(  "bits" "=" @@`
	Bytes           *IntLit ` | "bytes" "=" @@`
	DiscriminatedBy *string ` | "discriminated_by" "=" @Ident )`
}

func (n *Attr) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *Attr) End() token.Pos   { return wrapPos(n.EndPos) }

// EnumVariant is one "name = key|range ;" line of an enumeration.
type EnumVariant struct {
	Pos, EndPos lexer.Position
	Name        string      `@Ident "="`
	Key         *KeyOrRange `@@ ";"`
}

func (n *EnumVariant) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *EnumVariant) End() token.Pos   { return wrapPos(n.EndPos) }

// EnumDef is "enum Name { variant* } ;".
type EnumDef struct {
	Pos, EndPos lexer.Position
	Name        string         `"enum" @Ident "{"`
	Variants    []*EnumVariant `@@+ "}" ";"`
}

func (n *EnumDef) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *EnumDef) End() token.Pos   { return wrapPos(n.EndPos) }

// StructField is "[attrs]? name : type ;".
type StructField struct {
	Pos, EndPos lexer.Position
	Attrs       []*Attr  `("[" @@ ("," @@)* "]")?`
	Name        string   `@Ident ":"`
	Type        *TypeRef `@@ ";"`
}

func (n *StructField) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *StructField) End() token.Pos   { return wrapPos(n.EndPos) }

// StructDef is "struct Name { field* } ;".
type StructDef struct {
	Pos, EndPos lexer.Position
	Name        string         `"struct" @Ident "{"`
	Fields      []*StructField `@@+ "}" ";"`
}

func (n *StructDef) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *StructDef) End() token.Pos   { return wrapPos(n.EndPos) }

// UnionArm is "key|range => name : type ;".
type UnionArm struct {
	Pos, EndPos lexer.Position
	Key         *KeyOrRange `@@ "=>"`
	Name        string      `@Ident ":"`
	Type        *TypeRef    `@@ ";"`
}

func (n *UnionArm) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *UnionArm) End() token.Pos   { return wrapPos(n.EndPos) }

// UnionDef is "union Name { arm* } ;".
type UnionDef struct {
	Pos, EndPos lexer.Position
	Name        string      `"union" @Ident "{"`
	Arms        []*UnionArm `@@+ "}" ";"`
}

func (n *UnionDef) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *UnionDef) End() token.Pos   { return wrapPos(n.EndPos) }

// TypeAliasDef is "using Name = type ;".
type TypeAliasDef struct {
	Pos, EndPos lexer.Position
	Name        string   `"using" @Ident "="`
	Target      *TypeRef `@@ ";"`
}

func (n *TypeAliasDef) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *TypeAliasDef) End() token.Pos   { return wrapPos(n.EndPos) }

// Definition is exactly one of the four top-level definition kinds.
type Definition struct {
	Pos, EndPos lexer.Position
	Enum        *EnumDef      `  @@`
	Struct      *StructDef    `| @@`
	Union       *UnionDef     `| @@`
	Alias       *TypeAliasDef `| @@`
}

func (n *Definition) Begin() token.Pos { return wrapPos(n.Pos) }
func (n *Definition) End() token.Pos   { return wrapPos(n.EndPos) }

// File is the root of a parsed schema: a sequence of zero or more
// definitions (comments are elided trivia and never reach the tree).
// An empty or comment-only source parses to a File with no definitions.
type File struct {
	Pos         lexer.Position
	Definitions []*Definition `@@*`
}

func (n *File) Begin() token.Pos { return wrapPos(n.Pos) }

// SPDX-FileCopyrightText: © 2021 The dyml authors <https://github.com/golangee/dyml/blob/main/AUTHORS>
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"io"
	"strings"
	"testing"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []Token
		wantErr bool
	}{
		{
			name: "empty",
			text: "",
		},
		{
			name: "identifier",
			text: "struct",
			want: []Token{{Kind: Ident, Text: "struct"}},
		},
		{
			name: "decimal literal",
			text: "42",
			want: []Token{{Kind: IntLit, Text: "42"}},
		},
		{
			name: "hex literal",
			text: "0x1F",
			want: []Token{{Kind: IntLit, Text: "0x1F"}},
		},
		{
			name: "binary literal",
			text: "0b101",
			want: []Token{{Kind: IntLit, Text: "0b101"}},
		},
		{
			name:    "unterminated hex literal",
			text:    "0x",
			wantErr: true,
		},
		{
			name: "range",
			text: "1..4",
			want: []Token{
				{Kind: IntLit, Text: "1"},
				{Kind: DotDot, Text: ".."},
				{Kind: IntLit, Text: "4"},
			},
		},
		{
			name: "arrow",
			text: "0 => Ping",
			want: []Token{
				{Kind: IntLit, Text: "0"},
				{Kind: Arrow, Text: "=>"},
				{Kind: Ident, Text: "Ping"},
			},
		},
		{
			name: "comment to end of line",
			text: "# a note\nstruct",
			want: []Token{
				{Kind: Comment, Text: "# a note"},
				{Kind: Ident, Text: "struct"},
			},
		},
		{
			name: "punctuation",
			text: "{}[];:,=",
			want: []Token{
				{Kind: Punct, Text: "{"},
				{Kind: Punct, Text: "}"},
				{Kind: Punct, Text: "["},
				{Kind: Punct, Text: "]"},
				{Kind: Punct, Text: ";"},
				{Kind: Punct, Text: ":"},
				{Kind: Punct, Text: ","},
				{Kind: Punct, Text: "="},
			},
		},
		{
			name:    "stray character",
			text:    "struct S { a: uint8 } $",
			want:    nil, // only checked loosely below, stray char comes last
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lex := NewLexer("test.wire", strings.NewReader(test.text))

			var got []Token

			var lastErr error

			for {
				tok, err := lex.Token()
				if err != nil {
					if err == io.EOF {
						break
					}

					lastErr = err

					break
				}

				got = append(got, tok)
			}

			if test.wantErr {
				if lastErr == nil {
					t.Fatalf("expected an error, got none")
				}

				return
			}

			if lastErr != nil {
				t.Fatalf("unexpected error: %v", lastErr)
			}

			if len(got) != len(test.want) {
				t.Fatalf("got %d tokens, want %d: %+v", len(got), len(test.want), got)
			}

			for i := range got {
				if got[i].Kind != test.want[i].Kind || got[i].Text != test.want[i].Text {
					t.Errorf("token %d: got %+v, want %+v", i, got[i], test.want[i])
				}
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	lex := NewLexer("test.wire", strings.NewReader("ab\ncd"))

	tok, err := lex.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tok.Begin().Line != 1 || tok.Begin().Col != 1 {
		t.Errorf("got begin %v, want 1:1", tok.Begin())
	}

	tok, err = lex.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tok.Begin().Line != 2 || tok.Begin().Col != 1 {
		t.Errorf("got begin %v, want 2:1", tok.Begin())
	}
}

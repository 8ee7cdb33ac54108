package position

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestIdentifierAt(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		c      int
		want   string
		wantOK bool
	}{
		{name: "inside identifier", line: "let name_1 = 2", c: 6, want: "name_1", wantOK: true},
		{name: "start of identifier", line: "let name_1 = 2", c: 4, want: "name_1", wantOK: true},
		{name: "on equals sign", line: "let name_1 = 2", c: 11, wantOK: false},
		{name: "just after identifier", line: "foo()", c: 3, want: "foo", wantOK: true},
		{name: "digits count", line: "x = 42", c: 4, want: "42", wantOK: true},
		{name: "negative column", line: "abc", c: -1, wantOK: false},
		{name: "column at length", line: "abc", c: 3, wantOK: false},
		{name: "empty line", line: "", c: 0, wantOK: false},
		{name: "unicode letters", line: "let café = 1", c: 5, want: "café", wantOK: true},
		{name: "code points not bytes", line: "\"é\" + résumé", c: 8, want: "résumé", wantOK: true},
		{name: "underscore only", line: "_ = x", c: 0, want: "_", wantOK: true},
		{name: "between spaces", line: "a  b", c: 2, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IdentifierAt([]rune(tt.line), tt.c)
			if ok != tt.wantOK {
				t.Fatalf("IdentifierAt() ok = %v, want %v (got %q)", ok, tt.wantOK, got)
			}
			if got != tt.want {
				t.Errorf("IdentifierAt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_Identifier(t *testing.T) {
	dir := t.TempDir()
	src := "import Foundation\r\nstruct Greeter {\r\n    func greet() {}\r\n}\r\n"
	if err := os.WriteFile(filepath.Join(dir, "Greeter.swift"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(dir)
	ctx := context.Background()

	tests := []struct {
		name   string
		pos    Position
		want   string
		wantOK bool
	}{
		{name: "relative path", pos: Position{File: "Greeter.swift", Line: 1, Character: 8}, want: "Greeter", wantOK: true},
		{name: "absolute path", pos: Position{File: filepath.Join(dir, "Greeter.swift"), Line: 2, Character: 10}, want: "greet", wantOK: true},
		{name: "carriage return stripped", pos: Position{File: "Greeter.swift", Line: 0, Character: 16}, want: "Foundation", wantOK: true},
		{name: "line out of range", pos: Position{File: "Greeter.swift", Line: 40}, wantOK: false},
		{name: "negative line", pos: Position{File: "Greeter.swift", Line: -1}, wantOK: false},
		{name: "missing file", pos: Position{File: "Nope.swift"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Identifier(ctx, tt.pos)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Identifier() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := NewResolver(t.TempDir()).Identifier(ctx, Position{File: "x.swift"}); ok {
		t.Error("cancelled context should resolve nothing")
	}
}

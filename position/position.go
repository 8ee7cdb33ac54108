// Package position resolves the identifier under a cursor in Swift source.
package position

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ClassicalDude/swift-mcp-server/middleware"
)

// Position is a zero-based cursor in a file. Character counts Unicode code
// points, not bytes.
type Position struct {
	File      string
	Line      int
	Character int
}

// IsIdentifierRune reports whether r can appear in a Swift identifier.
func IsIdentifierRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r)
}

// IdentifierAt returns the maximal run of identifier runes containing column c.
//
// The scan extends right from c and left from c-1, so a cursor sitting on
// the rune right after an identifier still selects it.
func IdentifierAt(line []rune, c int) (string, bool) {
	if c < 0 || c >= len(line) {
		return "", false
	}

	end := c
	for end < len(line) && IsIdentifierRune(line[end]) {
		end++
	}

	start := c
	for start > 0 && IsIdentifierRune(line[start-1]) {
		start--
	}

	if start == end {
		return "", false
	}
	return string(line[start:end]), true
}

// Resolver reads files relative to Root and resolves identifiers in them.
type Resolver struct {
	Root   string
	Logger middleware.Logger
}

// NewResolver creates a resolver rooted at root.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// Path returns the absolute location of file.
func (r *Resolver) Path(file string) string {
	if filepath.IsAbs(file) || r.Root == "" {
		return filepath.Clean(file)
	}
	return filepath.Join(r.Root, file)
}

// Identifier returns the identifier at pos, or false when the file cannot be
// read, the line is out of range, or no identifier sits under the cursor.
func (r *Resolver) Identifier(ctx context.Context, pos Position) (string, bool) {
	if err := ctx.Err(); err != nil {
		return "", false
	}

	path := r.Path(pos.File)
	data, err := os.ReadFile(path)
	if err != nil {
		r.debug("read source failed", middleware.F("file", path), middleware.F("error", err.Error()))
		return "", false
	}

	lines := strings.Split(string(data), "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		r.debug("line out of range", middleware.F("file", path), middleware.F("line", pos.Line), middleware.F("lines", len(lines)))
		return "", false
	}

	line := strings.TrimSuffix(lines[pos.Line], "\r")
	name, ok := IdentifierAt([]rune(line), pos.Character)
	if !ok {
		r.debug("no identifier at position", middleware.F("file", path), middleware.F("line", pos.Line), middleware.F("character", pos.Character))
	}
	return name, ok
}

func (r *Resolver) debug(msg string, fields ...middleware.Field) {
	if r.Logger != nil {
		r.Logger.Debug(msg, fields...)
	}
}

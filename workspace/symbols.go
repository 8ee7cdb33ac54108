package workspace

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ClassicalDude/swift-mcp-server/position"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/provider"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// declPattern matches a declaration keyword and name after any attributes
// and modifiers. Groups: 1 modifiers, 2 keyword, 3 name.
var declPattern = regexp.MustCompile(`^(\s*(?:(?:@\w+(?:\([^)]*\))?|public|private|fileprivate|internal|open|final|static|class|override|mutating|nonmutating|convenience|required|lazy|weak|unowned|indirect|nonisolated|dynamic)(?:\(set\))?\s+)*)(class|struct|enum|protocol|extension|actor|func|var|let|typealias)\s+([A-Za-z_][A-Za-z0-9_]*)`)

var (
	privateModifier = regexp.MustCompile(`\b(?:private|fileprivate)\s`)
	inheritClause   = regexp.MustCompile(`^\s*(?:<[^>]*>)?\s*:\s*([^{]+)`)
	stringLiteral   = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
)

// declaration is one declared name found by the scanner.
type declaration struct {
	name      string
	keyword   string
	container string
	detail    string
	private   bool
	// inherits lists the inheritance clause of type declarations.
	inherits  []string
	file      string
	line      int
	character int
}

func (d declaration) isType() bool {
	return isTypeKeyword(d.keyword)
}

func isTypeKeyword(keyword string) bool {
	switch keyword {
	case "class", "struct", "enum", "protocol", "actor":
		return true
	}
	return false
}

func (d declaration) kind() string {
	switch d.keyword {
	case "func":
		if d.container != "" {
			return "method"
		}
		return "function"
	case "var", "let":
		if d.container != "" {
			return "property"
		}
		return "variable"
	}
	return d.keyword
}

func (d declaration) symbol() provider.SymbolInfo {
	return provider.SymbolInfo{
		Name:          d.name,
		Kind:          d.kind(),
		ContainerName: d.container,
		Detail:        d.detail,
		Location:      provider.Location{URI: d.file, Line: d.line, Character: d.character},
	}
}

// code blanks string literal contents and drops line comments, keeping
// byte offsets of the remaining text intact.
func code(line string) string {
	line = stringLiteral.ReplaceAllStringFunc(line, func(s string) string {
		return `"` + strings.Repeat(" ", len(s)-2) + `"`
	})
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return line
}

type scope struct {
	name  string
	depth int
}

// declarations lists the declarations of f. Members are attributed to the
// innermost enclosing type; locals inside function bodies are skipped.
func declarations(f sourceFile) []declaration {
	var (
		out     []declaration
		stack   []scope
		depth   int
		pending string
	)

	for i, raw := range f.lines {
		src := code(raw)

		container, bodyDepth := "", 0
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			container, bodyDepth = top.name, top.depth
		}

		if m := declPattern.FindStringSubmatchIndex(src); m != nil && depth == bodyDepth {
			d := declaration{
				name:      src[m[6]:m[7]],
				keyword:   src[m[4]:m[5]],
				container: container,
				private:   privateModifier.MatchString(src[m[2]:m[3]]),
				file:      f.path,
				line:      i,
				character: utf8.RuneCountInString(raw[:m[6]]),
			}
			detail := strings.TrimSpace(raw)
			if j := strings.Index(code(detail), "{"); j >= 0 {
				detail = strings.TrimSpace(detail[:j])
			}
			d.detail = detail

			if d.isType() || d.keyword == "extension" {
				if ic := inheritClause.FindStringSubmatch(src[m[7]:]); ic != nil {
					clause := ic[1]
					if w := strings.Index(clause, " where "); w >= 0 {
						clause = clause[:w]
					}
					for _, part := range strings.Split(clause, ",") {
						if part = strings.TrimSpace(part); part != "" {
							d.inherits = append(d.inherits, part)
						}
					}
				}
				pending = d.name
			}
			out = append(out, d)
		}

		opens, closes := strings.Count(src, "{"), strings.Count(src, "}")
		if pending != "" && opens > 0 {
			stack = append(stack, scope{name: pending, depth: depth + 1})
			pending = ""
		}
		depth += opens - closes
		if depth < 0 {
			depth = 0
		}
		for len(stack) > 0 && depth < stack[len(stack)-1].depth {
			stack = stack[:len(stack)-1]
		}
	}
	return out
}

func allDeclarations(t *tree) []declaration {
	var out []declaration
	for _, f := range t.sources {
		out = append(out, declarations(f)...)
	}
	return out
}

// FindSymbols lists declarations in the workspace matching q. Extensions
// are not symbols of their own.
func (w *Workspace) FindSymbols(ctx context.Context, q provider.SymbolQuery) ([]provider.SymbolInfo, error) {
	match := func(string) bool { return true }
	switch {
	case q.UseRegex && q.NamePattern != "":
		re, err := regexp.Compile(q.NamePattern)
		if err != nil {
			return nil, protocol.NewInvalidParams().WithData(value.Object(map[string]value.Value{
				"name_pattern": value.String(err.Error()),
			}))
		}
		match = re.MatchString
	case q.NamePattern != "":
		needle := strings.ToLower(q.NamePattern)
		match = func(name string) bool { return strings.Contains(strings.ToLower(name), needle) }
	}

	t, err := w.scan(ctx, "")
	if err != nil {
		return nil, err
	}

	decls := allDeclarations(t)
	visible := func(d declaration) bool {
		if d.keyword == "extension" || (d.private && !q.IncludePrivate) {
			return false
		}
		return q.Kind == "" || d.kind() == q.Kind
	}

	var (
		out       []provider.SymbolInfo
		inherited = map[string]bool{}
	)
	for _, d := range decls {
		if !visible(d) || !match(d.name) {
			continue
		}
		out = append(out, d.symbol())
		if q.IncludeInherited && d.isType() {
			for _, parent := range d.inherits {
				inherited[parent] = true
			}
		}
	}
	if len(inherited) == 0 {
		return out, nil
	}

	seen := map[provider.Location]bool{}
	for _, s := range out {
		seen[s.Location] = true
	}
	for _, d := range decls {
		if !inherited[d.container] || !visible(d) {
			continue
		}
		if sym := d.symbol(); !seen[sym.Location] {
			seen[sym.Location] = true
			out = append(out, sym)
		}
	}
	return out, nil
}

// occurrences returns the byte offsets of name in line where it stands as
// a whole identifier.
func occurrences(line, name string) []int {
	if name == "" {
		return nil
	}
	var out []int
	for start := 0; start < len(line); {
		i := strings.Index(line[start:], name)
		if i < 0 {
			break
		}
		i += start
		end := i + len(name)
		before, _ := utf8.DecodeLastRuneInString(line[:i])
		after, _ := utf8.DecodeRuneInString(line[end:])
		if (i == 0 || !position.IsIdentifierRune(before)) && (end == len(line) || !position.IsIdentifierRune(after)) {
			out = append(out, i)
		}
		start = end
	}
	return out
}

// FindReferences lists every whole-identifier occurrence of name outside
// comments and string literals.
func (w *Workspace) FindReferences(ctx context.Context, name string) ([]provider.Reference, error) {
	t, err := w.scan(ctx, "")
	if err != nil {
		return nil, err
	}

	var refs []provider.Reference
	for _, f := range t.sources {
		for i, raw := range f.lines {
			for _, off := range occurrences(code(raw), name) {
				refs = append(refs, provider.Reference{
					File:      f.path,
					Line:      i,
					Character: utf8.RuneCountInString(raw[:off]),
					Context:   strings.TrimSpace(raw),
				})
			}
		}
	}
	return refs, nil
}

// Usage categories reported by AnalyzeSymbolUsage.
const (
	usageDeclaration    = "declaration"
	usageCall           = "call"
	usageTypeAnnotation = "type_annotation"
	usageInheritance    = "inheritance"
	usageReference      = "reference"
)

// classify names how the occurrence of name at byte offset off in src is
// used.
func classify(src string, off int, name string, declared bool) string {
	if declared {
		return usageDeclaration
	}
	after := strings.TrimLeft(src[off+len(name):], " \t")
	before := strings.TrimRight(src[:off], " \t")

	if strings.HasPrefix(after, "(") || strings.HasPrefix(after, ".init(") {
		return usageCall
	}
	if fields := strings.Fields(before); len(fields) > 0 {
		switch last := fields[len(fields)-1]; {
		case last == "any", last == "some", strings.HasSuffix(last, "->"):
			return usageTypeAnnotation
		}
	}
	if strings.HasSuffix(before, ":") || strings.HasSuffix(before, ",") {
		if m := declPattern.FindStringSubmatch(src); m != nil && (isTypeKeyword(m[2]) || m[2] == "extension") {
			return usageInheritance
		}
		return usageTypeAnnotation
	}
	return usageReference
}

// AnalyzeSymbolUsage counts and categorises the occurrences of name under
// projectPath.
func (w *Workspace) AnalyzeSymbolUsage(ctx context.Context, projectPath, name string) (provider.SymbolUsage, error) {
	t, err := w.scan(ctx, projectPath)
	if err != nil {
		return provider.SymbolUsage{}, err
	}

	usage := provider.SymbolUsage{Symbol: name, UsagePatterns: map[string]int{}}
	for _, f := range t.sources {
		declaredAt := map[int]int{}
		for _, d := range declarations(f) {
			if d.name == name {
				declaredAt[d.line] = d.character
			}
		}

		seen := false
		for i, raw := range f.lines {
			src := code(raw)
			for _, off := range occurrences(src, name) {
				col, ok := declaredAt[i]
				declared := ok && col == utf8.RuneCountInString(raw[:off])
				usage.UsagePatterns[classify(src, off, name, declared)]++
				usage.TotalReferences++
				seen = true
			}
		}
		if seen {
			usage.UniqueFiles++
		}
	}
	return usage, nil
}

// sortedSymbols orders symbols by name, then location.
func sortedSymbols(symbols []provider.SymbolInfo) []provider.SymbolInfo {
	sort.SliceStable(symbols, func(i, j int) bool {
		a, b := symbols[i], symbols[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Location.URI != b.Location.URI {
			return a.Location.URI < b.Location.URI
		}
		return a.Location.Line < b.Location.Line
	})
	return symbols
}

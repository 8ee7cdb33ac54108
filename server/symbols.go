package server

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ClassicalDude/swift-mcp-server/middleware"
	"github.com/ClassicalDude/swift-mcp-server/provider"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

const (
	noHoverInfo    = "No hover information available"
	formatNotice   = "Document formatting requires external tools (swift-format or SwiftFormat)"
	matchAllSymbol = ""
	regexSyntax    = `.^$+()[]{}|\`
)

func logTool(t ToolName) middleware.Field { return middleware.F("tool", t.String()) }
func logErr(err error) middleware.Field   { return middleware.F("error", err.Error()) }

// normalizeNamePattern turns a user pattern into a provider query pattern.
//
// "", "*" and ".*" match everything. Swift identifiers never contain
// regular expression syntax, so a pattern that does is passed through as an
// unanchored regular expression. Patterns whose only special runes are the
// glob wildcards * and ? become anchored regular expressions; anything else
// is a literal substring.
func normalizeNamePattern(p string) (pattern string, useRegex bool) {
	switch p {
	case "", "*", ".*":
		return matchAllSymbol, false
	}
	if strings.ContainsAny(p, regexSyntax) {
		return p, true
	}
	if !strings.ContainsAny(p, "*?") {
		return p, false
	}

	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range p {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return sb.String(), true
}

// filterByFile keeps symbols declared in file. Relative paths match by
// suffix, absolute paths by containment of the cleaned path.
func filterByFile(symbols []provider.SymbolInfo, file string) []provider.SymbolInfo {
	match := func(uri string) bool { return strings.HasSuffix(uri, file) }
	if filepath.IsAbs(file) {
		cleaned := filepath.Clean(file)
		match = func(uri string) bool { return strings.Contains(uri, cleaned) }
	}

	out := make([]provider.SymbolInfo, 0, len(symbols))
	for _, s := range symbols {
		if match(s.Location.URI) {
			out = append(out, s)
		}
	}
	return out
}

func exactMatches(symbols []provider.SymbolInfo, name string) []provider.SymbolInfo {
	var out []provider.SymbolInfo
	for _, s := range symbols {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

func (s *Server) findSymbols(ctx context.Context, args Arguments) (string, error) {
	file, err := args.String("file_path")
	if err != nil {
		return "", err
	}
	rawPattern, err := args.String("name_pattern")
	if err != nil {
		return "", err
	}
	if s.symbols == nil {
		return "", errProviderMissing
	}

	pattern, useRegex := normalizeNamePattern(rawPattern)
	found, err := s.symbols.FindSymbols(ctx, provider.SymbolQuery{
		NamePattern: pattern,
		UseRegex:    useRegex,
	})
	if err != nil {
		return "", fmt.Errorf("find symbols: %w", err)
	}

	matches := filterByFile(found, file)
	items := make([]value.Value, 0, len(matches))
	for _, sym := range matches {
		items = append(items, sym.Value())
	}
	return value.Array(items...).String(), nil
}

// resolve extracts the identifier under the cursor described by args.
func (s *Server) resolve(ctx context.Context, tool ToolName, args Arguments) (string, bool, error) {
	pos, err := args.Position()
	if err != nil {
		return "", false, err
	}
	name, ok := s.resolver.Identifier(ctx, pos)
	if !ok {
		s.logger.Warn("no symbol at position", logTool(tool),
			middleware.F("file", pos.File), middleware.F("line", pos.Line), middleware.F("character", pos.Character))
		return "", false, nil
	}
	s.logger.Debug("resolved symbol", logTool(tool), middleware.F("symbol", name))
	return name, true, nil
}

func (s *Server) findReferences(ctx context.Context, args Arguments) (string, error) {
	name, ok, err := s.resolve(ctx, ToolFindReferences, args)
	if err != nil {
		return "", err
	}
	if !ok {
		return value.Array().String(), nil
	}
	if s.symbols == nil {
		return "", errProviderMissing
	}

	refs, err := s.symbols.FindReferences(ctx, name)
	if err != nil {
		return "", fmt.Errorf("find references to %s: %w", name, err)
	}

	locations := make([]string, 0, len(refs))
	for _, r := range refs {
		locations = append(locations, fmt.Sprintf("%s:%d:%d", r.File, r.Line, r.Character))
	}
	return value.Strings(locations...).String(), nil
}

// lookup searches for declarations named exactly name, private ones included.
func (s *Server) lookup(ctx context.Context, name string) ([]provider.SymbolInfo, error) {
	if s.symbols == nil {
		return nil, errProviderMissing
	}
	found, err := s.symbols.FindSymbols(ctx, provider.SymbolQuery{
		NamePattern:    name,
		IncludePrivate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", name, err)
	}
	return exactMatches(found, name), nil
}

func (s *Server) getDefinition(ctx context.Context, args Arguments) (string, error) {
	name, ok, err := s.resolve(ctx, ToolGetDefinition, args)
	if err != nil {
		return "", err
	}
	if !ok {
		return value.Array().String(), nil
	}

	defs, err := s.lookup(ctx, name)
	if err != nil {
		return "", err
	}

	locations := make([]string, 0, len(defs))
	for _, d := range defs {
		locations = append(locations, fmt.Sprintf("%s:%d:%d", d.Location.URI, d.Location.Line, d.Location.Character))
	}
	return value.Strings(locations...).String(), nil
}

func (s *Server) getHoverInfo(ctx context.Context, args Arguments) (string, error) {
	name, ok, err := s.resolve(ctx, ToolGetHoverInfo, args)
	if err != nil {
		return "", err
	}
	if !ok {
		return noHoverInfo, nil
	}

	defs, err := s.lookup(ctx, name)
	if err != nil {
		return "", err
	}
	if len(defs) == 0 {
		return noHoverInfo, nil
	}
	return hoverText(defs[0]), nil
}

func hoverText(sym provider.SymbolInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", sym.Kind, sym.Name)
	if sym.ContainerName != "" {
		fmt.Fprintf(&sb, "\nContainer: %s", sym.ContainerName)
	}
	if sym.Detail != "" {
		fmt.Fprintf(&sb, "\n%s", sym.Detail)
	}
	fmt.Fprintf(&sb, "\nLocation: %s:%d", sym.Location.URI, sym.Location.Line)
	return sb.String()
}

func (s *Server) formatDocument(_ context.Context, args Arguments) (string, error) {
	file, err := args.String("file_path")
	if err != nil {
		return "", err
	}
	s.logger.Debug("format document requested", middleware.F("file", s.resolver.Path(file)))
	return formatNotice, nil
}

package workspace

import (
	"context"
	"regexp"

	"github.com/ClassicalDude/swift-mcp-server/provider"
)

var (
	existentialType   = regexp.MustCompile(`\b(?:any|some)\s+[A-Z]\w*`)
	protocolComposite = regexp.MustCompile(`:\s*[A-Z]\w*\s*&\s*[A-Z]\w*`)
	genericConstraint = regexp.MustCompile(`<\s*\w+\s*:\s*\w+|\bwhere\s+\w+\s*:`)
	associatedType    = regexp.MustCompile(`\bassociatedtype\s+\w+`)
)

// adoptionLevel names a POP score band.
func adoptionLevel(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Moderate"
	}
	return "Low"
}

// popScore weighs value types and protocol use into a 0-100 score.
func popScore(a provider.POPAnalysis) int {
	score := 0
	if types := a.StructUsage + a.ClassUsage; types > 0 {
		score += 40 * a.StructUsage / types
	}
	score += min(20, 5*a.ProtocolDefinitions)
	score += min(20, 5*a.ProtocolExtensions)
	score += min(20, 2*a.ProtocolConformances)
	return min(100, score)
}

// AnalyzePOPUsage reports how much the project at projectPath relies on
// protocols and value types.
func (w *Workspace) AnalyzePOPUsage(ctx context.Context, projectPath string) (provider.POPAnalysis, error) {
	t, err := w.scan(ctx, projectPath)
	if err != nil {
		return provider.POPAnalysis{}, err
	}
	decls := allDeclarations(t)

	protocols := map[string]bool{}
	for _, d := range decls {
		if d.keyword == "protocol" {
			protocols[d.name] = true
		}
	}

	a := provider.POPAnalysis{TotalFiles: len(t.sources)}
	for _, d := range decls {
		switch d.keyword {
		case "struct":
			a.StructUsage++
		case "class":
			a.ClassUsage++
		case "protocol":
			a.ProtocolDefinitions++
		case "extension":
			if protocols[d.name] {
				a.ProtocolExtensions++
			}
		}
		if d.isType() || d.keyword == "extension" {
			inherits := d.inherits
			// A class lists its superclass first.
			if d.keyword == "class" && len(inherits) > 0 && !protocols[inherits[0]] {
				inherits = inherits[1:]
			}
			a.ProtocolConformances += len(inherits)
		}
	}

	var composition, generics, associated bool
	for _, f := range t.sources {
		for _, raw := range f.lines {
			src := code(raw)
			a.ProtocolAsTypeUsage += len(existentialType.FindAllString(src, -1))
			composition = composition || protocolComposite.MatchString(src)
			generics = generics || genericConstraint.MatchString(src)
			associated = associated || associatedType.MatchString(src)
		}
	}

	if a.ProtocolExtensions > 0 {
		a.Patterns = append(a.Patterns, "Protocol extensions with default implementations")
	}
	if a.StructUsage > a.ClassUsage {
		a.Patterns = append(a.Patterns, "Value semantics preferred over reference types")
	}
	if composition {
		a.Patterns = append(a.Patterns, "Protocol composition")
	}
	if generics {
		a.Patterns = append(a.Patterns, "Generic constraints")
	}
	if associated {
		a.Patterns = append(a.Patterns, "Associated types")
	}

	if a.ClassUsage > a.StructUsage {
		a.Recommendations = append(a.Recommendations, "Prefer structs for data models")
	}
	if a.ProtocolDefinitions == 0 {
		a.Recommendations = append(a.Recommendations, "Introduce protocols to abstract dependencies")
	} else {
		if a.ProtocolExtensions == 0 {
			a.Recommendations = append(a.Recommendations, "Use protocol extensions to share default implementations")
		}
		if a.ProtocolAsTypeUsage == 0 {
			a.Recommendations = append(a.Recommendations, "Depend on protocol types instead of concrete types")
		}
	}

	a.Score = popScore(a)
	a.AdoptionLevel = adoptionLevel(a.Score)
	return a, nil
}

package workspace

import (
	"context"
	"regexp"
	"strings"

	"github.com/ClassicalDude/swift-mcp-server/provider"
)

var (
	importPattern     = regexp.MustCompile(`^\s*(?:@\w+\s+)?import\s+(\w+)`)
	networkingPattern = regexp.MustCompile(`\bURLSession\b|^\s*import\s+Alamofire\b`)
	viewConformance   = regexp.MustCompile(`\bstruct\s+\w+\s*:[^{]*\bView\b`)
	autoLayoutPattern = regexp.MustCompile(`NSLayoutConstraint|translatesAutoresizingMaskIntoConstraints|\.constraint\(`)
	asyncPattern      = regexp.MustCompile(`\basync\b|\bawait\b`)
	combinePattern    = regexp.MustCompile(`@Published\b|AnyPublisher<|\.sink\s*\{`)
)

type named struct {
	name  string
	count int
}

// dominant returns the name with the highest count, the first on ties, or
// "None" when every count is zero.
func dominant(candidates ...named) string {
	best := named{name: "None"}
	for _, c := range candidates {
		if c.count > best.count {
			best = c
		}
	}
	return best.name
}

// AnalyzeIOSPatterns reports framework imports, UI construction,
// architecture roles and modern language feature use across the workspace.
func (w *Workspace) AnalyzeIOSPatterns(ctx context.Context) (provider.FrameworkAnalysis, error) {
	t, err := w.scan(ctx, "")
	if err != nil {
		return provider.FrameworkAnalysis{}, err
	}

	var a provider.FrameworkAnalysis
	for _, f := range t.sources {
		imports := map[string]bool{}
		networking := false
		for _, raw := range f.lines {
			src := code(raw)
			if m := importPattern.FindStringSubmatch(src); m != nil {
				imports[m[1]] = true
			}
			networking = networking || networkingPattern.MatchString(src)

			if viewConformance.MatchString(src) {
				a.UI.SwiftUIViews++
			}
			if autoLayoutPattern.MatchString(src) {
				a.UI.AutoLayout++
			}
			if asyncPattern.MatchString(src) {
				a.Modern.AsyncAwait++
			}
			if combinePattern.MatchString(src) {
				a.Modern.Combine++
			}
		}

		if imports["UIKit"] {
			a.Usage.UIKit++
		}
		if imports["SwiftUI"] {
			a.Usage.SwiftUI++
		}
		if imports["Foundation"] {
			a.Usage.Foundation++
		}
		if imports["Combine"] {
			a.Usage.Combine++
		}
		if imports["CoreData"] {
			a.Usage.CoreData++
		}
		if networking {
			a.Usage.Networking++
		}
	}

	for _, rel := range t.other {
		if strings.HasSuffix(rel, ".storyboard") {
			a.UI.Storyboards++
		}
	}

	decls := allDeclarations(t)
	rc := countRoles(decls)
	for _, d := range decls {
		if d.keyword == "actor" {
			a.Modern.Actors++
		}
		if d.keyword == "class" && !strings.HasSuffix(d.name, "ViewController") {
			for _, parent := range d.inherits {
				if strings.HasSuffix(parent, "ViewController") {
					rc.viewControllers++
					break
				}
			}
		}
	}
	a.UI.ViewControllers = rc.viewControllers

	a.Usage.Dominant = dominant(
		named{"UIKit", a.Usage.UIKit},
		named{"SwiftUI", a.Usage.SwiftUI},
		named{"Foundation", a.Usage.Foundation},
		named{"Combine", a.Usage.Combine},
		named{"CoreData", a.Usage.CoreData},
	)

	switch {
	case a.UI.SwiftUIViews > a.UI.ViewControllers:
		a.UI.Primary = "SwiftUI"
	case a.UI.ViewControllers > a.UI.SwiftUIViews:
		a.UI.Primary = "UIKit"
	case a.UI.ViewControllers > 0:
		a.UI.Primary = "Mixed"
	default:
		a.UI.Primary = "None"
	}

	a.Architecture = provider.ArchitectureScores{
		MVVM:        rc.viewModels,
		MVP:         rc.presenters,
		VIPER:       min(rc.presenters, rc.interactors, rc.routers),
		Coordinator: rc.coordinators,
	}
	a.Architecture.Dominant = dominant(
		named{"MVVM", a.Architecture.MVVM},
		named{"MVP", a.Architecture.MVP},
		named{"VIPER", a.Architecture.VIPER},
		named{"Coordinator", a.Architecture.Coordinator},
	)

	if a.Modern.AsyncAwait > 0 {
		a.Modern.Score += 40
	}
	if a.Modern.Actors > 0 {
		a.Modern.Score += 30
	}
	if a.Modern.Combine > 0 {
		a.Modern.Score += 30
	}

	if a.Usage.UIKit > 0 && a.Usage.SwiftUI == 0 {
		a.Recommendations = append(a.Recommendations, "Consider SwiftUI for new screens")
	}
	if a.Modern.AsyncAwait == 0 {
		a.Recommendations = append(a.Recommendations, "Adopt async/await for asynchronous code")
	} else if a.Modern.Actors == 0 {
		a.Recommendations = append(a.Recommendations, "Use actors to protect shared mutable state")
	}
	if a.Architecture.Dominant == "None" && len(t.sources) > 0 {
		a.Recommendations = append(a.Recommendations, "Introduce a presentation architecture such as MVVM")
	}
	if a.UI.Storyboards > 0 && a.UI.SwiftUIViews > 0 {
		a.Recommendations = append(a.Recommendations, "Plan the retirement of storyboards as screens move to SwiftUI")
	}
	return a, nil
}

package workspace

import (
	"context"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ClassicalDude/swift-mcp-server/middleware"
	"github.com/ClassicalDude/swift-mcp-server/provider"
)

// maxKeySymbols bounds the symbols captured in a memory snapshot.
const maxKeySymbols = 50

// roleCounts counts type names by architectural role suffix.
type roleCounts struct {
	viewModels      int
	viewControllers int
	presenters      int
	interactors     int
	routers         int
	coordinators    int
	useCases        int
	repositories    int
}

func countRoles(decls []declaration) roleCounts {
	var rc roleCounts
	for _, d := range decls {
		if !d.isType() {
			continue
		}
		switch {
		case strings.HasSuffix(d.name, "ViewModel"):
			rc.viewModels++
		case strings.HasSuffix(d.name, "ViewController"):
			rc.viewControllers++
		case strings.HasSuffix(d.name, "Presenter"):
			rc.presenters++
		case strings.HasSuffix(d.name, "Interactor"):
			rc.interactors++
		case strings.HasSuffix(d.name, "Router"), strings.HasSuffix(d.name, "Wireframe"):
			rc.routers++
		case strings.HasSuffix(d.name, "Coordinator"):
			rc.coordinators++
		case strings.HasSuffix(d.name, "UseCase"):
			rc.useCases++
		case strings.HasSuffix(d.name, "Repository"):
			rc.repositories++
		}
	}
	return rc
}

// modules returns the Swift package targets under Sources/, or the
// top-level directories holding Swift files when there is no Sources/.
func modules(t *tree) []string {
	set := map[string]bool{}
	hasSources := false
	for _, d := range t.dirs {
		if d == "Sources" {
			hasSources = true
		}
		if parent, name := path.Split(d); parent == "Sources/" {
			set[name] = true
		}
	}
	if !hasSources {
		for _, f := range t.sources {
			rel, err := filepath.Rel(t.dir, f.path)
			if err != nil {
				continue
			}
			if top, _, ok := strings.Cut(filepath.ToSlash(rel), "/"); ok {
				set[top] = true
			}
		}
	}
	return sortedKeys(set)
}

// features returns the directories directly below any Features directory.
func features(t *tree) []string {
	set := map[string]bool{}
	for _, d := range t.dirs {
		parent, name := path.Split(d)
		if path.Base(strings.TrimSuffix(parent, "/")) == "Features" {
			set[name] = true
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// detect classifies the architecture of t from type naming and layout.
func detect(t *tree, decls []declaration) provider.ArchitecturePattern {
	rc := countRoles(decls)
	switch {
	case rc.presenters > 0 && rc.interactors > 0 && rc.routers > 0:
		return provider.PatternVIPER
	case rc.useCases > 0 && rc.repositories > 0:
		return provider.PatternCleanArchitecture
	case len(features(t)) > 0:
		return provider.PatternFeaturesBased
	case rc.viewModels > 0:
		return provider.PatternMVVM
	case len(modules(t)) > 1 && t.hasFile(manifestFile):
		return provider.PatternModular
	case rc.viewControllers > 0:
		return provider.PatternMVC
	}
	return provider.PatternCustom
}

func (w *Workspace) analyze(ctx context.Context, t *tree, decls []declaration) provider.ProjectAnalysis {
	analysis := provider.ProjectAnalysis{
		ProjectName:  filepath.Base(t.dir),
		Path:         t.dir,
		Architecture: detect(t, decls),
		Modules:      modules(t),
		Features:     features(t),
		Metrics: provider.ProjectMetrics{
			TotalFiles: len(t.sources),
			TotalLines: t.lineCount(),
		},
	}

	h, err := history(ctx, t.dir)
	if err != nil {
		w.logger.Debug("version control history unavailable", middleware.F("dir", t.dir), middleware.F("error", err.Error()))
	}
	analysis.History = h
	return analysis
}

// AnalyzeProject summarises the project at projectPath.
func (w *Workspace) AnalyzeProject(ctx context.Context, projectPath string) (provider.ProjectAnalysis, error) {
	t, err := w.scan(ctx, projectPath)
	if err != nil {
		return provider.ProjectAnalysis{}, err
	}
	return w.analyze(ctx, t, allDeclarations(t)), nil
}

// DetectArchitecture classifies the project at projectPath.
func (w *Workspace) DetectArchitecture(ctx context.Context, projectPath string) (provider.ArchitecturePattern, error) {
	t, err := w.scan(ctx, projectPath)
	if err != nil {
		return "", err
	}
	return detect(t, allDeclarations(t)), nil
}

// codePatterns are recognisable idioms reported in project memory.
var codePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Singleton", regexp.MustCompile(`static\s+(?:let|var)\s+shared\b`)},
	{"Delegation", regexp.MustCompile(`protocol\s+\w+Delegate\b`)},
	{"Observer", regexp.MustCompile(`NotificationCenter\.default`)},
	{"Reactive Streams", regexp.MustCompile(`@Published\b|AnyPublisher<`)},
	{"Async/Await", regexp.MustCompile(`\basync\b`)},
	{"Dependency Injection", regexp.MustCompile(`init\([^)]*:\s*\w*(?:Protocol|Service|Repository|Client)\b`)},
	{"Result Type", regexp.MustCompile(`\bResult<`)},
}

func detectCodePatterns(t *tree) []string {
	var found []string
	for _, p := range codePatterns {
	search:
		for _, f := range t.sources {
			for _, line := range f.lines {
				if p.re.MatchString(code(line)) {
					found = append(found, p.name)
					break search
				}
			}
		}
	}
	return found
}

// CreateProjectMemory snapshots the analysis, key type declarations and
// idioms of the project at projectPath.
func (w *Workspace) CreateProjectMemory(ctx context.Context, projectPath string) (provider.ProjectMemory, error) {
	t, err := w.scan(ctx, projectPath)
	if err != nil {
		return provider.ProjectMemory{}, err
	}
	decls := allDeclarations(t)

	var keys []provider.SymbolInfo
	for _, d := range decls {
		if d.isType() && d.container == "" && !d.private {
			keys = append(keys, d.symbol())
		}
	}
	keys = sortedSymbols(keys)
	if len(keys) > maxKeySymbols {
		keys = keys[:maxKeySymbols]
	}

	return provider.ProjectMemory{
		Analysis:     w.analyze(ctx, t, decls),
		KeySymbols:   keys,
		CodePatterns: detectCodePatterns(t),
		LastUpdated:  w.now(),
	}, nil
}

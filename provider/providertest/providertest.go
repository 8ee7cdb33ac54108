// Package providertest provides configurable in-memory providers for tests.
package providertest

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/ClassicalDude/swift-mcp-server/provider"
)

// Fake implements every provider interface except Memory from canned data.
type Fake struct {
	Symbols    []provider.SymbolInfo
	References []provider.Reference
	Usage      provider.SymbolUsage
	Analysis   provider.ProjectAnalysis
	Pattern    provider.ArchitecturePattern
	Plan       provider.MigrationPlan
	Memory     provider.ProjectMemory
	POP        provider.POPAnalysis
	Docs       provider.DocumentationResult
	Frameworks provider.FrameworkAnalysis

	// Err, when set, is returned by every call.
	Err error
	// Block, when non-nil, makes every call wait until it is closed or the
	// context is done.
	Block chan struct{}
	// PanicWith, when non-nil, makes every call panic with it.
	PanicWith any

	mu      sync.Mutex
	calls   []string
	queries []provider.SymbolQuery
}

var (
	_ provider.SymbolSearch      = (*Fake)(nil)
	_ provider.ProjectAnalyzer   = (*Fake)(nil)
	_ provider.Documentation     = (*Fake)(nil)
	_ provider.FrameworkAnalyzer = (*Fake)(nil)
	_ provider.Templates         = (*Fake)(nil)
)

// Calls returns the names of the methods invoked so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Queries returns the symbol queries received so far.
func (f *Fake) Queries() []provider.SymbolQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.SymbolQuery(nil), f.queries...)
}

func (f *Fake) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()

	if f.PanicWith != nil {
		panic(f.PanicWith)
	}
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.Err
}

// FindSymbols filters Symbols by the query's name pattern.
func (f *Fake) FindSymbols(ctx context.Context, q provider.SymbolQuery) ([]provider.SymbolInfo, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if err := f.enter(ctx, "FindSymbols"); err != nil {
		return nil, err
	}

	match := func(name string) bool { return strings.Contains(name, q.NamePattern) }
	if q.UseRegex && q.NamePattern != "" {
		re, err := regexp.Compile(q.NamePattern)
		if err != nil {
			return nil, err
		}
		match = re.MatchString
	}

	var out []provider.SymbolInfo
	for _, s := range f.Symbols {
		if match(s.Name) {
			out = append(out, s)
		}
	}
	return out, nil
}

// FindReferences returns References whose context mentions name.
func (f *Fake) FindReferences(ctx context.Context, name string) ([]provider.Reference, error) {
	if err := f.enter(ctx, "FindReferences"); err != nil {
		return nil, err
	}
	var out []provider.Reference
	for _, r := range f.References {
		if r.Context == "" || strings.Contains(r.Context, name) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *Fake) AnalyzeSymbolUsage(ctx context.Context, projectPath, name string) (provider.SymbolUsage, error) {
	if err := f.enter(ctx, "AnalyzeSymbolUsage"); err != nil {
		return provider.SymbolUsage{}, err
	}
	usage := f.Usage
	usage.Symbol = name
	return usage, nil
}

func (f *Fake) AnalyzeProject(ctx context.Context, projectPath string) (provider.ProjectAnalysis, error) {
	if err := f.enter(ctx, "AnalyzeProject"); err != nil {
		return provider.ProjectAnalysis{}, err
	}
	return f.Analysis, nil
}

func (f *Fake) DetectArchitecture(ctx context.Context, projectPath string) (provider.ArchitecturePattern, error) {
	if err := f.enter(ctx, "DetectArchitecture"); err != nil {
		return "", err
	}
	return f.Pattern, nil
}

func (f *Fake) GenerateMigrationPlan(ctx context.Context, projectPath string, target provider.ArchitecturePattern) (provider.MigrationPlan, error) {
	if err := f.enter(ctx, "GenerateMigrationPlan"); err != nil {
		return provider.MigrationPlan{}, err
	}
	plan := f.Plan
	plan.To = target
	return plan, nil
}

func (f *Fake) CreateProjectMemory(ctx context.Context, projectPath string) (provider.ProjectMemory, error) {
	if err := f.enter(ctx, "CreateProjectMemory"); err != nil {
		return provider.ProjectMemory{}, err
	}
	return f.Memory, nil
}

func (f *Fake) AnalyzePOPUsage(ctx context.Context, projectPath string) (provider.POPAnalysis, error) {
	if err := f.enter(ctx, "AnalyzePOPUsage"); err != nil {
		return provider.POPAnalysis{}, err
	}
	return f.POP, nil
}

func (f *Fake) GenerateProjectDocumentation(ctx context.Context) (provider.DocumentationResult, error) {
	if err := f.enter(ctx, "GenerateProjectDocumentation"); err != nil {
		return provider.DocumentationResult{}, err
	}
	return f.Docs, nil
}

func (f *Fake) AnalyzeIOSPatterns(ctx context.Context) (provider.FrameworkAnalysis, error) {
	if err := f.enter(ctx, "AnalyzeIOSPatterns"); err != nil {
		return provider.FrameworkAnalysis{}, err
	}
	return f.Frameworks, nil
}

// GenerateTemplate reports a single generated file named after the template.
func (f *Fake) GenerateTemplate(ctx context.Context, kind provider.TemplateType, name string, opts provider.TemplateOptions) (provider.TemplateResult, error) {
	if err := f.enter(ctx, "GenerateTemplate"); err != nil {
		return provider.TemplateResult{}, err
	}
	return provider.TemplateResult{
		Type:           kind,
		Name:           name,
		GeneratedFiles: []string{name + ".swift"},
		Instructions:   []string{"Add " + name + ".swift to your target"},
	}, nil
}

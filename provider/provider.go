// Package provider defines the collaborators the server delegates tool work
// to: symbol search, project analysis, project memory, documentation,
// framework analysis and template generation.
//
// Implementations live elsewhere (see the workspace and memory packages);
// the server only depends on these interfaces. Every method takes a context
// and must return promptly once it is cancelled.
//
// Implementations report recognised absences as *protocol.Error values of
// kind ToolNotFound, ResourceNotFound or InvalidParams. Any other error is
// surfaced to clients as an internal error.
package provider

import "context"

// SymbolSearch finds symbols and their references in a workspace.
type SymbolSearch interface {
	FindSymbols(ctx context.Context, q SymbolQuery) ([]SymbolInfo, error)
	FindReferences(ctx context.Context, name string) ([]Reference, error)
	AnalyzeSymbolUsage(ctx context.Context, projectPath, name string) (SymbolUsage, error)
}

// ProjectAnalyzer inspects the structure of a project on disk.
type ProjectAnalyzer interface {
	AnalyzeProject(ctx context.Context, projectPath string) (ProjectAnalysis, error)
	DetectArchitecture(ctx context.Context, projectPath string) (ArchitecturePattern, error)
	GenerateMigrationPlan(ctx context.Context, projectPath string, target ArchitecturePattern) (MigrationPlan, error)
	CreateProjectMemory(ctx context.Context, projectPath string) (ProjectMemory, error)
	AnalyzePOPUsage(ctx context.Context, projectPath string) (POPAnalysis, error)
}

// Memory caches analysis results and learns architecture patterns across calls.
type Memory interface {
	CacheAnalysis(ctx context.Context, key string, record AnalysisRecord) error
	// CachedAnalysis reports false when nothing is stored under key.
	CachedAnalysis(ctx context.Context, key string) (AnalysisRecord, bool, error)
	MostCommonPatterns(ctx context.Context) ([]PatternCount, error)
	RecordPattern(ctx context.Context, pattern ArchitecturePattern) error
	Evolution(ctx context.Context) (Evolution, error)
}

// Documentation generates project documentation into the workspace.
type Documentation interface {
	GenerateProjectDocumentation(ctx context.Context) (DocumentationResult, error)
}

// FrameworkAnalyzer reports iOS framework and UI pattern usage.
type FrameworkAnalyzer interface {
	AnalyzeIOSPatterns(ctx context.Context) (FrameworkAnalysis, error)
}

// Templates writes code templates into the workspace.
type Templates interface {
	GenerateTemplate(ctx context.Context, kind TemplateType, name string, opts TemplateOptions) (TemplateResult, error)
}

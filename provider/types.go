package provider

import (
	"time"

	"github.com/ClassicalDude/swift-mcp-server/value"
)

// Location points at a place in a source file.
type Location struct {
	URI       string
	Line      int
	Character int
}

// Value renders the location.
func (l Location) Value() value.Value {
	return value.Object(map[string]value.Value{
		"uri":       value.String(l.URI),
		"line":      value.Int(int64(l.Line)),
		"character": value.Int(int64(l.Character)),
	})
}

// SymbolQuery selects symbols by name.
type SymbolQuery struct {
	// NamePattern is a substring, or a regular expression when UseRegex is
	// set. Empty matches every symbol.
	NamePattern    string
	Kind           string
	UseRegex       bool
	IncludePrivate bool
	// IncludeInherited adds the members matched types inherit from the
	// protocols and classes in their inheritance clause.
	IncludeInherited bool
}

// SymbolInfo describes a declared symbol.
type SymbolInfo struct {
	Name          string
	Kind          string
	ContainerName string
	Detail        string
	Location      Location
}

// Value renders the symbol; empty container and detail are omitted.
func (s SymbolInfo) Value() value.Value {
	obj := map[string]value.Value{
		"name":     value.String(s.Name),
		"kind":     value.String(s.Kind),
		"location": s.Location.Value(),
	}
	if s.ContainerName != "" {
		obj["containerName"] = value.String(s.ContainerName)
	}
	if s.Detail != "" {
		obj["detail"] = value.String(s.Detail)
	}
	return value.Object(obj)
}

// Reference is one occurrence of a symbol name.
type Reference struct {
	File      string
	Line      int
	Character int
	Context   string
}

// SymbolUsage summarises where a symbol is used.
type SymbolUsage struct {
	Symbol          string
	TotalReferences int
	UniqueFiles     int
	// UsagePatterns counts occurrences by usage category, e.g. "call".
	UsagePatterns map[string]int
}

// ProjectMetrics holds size figures for a project.
type ProjectMetrics struct {
	TotalFiles int
	TotalLines int
}

// VCSHistory holds version control facts for a project.
type VCSHistory struct {
	Branch       string
	Commits      int
	LastCommit   string
	LastCommitAt time.Time
}

// ProjectAnalysis is the result of analysing a project.
type ProjectAnalysis struct {
	ProjectName  string
	Path         string
	Architecture ArchitecturePattern
	Modules      []string
	Features     []string
	Metrics      ProjectMetrics
	// History is nil when the project is not under version control.
	History *VCSHistory
}

// MigrationStep is one step of a migration plan.
type MigrationStep struct {
	Title       string
	Description string
}

// MigrationPlan describes how to move a project between architectures.
type MigrationPlan struct {
	From            ArchitecturePattern
	To              ArchitecturePattern
	Steps           []MigrationStep
	EstimatedEffort string
	Risks           []string
	Benefits        []string
}

// ProjectMemory is a snapshot of what is known about a project.
type ProjectMemory struct {
	Analysis     ProjectAnalysis
	KeySymbols   []SymbolInfo
	CodePatterns []string
	LastUpdated  time.Time
}

// POPAnalysis reports protocol-oriented programming adoption.
type POPAnalysis struct {
	TotalFiles           int
	Score                int
	AdoptionLevel        string
	StructUsage          int
	ClassUsage           int
	ProtocolDefinitions  int
	ProtocolExtensions   int
	ProtocolConformances int
	ProtocolAsTypeUsage  int
	Patterns             []string
	Recommendations      []string
}

// AnalysisRecord is a cached analysis result.
type AnalysisRecord struct {
	ID           string
	Timestamp    time.Time
	AnalysisType string
	Data         []byte
	Checksum     string
}

// PatternCount is how often an architecture pattern was observed.
type PatternCount struct {
	Pattern ArchitecturePattern
	Count   int
}

// Evolution summarises the state of project memory.
type Evolution struct {
	CachedAnalyses      int
	DistinctPatterns    int
	PatternObservations int
	// LastActivity is zero when memory is empty.
	LastActivity time.Time
}

// APIKind classifies a documented declaration.
type APIKind string

const (
	APIClass    APIKind = "class"
	APIStruct   APIKind = "struct"
	APIEnum     APIKind = "enum"
	APIProtocol APIKind = "protocol"
	APIFunction APIKind = "function"
)

// APIItem is one documented declaration.
type APIItem struct {
	Name string
	Kind APIKind
	File string
}

// ProjectStructure describes the documented project.
type ProjectStructure struct {
	Name            string
	Type            string
	SwiftFileCount  int
	HasPackageSwift bool
}

// DocumentationResult is the outcome of documentation generation.
type DocumentationResult struct {
	GeneratedFiles []string
	Project        ProjectStructure
	API            []APIItem
}

// CountAPI returns the number of documented items of kind k.
func (d DocumentationResult) CountAPI(k APIKind) int {
	n := 0
	for _, item := range d.API {
		if item.Kind == k {
			n++
		}
	}
	return n
}

// FrameworkUsage counts framework imports.
type FrameworkUsage struct {
	UIKit      int
	SwiftUI    int
	Foundation int
	Combine    int
	CoreData   int
	Networking int
	Dominant   string
}

// UIPatterns describes how the UI layer is built.
type UIPatterns struct {
	ViewControllers int
	SwiftUIViews    int
	Storyboards     int
	AutoLayout      int
	Primary         string
}

// ArchitectureScores rates UI architecture patterns.
type ArchitectureScores struct {
	MVVM        int
	MVP         int
	VIPER       int
	Coordinator int
	Dominant    string
}

// ModernFeatures counts modern Swift language feature usage.
type ModernFeatures struct {
	AsyncAwait int
	Actors     int
	Combine    int
	Score      int
}

// FrameworkAnalysis is the result of iOS framework analysis.
type FrameworkAnalysis struct {
	Usage           FrameworkUsage
	UI              UIPatterns
	Architecture    ArchitectureScores
	Modern          ModernFeatures
	Recommendations []string
}

// TemplateOptions customise generated templates.
type TemplateOptions struct {
	Description string
}

// TemplateResult is the outcome of template generation.
type TemplateResult struct {
	Type           TemplateType
	Name           string
	GeneratedFiles []string
	Instructions   []string
}

package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/middleware"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/provider"
)

// writeBullets writes one "- item" line per item, or empty when there are none.
func writeBullets(sb *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		sb.WriteString(empty)
		return
	}
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(item)
	}
}

// rememberPattern records a detected architecture. Memory failures are
// logged and never fail the tool.
func (s *Server) rememberPattern(ctx context.Context, pattern provider.ArchitecturePattern) {
	if s.memory == nil || pattern == "" {
		return
	}
	if err := s.memory.RecordPattern(ctx, pattern); err != nil {
		s.logger.Warn("record architecture pattern failed",
			middleware.F("pattern", string(pattern)), logErr(err))
	}
}

func (s *Server) analyzeProject(ctx context.Context, args Arguments) (string, error) {
	path, err := args.String("project_path")
	if err != nil {
		return "", err
	}
	if s.projects == nil {
		return "", errProviderMissing
	}

	analysis, err := s.projects.AnalyzeProject(ctx, path)
	if err != nil {
		return "", fmt.Errorf("analyze project %s: %w", path, err)
	}
	s.rememberPattern(ctx, analysis.Architecture)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Project Analysis for: %s\n", path)
	fmt.Fprintf(&sb, "Architecture: %s\n", analysis.Architecture)
	fmt.Fprintf(&sb, "Modules: %d\n", len(analysis.Modules))
	fmt.Fprintf(&sb, "Features: %d\n", len(analysis.Features))
	fmt.Fprintf(&sb, "Metrics: %d files, %d lines", analysis.Metrics.TotalFiles, analysis.Metrics.TotalLines)
	if h := analysis.History; h != nil {
		fmt.Fprintf(&sb, "\nHistory: %d commits on %s", h.Commits, h.Branch)
		if h.LastCommit != "" {
			fmt.Fprintf(&sb, ", last %s at %s", shortHash(h.LastCommit), h.LastCommitAt.UTC().Format(time.RFC3339))
		}
	}
	return sb.String(), nil
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

func (s *Server) detectArchitecture(ctx context.Context, args Arguments) (string, error) {
	path, err := args.String("project_path")
	if err != nil {
		return "", err
	}
	if s.projects == nil {
		return "", errProviderMissing
	}

	pattern, err := s.projects.DetectArchitecture(ctx, path)
	if err != nil {
		return "", fmt.Errorf("detect architecture of %s: %w", path, err)
	}
	s.rememberPattern(ctx, pattern)
	return string(pattern), nil
}

func (s *Server) analyzeSymbolUsage(ctx context.Context, args Arguments) (string, error) {
	path, err := args.String("project_path")
	if err != nil {
		return "", err
	}
	name, err := args.String("symbol_name")
	if err != nil {
		return "", err
	}
	if s.symbols == nil {
		return "", errProviderMissing
	}

	usage, err := s.symbols.AnalyzeSymbolUsage(ctx, path, name)
	if err != nil {
		return "", fmt.Errorf("analyze usage of %s: %w", name, err)
	}

	patterns := make([]string, 0, len(usage.UsagePatterns))
	for p := range usage.UsagePatterns {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Symbol Usage Analysis for: %s\n", name)
	fmt.Fprintf(&sb, "Total occurrences: %d\n", usage.TotalReferences)
	fmt.Fprintf(&sb, "Files containing symbol: %d\n", usage.UniqueFiles)
	fmt.Fprintf(&sb, "Usage patterns: %s", strings.Join(patterns, ", "))
	return sb.String(), nil
}

func (s *Server) createProjectMemory(ctx context.Context, args Arguments) (string, error) {
	path, err := args.String("project_path")
	if err != nil {
		return "", err
	}
	if s.projects == nil {
		return "", errProviderMissing
	}

	mem, err := s.projects.CreateProjectMemory(ctx, path)
	if err != nil {
		return "", fmt.Errorf("create project memory for %s: %w", path, err)
	}
	s.rememberPattern(ctx, mem.Analysis.Architecture)

	var sb strings.Builder
	sb.WriteString("Project Memory Created:\n")
	fmt.Fprintf(&sb, "Project: %s\n", mem.Analysis.ProjectName)
	fmt.Fprintf(&sb, "Architecture: %s\n", mem.Analysis.Architecture)
	fmt.Fprintf(&sb, "Key Symbols: %d symbols captured\n", len(mem.KeySymbols))
	fmt.Fprintf(&sb, "Code Patterns: %d patterns identified\n", len(mem.CodePatterns))
	fmt.Fprintf(&sb, "Last Updated: %s", mem.LastUpdated.UTC().Format(time.RFC3339))
	return sb.String(), nil
}

func (s *Server) generateMigrationPlan(ctx context.Context, args Arguments) (string, error) {
	path, err := args.String("project_path")
	if err != nil {
		return "", err
	}
	targetName, err := args.String("target_architecture")
	if err != nil {
		return "", err
	}
	target, ok := provider.ParseArchitecturePattern(targetName)
	if !ok {
		return "", invalidArgument("target_architecture", "unknown architecture pattern")
	}
	if s.projects == nil {
		return "", errProviderMissing
	}

	plan, err := s.projects.GenerateMigrationPlan(ctx, path, target)
	if err != nil {
		return "", fmt.Errorf("plan migration to %s: %w", target, err)
	}

	first := plan.Steps
	if len(first) > 3 {
		first = first[:3]
	}
	steps := make([]string, 0, len(first))
	for _, step := range first {
		steps = append(steps, step.Title+": "+step.Description)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Migration Plan from %s to %s:\n\n", plan.From, plan.To)
	fmt.Fprintf(&sb, "Steps: %d migration steps\n", len(plan.Steps))
	fmt.Fprintf(&sb, "Estimated effort: %s\n", plan.EstimatedEffort)
	fmt.Fprintf(&sb, "Risks: %d identified\n", len(plan.Risks))
	fmt.Fprintf(&sb, "Benefits: %d expected benefits\n\n", len(plan.Benefits))
	sb.WriteString("First Steps:\n")
	writeBullets(&sb, steps, "None")
	return sb.String(), nil
}

func (s *Server) analyzePOPUsage(ctx context.Context, args Arguments) (string, error) {
	path, err := args.String("project_path")
	if err != nil {
		return "", err
	}
	if s.projects == nil {
		return "", errProviderMissing
	}

	pop, err := s.projects.AnalyzePOPUsage(ctx, path)
	if err != nil {
		return "", fmt.Errorf("analyze POP usage of %s: %w", path, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Protocol-Oriented Programming Analysis for: %s\n\n", path)
	sb.WriteString("Overview:\n")
	fmt.Fprintf(&sb, "- Total Swift files: %d\n", pop.TotalFiles)
	fmt.Fprintf(&sb, "- POP Score: %d/100 (%s)\n", pop.Score, pop.AdoptionLevel)
	fmt.Fprintf(&sb, "- Struct vs Class ratio: %d:%d\n\n", pop.StructUsage, pop.ClassUsage)
	sb.WriteString("Protocol Usage:\n")
	fmt.Fprintf(&sb, "- Protocol definitions: %d\n", pop.ProtocolDefinitions)
	fmt.Fprintf(&sb, "- Protocol extensions: %d\n", pop.ProtocolExtensions)
	fmt.Fprintf(&sb, "- Protocol conformances: %d\n", pop.ProtocolConformances)
	fmt.Fprintf(&sb, "- Protocol as types: %d\n\n", pop.ProtocolAsTypeUsage)
	sb.WriteString("POP Patterns Found:\n")
	writeBullets(&sb, pop.Patterns, "None detected")
	sb.WriteString("\n\nRecommendations:\n")
	writeBullets(&sb, pop.Recommendations, "None")
	return sb.String(), nil
}

func (s *Server) intelligentProjectMemory(ctx context.Context, args Arguments) (string, error) {
	action, err := args.String("action")
	if err != nil {
		return "", err
	}
	if s.memory == nil {
		return "", errProviderMissing
	}

	switch action {
	case memoryActionCache:
		key, err := args.String("key")
		if err != nil {
			return "", err
		}
		return s.cacheAnalysis(ctx, key)
	case memoryActionRetrieve:
		key, err := args.String("key")
		if err != nil {
			return "", err
		}
		return s.retrieveAnalysis(ctx, key)
	case memoryActionLearnPatterns:
		return s.learnedPatterns(ctx)
	case memoryActionGetEvolution:
		return s.evolution(ctx)
	default:
		return "", protocol.NewInvalidParams()
	}
}

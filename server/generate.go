package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/memory"
	"github.com/ClassicalDude/swift-mcp-server/provider"
)

const genericAnalysisType = "generic_analysis"

func (s *Server) cacheAnalysis(ctx context.Context, key string) (string, error) {
	record := memory.NewRecord(genericAnalysisType, []byte("analysis_data"), s.now())
	if err := s.memory.CacheAnalysis(ctx, key, record); err != nil {
		return "", fmt.Errorf("cache analysis %q: %w", key, err)
	}
	return "Analysis cached for key: " + key, nil
}

func (s *Server) retrieveAnalysis(ctx context.Context, key string) (string, error) {
	record, ok, err := s.memory.CachedAnalysis(ctx, key)
	if err != nil {
		return "", fmt.Errorf("retrieve analysis %q: %w", key, err)
	}
	if !ok {
		return "No cached analysis found for key: " + key, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Cached Analysis for key: %s\n", key)
	fmt.Fprintf(&sb, "- Timestamp: %s\n", record.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Type: %s\n", record.AnalysisType)
	fmt.Fprintf(&sb, "- Checksum: %s", record.Checksum)
	return sb.String(), nil
}

func (s *Server) learnedPatterns(ctx context.Context) (string, error) {
	counts, err := s.memory.MostCommonPatterns(ctx)
	if err != nil {
		return "", fmt.Errorf("learned patterns: %w", err)
	}

	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf("%s: %d occurrences", c.Pattern, c.Count))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Learned Patterns (%d total):\n", len(counts))
	writeBullets(&sb, lines, "No patterns recorded yet")
	return sb.String(), nil
}

func (s *Server) evolution(ctx context.Context) (string, error) {
	ev, err := s.memory.Evolution(ctx)
	if err != nil {
		return "", fmt.Errorf("memory evolution: %w", err)
	}

	last := "never"
	if !ev.LastActivity.IsZero() {
		last = ev.LastActivity.UTC().Format(time.RFC3339)
	}

	var sb strings.Builder
	sb.WriteString("Project Evolution:\n")
	fmt.Fprintf(&sb, "- Total cached analyses: %d\n", ev.CachedAnalyses)
	fmt.Fprintf(&sb, "- Distinct patterns learned: %d\n", ev.DistinctPatterns)
	fmt.Fprintf(&sb, "- Pattern observations: %d\n", ev.PatternObservations)
	fmt.Fprintf(&sb, "- Last activity: %s", last)
	return sb.String(), nil
}

func (s *Server) generateDocumentation(ctx context.Context, _ Arguments) (string, error) {
	if s.docs == nil {
		return "", errProviderMissing
	}

	result, err := s.docs.GenerateProjectDocumentation(ctx)
	if err != nil {
		return "", fmt.Errorf("generate documentation: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Documentation Generated Successfully!\n\n")
	sb.WriteString("Generated Files:\n")
	writeBullets(&sb, result.GeneratedFiles, "None")
	sb.WriteString("\n\nProject Structure:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", result.Project.Name)
	fmt.Fprintf(&sb, "- Type: %s\n", result.Project.Type)
	fmt.Fprintf(&sb, "- Swift files: %d\n", result.Project.SwiftFileCount)
	fmt.Fprintf(&sb, "- Has Package.swift: %t\n\n", result.Project.HasPackageSwift)
	sb.WriteString("API Documentation:\n")
	fmt.Fprintf(&sb, "- Total API items: %d\n", len(result.API))
	fmt.Fprintf(&sb, "- Classes: %d\n", result.CountAPI(provider.APIClass))
	fmt.Fprintf(&sb, "- Structs: %d\n", result.CountAPI(provider.APIStruct))
	fmt.Fprintf(&sb, "- Functions: %d", result.CountAPI(provider.APIFunction))
	return sb.String(), nil
}

func (s *Server) analyzeIOSFrameworks(ctx context.Context, _ Arguments) (string, error) {
	if s.frameworks == nil {
		return "", errProviderMissing
	}

	r, err := s.frameworks.AnalyzeIOSPatterns(ctx)
	if err != nil {
		return "", fmt.Errorf("analyze iOS frameworks: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("iOS Framework Analysis Results\n\n")
	sb.WriteString("Framework Usage:\n")
	fmt.Fprintf(&sb, "- UIKit: %d imports\n", r.Usage.UIKit)
	fmt.Fprintf(&sb, "- SwiftUI: %d imports\n", r.Usage.SwiftUI)
	fmt.Fprintf(&sb, "- Foundation: %d imports\n", r.Usage.Foundation)
	fmt.Fprintf(&sb, "- Combine: %d imports\n", r.Usage.Combine)
	fmt.Fprintf(&sb, "- Core Data: %d imports\n", r.Usage.CoreData)
	fmt.Fprintf(&sb, "- Networking: %d imports\n", r.Usage.Networking)
	fmt.Fprintf(&sb, "- Dominant framework: %s\n\n", r.Usage.Dominant)
	sb.WriteString("UI Patterns:\n")
	fmt.Fprintf(&sb, "- View Controllers: %d\n", r.UI.ViewControllers)
	fmt.Fprintf(&sb, "- SwiftUI Views: %d\n", r.UI.SwiftUIViews)
	fmt.Fprintf(&sb, "- Storyboard usage: %d\n", r.UI.Storyboards)
	fmt.Fprintf(&sb, "- AutoLayout usage: %d\n", r.UI.AutoLayout)
	fmt.Fprintf(&sb, "- Primary UI: %s\n\n", r.UI.Primary)
	sb.WriteString("Architecture:\n")
	fmt.Fprintf(&sb, "- MVVM Score: %d\n", r.Architecture.MVVM)
	fmt.Fprintf(&sb, "- MVP Score: %d\n", r.Architecture.MVP)
	fmt.Fprintf(&sb, "- VIPER Score: %d\n", r.Architecture.VIPER)
	fmt.Fprintf(&sb, "- Coordinator Score: %d\n", r.Architecture.Coordinator)
	fmt.Fprintf(&sb, "- Dominant pattern: %s\n\n", r.Architecture.Dominant)
	sb.WriteString("Modern Features:\n")
	fmt.Fprintf(&sb, "- Async/await usage: %d\n", r.Modern.AsyncAwait)
	fmt.Fprintf(&sb, "- Actor usage: %d\n", r.Modern.Actors)
	fmt.Fprintf(&sb, "- Combine usage: %d\n", r.Modern.Combine)
	fmt.Fprintf(&sb, "- Modernity score: %d\n\n", r.Modern.Score)
	sb.WriteString("Recommendations:\n")
	writeBullets(&sb, r.Recommendations, "None")
	return sb.String(), nil
}

func (s *Server) generateTemplate(ctx context.Context, args Arguments) (string, error) {
	typeName, err := args.String("template_type")
	if err != nil {
		return "", err
	}
	kind, ok := provider.ParseTemplateType(typeName)
	if !ok {
		return "", invalidArgument("template_type", "unknown template type")
	}
	name, err := args.String("name")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		return "", invalidArgument("name", "must not be empty")
	}
	if s.templates == nil {
		return "", errProviderMissing
	}

	result, err := s.templates.GenerateTemplate(ctx, kind, name, provider.TemplateOptions{
		Description: args.OptionalString("description"),
	})
	if err != nil {
		return "", fmt.Errorf("generate %s template: %w", kind, err)
	}

	var sb strings.Builder
	sb.WriteString("Template Generated Successfully!\n\n")
	fmt.Fprintf(&sb, "Template: %s\n", result.Type.DisplayName())
	fmt.Fprintf(&sb, "Name: %s\n\n", name)
	fmt.Fprintf(&sb, "Generated Files (%d):\n", len(result.GeneratedFiles))
	writeBullets(&sb, result.GeneratedFiles, "None")
	sb.WriteString("\n\nNext Steps:\n")
	writeBullets(&sb, result.Instructions, "None")
	return sb.String(), nil
}

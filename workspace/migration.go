package workspace

import (
	"context"
	"fmt"

	"github.com/ClassicalDude/swift-mcp-server/provider"
)

type migrationGuide struct {
	steps    []provider.MigrationStep
	risks    []string
	benefits []string
}

var migrationGuides = map[provider.ArchitecturePattern]migrationGuide{
	provider.PatternMVC: {
		steps: []provider.MigrationStep{
			{Title: "Consolidate controllers", Description: "Move scattered view logic back into view controllers"},
			{Title: "Extract models", Description: "Keep data and business rules in plain model types"},
			{Title: "Remove unused layers", Description: "Delete view models, presenters and routers that no longer add value"},
		},
		risks:    []string{"View controllers may grow large", "Reduced testability of presentation logic"},
		benefits: []string{"Fewer types to maintain", "Matches UIKit defaults"},
	},
	provider.PatternMVVM: {
		steps: []provider.MigrationStep{
			{Title: "Extract view models", Description: "Move presentation logic out of view controllers into view model types"},
			{Title: "Bind views", Description: "Observe view model state from views with Combine or SwiftUI bindings"},
			{Title: "Inject dependencies", Description: "Pass services into view models through initialisers"},
			{Title: "Test view models", Description: "Cover presentation logic with unit tests"},
		},
		risks:    []string{"Binding code can hide control flow", "Temporary duplication while screens migrate"},
		benefits: []string{"Testable presentation logic", "Thinner views", "Natural fit for SwiftUI"},
	},
	provider.PatternVIPER: {
		steps: []provider.MigrationStep{
			{Title: "Define module contracts", Description: "Declare protocols for view, interactor, presenter and router of each screen"},
			{Title: "Split interactors", Description: "Move business rules into interactors"},
			{Title: "Introduce presenters", Description: "Format interactor output for views in presenters"},
			{Title: "Add routers", Description: "Move navigation into routers"},
			{Title: "Assemble modules", Description: "Wire each module in a builder"},
		},
		risks:    []string{"Large amount of boilerplate", "Steep learning curve for the team"},
		benefits: []string{"Strict separation of concerns", "Highly testable modules"},
	},
	provider.PatternFeaturesBased: {
		steps: []provider.MigrationStep{
			{Title: "Identify features", Description: "Group screens and services by user-facing feature"},
			{Title: "Create feature folders", Description: "Move each feature into its own directory under Features"},
			{Title: "Extract shared code", Description: "Move code used by several features into a Core module"},
		},
		risks:    []string{"Hidden coupling between features surfaces during moves"},
		benefits: []string{"Code ownership follows features", "Easier onboarding"},
	},
	provider.PatternCleanArchitecture: {
		steps: []provider.MigrationStep{
			{Title: "Define entities", Description: "Model core business types without framework dependencies"},
			{Title: "Write use cases", Description: "Express each business operation as a use case type"},
			{Title: "Add repositories", Description: "Hide persistence and networking behind repository protocols"},
			{Title: "Adapt presentation", Description: "Let presenters or view models depend only on use cases"},
		},
		risks:    []string{"More indirection for simple screens", "Longer initial migration"},
		benefits: []string{"Framework independent domain", "Clear dependency direction", "Testable business rules"},
	},
	provider.PatternModular: {
		steps: []provider.MigrationStep{
			{Title: "Map dependencies", Description: "List which parts of the code depend on which"},
			{Title: "Create packages", Description: "Split code into Swift packages with explicit targets"},
			{Title: "Define public interfaces", Description: "Expose only what other modules need"},
			{Title: "Enforce boundaries", Description: "Remove cyclic imports between modules"},
		},
		risks:    []string{"Access control changes ripple through the code base"},
		benefits: []string{"Faster incremental builds", "Enforced boundaries", "Reusable modules"},
	},
	provider.PatternCustom: {
		steps: []provider.MigrationStep{
			{Title: "Document conventions", Description: "Write down the layering rules the team wants to follow"},
			{Title: "Apply incrementally", Description: "Refactor screens to the conventions as they are touched"},
		},
		risks:    []string{"Conventions drift without review"},
		benefits: []string{"Architecture tailored to the product"},
	},
}

// effort estimates migration effort from project size.
func effort(files int) string {
	switch {
	case files < 20:
		return "1-3 days"
	case files < 100:
		return "1-2 weeks"
	case files < 500:
		return "1-2 months"
	}
	return "3+ months"
}

// GenerateMigrationPlan plans a move from the detected architecture of the
// project at projectPath to target.
func (w *Workspace) GenerateMigrationPlan(ctx context.Context, projectPath string, target provider.ArchitecturePattern) (provider.MigrationPlan, error) {
	t, err := w.scan(ctx, projectPath)
	if err != nil {
		return provider.MigrationPlan{}, err
	}
	from := detect(t, allDeclarations(t))

	plan := provider.MigrationPlan{From: from, To: target}
	if from == target {
		plan.Steps = []provider.MigrationStep{{
			Title:       "Review consistency",
			Description: fmt.Sprintf("The project already follows %s; align outliers with it", target),
		}}
		plan.EstimatedEffort = effort(0)
		return plan, nil
	}

	guide := migrationGuides[target]
	plan.Steps = append([]provider.MigrationStep(nil), guide.steps...)
	plan.Risks = append([]string(nil), guide.risks...)
	plan.Benefits = append([]string(nil), guide.benefits...)
	plan.EstimatedEffort = effort(len(t.sources))
	return plan, nil
}

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"

	"github.com/ClassicalDude/swift-mcp-server/provider"
)

func TestAnalyzeProject(t *testing.T) {
	w, root := newTestWorkspace(t)

	got, err := w.AnalyzeProject(context.Background(), "")
	if err != nil {
		t.Fatalf("AnalyzeProject() error = %v", err)
	}
	want := provider.ProjectAnalysis{
		ProjectName:  filepath.Base(root),
		Path:         root,
		Architecture: provider.PatternMVVM,
		Modules:      []string{"Core", "UI"},
		Features:     []string{},
		Metrics:      provider.ProjectMetrics{TotalFiles: 3, TotalLines: 45},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("analysis mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect(t *testing.T) {
	decl := func(names ...string) []declaration {
		var out []declaration
		for _, n := range names {
			out = append(out, declaration{name: n, keyword: "class"})
		}
		return out
	}
	withPackage := &tree{dirs: []string{"Sources", "Sources/A", "Sources/B"}, other: []string{"Package.swift"}}
	withFeatures := &tree{dirs: []string{"App", "App/Features", "App/Features/Login"}}

	tests := []struct {
		name  string
		tree  *tree
		decls []declaration
		want  provider.ArchitecturePattern
	}{
		{"viper", &tree{}, decl("LoginPresenter", "LoginInteractor", "LoginRouter", "LoginViewModel"), provider.PatternVIPER},
		{"viper needs all roles", &tree{}, decl("LoginPresenter", "LoginInteractor"), provider.PatternCustom},
		{"clean", &tree{}, decl("FetchUserUseCase", "UserRepository"), provider.PatternCleanArchitecture},
		{"features", withFeatures, nil, provider.PatternFeaturesBased},
		{"mvvm", &tree{}, decl("HomeViewModel", "HomeViewController"), provider.PatternMVVM},
		{"modular", withPackage, nil, provider.PatternModular},
		{"mvc", &tree{}, decl("HomeViewController"), provider.PatternMVC},
		{"custom", &tree{}, decl("Thing"), provider.PatternCustom},
		{"members do not count", &tree{}, []declaration{{name: "viewModel", keyword: "var"}}, provider.PatternCustom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detect(tt.tree, tt.decls); got != tt.want {
				t.Errorf("detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestModules_WithoutSources(t *testing.T) {
	tr := &tree{
		dir:  "/p",
		dirs: []string{"App", "Kit"},
		sources: []sourceFile{
			{path: "/p/App/AppDelegate.swift"},
			{path: "/p/Kit/Kit.swift"},
			{path: "/p/main.swift"},
		},
	}
	if diff := cmp.Diff([]string{"App", "Kit"}, modules(tr)); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectArchitecture_MissingPath(t *testing.T) {
	w, _ := newTestWorkspace(t)
	if _, err := w.DetectArchitecture(context.Background(), "does/not/exist"); err == nil {
		t.Error("expected error for missing project path")
	}
}

func TestDetectArchitecture_PackageManifest(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"Package.swift":            "// swift-tools-version:5.9\nimport PackageDescription\n",
		"Sources/Core/Core.swift":  "struct Core {}\n",
		"Sources/Net/Client.swift": "final class Client {}\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	w := New(root)

	tr, err := w.scan(context.Background(), "")
	if err != nil {
		t.Fatalf("scan() error = %v", err)
	}
	if !tr.hasFile("Package.swift") || len(tr.sources) != 2 {
		t.Errorf("manifest not separated: sources = %d, other = %v", len(tr.sources), tr.other)
	}

	got, err := w.DetectArchitecture(context.Background(), "")
	if err != nil {
		t.Fatalf("DetectArchitecture() error = %v", err)
	}
	if got != provider.PatternModular {
		t.Errorf("DetectArchitecture() = %s, want %s", got, provider.PatternModular)
	}
}

func TestCreateProjectMemory(t *testing.T) {
	w, _ := newTestWorkspace(t)

	mem, err := w.CreateProjectMemory(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateProjectMemory() error = %v", err)
	}

	var names []string
	for _, s := range mem.KeySymbols {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"ProfileView", "ProfileViewModel", "RemoteUserStore", "User", "UserStore"}, names); diff != "" {
		t.Errorf("key symbols mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Singleton", "Reactive Streams", "Async/Await"}, mem.CodePatterns); diff != "" {
		t.Errorf("code patterns mismatch (-want +got):\n%s", diff)
	}
	if !mem.LastUpdated.Equal(fixedTime) {
		t.Errorf("LastUpdated = %v, want %v", mem.LastUpdated, fixedTime)
	}
	if mem.Analysis.Architecture != provider.PatternMVVM {
		t.Errorf("architecture = %s", mem.Analysis.Architecture)
	}
}

func TestGenerateMigrationPlan(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	plan, err := w.GenerateMigrationPlan(ctx, "", provider.PatternVIPER)
	if err != nil {
		t.Fatalf("GenerateMigrationPlan() error = %v", err)
	}
	if plan.From != provider.PatternMVVM || plan.To != provider.PatternVIPER {
		t.Errorf("plan = %s -> %s", plan.From, plan.To)
	}
	if len(plan.Steps) != 5 || plan.EstimatedEffort != "1-3 days" {
		t.Errorf("steps = %d, effort = %q", len(plan.Steps), plan.EstimatedEffort)
	}
	if len(plan.Risks) == 0 || len(plan.Benefits) == 0 {
		t.Errorf("risks = %v, benefits = %v", plan.Risks, plan.Benefits)
	}

	same, err := w.GenerateMigrationPlan(ctx, "", provider.PatternMVVM)
	if err != nil {
		t.Fatal(err)
	}
	if len(same.Steps) != 1 || same.Steps[0].Title != "Review consistency" {
		t.Errorf("steps = %+v", same.Steps)
	}
}

func TestEffort(t *testing.T) {
	tests := []struct {
		files int
		want  string
	}{
		{0, "1-3 days"},
		{19, "1-3 days"},
		{20, "1-2 weeks"},
		{99, "1-2 weeks"},
		{100, "1-2 months"},
		{500, "3+ months"},
	}
	for _, tt := range tests {
		if got := effort(tt.files); got != tt.want {
			t.Errorf("effort(%d) = %q, want %q", tt.files, got, tt.want)
		}
	}
}

func TestMigrationGuides_CoverEveryPattern(t *testing.T) {
	for _, p := range provider.ArchitecturePatterns {
		if len(migrationGuides[p].steps) == 0 {
			t.Errorf("no migration guide for %s", p)
		}
	}
}

func TestHistory(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	h, err := history(ctx, dir)
	if err != nil || h != nil {
		t.Fatalf("history() outside a repository = %+v, %v", h, err)
	}

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if h, err := history(ctx, dir); err != nil || h != nil {
		t.Fatalf("history() without commits = %+v, %v", h, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	commit := func(content string, when time.Time) string {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, "App.swift"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add("App.swift"); err != nil {
			t.Fatal(err)
		}
		hash, err := wt.Commit("update", &git.CommitOptions{
			Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: when},
		})
		if err != nil {
			t.Fatal(err)
		}
		return hash.String()
	}
	commit("struct A {}\n", fixedTime.Add(-time.Hour))
	last := commit("struct B {}\n", fixedTime)

	h, err = history(ctx, dir)
	if err != nil {
		t.Fatalf("history() error = %v", err)
	}
	head, _ := repo.Head()
	want := &provider.VCSHistory{
		Branch:       head.Name().Short(),
		Commits:      2,
		LastCommit:   last,
		LastCommitAt: fixedTime,
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

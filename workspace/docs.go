package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/ClassicalDude/swift-mcp-server/provider"
)

// DocsDir is where generated documentation is written, relative to the root.
const DocsDir = "Documentation"

var docTemplates = template.Must(template.New("docs").Parse(`
{{- define "README.md" -}}
# {{ .Project.Name }}

- Type: {{ .Project.Type }}
- Swift files: {{ .Project.SwiftFileCount }}
- Package.swift: {{ if .Project.HasPackageSwift }}yes{{ else }}no{{ end }}

See [API.md](API.md) for the declared types and functions.
{{ end -}}

{{- define "API.md" -}}
# {{ .Project.Name }} API
{{ range .Sections }}
## {{ .Title }}
{{ range .Items }}
- ` + "`{{ .Name }}`" + ` ({{ .File }})
{{- end }}
{{ end -}}
{{- end -}}
`))

type docSection struct {
	Title string
	Items []provider.APIItem
}

var sectionTitles = []struct {
	kind  provider.APIKind
	title string
}{
	{provider.APIProtocol, "Protocols"},
	{provider.APIClass, "Classes"},
	{provider.APIStruct, "Structs"},
	{provider.APIEnum, "Enums"},
	{provider.APIFunction, "Functions"},
}

func apiKind(d declaration) (provider.APIKind, bool) {
	switch d.keyword {
	case "class", "actor":
		return provider.APIClass, true
	case "struct":
		return provider.APIStruct, true
	case "enum":
		return provider.APIEnum, true
	case "protocol":
		return provider.APIProtocol, true
	case "func":
		return provider.APIFunction, true
	}
	return "", false
}

// projectType names how the project is built.
func projectType(t *tree) string {
	if t.hasFile(manifestFile) {
		return "Swift Package"
	}
	for _, d := range t.dirs {
		if strings.HasSuffix(d, ".xcodeproj") {
			return "Xcode Project"
		}
	}
	return "Swift Sources"
}

// GenerateProjectDocumentation writes README.md and API.md into the
// Documentation directory of the workspace, replacing earlier versions.
func (w *Workspace) GenerateProjectDocumentation(ctx context.Context) (provider.DocumentationResult, error) {
	t, err := w.scan(ctx, "")
	if err != nil {
		return provider.DocumentationResult{}, err
	}

	result := provider.DocumentationResult{
		Project: provider.ProjectStructure{
			Name:            filepath.Base(t.dir),
			Type:            projectType(t),
			SwiftFileCount:  len(t.sources),
			HasPackageSwift: t.hasFile(manifestFile),
		},
	}
	for _, d := range allDeclarations(t) {
		kind, ok := apiKind(d)
		if !ok || d.private {
			continue
		}
		rel, _ := filepath.Rel(t.dir, d.file)
		name := d.name
		if d.container != "" {
			name = d.container + "." + d.name
		}
		result.API = append(result.API, provider.APIItem{Name: name, Kind: kind, File: filepath.ToSlash(rel)})
	}
	sort.SliceStable(result.API, func(i, j int) bool { return result.API[i].Name < result.API[j].Name })

	var sections []docSection
	for _, st := range sectionTitles {
		var items []provider.APIItem
		for _, item := range result.API {
			if item.Kind == st.kind {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			sections = append(sections, docSection{Title: st.title, Items: items})
		}
	}

	data := struct {
		Project  provider.ProjectStructure
		Sections []docSection
	}{result.Project, sections}

	for _, name := range []string{"README.md", "API.md"} {
		if err := ctx.Err(); err != nil {
			return provider.DocumentationResult{}, err
		}
		var buf bytes.Buffer
		if err := docTemplates.ExecuteTemplate(&buf, name, data); err != nil {
			return provider.DocumentationResult{}, fmt.Errorf("render %s: %w", name, err)
		}
		rel := filepath.Join(DocsDir, name)
		dst := filepath.Join(t.dir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return provider.DocumentationResult{}, fmt.Errorf("create %s: %w", DocsDir, err)
		}
		if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
			return provider.DocumentationResult{}, fmt.Errorf("write %s: %w", rel, err)
		}
		result.GeneratedFiles = append(result.GeneratedFiles, filepath.ToSlash(rel))
	}
	return result, nil
}

package workspace

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/provider"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

var swiftIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// templateFile is one file of a code template. Path and Body are templates
// over templateData.
type templateFile struct {
	Path string
	Body string
}

type templateData struct {
	Name        string
	Description string
}

type codeTemplate struct {
	files        []templateFile
	instructions []string
}

var codeTemplates = map[provider.TemplateType]codeTemplate{
	provider.TemplateSwiftPackage: {
		files: []templateFile{
			{"{{.Name}}/Package.swift", `// swift-tools-version:5.9
import PackageDescription

let package = Package(
    name: "{{.Name}}",
    products: [
        .library(name: "{{.Name}}", targets: ["{{.Name}}"]),
    ],
    targets: [
        .target(name: "{{.Name}}"),
        .testTarget(name: "{{.Name}}Tests", dependencies: ["{{.Name}}"]),
    ]
)
`},
			{"{{.Name}}/Sources/{{.Name}}/{{.Name}}.swift", `{{if .Description}}/// {{.Description}}
{{end}}public struct {{.Name}} {
    public init() {}
}
`},
			{"{{.Name}}/Tests/{{.Name}}Tests/{{.Name}}Tests.swift", `import XCTest
@testable import {{.Name}}

final class {{.Name}}Tests: XCTestCase {
    func testInit() {
        _ = {{.Name}}()
    }
}
`},
		},
		instructions: []string{"Open {{.Name}}/Package.swift in Xcode", "Run swift test inside {{.Name}}"},
	},
	provider.TemplateUIKitViewController: {
		files: []templateFile{
			{"{{.Name}}ViewController.swift", `import UIKit

{{if .Description}}/// {{.Description}}
{{end}}final class {{.Name}}ViewController: UIViewController {
    override func viewDidLoad() {
        super.viewDidLoad()
        view.backgroundColor = .systemBackground
    }
}
`},
		},
		instructions: []string{"Add {{.Name}}ViewController.swift to your target", "Present {{.Name}}ViewController from an existing screen"},
	},
	provider.TemplateSwiftUIView: {
		files: []templateFile{
			{"{{.Name}}.swift", `import SwiftUI

{{if .Description}}/// {{.Description}}
{{end}}struct {{.Name}}: View {
    var body: some View {
        Text("{{.Name}}")
    }
}

#Preview {
    {{.Name}}()
}
`},
		},
		instructions: []string{"Add {{.Name}}.swift to your target"},
	},
	provider.TemplateMVVMModule: {
		files: []templateFile{
			{"{{.Name}}/{{.Name}}Model.swift", `import Foundation

struct {{.Name}}Model: Equatable {
    var title: String
}
`},
			{"{{.Name}}/{{.Name}}ViewModel.swift", `import Foundation
import Combine

{{if .Description}}/// {{.Description}}
{{end}}@MainActor
final class {{.Name}}ViewModel: ObservableObject {
    @Published private(set) var model = {{.Name}}Model(title: "{{.Name}}")
}
`},
			{"{{.Name}}/{{.Name}}View.swift", `import SwiftUI

struct {{.Name}}View: View {
    @StateObject private var viewModel = {{.Name}}ViewModel()

    var body: some View {
        Text(viewModel.model.title)
    }
}
`},
		},
		instructions: []string{"Add the {{.Name}} folder to your target", "Inject services into {{.Name}}ViewModel"},
	},
	provider.TemplateCoordinator: {
		files: []templateFile{
			{"{{.Name}}Coordinator.swift", `import UIKit

protocol Coordinator: AnyObject {
    func start()
}

{{if .Description}}/// {{.Description}}
{{end}}final class {{.Name}}Coordinator: Coordinator {
    private let navigationController: UINavigationController

    init(navigationController: UINavigationController) {
        self.navigationController = navigationController
    }

    func start() {
    }
}
`},
		},
		instructions: []string{"Create {{.Name}}Coordinator from your app or scene delegate", "Call start() to show the first screen"},
	},
	provider.TemplateNetworkService: {
		files: []templateFile{
			{"{{.Name}}Service.swift", `import Foundation

{{if .Description}}/// {{.Description}}
{{end}}protocol {{.Name}}ServiceProtocol {
    func fetch(from url: URL) async throws -> Data
}

final class {{.Name}}Service: {{.Name}}ServiceProtocol {
    private let session: URLSession

    init(session: URLSession = .shared) {
        self.session = session
    }

    func fetch(from url: URL) async throws -> Data {
        let (data, response) = try await session.data(from: url)
        guard let http = response as? HTTPURLResponse, (200..<300).contains(http.statusCode) else {
            throw URLError(.badServerResponse)
        }
        return data
    }
}
`},
		},
		instructions: []string{"Depend on {{.Name}}ServiceProtocol rather than the concrete service"},
	},
	provider.TemplateCoreDataModel: {
		files: []templateFile{
			{"{{.Name}}+CoreDataClass.swift", `import CoreData

{{if .Description}}/// {{.Description}}
{{end}}@objc({{.Name}})
public class {{.Name}}: NSManagedObject {
}
`},
			{"{{.Name}}+CoreDataProperties.swift", `import CoreData

extension {{.Name}} {
    @nonobjc public class func fetchRequest() -> NSFetchRequest<{{.Name}}> {
        NSFetchRequest<{{.Name}}>(entityName: "{{.Name}}")
    }

    @NSManaged public var id: UUID?
    @NSManaged public var createdAt: Date?
}
`},
		},
		instructions: []string{"Add a {{.Name}} entity to your .xcdatamodeld with Codegen set to Manual/None"},
	},
	provider.TemplateUnitTests: {
		files: []templateFile{
			{"{{.Name}}Tests.swift", `import XCTest

{{if .Description}}/// {{.Description}}
{{end}}final class {{.Name}}Tests: XCTestCase {
    override func setUp() {
        super.setUp()
    }

    func testExample() {
        XCTAssertTrue(true)
    }
}
`},
		},
		instructions: []string{"Add {{.Name}}Tests.swift to your test target", "Run the tests with Cmd+U"},
	},
}

func render(text string, data templateData) (string, error) {
	tmpl, err := template.New("").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func invalidTemplateArg(field, reason string) error {
	return protocol.NewInvalidParams().WithData(value.Object(map[string]value.Value{
		"errors": value.Array(value.Object(map[string]value.Value{
			"path":    value.String(field),
			"message": value.String(reason),
		})),
	}))
}

// GenerateTemplate writes the files of template kind for name into the
// workspace. Existing files are never replaced.
func (w *Workspace) GenerateTemplate(ctx context.Context, kind provider.TemplateType, name string, opts provider.TemplateOptions) (provider.TemplateResult, error) {
	tmpl, ok := codeTemplates[kind]
	if !ok {
		return provider.TemplateResult{}, invalidTemplateArg("template_type", "unknown template type")
	}
	if !swiftIdentifier.MatchString(name) {
		return provider.TemplateResult{}, invalidTemplateArg("name", "must be a Swift identifier")
	}

	data := templateData{Name: name, Description: strings.TrimSpace(opts.Description)}
	result := provider.TemplateResult{Type: kind, Name: name}

	type rendered struct{ rel, body string }
	var files []rendered
	for _, f := range tmpl.files {
		rel, err := render(f.Path, data)
		if err != nil {
			return provider.TemplateResult{}, fmt.Errorf("render path: %w", err)
		}
		body, err := render(f.Body, data)
		if err != nil {
			return provider.TemplateResult{}, fmt.Errorf("render %s: %w", rel, err)
		}
		files = append(files, rendered{rel, body})
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return provider.TemplateResult{}, err
		}
		if err := writeFile(filepath.Join(w.root, filepath.FromSlash(f.rel)), []byte(f.body)); err != nil {
			if isExist(err) {
				return provider.TemplateResult{}, invalidTemplateArg("name", f.rel+" already exists")
			}
			return provider.TemplateResult{}, fmt.Errorf("write %s: %w", f.rel, err)
		}
		result.GeneratedFiles = append(result.GeneratedFiles, f.rel)
	}

	for _, step := range tmpl.instructions {
		text, err := render(step, data)
		if err != nil {
			return provider.TemplateResult{}, fmt.Errorf("render instructions: %w", err)
		}
		result.Instructions = append(result.Instructions, text)
	}
	return result, nil
}

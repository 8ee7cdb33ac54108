package server

import (
	"context"
	"errors"

	"github.com/ClassicalDude/swift-mcp-server/position"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/provider"
	"github.com/ClassicalDude/swift-mcp-server/schema"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// ToolName identifies one of the tools in the catalog.
type ToolName int

const (
	ToolFindSymbols ToolName = iota
	ToolFindReferences
	ToolGetDefinition
	ToolGetHoverInfo
	ToolFormatDocument
	ToolAnalyzeProject
	ToolDetectArchitecture
	ToolAnalyzeSymbolUsage
	ToolCreateProjectMemory
	ToolGenerateMigrationPlan
	ToolAnalyzePOPUsage
	ToolIntelligentProjectMemory
	ToolGenerateDocumentation
	ToolAnalyzeIOSFrameworks
	ToolGenerateTemplate

	toolCount
)

// ToolDescriptor describes a tool to clients.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema *schema.Schema
}

// Value renders the descriptor as a tools/list entry.
func (d ToolDescriptor) Value() value.Value {
	return value.Object(map[string]value.Value{
		"name":        value.String(d.Name),
		"description": value.String(d.Description),
		"inputSchema": d.InputSchema.Value(),
	})
}

func filePathSchema(description string) map[string]*schema.Schema {
	return map[string]*schema.Schema{
		"file_path": schema.String(description),
	}
}

func positionSchema() *schema.Schema {
	return schema.Object(map[string]*schema.Schema{
		"file_path": schema.String("Path to the Swift file"),
		"line":      schema.Integer("Line number (0-based)"),
		"character": schema.Integer("Character position (0-based)"),
	}, "file_path", "line", "character")
}

func projectSchema(description string, extra map[string]*schema.Schema, required ...string) *schema.Schema {
	props := map[string]*schema.Schema{
		"project_path": schema.String(description),
	}
	for name, s := range extra {
		props[name] = s
	}
	return schema.Object(props, append([]string{"project_path"}, required...)...)
}

const projectPathDescription = "Path to the Swift project to analyze"

// Memory actions accepted by intelligent_project_memory.
const (
	memoryActionCache         = "cache"
	memoryActionRetrieve      = "retrieve"
	memoryActionLearnPatterns = "learn_patterns"
	memoryActionGetEvolution  = "get_evolution"
)

// catalog is indexed by ToolName and fixes the tools/list order.
var catalog = [toolCount]ToolDescriptor{
	ToolFindSymbols: {
		Name:        "find_symbols",
		Description: "Find Swift symbols in a file by name pattern",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"file_path":    schema.String("Path to the Swift file"),
			"name_pattern": schema.String("Pattern to match symbol names"),
		}, "file_path", "name_pattern"),
	},
	ToolFindReferences: {
		Name:        "find_references",
		Description: "Find all references to a symbol at a specific position",
		InputSchema: positionSchema(),
	},
	ToolGetDefinition: {
		Name:        "get_definition",
		Description: "Get definition location for a symbol at a specific position",
		InputSchema: positionSchema(),
	},
	ToolGetHoverInfo: {
		Name:        "get_hover_info",
		Description: "Get hover information for a symbol at a specific position",
		InputSchema: positionSchema(),
	},
	ToolFormatDocument: {
		Name:        "format_document",
		Description: "Format a Swift document",
		InputSchema: schema.Object(filePathSchema("Path to the Swift file to format"), "file_path"),
	},
	ToolAnalyzeProject: {
		Name:        "analyze_project",
		Description: "Perform comprehensive project analysis including architecture detection",
		InputSchema: projectSchema(projectPathDescription, nil),
	},
	ToolDetectArchitecture: {
		Name:        "detect_architecture",
		Description: "Detect the architecture pattern used in the project",
		InputSchema: projectSchema(projectPathDescription, nil),
	},
	ToolAnalyzeSymbolUsage: {
		Name:        "analyze_symbol_usage",
		Description: "Analyze how a symbol is used throughout the project",
		InputSchema: projectSchema(projectPathDescription, map[string]*schema.Schema{
			"symbol_name": schema.String("Name of the symbol to analyze"),
		}, "symbol_name"),
	},
	ToolCreateProjectMemory: {
		Name:        "create_project_memory",
		Description: "Create comprehensive project documentation and memory",
		InputSchema: projectSchema(projectPathDescription, nil),
	},
	ToolGenerateMigrationPlan: {
		Name:        "generate_migration_plan",
		Description: "Generate a plan to migrate to a different architecture pattern",
		InputSchema: projectSchema(projectPathDescription, map[string]*schema.Schema{
			"target_architecture": schema.Enum("Target architecture pattern", provider.ArchitecturePatternNames()...),
		}, "target_architecture"),
	},
	ToolAnalyzePOPUsage: {
		Name:        "analyze_pop_usage",
		Description: "Analyze project's Protocol-Oriented Programming (POP) adoption",
		InputSchema: projectSchema("Path to the project to analyze", nil),
	},
	ToolIntelligentProjectMemory: {
		Name:        "intelligent_project_memory",
		Description: "Manage intelligent project memory with pattern learning",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"action": schema.Enum("Action to perform: cache, retrieve, learn_patterns, get_evolution",
				memoryActionCache, memoryActionRetrieve, memoryActionLearnPatterns, memoryActionGetEvolution),
			"key": schema.String("Key for caching/retrieving analysis results"),
		}, "action"),
	},
	ToolGenerateDocumentation: {
		Name:        "generate_documentation",
		Description: "Generate comprehensive project documentation including README and API docs",
		InputSchema: schema.Object(nil),
	},
	ToolAnalyzeIOSFrameworks: {
		Name:        "analyze_ios_frameworks",
		Description: "Analyze iOS framework usage and detect UI patterns",
		InputSchema: schema.Object(nil),
	},
	ToolGenerateTemplate: {
		Name:        "generate_template",
		Description: "Generate Swift/iOS project templates",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"template_type": schema.Enum("Template type: swift-package, uikit-viewcontroller, swiftui-view, mvvm-module, coordinator, network-service, coredata-model, unit-tests",
				provider.TemplateTypeNames()...),
			"name":        schema.String("Name for the generated template"),
			"description": schema.String("Optional description for the template"),
		}, "template_type", "name"),
	},
}

// aliasedTools accept "path" in place of "project_path".
var aliasedTools = map[ToolName]bool{
	ToolAnalyzeProject:     true,
	ToolDetectArchitecture: true,
	ToolAnalyzeSymbolUsage: true,
}

// Tools returns the tool descriptors in catalog order.
func Tools() []ToolDescriptor {
	return append([]ToolDescriptor(nil), catalog[:]...)
}

// ParseToolName looks up a tool by its wire name.
func ParseToolName(name string) (ToolName, bool) {
	for i, d := range catalog {
		if d.Name == name {
			return ToolName(i), true
		}
	}
	return 0, false
}

// Descriptor returns the catalog entry for t.
func (t ToolName) Descriptor() ToolDescriptor {
	return catalog[t]
}

func (t ToolName) String() string {
	if t < 0 || t >= toolCount {
		return "unknown"
	}
	return catalog[t].Name
}

// Arguments gives typed access to validated tool arguments.
type Arguments struct {
	v value.Value
}

// NewArguments wraps an argument object.
func NewArguments(v value.Value) Arguments {
	return Arguments{v: v}
}

// String returns a required string argument.
func (a Arguments) String(key string) (string, error) {
	v, _ := a.v.Get(key)
	s, ok := v.AsString()
	if !ok {
		return "", invalidArgument(key, "expected string")
	}
	return s, nil
}

// OptionalString returns a string argument, or "" when absent.
func (a Arguments) OptionalString(key string) string {
	v, _ := a.v.Get(key)
	s, _ := v.AsString()
	return s
}

// Int returns a required integer argument.
func (a Arguments) Int(key string) (int, error) {
	v, _ := a.v.Get(key)
	n, ok := v.AsInt()
	if !ok {
		return 0, invalidArgument(key, "expected integer")
	}
	return int(n), nil
}

// Position returns the file_path, line and character arguments.
func (a Arguments) Position() (position.Position, error) {
	file, err := a.String("file_path")
	if err != nil {
		return position.Position{}, err
	}
	line, err := a.Int("line")
	if err != nil {
		return position.Position{}, err
	}
	character, err := a.Int("character")
	if err != nil {
		return position.Position{}, err
	}
	if line < 0 {
		return position.Position{}, invalidArgument("line", "must not be negative")
	}
	if character < 0 {
		return position.Position{}, invalidArgument("character", "must not be negative")
	}
	return position.Position{File: file, Line: line, Character: character}, nil
}

func invalidArgument(key, msg string) *protocol.Error {
	return protocol.NewInvalidParams().WithData(value.Object(map[string]value.Value{
		"errors": value.Array(value.Object(map[string]value.Value{
			"path":    value.String(key),
			"message": value.String(msg),
		})),
	}))
}

// normalizeAliases copies "path" onto "project_path" for tools that accept it.
func normalizeAliases(tool ToolName, args value.Value) value.Value {
	if !aliasedTools[tool] {
		return args
	}
	if p, ok := args.Get("path"); ok {
		if _, isString := p.AsString(); isString {
			return args.With("project_path", p)
		}
	}
	return args
}

type toolHandler func(s *Server, ctx context.Context, args Arguments) (string, error)

// toolHandlers is indexed by ToolName.
var toolHandlers = [toolCount]toolHandler{
	ToolFindSymbols:              (*Server).findSymbols,
	ToolFindReferences:           (*Server).findReferences,
	ToolGetDefinition:            (*Server).getDefinition,
	ToolGetHoverInfo:             (*Server).getHoverInfo,
	ToolFormatDocument:           (*Server).formatDocument,
	ToolAnalyzeProject:           (*Server).analyzeProject,
	ToolDetectArchitecture:       (*Server).detectArchitecture,
	ToolAnalyzeSymbolUsage:       (*Server).analyzeSymbolUsage,
	ToolCreateProjectMemory:      (*Server).createProjectMemory,
	ToolGenerateMigrationPlan:    (*Server).generateMigrationPlan,
	ToolAnalyzePOPUsage:          (*Server).analyzePOPUsage,
	ToolIntelligentProjectMemory: (*Server).intelligentProjectMemory,
	ToolGenerateDocumentation:    (*Server).generateDocumentation,
	ToolAnalyzeIOSFrameworks:     (*Server).analyzeIOSFrameworks,
	ToolGenerateTemplate:         (*Server).generateTemplate,
}

func (s *Server) handleToolsList(_ context.Context, _ *protocol.Request) (value.Value, error) {
	tools := make([]value.Value, 0, len(catalog))
	for _, d := range catalog {
		tools = append(tools, d.Value())
	}
	return value.Object(map[string]value.Value{
		"tools": value.Array(tools...),
	}), nil
}

func (s *Server) handleToolsCall(ctx context.Context, req *protocol.Request) (value.Value, error) {
	nameVal, _ := req.Param("name")
	name, ok := nameVal.AsString()
	if !ok {
		return value.Value{}, invalidArgument("name", "expected string")
	}

	args := value.EmptyObject()
	if a, ok := req.Param("arguments"); ok && !a.IsNull() {
		if a.Kind() != value.KindObject {
			return value.Value{}, invalidArgument("arguments", "expected object")
		}
		args = a
	}

	tool, ok := ParseToolName(name)
	if !ok {
		return value.Value{}, protocol.NewToolNotFound(name)
	}

	args = normalizeAliases(tool, args)
	if err := tool.Descriptor().InputSchema.Validate(args); err != nil {
		var verrs schema.ValidationErrors
		if errors.As(err, &verrs) {
			return value.Value{}, protocol.NewInvalidParams().WithData(value.Object(map[string]value.Value{
				"errors": verrs.Value(),
			}))
		}
		return value.Value{}, protocol.NewInvalidParams()
	}

	text, err := await(ctx, func(ctx context.Context) (string, error) {
		return toolHandlers[tool](s, ctx, NewArguments(args))
	})
	if err != nil {
		return value.Value{}, s.toolError(ctx, tool, err)
	}

	return value.Object(map[string]value.Value{
		"content": value.Array(value.Object(map[string]value.Value{
			"type": value.String("text"),
			"text": value.String(text),
		})),
	}), nil
}

// errProviderMissing is returned by handlers whose provider is not configured.
var errProviderMissing = errors.New("provider not configured")

// toolError maps a handler failure onto the protocol taxonomy and logs the
// real cause of internal errors.
func (s *Server) toolError(ctx context.Context, tool ToolName, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var perr *protocol.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case protocol.KindInvalidParams, protocol.KindToolNotFound, protocol.KindResourceNotFound:
			return perr
		}
	}

	switch {
	case errors.Is(err, errProviderMissing):
		s.logger.Warn("tool provider not configured", logTool(tool))
	case errors.Is(err, errPanic):
		s.logger.Error("tool handler panicked", logTool(tool), logErr(err))
	default:
		s.logger.Error("tool failed", logTool(tool), logErr(err))
	}
	return protocol.NewInternalError()
}

package server

import (
	"context"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// ResourceName identifies one of the resources the server exposes.
type ResourceName int

const (
	ResourceWorkspace ResourceName = iota

	resourceCount
)

// ResourceDescriptor describes a readable resource.
type ResourceDescriptor struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// Value renders the descriptor as a resources/list entry.
func (d ResourceDescriptor) Value() value.Value {
	return value.Object(map[string]value.Value{
		"uri":         value.String(d.URI),
		"name":        value.String(d.Name),
		"description": value.String(d.Description),
		"mimeType":    value.String(d.MimeType),
	})
}

const jsonMimeType = "application/json"

var resourceCatalog = [resourceCount]ResourceDescriptor{
	ResourceWorkspace: {
		URI:         "swift://workspace",
		Name:        "Swift Workspace",
		Description: "Current Swift workspace information",
		MimeType:    jsonMimeType,
	},
}

// workspaceCapabilities are the capabilities advertised by swift://workspace.
var workspaceCapabilities = []string{"symbol_search", "references", "definitions", "hover", "formatting"}

// resourceContents is indexed by ResourceName and returns the text body.
var resourceContents = [resourceCount]func() string{
	ResourceWorkspace: func() string {
		return value.Object(map[string]value.Value{
			"type":          value.String("swift_workspace"),
			"capabilities":  value.Strings(workspaceCapabilities...),
			"sourcekit_lsp": value.String("available"),
		}).String()
	},
}

// Resources returns the resource descriptors in catalog order.
func Resources() []ResourceDescriptor {
	return append([]ResourceDescriptor(nil), resourceCatalog[:]...)
}

// ParseResourceURI looks up a resource by its URI.
func ParseResourceURI(uri string) (ResourceName, bool) {
	for i, d := range resourceCatalog {
		if d.URI == uri {
			return ResourceName(i), true
		}
	}
	return 0, false
}

func (s *Server) handleResourcesList(_ context.Context, _ *protocol.Request) (value.Value, error) {
	resources := make([]value.Value, 0, len(resourceCatalog))
	for _, d := range resourceCatalog {
		resources = append(resources, d.Value())
	}
	return value.Object(map[string]value.Value{
		"resources": value.Array(resources...),
	}), nil
}

func (s *Server) handleResourcesRead(_ context.Context, req *protocol.Request) (value.Value, error) {
	uriVal, _ := req.Param("uri")
	uri, ok := uriVal.AsString()
	if !ok {
		return value.Value{}, invalidArgument("uri", "expected string")
	}

	res, ok := ParseResourceURI(uri)
	if !ok {
		return value.Value{}, protocol.NewResourceNotFound(uri)
	}
	d := resourceCatalog[res]

	return value.Object(map[string]value.Value{
		"contents": value.Array(value.Object(map[string]value.Value{
			"uri":      value.String(d.URI),
			"mimeType": value.String(d.MimeType),
			"text":     value.String(resourceContents[res]()),
		})),
	}), nil
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources registers all odagate MCP resources on the given server.
func registerResources(s *server.MCPServer, d Deps) {
	s.AddResource(
		mcplib.NewResource(
			"odagate://datasets",
			"Dataset Catalog",
			mcplib.WithResourceDescription("Catalog datasets, SEEK settings and the manifests recorded so far"),
			mcplib.WithMIMEType("application/json"),
		),
		handleDatasetsResource(d),
	)

	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"odagate://manifests/{dataset}",
			"Dataset Manifest",
			mcplib.WithTemplateDescription("Recorded release history of a dataset"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		handleManifestResource(d),
	)
}

func handleDatasetsResource(d Deps) server.ResourceHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		l, err := listing(d)
		if err != nil {
			return nil, fmt.Errorf("listing manifests: %w", err)
		}
		return jsonContents(request.Params.URI, l)
	}
}

func handleManifestResource(d Deps) server.ResourceTemplateHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		name := templateArg(request.Params.Arguments["dataset"])
		if name == "" {
			return nil, fmt.Errorf("dataset name is required")
		}
		m, err := loadManifest(d, name)
		if err != nil {
			return nil, err
		}
		return jsonContents(request.Params.URI, m)
	}
}

// templateArg unwraps a template variable, which the server may deliver as a
// string or a single-element list.
func templateArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

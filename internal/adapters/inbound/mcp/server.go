package mcp

import (
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/odagate/odagate/internal/application"
	"github.com/odagate/odagate/internal/domain"
)

// Deps are the services the tools and resources call into. History is
// optional.
type Deps struct {
	Validator *application.ValidateService
	Manifests domain.ManifestStore
	History   domain.RunHistory
	Now       func() time.Time
}

// NewServer creates an MCP server with every odagate tool and resource
// registered. Validation tools are dry runs unless the caller asks for
// manifest updates.
func NewServer(version string, d Deps) *server.MCPServer {
	if d.Now == nil {
		d.Now = time.Now
	}
	s := server.NewMCPServer(
		"odagate",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, d)
	registerResources(s, d)

	return s
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/odagate/odagate/internal/adapters/outbound/report"
	"github.com/odagate/odagate/internal/domain"
)

const defaultHistoryLimit = 20

// registerTools registers all odagate MCP tools on the given server.
func registerTools(s *server.MCPServer, d Deps) {
	s.AddTool(
		mcplib.NewTool("odagate_validate_all",
			mcplib.WithDescription("Validate every catalog dataset for a release and return the report. Dry run unless update_manifests is true."),
			mcplib.WithString("release", mcplib.Description("Release name (default: current month, YYYY-MM)")),
			mcplib.WithBoolean("update_manifests", mcplib.Description("Record this release in the manifests")),
			mcplib.WithBoolean("skip_seek", mcplib.Description("Skip the SEEK sector validation")),
		),
		handleValidateAll(d),
	)

	s.AddTool(
		mcplib.NewTool("odagate_validate_dataset",
			mcplib.WithDescription("Validate a single catalog dataset for a release. Dry run unless update_manifests is true."),
			mcplib.WithString("dataset",
				mcplib.Required(),
				mcplib.Description("Dataset name from the catalog, e.g. financing_view"),
			),
			mcplib.WithString("release", mcplib.Description("Release name (default: current month, YYYY-MM)")),
			mcplib.WithBoolean("update_manifests", mcplib.Description("Record this release in the dataset manifest")),
		),
		handleValidateDataset(d),
	)

	s.AddTool(
		mcplib.NewTool("odagate_validate_seek",
			mcplib.WithDescription("Run the SEEK purpose-code sector validation alone. Dry run unless update_manifests is true."),
			mcplib.WithString("release", mcplib.Description("Release name (default: current month, YYYY-MM)")),
			mcplib.WithBoolean("update_manifests", mcplib.Description("Record this release in the SEEK manifest")),
		),
		handleValidateSeek(d),
	)

	s.AddTool(
		mcplib.NewTool("odagate_list_datasets",
			mcplib.WithDescription("List catalog datasets with their key columns and the manifests recorded so far"),
		),
		handleListDatasets(d),
	)

	s.AddTool(
		mcplib.NewTool("odagate_get_manifest",
			mcplib.WithDescription("Return the recorded manifest of a dataset, or of seek_sectors"),
			mcplib.WithString("dataset",
				mcplib.Required(),
				mcplib.Description("Dataset name"),
			),
		),
		handleGetManifest(d),
	)

	s.AddTool(
		mcplib.NewTool("odagate_run_history",
			mcplib.WithDescription("List recent validation runs, newest first"),
			mcplib.WithNumber("limit", mcplib.Description("Maximum number of runs (default 20)")),
		),
		handleRunHistory(d),
	)
}

// validationResult is the tool-facing view of a report.
type validationResult struct {
	Release      string                `json:"release"`
	Status       string                `json:"status"`
	Passed       bool                  `json:"passed"`
	Summary      domain.WarningSummary `json:"summary"`
	FailedChecks []domain.NamedCheck   `json:"failed_checks"`
	Warnings     []domain.Warning      `json:"warnings"`
	Markdown     string                `json:"markdown"`
}

func resultOf(r *domain.ValidationReport) validationResult {
	failed := r.FailedChecks()
	if failed == nil {
		failed = []domain.NamedCheck{}
	}
	warnings := r.Warnings
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	return validationResult{
		Release:      r.Release,
		Status:       report.Status(r),
		Passed:       !r.HasBlockingErrors(),
		Summary:      r.Summary(),
		FailedChecks: failed,
		Warnings:     warnings,
		Markdown:     report.Markdown(r),
	}
}

// options reads the release and manifest flags shared by validation tools.
func options(d Deps, request mcplib.CallToolRequest) (string, domain.ValidateOptions, error) {
	args := request.GetArguments()
	release, _ := args["release"].(string)
	if release == "" {
		release = domain.DefaultReleaseName(d.Now())
	}
	if err := domain.CheckReleaseName(release); err != nil {
		return "", domain.ValidateOptions{}, err
	}
	update, _ := args["update_manifests"].(bool)
	skipSeek, _ := args["skip_seek"].(bool)
	return release, domain.ValidateOptions{UpdateManifests: update, IncludeSeek: !skipSeek}, nil
}

func handleValidateAll(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		release, opts, err := options(d, request)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		r, err := d.Validator.ValidateAll(ctx, release, opts)
		if err != nil {
			return errorResult(fmt.Sprintf("validation failed: %v", err)), nil
		}
		return jsonResult(resultOf(r))
	}
}

func handleValidateDataset(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		name, err := request.RequireString("dataset")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		release, opts, err := options(d, request)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		r, err := d.Validator.ValidateDataset(ctx, name, release, opts)
		if errors.Is(err, domain.ErrUnknownDataset) {
			return errorResult(fmt.Sprintf("%v (known: %v)", err, d.Validator.Config().DatasetNames())), nil
		}
		if err != nil {
			return errorResult(fmt.Sprintf("validation failed: %v", err)), nil
		}
		return jsonResult(resultOf(r))
	}
}

func handleValidateSeek(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		release, opts, err := options(d, request)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		r, err := d.Validator.ValidateSeek(ctx, release, opts)
		if err != nil {
			return errorResult(fmt.Sprintf("SEEK validation failed: %v", err)), nil
		}
		return jsonResult(resultOf(r))
	}
}

type datasetListing struct {
	Datasets  []domain.DatasetConfig `json:"datasets"`
	Manifests []string               `json:"manifests"`
	Seek      domain.SeekConfig      `json:"seek"`
}

func listing(d Deps) (datasetListing, error) {
	stored, err := d.Manifests.List()
	if err != nil {
		return datasetListing{}, err
	}
	if stored == nil {
		stored = []string{}
	}
	cfg := d.Validator.Config()
	return datasetListing{Datasets: cfg.Datasets, Manifests: stored, Seek: cfg.Seek}, nil
}

func handleListDatasets(d Deps) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		l, err := listing(d)
		if err != nil {
			return errorResult(fmt.Sprintf("listing manifests failed: %v", err)), nil
		}
		return jsonResult(l)
	}
}

// loadManifest returns the stored manifest for name, dispatching the SEEK
// dataset to its own file.
func loadManifest(d Deps, name string) (any, error) {
	if name == domain.SeekDataset {
		m, err := d.Manifests.LoadSeek()
		if err != nil || m == nil {
			return nil, noManifest(name, err)
		}
		return m, nil
	}
	m, err := d.Manifests.Load(name)
	if err != nil || m == nil {
		return nil, noManifest(name, err)
	}
	return m, nil
}

func noManifest(name string, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("no manifest recorded for %s", name)
}

func handleGetManifest(d Deps) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		name, err := request.RequireString("dataset")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		m, err := loadManifest(d, name)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(m)
	}
}

func handleRunHistory(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		if d.History == nil {
			return errorResult("run history is not available"), nil
		}
		limit := request.GetInt("limit", defaultHistoryLimit)
		entries, err := d.History.List(ctx, limit)
		if err != nil {
			return errorResult(fmt.Sprintf("listing runs failed: %v", err)), nil
		}
		if entries == nil {
			entries = []domain.RunEntry{}
		}
		return jsonResult(entries)
	}
}

// jsonResult marshals v as indented JSON into a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns an error content result.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}

// Package mcpserver exposes the facade's search_context operation as
// a tool-invocation protocol server speaking on standard streams. Tool
// names are a closed enumeration dispatched by registration rather
// than a large dynamic dispatch table, since only two tools exist.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/codectx/internal/facade"
	"github.com/standardbeagle/codectx/internal/logging"
)

// toolName is the closed set of tool names this server recognizes. The
// go-sdk dispatches a request to the handler registered under its name,
// so there is no manual switch here to fall off the end of — an
// unrecognized tool name never reaches either handler below.
type toolName string

const (
	toolSearchContext toolName = "search_context"
	toolIndexStatus   toolName = "index_status"
)

// Server wires the facade behind the MCP protocol surface.
type Server struct {
	facade *facade.Facade
	mcp    *mcp.Server
	log    *logging.Logger
}

// New builds a Server around f, registering the implementation's name
// and version with the protocol layer.
func New(f *facade.Facade, name, version string, log *logging.Logger) *Server {
	s := &Server{
		facade: f,
		log:    log,
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves the protocol on standard input/output until ctx is
// cancelled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        string(toolSearchContext),
		Description: "Search a project's indexed source for code relevant to a natural-language query.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project_root_path": {
					Type:        "string",
					Description: "Absolute path to the project root to index and search.",
				},
				"query": {
					Type:        "string",
					Description: "Natural-language description of the code context being sought.",
				},
			},
			Required: []string{"project_root_path", "query"},
		},
	}, s.handleSearchContext)

	s.mcp.AddTool(&mcp.Tool{
		Name:        string(toolIndexStatus),
		Description: "Report the project key, the number of blob identities currently known for a project's registry entry, and whether the last indexing pass's uploads were fully confirmed, without triggering a new indexing pass.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"project_root_path": {
					Type:        "string",
					Description: "Absolute path to the project root to report on.",
				},
			},
			Required: []string{"project_root_path"},
		},
	}, s.handleIndexStatus)
}

type searchContextParams struct {
	ProjectRootPath string `json:"project_root_path"`
	Query           string `json:"query"`
}

func (s *Server) handleSearchContext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params searchContextParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return textResult(fmt.Sprintf("Error: invalid parameters: %v", err)), nil
	}

	text := s.facade.SearchContext(ctx, params.ProjectRootPath, params.Query)
	return textResult(text), nil
}

type indexStatusParams struct {
	ProjectRootPath string `json:"project_root_path"`
}

func (s *Server) handleIndexStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params indexStatusParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return textResult(fmt.Sprintf("Error: invalid parameters: %v", err)), nil
	}

	normalized, err := s.facade.NormalizeProjectRoot(params.ProjectRootPath)
	if err != nil {
		return textResult(fmt.Sprintf("Error: %v", err)), nil
	}

	count := s.facade.KnownIdentityCount(normalized)
	fullyConfirmed, hasRun := s.facade.LastRunStatus(normalized)

	var confirmation string
	switch {
	case !hasRun:
		confirmation = "no indexing pass has run for this project yet in this session"
	case fullyConfirmed:
		confirmation = "last pass's uploads were fully confirmed"
	default:
		confirmation = "last pass's uploads were NOT fully confirmed; some batches failed"
	}

	return textResult(fmt.Sprintf("project: %s\nblob identities indexed: %d\n%s", normalized, count, confirmation)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/graph"
	"github.com/aretw0/pitstop/pkg/policy"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

// Resource URIs exposed by the server.
const (
	PolicyURI = "pitstop://policy"
	GraphURI  = "pitstop://graph"
)

// RunFailure is the wire form of a domain.Failure.
type RunFailure struct {
	Node          string           `json:"node" jsonschema_description:"Node where the run stopped"`
	Kind          domain.ErrorKind `json:"kind" jsonschema_description:"Failure classification"`
	Error         string           `json:"error" jsonschema_description:"Failure message"`
	Configuration bool             `json:"configuration" jsonschema_description:"True when the graph itself is misconfigured"`
}

// RunResponse is the structured result of run_maintenance_workflow.
type RunResponse struct {
	State   *domain.State `json:"state" jsonschema_description:"Final or partial workflow state"`
	Failure *RunFailure   `json:"failure,omitempty" jsonschema_description:"Set when the run halted before a terminal node"`
}

// Engine is what the MCP server needs from the workflow engine.
type Engine interface {
	Run(ctx context.Context) (*domain.State, *domain.Failure)
	Graph() *graph.Graph
	Policy() *policy.Policy
}

// Server exposes the workflow engine as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("pitstop-mcp", version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	runTool := mcp.NewTool("run_maintenance_workflow",
		mcp.WithDescription("Run the predictive maintenance workflow once: detect an anomaly, diagnose it, reach out to the owner and book or record a decline."),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("List the transitions of the workflow graph."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := graphJSON(s.engine.Graph())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	})
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	st, failure := s.engine.Run(ctx)
	resp := RunResponse{State: st}
	if failure != nil {
		s.logger.Warn("MCP run failed", "node", failure.Node, "kind", failure.Kind, "err", failure.Err)
		resp.Failure = &RunFailure{
			Node:          failure.Node,
			Kind:          failure.Kind,
			Error:         failure.Error(),
			Configuration: failure.Configuration(),
		}
	}
	return resp, nil
}

func graphJSON(g *graph.Graph) ([]byte, error) {
	return json.Marshal(g.View())
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(PolicyURI, "Tool Access Policy",
		mcp.WithMIMEType("application/yaml"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		raw, err := yaml.Marshal(s.engine.Policy())
		if err != nil {
			return nil, fmt.Errorf("failed to encode policy: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: PolicyURI, MIMEType: "application/yaml", Text: string(raw)},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Workflow Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		raw, err := graphJSON(s.engine.Graph())
		if err != nil {
			return nil, fmt.Errorf("failed to inspect graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphURI, MIMEType: "application/json", Text: string(raw)},
		}, nil
	})
}

// Package mcp implements a Model Context Protocol server exposing listdelta
// replay and diff as tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

const (
	serverName = "listdelta"

	mcpSpanPrefix = "mcp."
)

// ServerDeps holds injectable dependencies. Zero-value fields use defaults.
type ServerDeps struct {
	// Logger is an optional structured logger.
	Logger *slog.Logger

	// Tracer is an optional tracer for per-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Version is reported as the implementation version.
	Version string

	// AssemblerOptions configure the lists created by tool calls.
	AssemblerOptions []listevent.Option
}

// Server wraps the MCP SDK server with the listdelta tools.
type Server struct {
	inner  *mcpsdk.Server
	tools  []string
	tracer trace.Tracer
	deps   ServerDeps
}

// NewServer returns a server with every tool registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	version := deps.Version
	if version == "" {
		version = "dev"
	}

	srv := &Server{
		inner:  mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: version}, opts),
		tracer: deps.Tracer,
		deps:   deps,
	}

	mcpsdk.AddTool(srv.inner, &mcpsdk.Tool{
		Name:        ToolNameReplay,
		Description: replayToolDescription,
	}, withTracing(srv.tracer, ToolNameReplay, srv.handleReplay))
	srv.tools = append(srv.tools, ToolNameReplay)

	mcpsdk.AddTool(srv.inner, &mcpsdk.Tool{
		Name:        ToolNameDiff,
		Description: diffToolDescription,
	}, withTracing(srv.tracer, ToolNameDiff, srv.handleDiff))
	srv.tools = append(srv.tools, ToolNameDiff)

	return srv
}

// ListToolNames returns the sorted names of the registered tools.
func (s *Server) ListToolNames() []string {
	names := slices.Clone(s.tools)
	slices.Sort(names)

	return names
}

// Run serves on stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// withTracing starts one span per call.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	next func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return next
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := next(ctx, req, input)
		if result != nil && result.IsError {
			span.SetAttributes(attribute.Bool("mcp.tool.error", true))
		}

		return result, output, err
	}
}

const (
	replayToolDescription = "Run a listdelta YAML replay script against an observable list " +
		"and return every published change event with the final contents."

	diffToolDescription = "Diff two texts line by line and return the change blocks " +
		"a list of the old lines would publish to become the new lines."
)

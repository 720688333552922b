package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/listdelta/internal/script"
	"github.com/Sumatoshi-tech/listdelta/pkg/eventcodec"
	"github.com/Sumatoshi-tech/listdelta/pkg/listdiff"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

// Tool names.
const (
	ToolNameReplay = "listdelta_replay"
	ToolNameDiff   = "listdelta_diff"
)

// MaxInputBytes bounds every text input.
const MaxInputBytes = 1 << 20

// Input validation errors.
var (
	ErrEmptyScript   = errors.New("script parameter is required and must not be empty")
	ErrInputTooLarge = errors.New("input exceeds maximum size")
)

// ReplayInput is the input of listdelta_replay.
type ReplayInput struct {
	Script string `json:"script" jsonschema:"YAML replay script with optional initial values and a list of steps"`
}

// DiffInput is the input of listdelta_diff.
type DiffInput struct {
	Old string `json:"old" jsonschema:"the previous text"`
	New string `json:"new" jsonschema:"the current text"`
}

// DiffOutput is the structured result of listdelta_diff.
type DiffOutput struct {
	Changed int               `json:"changed"`
	Event   eventcodec.Record `json:"event"`
	Lines   []string          `json:"lines"`
}

// ToolOutput wraps structured tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleReplay(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input ReplayInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Script == "" {
		return errorResult(ErrEmptyScript)
	}

	if len(input.Script) > MaxInputBytes {
		return errorResult(fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(input.Script), MaxInputBytes))
	}

	parsed, err := script.Parse([]byte(input.Script))
	if err != nil {
		return errorResult(err)
	}

	runner := script.NewRunner(
		script.WithLogger(s.deps.Logger),
		script.WithTracer(s.tracer),
		script.WithAssemblerOptions(s.deps.AssemblerOptions...),
	)

	res, err := runner.Run(ctx, parsed)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(res)
}

func (s *Server) handleDiff(
	_ context.Context, _ *mcpsdk.CallToolRequest, input DiffInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Old)+len(input.New) > MaxInputBytes {
		return errorResult(fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(input.Old)+len(input.New), MaxInputBytes))
	}

	prev, next := listdiff.Lines(input.Old), listdiff.Lines(input.New)

	a := listevent.NewAssembler(nil, s.deps.AssemblerOptions...)

	changed, err := listdiff.Report(a, prev, next)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(DiffOutput{
		Changed: changed,
		Event:   eventcodec.Capture(0, a.LastEvent()),
		Lines:   next,
	})
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}

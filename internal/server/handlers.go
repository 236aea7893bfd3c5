package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/addrslips/internal/detection/testimage"
	"github.com/ironsheep/addrslips/internal/imaging"
	"github.com/ironsheep/addrslips/internal/runner"
	"github.com/ironsheep/addrslips/internal/store"
)

// ErrNoProject is returned by the project tools when the server was started
// without a database.
var ErrNoProject = errors.New("no project database configured (start with --db)")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "detect_house_numbers").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	case "image_info":
		return s.handleImageInfo(args)
	case "detect_house_numbers":
		return s.handleDetect(args)
	case "generate_test_image":
		return s.handleGenerateTestImage(args)
	case "project_areas":
		return s.handleProjectAreas()
	case "project_addresses":
		return s.handleProjectAddresses(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := imaging.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Describe(img, a.Path), nil
}

type detectArgs struct {
	Path          string `json:"path"`
	SkipOCR       bool   `json:"skip_ocr"`
	Sequential    bool   `json:"sequential"`
	DebugDir      string `json:"debug_dir"`
	AnnotateOut   string `json:"annotate_out"`
	AnnotateColor string `json:"annotate_color"`
	Save          bool   `json:"save"`
	AreaName      string `json:"area_name"`
}

type detectResult struct {
	*runner.Result
	Path      string      `json:"path"`
	Annotated string      `json:"annotated,omitempty"`
	Area      *store.Area `json:"area,omitempty"`
}

func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.Save && s.store == nil {
		return nil, ErrNoProject
	}

	res, err := s.runner.DetectFile(a.Path, runner.Options{
		SkipOCR:    a.SkipOCR,
		Sequential: a.Sequential,
		DebugDir:   a.DebugDir,
	})
	if err != nil {
		return nil, err
	}
	out := detectResult{Result: res, Path: a.Path}

	if a.AnnotateOut != "" {
		if a.AnnotateColor == "" {
			a.AnnotateColor = "#FF0000"
		}
		if err := imaging.Save(runner.Annotate(res.Source, res.Detections, a.AnnotateColor), a.AnnotateOut); err != nil {
			return nil, err
		}
		out.Annotated = a.AnnotateOut
	}

	if a.Save {
		abs, err := filepath.Abs(a.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve image path: %w", err)
		}
		name := a.AreaName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
		}
		area, err := s.store.RecordRun(context.Background(), store.NewArea{Name: name, ImagePath: abs}, res.RunID, res.Detections)
		if err != nil {
			return nil, err
		}
		out.Area = &area
	}
	return out, nil
}

type generateArgs struct {
	Path  string `json:"path"`
	Scene string `json:"scene"`
}

func (s *Server) handleGenerateTestImage(args json.RawMessage) (interface{}, error) {
	var a generateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	var scene testimage.Scene
	switch a.Scene {
	case "", "standard":
		scene = testimage.Standard()
	case "street":
		scene = testimage.Street()
	default:
		return nil, fmt.Errorf("unknown scene %q (want standard or street)", a.Scene)
	}
	if err := testimage.Save(scene, a.Path); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"path":    a.Path,
		"width":   scene.Width,
		"height":  scene.Height,
		"markers": len(scene.Markers),
	}, nil
}

func (s *Server) handleProjectAreas() (interface{}, error) {
	if s.store == nil {
		return nil, ErrNoProject
	}
	areas, err := s.store.Areas(context.Background())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"areas": areas}, nil
}

type areaArgs struct {
	AreaID int64 `json:"area_id"`
}

func (s *Server) handleProjectAddresses(args json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, ErrNoProject
	}
	var a areaArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ctx := context.Background()
	area, err := s.store.Area(ctx, a.AreaID)
	if err != nil {
		return nil, err
	}
	addrs, err := s.store.Addresses(ctx, a.AreaID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"area":      area,
		"addresses": addrs,
	}, nil
}

package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_info",
			Description: "Load an image file and return its dimensions, format and color depth.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "detect_house_numbers",
			Description: "Find the white house-number circles on a scanned map and read the number in each. " +
				"Returns one detection per circle with its text, centre position, radius and OCR confidence, ordered top to bottom.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the map image"),
					"skip_ocr": map[string]interface{}{
						"type":        "boolean",
						"description": "Only locate white circles, do not read them. Default false",
						"default":     false,
					},
					"sequential": map[string]interface{}{
						"type":        "boolean",
						"description": "Use the sequential runner instead of the concurrent executor. Default false",
						"default":     false,
					},
					"debug_dir": pathProperty("Optional empty directory that receives every stage's intermediate images"),
					"annotate_out": pathProperty("Optional output path for a copy of the map with every detection outlined"),
					"annotate_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex (e.g., \"#FF0000\"). Default red",
					},
					"save": map[string]interface{}{
						"type":        "boolean",
						"description": "Store the detections in the project database as addresses of the map's area",
						"default":     false,
					},
					"area_name": map[string]interface{}{
						"type":        "string",
						"description": "Area name used when save creates a new area. Default: the file name",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "generate_test_image",
			Description: "Write a synthetic map with numbered white circles, useful to check the detector.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Output path; the format follows the extension"),
					"scene": map[string]interface{}{
						"type":        "string",
						"description": "Scene to draw",
						"enum":        []string{"standard", "street"},
						"default":     "standard",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "project_areas",
			Description: "List the areas stored in the project database.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "project_addresses",
			Description: "List the stored addresses of one area, ordered top to bottom, then left to right.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"area_id": map[string]interface{}{
						"type":        "integer",
						"description": "Area id as returned by project_areas or detect_house_numbers",
					},
				},
				"required": []string{"area_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

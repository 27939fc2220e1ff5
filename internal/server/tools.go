package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// offsetSchema describes an {x, y} object.
func offsetSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer"},
			"y": map[string]interface{}{"type": "integer"},
		},
	}
}

// imagesSchema describes inline layout entries.
func imagesSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Inline layout entries, used instead of a layout file",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Class name for the stylesheet. Defaults to the file name",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the source image",
				},
				"originWidth": map[string]interface{}{
					"type":        "integer",
					"description": "True image width. Optional, checked against the decoded image",
				},
				"originHeight": map[string]interface{}{
					"type":        "integer",
					"description": "True image height. Optional, checked against the decoded image",
				},
				"width": map[string]interface{}{
					"type":        "integer",
					"description": "Width of the box allotted to the image",
				},
				"height": map[string]interface{}{
					"type":        "integer",
					"description": "Height of the box allotted to the image",
				},
				"position": offsetSchema("Shift of the image inside its box; negative values clip the left/top edge"),
				"fit":      offsetSchema("Top-left corner of the box on the sheet"),
			},
			"required": []string{"path", "width", "height"},
		},
	}
}

func layoutProperties() map[string]interface{} {
	return map[string]interface{}{
		"layout": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to a layout file (.json, .yaml, .yml or .toml)",
		},
		"images": imagesSchema(),
		"output": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path of the sprite sheet PNG. Overrides the layout's output",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	combineProps := layoutProperties()
	combineProps["stylesheet"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional path of a CSS file with one rule per image",
	}
	combineProps["image_url"] = map[string]interface{}{
		"type":        "string",
		"description": "URL of the sheet as referenced from the stylesheet. Defaults to the output file name",
	}
	combineProps["prefix"] = map[string]interface{}{
		"type":        "string",
		"description": "Class name prefix for the stylesheet. Default \"sprite-\"",
		"default":     "sprite-",
	}

	verifyProps := layoutProperties()
	verifyProps["sheet"] = map[string]interface{}{
		"type":        "string",
		"description": "Sprite sheet to check. Defaults to the layout's output",
	}
	verifyProps["tolerance"] = map[string]interface{}{
		"type":        "number",
		"description": "Maximum CIEDE2000 colour distance per pixel (0 = exact). Default 0",
		"default":     0.0,
	}

	extractProps := layoutProperties()
	extractProps["sheet"] = map[string]interface{}{
		"type":        "string",
		"description": "Sprite sheet to cut from. Defaults to the layout's output",
	}
	extractProps["sprite"] = map[string]interface{}{
		"type":        "string",
		"description": "Name of the image to extract. May be omitted when the layout has one image",
	}
	extractProps["scale"] = map[string]interface{}{
		"type":        "number",
		"description": "Scale factor for the returned image (e.g. 4 to enlarge a small icon). Default 1",
		"default":     1.0,
	}

	return []Tool{
		// Sprite Sheets
		{
			Name:        "sprite_combine",
			Description: "Combine images into one PNG sprite sheet at precomputed positions. Each image is clipped to its box and copied to its fit offset; the sheet is sized to the furthest box edge plus a 10px margin. Optionally writes a CSS stylesheet.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": combineProps,
			},
		},
		{
			Name:        "sprite_canvas_size",
			Description: "Compute the sprite sheet dimensions a layout needs, without reading any image.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": layoutProperties(),
			},
		},
		{
			Name:        "sprite_verify",
			Description: "Check an existing sprite sheet against its layout: sheet size, every image region, and stray pixels outside all regions.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": verifyProps,
			},
		},
		{
			Name:        "sprite_extract",
			Description: "Cut one image back out of a sprite sheet, at the region the layout assigns it, and return it as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": extractProps,
			},
		},

		// Source Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, sniffed format and alpha channel presence. Use the dimensions as originWidth/originHeight in a layout.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
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

package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// segmentationProps are the optional segmentation parameters shared by the
// tools that segment an image.
func segmentationProps() map[string]interface{} {
	return map[string]interface{}{
		"n_segments": map[string]interface{}{
			"type":        "integer",
			"description": "Approximate number of superpixels. Default from configuration (800)",
			"minimum":     1,
		},
		"compactness": map[string]interface{}{
			"type":        "number",
			"description": "Trade-off between color fidelity (low) and regular shapes (high). Default 10.0",
			"minimum":     0,
		},
		"max_dimension": map[string]interface{}{
			"type":        "integer",
			"description": "Images with a longer side are downscaled before segmentation. Default 3000",
		},
	}
}

func withProps(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Uploads
		{
			Name:        "superpixel_import",
			Description: "Copy an image file into the data directory under a new image id. TIFF images also get a PNG copy, which becomes the filename to segment.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to a PNG, JPEG, GIF, TIFF or WebP image"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "superpixel_image_info",
			Description: "Report dimensions, format, color depth and file size of an imported image, and whether segmentation will downscale it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_filename": stringProp("Stored filename returned by superpixel_import"),
				},
				"required": []string{"image_filename"},
			},
		},

		// Segmentation
		{
			Name:        "superpixel_segment",
			Description: "Partition an imported image into superpixels, outline each one as a polygon, compute per-superpixel statistics and save the result as the image's segmentation record.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(map[string]interface{}{
					"image_filename": stringProp("Stored filename returned by superpixel_import"),
				}, segmentationProps()),
				"required": []string{"image_filename"},
			},
		},
		{
			Name:        "superpixel_get_segments",
			Description: "Return the saved segmentation record of an image: polygons, shape and per-superpixel centroid, area and mean Lab color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_id": stringProp("Image id returned by superpixel_import"),
				},
				"required": []string{"image_id"},
			},
		},

		// Labels
		{
			Name:        "superpixel_save_label",
			Description: "Record a user's label for one superpixel. A later label for the same superpixel replaces the earlier one.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_id": stringProp("Image id returned by superpixel_import"),
					"superpixel_id": map[string]interface{}{
						"type":        "integer",
						"description": "Superpixel id from the segmentation record",
						"minimum":     0,
					},
					"label": stringProp("Label to assign, e.g. good, moderate or bad"),
					"user":  stringProp("Who assigned the label. Default \"anonymous\""),
				},
				"required": []string{"image_id", "superpixel_id", "label"},
			},
		},
		{
			Name:        "superpixel_get_labels",
			Description: "Return every saved label of an image keyed by superpixel id. Images without labels return an empty object.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_id": stringProp("Image id returned by superpixel_import"),
				},
				"required": []string{"image_id"},
			},
		},

		// Classification
		{
			Name:        "superpixel_aggregate",
			Description: "Segment an image and label every superpixel with the majority class of a ground truth mask. The mask must have the same dimensions as the image; its pixel values (or palette indices) are class indices.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(map[string]interface{}{
					"image_filename": stringProp("Stored filename returned by superpixel_import"),
					"mask_path":      stringProp("Absolute path to the ground truth mask image"),
				}, segmentationProps()),
				"required": []string{"image_filename", "mask_path"},
			},
		},
		{
			Name:        "superpixel_classify",
			Description: "Segment an image, classify every superpixel with a trained model and project the classes back to a pixel mask. The mask is saved as an 8-bit PNG; optionally returns a colored overlay as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(map[string]interface{}{
					"image_filename": stringProp("Stored filename returned by superpixel_import"),
					"model_path":     stringProp("Model file written by superpixel-train. Default from configuration"),
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the class colors blended over the image. Default true",
						"default":     true,
					},
					"opacity": map[string]interface{}{
						"type":        "number",
						"description": "Overlay color weight between 0 and 1. Default 0.45",
						"minimum":     0,
						"maximum":     1,
					},
				}, segmentationProps()),
				"required": []string{"image_filename"},
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

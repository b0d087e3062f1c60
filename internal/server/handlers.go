package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/pipeline"
	"github.com/ironsheep/superpixel-tools/internal/projection"
	"github.com/ironsheep/superpixel-tools/internal/segmentation"
	"github.com/ironsheep/superpixel-tools/internal/store"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
	"github.com/ironsheep/superpixel-tools/internal/training"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "superpixel_segment").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolErrorData is attached to failed tool calls so clients can tell caller
// mistakes ("input", "not_found") from data problems ("consistency") and
// server faults ("internal").
type ToolErrorData struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and a ToolErrorData payload.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", ToolErrorData{Kind: "input", Detail: err.Error()})
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn().Err(err).Str("tool", params.Name).Str("kind", superpixel.Kind(err)).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", ToolErrorData{Kind: superpixel.Kind(err), Detail: err.Error()})
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Uploads
	case "superpixel_import":
		return s.handleImport(args)
	case "superpixel_image_info":
		return s.handleImageInfo(args)

	// Segmentation
	case "superpixel_segment":
		return s.handleSegment(ctx, args)
	case "superpixel_get_segments":
		return s.handleGetSegments(args)

	// Labels
	case "superpixel_save_label":
		return s.handleSaveLabel(args)
	case "superpixel_get_labels":
		return s.handleGetLabels(args)

	// Classification
	case "superpixel_aggregate":
		return s.handleAggregate(ctx, args)
	case "superpixel_classify":
		return s.handleClassify(ctx, args)

	default:
		return nil, superpixel.InputError("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, reporting malformed JSON as input
// errors.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return superpixel.InputError("invalid arguments: %v", err)
	}
	return nil
}

// === Upload Handlers ===

type importArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImport(args json.RawMessage) (interface{}, error) {
	var a importArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, superpixel.InputError("path is required")
	}
	return s.store.ImportFile(a.Path)
}

type imageArgs struct {
	ImageFilename string `json:"image_filename"`
}

type imageInfoResult struct {
	*imaging.ImageInfo
	ImageID         string `json:"image_id"`
	WillDownscale   bool   `json:"will_downscale"`
	SegmentedWidth  int    `json:"segmented_width"`
	SegmentedHeight int    `json:"segmented_height"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	path, err := s.store.UploadPath(a.ImageFilename)
	if err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, path)
	if err != nil {
		return nil, err
	}

	res := &imageInfoResult{
		ImageInfo:       info,
		ImageID:         store.ImageIDOf(a.ImageFilename),
		SegmentedWidth:  info.Width,
		SegmentedHeight: info.Height,
	}
	if limit := s.cfg.Segmentation.MaxDimension; limit > 0 && info.LongestSide > limit {
		scale := float64(limit) / float64(info.LongestSide)
		res.WillDownscale = true
		res.SegmentedWidth = max(int(float64(info.Width)*scale), 1)
		res.SegmentedHeight = max(int(float64(info.Height)*scale), 1)
	}
	return res, nil
}

// === Segmentation Handlers ===

type segmentArgs struct {
	ImageFilename string   `json:"image_filename"`
	NSegments     *int     `json:"n_segments"`
	Compactness   *float64 `json:"compactness"`
	MaxDimension  *int     `json:"max_dimension"`
}

// params fills unset parameters from configuration.
func (a segmentArgs) params(defaults segmentation.Params) segmentation.Params {
	p := defaults
	if a.NSegments != nil {
		p.TargetCount = *a.NSegments
	}
	if a.Compactness != nil {
		p.Compactness = *a.Compactness
	}
	if a.MaxDimension != nil {
		p.MaxDimension = *a.MaxDimension
	}
	return p
}

// analyze loads a stored image and runs the pipeline on it.
func (s *Server) analyze(ctx context.Context, a segmentArgs) (*pipeline.Output, error) {
	path, err := s.store.UploadPath(a.ImageFilename)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Analyze(ctx, img, a.params(s.cfg.SegmentationParams()))
}

type segmentResult struct {
	*store.Record
	Downscaled bool    `json:"downscaled"`
	Scale      float64 `json:"scale"`
}

func (s *Server) handleSegment(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	out, err := s.analyze(ctx, a)
	if err != nil {
		return nil, err
	}

	rec := out.Record(store.ImageIDOf(a.ImageFilename), a.ImageFilename)
	if err := s.store.SaveRecord(rec); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("image_id", rec.ImageID).
		Int("regions", rec.NSegments).
		Msg("segmented image")

	return &segmentResult{
		Record:     rec,
		Downscaled: out.Segmentation.Downscaled,
		Scale:      out.Segmentation.Scale,
	}, nil
}

type imageIDArgs struct {
	ImageID string `json:"image_id"`
}

func (s *Server) handleGetSegments(args json.RawMessage) (interface{}, error) {
	var a imageIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.store.LoadRecord(a.ImageID)
}

// === Label Handlers ===

type saveLabelArgs struct {
	ImageID      string `json:"image_id"`
	SuperpixelID *int   `json:"superpixel_id"`
	Label        string `json:"label"`
	User         string `json:"user"`
}

type saveLabelResult struct {
	Status  string           `json:"status"`
	Written bool             `json:"written"`
	Entry   store.LabelEntry `json:"entry"`
}

func (s *Server) handleSaveLabel(args json.RawMessage) (interface{}, error) {
	var a saveLabelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.SuperpixelID == nil {
		return nil, superpixel.InputError("image_id, superpixel_id, label required")
	}
	entry, err := s.store.SaveLabel(a.ImageID, *a.SuperpixelID, a.Label, a.User)
	if err != nil {
		return nil, err
	}
	return &saveLabelResult{Status: "ok", Written: true, Entry: entry}, nil
}

func (s *Server) handleGetLabels(args json.RawMessage) (interface{}, error) {
	var a imageIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.store.Labels(a.ImageID)
}

// === Classification Handlers ===

// className returns the configured name of a class, or its index.
func (s *Server) className(class int) string {
	if class >= 0 && class < len(s.cfg.Classes.Names) {
		return s.cfg.Classes.Names[class]
	}
	return strconv.Itoa(class)
}

type aggregateArgs struct {
	segmentArgs
	MaskPath string `json:"mask_path"`
}

type regionClass struct {
	Class string `json:"class"`
	Index int    `json:"index"`
	Votes int    `json:"votes"`
}

type aggregateResult struct {
	ImageID     string                 `json:"image_id"`
	NSegments   int                    `json:"n_segments"`
	Regions     map[string]regionClass `json:"regions"`
	ClassCounts map[string]int         `json:"class_counts"`
}

func (s *Server) handleAggregate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a aggregateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MaskPath == "" {
		return nil, superpixel.InputError("mask_path is required")
	}

	path, err := s.store.UploadPath(a.ImageFilename)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	maskImg, err := imaging.Decode(a.MaskPath)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Size() != maskImg.Bounds().Size() {
		return nil, superpixel.InputError("image is %v but mask is %v", img.Bounds().Size(), maskImg.Bounds().Size())
	}
	mask, err := superpixel.ClassMaskFromImage(maskImg)
	if err != nil {
		return nil, err
	}

	out, err := s.pipeline.Analyze(ctx, img, a.params(s.cfg.SegmentationParams()))
	if err != nil {
		return nil, err
	}
	if out.Segmentation.Downscaled {
		grid := out.Segmentation.Grid
		if mask, err = training.FitMask(mask, grid.Width, grid.Height); err != nil {
			return nil, err
		}
	}

	_, agg, err := out.Aggregate(mask, len(s.cfg.Classes.Names))
	if err != nil {
		return nil, err
	}

	res := &aggregateResult{
		ImageID:     store.ImageIDOf(a.ImageFilename),
		NSegments:   out.Segmentation.RegionCount,
		Regions:     make(map[string]regionClass, len(agg.Classes)),
		ClassCounts: make(map[string]int),
	}
	for id, class := range agg.Classes {
		name := s.className(class)
		res.Regions[strconv.Itoa(id)] = regionClass{Class: name, Index: class, Votes: agg.Votes[id]}
		res.ClassCounts[name]++
	}
	return res, nil
}

type classifyArgs struct {
	segmentArgs
	ModelPath string   `json:"model_path"`
	Overlay   *bool    `json:"overlay"`
	Opacity   *float64 `json:"opacity"`
}

type classifyResult struct {
	ImageID     string                `json:"image_id"`
	NSegments   int                   `json:"n_segments"`
	Shape       [3]int                `json:"image_shape"`
	Predictions map[string]string     `json:"predictions"`
	ClassCounts map[string]int        `json:"class_counts"`
	MaskPath    string                `json:"mask_path"`
	Overlay     *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) handleClassify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a classifyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	modelPath := a.ModelPath
	if modelPath == "" {
		modelPath = s.cfg.Model.Path
	}
	if modelPath == "" {
		return nil, superpixel.InputError("model_path is required (no default model configured)")
	}
	opacity := s.cfg.Overlay.Opacity
	if a.Opacity != nil {
		opacity = *a.Opacity
	}
	withOverlay := a.Overlay == nil || *a.Overlay

	loaded, err := s.models.Load(modelPath)
	if err != nil {
		return nil, err
	}
	out, err := s.analyze(ctx, a.segmentArgs)
	if err != nil {
		return nil, err
	}
	cls, err := out.Classify(loaded.Model, s.palette, opacity, withOverlay)
	if err != nil {
		return nil, err
	}

	imageID := store.ImageIDOf(a.ImageFilename)
	maskPath, err := s.store.SaveMask(imageID, projection.MaskImage(cls.Mask))
	if err != nil {
		return nil, err
	}

	res := &classifyResult{
		ImageID:     imageID,
		NSegments:   out.Segmentation.RegionCount,
		Shape:       out.Segmentation.Shape,
		Predictions: make(map[string]string, len(cls.Predictions)),
		ClassCounts: make(map[string]int),
		MaskPath:    maskPath,
	}
	for id, class := range cls.Predictions {
		if class == projection.Unassigned {
			continue
		}
		res.Predictions[strconv.Itoa(id)] = s.className(class)
	}
	for class, n := range cls.Counts {
		res.ClassCounts[s.className(class)] += n
	}
	if cls.Overlay != nil {
		if res.Overlay, err = imaging.EncodeBase64PNG(cls.Overlay); err != nil {
			return nil, fmt.Errorf("failed to encode overlay: %w", err)
		}
	}

	s.logger.Info().
		Str("image_id", imageID).
		Str("model", modelPath).
		Int("regions", res.NSegments).
		Msg("classified image")
	return res, nil
}

package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/pixelkit-mcp/internal/detection"
	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
	"github.com/ironsheep/pixelkit-mcp/internal/kernel"
	"github.com/ironsheep/pixelkit-mcp/internal/pipeline"
	"github.com/ironsheep/pixelkit-mcp/internal/tone"
)

// Tool argument defaults.
const (
	defaultFilterIntensity = 100
	defaultAILevel         = 50
	convertQuality         = 0.8
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_adjust", "image_process").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// argsError marks malformed tool arguments, reported as -32602.
type argsError struct {
	err error
}

func (e *argsError) Error() string { return "invalid arguments: " + e.err.Error() }
func (e *argsError) Unwrap() error { return e.err }

func invalidArgs(format string, args ...interface{}) error {
	return &argsError{err: fmt.Errorf(format, args...)}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return -32602. Tool execution errors, including a call
// exceeding the configured tool timeout, return -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.callWithTimeout(ctx, params.Name, params.Arguments)
	if err != nil {
		log.Warn().Err(err).Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("Tool call failed")
		var aErr *argsError
		if errors.As(err, &aErr) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("Tool call complete")

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

// callWithTimeout runs the tool under the configured timeout. When the limit
// passes first the call's result is abandoned; the pixel work itself is not
// interrupted.
func (s *Server) callWithTimeout(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if s.cfg.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ToolTimeout)
		defer cancel()
	}

	type outcome struct {
		v   interface{}
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := s.executeTool(ctx, name, args)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("tool %s did not finish within %s: %w", name, s.cfg.ToolTimeout, ctx.Err())
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Resolves the image source (file path or base64)
//  4. Runs the pipeline or the analysis function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Source Information
	case "image_info":
		return s.handleImageInfo(args)

	// Point Transforms
	case "image_adjust":
		return s.handleImageAdjust(ctx, args)
	case "image_filter":
		return s.handleImageFilter(ctx, args)

	// Geometry
	case "image_transform":
		return s.handleImageTransform(ctx, args)

	// Kernel and Edge-Aware Features
	case "image_ai_feature":
		return s.handleImageAIFeature(ctx, args)
	case "image_process":
		return s.handleImageProcess(ctx, args)

	// Output
	case "image_convert":
		return s.handleImageConvert(ctx, args)
	case "image_to_base64":
		return s.handleImageToBase64(ctx, args)

	// Analysis
	case "image_edge_map":
		return s.handleImageEdgeMap(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
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

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &argsError{err: err}
	}
	return nil
}

// === Shared Argument Groups ===

type sourceArgs struct {
	Path   string `json:"path"`
	Base64 string `json:"base64"`
}

func (a sourceArgs) source() (imaging.Source, error) {
	switch {
	case a.Path != "" && a.Base64 != "":
		return imaging.Source{}, invalidArgs("give either path or base64, not both")
	case a.Path != "":
		return imaging.LoadFile(a.Path)
	case a.Base64 != "":
		return imaging.FromBase64(a.Base64), nil
	}
	return imaging.Source{}, invalidArgs("path or base64 is required")
}

type outputArgs struct {
	Format     string   `json:"format"`
	Quality    *float64 `json:"quality"`
	OutputPath string   `json:"output_path"`
}

type adjustmentArgs struct {
	Brightness    *int   `json:"brightness"`
	Contrast      *int   `json:"contrast"`
	Saturation    *int   `json:"saturation"`
	ContrastModel string `json:"contrast_model"`
	LumaModel     string `json:"luma_model"`
}

func (a adjustmentArgs) config() (pipeline.AdjustmentConfig, error) {
	cfg := pipeline.DefaultAdjustment()
	if a.Brightness != nil {
		cfg.Brightness = *a.Brightness
	}
	if a.Contrast != nil {
		cfg.Contrast = *a.Contrast
	}
	if a.Saturation != nil {
		cfg.Saturation = *a.Saturation
	}
	cm, err := tone.ParseContrastModel(a.ContrastModel)
	if err != nil {
		return cfg, imaging.NewConfigError("contrast_model", "%v", err)
	}
	lm, err := imaging.ParseLumaModel(a.LumaModel)
	if err != nil {
		return cfg, imaging.NewConfigError("luma_model", "%v", err)
	}
	cfg.ContrastModel, cfg.LumaModel = cm, lm
	return cfg, nil
}

type filterArgs struct {
	Filter    string `json:"filter"`
	Intensity *int   `json:"intensity"`
}

func (a filterArgs) config() (pipeline.FilterConfig, error) {
	kind, err := tone.ParseFilterKind(a.Filter)
	if err != nil {
		return pipeline.FilterConfig{}, imaging.NewConfigError("filter", "%v", err)
	}
	cfg := pipeline.FilterConfig{Kind: kind, Intensity: defaultFilterIntensity}
	if a.Intensity != nil {
		cfg.Intensity = *a.Intensity
	}
	return cfg, nil
}

type geometryArgs struct {
	Rotation *float64 `json:"rotation"`
	Scale    *float64 `json:"scale"`
}

func (a geometryArgs) config() pipeline.GeometryConfig {
	cfg := pipeline.DefaultGeometry()
	if a.Rotation != nil {
		cfg.RotationDeg = *a.Rotation
	}
	if a.Scale != nil {
		cfg.ScalePct = *a.Scale
	}
	return cfg
}

type aiArgs struct {
	Feature string `json:"feature"`
	Level   *int   `json:"level"`
	Color   string `json:"color"`
	Style   string `json:"style"`
}

func (a aiArgs) config() (pipeline.AIFeatureConfig, error) {
	kind, err := pipeline.ParseAIFeatureKind(a.Feature)
	if err != nil {
		return pipeline.AIFeatureConfig{}, imaging.NewConfigError("feature", "%v", err)
	}
	cfg := pipeline.AIFeatureConfig{
		Kind:  kind,
		Level: defaultAILevel,
		Color: a.Color,
		Style: kernel.StylePreset(a.Style),
	}
	if a.Level != nil {
		cfg.Level = *a.Level
	}
	return cfg, nil
}

// imageResult is returned by every image-producing tool.
type imageResult struct {
	RunID       string                     `json:"run_id"`
	Width       int                        `json:"width"`
	Height      int                        `json:"height"`
	Format      imaging.Format             `json:"format"`
	MimeType    string                     `json:"mime_type"`
	SizeBytes   int                        `json:"size_bytes"`
	ImageBase64 string                     `json:"image_base64"`
	OutputPath  string                     `json:"output_path,omitempty"`
	Background  *detection.BackgroundStats `json:"background,omitempty"`
}

func newImageResult(runID string, art *imaging.Artifact) *imageResult {
	return &imageResult{
		RunID:       runID,
		Width:       art.Width,
		Height:      art.Height,
		Format:      art.Format,
		MimeType:    art.MimeType,
		SizeBytes:   art.Size(),
		ImageBase64: art.Base64,
	}
}

// runPipeline resolves the source and output options, runs the transforms
// and writes the artifact to output_path when one was given.
func (s *Server) runPipeline(ctx context.Context, src sourceArgs, out outputArgs, defaultQuality *float64, transforms ...pipeline.Transform) (*imageResult, error) {
	source, err := src.source()
	if err != nil {
		return nil, err
	}
	req := s.pipeline.NewRequest(source, transforms...)
	if out.Format != "" {
		f, err := imaging.ParseFormat(out.Format)
		if err != nil {
			return nil, imaging.NewConfigError("format", "%v", err)
		}
		req.Format = f
	}
	switch {
	case out.Quality != nil:
		req.Quality = *out.Quality
	case defaultQuality != nil:
		req.Quality = *defaultQuality
	}

	res, err := s.pipeline.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("run %s failed (%s): %w", res.RunID, res.Failure, err)
	}

	result := newImageResult(res.RunID, res.Artifact)
	result.Background = res.Background
	if err := writeOutput(ctx, res.Artifact, out.OutputPath); err != nil {
		return nil, err
	}
	result.OutputPath = out.OutputPath
	return result, nil
}

// writeOutput saves art to path unless path is empty or ctx is already
// done. A call abandoned by the tool timeout must not leave a file behind.
func writeOutput(ctx context.Context, art *imaging.Artifact, path string) error {
	if path == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return art.WriteFile(path)
}

// === Source Information Handlers ===

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	return imaging.Inspect(src)
}

// === Point Transform Handlers ===

type imageAdjustArgs struct {
	sourceArgs
	adjustmentArgs
	outputArgs
}

func (s *Server) handleImageAdjust(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageAdjustArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := a.adjustmentArgs.config()
	if err != nil {
		return nil, err
	}
	return s.runPipeline(ctx, a.sourceArgs, a.outputArgs, nil, cfg)
}

type imageFilterArgs struct {
	sourceArgs
	filterArgs
	outputArgs
}

func (s *Server) handleImageFilter(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageFilterArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Filter == "" {
		return nil, invalidArgs("filter is required")
	}
	cfg, err := a.filterArgs.config()
	if err != nil {
		return nil, err
	}
	return s.runPipeline(ctx, a.sourceArgs, a.outputArgs, nil, cfg)
}

// === Geometry Handlers ===

type imageTransformArgs struct {
	sourceArgs
	geometryArgs
	outputArgs
}

func (s *Server) handleImageTransform(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageTransformArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.runPipeline(ctx, a.sourceArgs, a.outputArgs, nil, a.geometryArgs.config())
}

// === Kernel and Edge-Aware Handlers ===

type imageAIFeatureArgs struct {
	sourceArgs
	aiArgs
	outputArgs
}

func (s *Server) handleImageAIFeature(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageAIFeatureArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Feature == "" {
		return nil, invalidArgs("feature is required")
	}
	cfg, err := a.aiArgs.config()
	if err != nil {
		return nil, err
	}
	return s.runPipeline(ctx, a.sourceArgs, a.outputArgs, nil, cfg)
}

type imageProcessArgs struct {
	sourceArgs
	outputArgs
	Geometry   *geometryArgs   `json:"geometry"`
	Filter     *filterArgs     `json:"filter"`
	Adjustment *adjustmentArgs `json:"adjustment"`
	AI         *aiArgs         `json:"ai"`
}

func (s *Server) handleImageProcess(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageProcessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var transforms []pipeline.Transform
	if a.Geometry != nil {
		transforms = append(transforms, a.Geometry.config())
	}
	if a.Filter != nil {
		cfg, err := a.Filter.config()
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, cfg)
	}
	if a.Adjustment != nil {
		cfg, err := a.Adjustment.config()
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, cfg)
	}
	if a.AI != nil {
		cfg, err := a.AI.config()
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, cfg)
	}
	return s.runPipeline(ctx, a.sourceArgs, a.outputArgs, nil, transforms...)
}

// === Output Handlers ===

type imageConvertArgs struct {
	sourceArgs
	outputArgs
}

func (s *Server) handleImageConvert(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageConvertArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		return nil, invalidArgs("format is required")
	}
	q := convertQuality
	return s.runPipeline(ctx, a.sourceArgs, a.outputArgs, &q)
}

type imageToBase64Args struct {
	sourceArgs
	Prefix      bool `json:"prefix"`
	Compression *int `json:"compression"`
}

func (s *Server) handleImageToBase64(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageToBase64Args
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var (
		result *imageResult
		err    error
	)
	if c := a.Compression; c != nil && *c != 0 && *c < 100 {
		q := float64(max(*c, 1)) / 100
		out := outputArgs{Format: string(imaging.FormatJPEG), Quality: &q}
		result, err = s.runPipeline(ctx, a.sourceArgs, out, nil)
	} else {
		result, err = s.passthroughBase64(ctx, a.sourceArgs)
	}
	if err != nil {
		return nil, err
	}
	if a.Prefix {
		result.ImageBase64 = fmt.Sprintf("data:%s;base64,%s", result.MimeType, result.ImageBase64)
	}
	return result, nil
}

// passthroughBase64 returns the source bytes unchanged once they are known
// to decode, labelled with the detected container format.
func (s *Server) passthroughBase64(ctx context.Context, src sourceArgs) (*imageResult, error) {
	source, err := src.source()
	if err != nil {
		return nil, err
	}
	data, err := source.Bytes()
	if err != nil {
		return nil, &imaging.DecodeError{Reason: "unreadable source", Err: err}
	}
	info, err := imaging.Inspect(imaging.FromBytes(data))
	if err != nil {
		return nil, err
	}
	if _, err := s.pipeline.Codec().Decode(imaging.FromBytes(data)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, err := imaging.ParseFormat(info.Format)
	if err != nil {
		return nil, &imaging.DecodeError{Reason: "unsupported container", Err: err}
	}
	return &imageResult{
		RunID:       uuid.NewString(),
		Width:       info.Width,
		Height:      info.Height,
		Format:      format,
		MimeType:    format.MimeType(),
		SizeBytes:   len(data),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
	}, nil
}

// === Analysis Handlers ===

type imageEdgeMapArgs struct {
	sourceArgs
	Threshold  *float64 `json:"threshold"`
	OutputPath string   `json:"output_path"`
}

type edgeMapResult struct {
	*imageResult
	Threshold  float64 `json:"threshold"`
	EdgePixels int     `json:"edge_pixels"`
}

func (s *Server) handleImageEdgeMap(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageEdgeMapArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	threshold := detection.DefaultEdgeThreshold
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if threshold < 0 {
		return nil, imaging.NewConfigError("threshold", "must not be negative, got %g", threshold)
	}

	src, err := a.source()
	if err != nil {
		return nil, err
	}
	codec := s.pipeline.Codec()
	buf, err := codec.Decode(src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	edges := detection.SobelEdges(buf, threshold)
	art, err := codec.Encode(detection.RenderEdgeMap(edges), imaging.FormatPNG, 1)
	if err != nil {
		return nil, err
	}

	result := edgeMapResult{
		imageResult: newImageResult(uuid.NewString(), art),
		Threshold:   threshold,
		EdgePixels:  edges.Count(),
	}
	if err := writeOutput(ctx, art, a.OutputPath); err != nil {
		return nil, err
	}
	result.OutputPath = a.OutputPath
	return result, nil
}

package server

import (
	"fmt"
	"strconv"

	"github.com/ironsheep/pixelkit-mcp/internal/config"
	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// sourceProperties are accepted by every tool: exactly one of path or base64.
func sourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the source image file. Use either path or base64.",
		},
		"base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64 image data, optionally with a data:image/...;base64, prefix. Use either path or base64.",
		},
	}
}

// outputProperties are accepted by every image-producing tool.
func outputProperties(defaultFormat imaging.Format, defaultQuality float64) map[string]interface{} {
	return map[string]interface{}{
		"format": map[string]interface{}{
			"type":        "string",
			"description": fmt.Sprintf("Output format. Default %s", defaultFormat),
			"enum":        []string{"png", "jpeg", "gif", "bmp", "tiff"},
			"default":     string(defaultFormat),
		},
		"quality": map[string]interface{}{
			"type":        "number",
			"description": "Encoder quality 0.0-1.0, used by jpeg only. Default " + strconv.FormatFloat(defaultQuality, 'g', -1, 64),
			"minimum":     0,
			"maximum":     1,
			"default":     defaultQuality,
		},
		"output_path": map[string]interface{}{
			"type":        "string",
			"description": "Optional absolute path to also write the encoded image to",
		},
	}
}

// objectSchema merges property groups into one object schema.
func objectSchema(required []string, groups ...map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{}
	for _, g := range groups {
		for k, v := range g {
			props[k] = v
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func adjustmentProperties() map[string]interface{} {
	return map[string]interface{}{
		"brightness": map[string]interface{}{
			"type":        "integer",
			"description": "Brightness percent 0-200, 100 = unchanged. Default 100",
			"default":     100,
		},
		"contrast": map[string]interface{}{
			"type":        "integer",
			"description": "Contrast -100 to 100, 0 = unchanged. Default 0",
			"default":     0,
		},
		"saturation": map[string]interface{}{
			"type":        "integer",
			"description": "Saturation percent 0-200, 100 = unchanged, 0 = grayscale. Default 100",
			"default":     100,
		},
		"contrast_model": map[string]interface{}{
			"type":        "string",
			"description": "Contrast formula: linear (default) or curve",
			"enum":        []string{"linear", "curve"},
		},
		"luma_model": map[string]interface{}{
			"type":        "string",
			"description": "Gray reference used by saturation: perceptual (default), average or rec601",
			"enum":        []string{"perceptual", "average", "rec601"},
		},
	}
}

func filterProperties() map[string]interface{} {
	return map[string]interface{}{
		"filter": map[string]interface{}{
			"type":        "string",
			"description": "Filter to apply",
			"enum":        []string{"none", "grayscale", "sepia", "warm", "cool", "posterize", "blur"},
		},
		"intensity": map[string]interface{}{
			"type":        "integer",
			"description": "Filter strength 0-100. Warm and cool ignore it. For blur the radius is intensity/10 pixels. Default 100",
			"default":     100,
		},
	}
}

func geometryProperties() map[string]interface{} {
	return map[string]interface{}{
		"rotation": map[string]interface{}{
			"type":        "number",
			"description": "Rotation in degrees, -180 to 180. Default 0",
			"default":     0,
		},
		"scale": map[string]interface{}{
			"type":        "number",
			"description": "Scale percent, 10 to 200. Default 100",
			"default":     100,
		},
	}
}

func aiFeatureProperties() map[string]interface{} {
	return map[string]interface{}{
		"feature": map[string]interface{}{
			"type":        "string",
			"description": "enhance (sharpen), restore (denoise), retouch (skin smoothing), background (replace a near-white background), style (artistic preset)",
			"enum":        []string{"enhance", "restore", "retouch", "background", "style"},
		},
		"level": map[string]interface{}{
			"type":        "integer",
			"description": "Effect strength 0-100. Default 50",
			"default":     50,
		},
		"color": map[string]interface{}{
			"type":        "string",
			"description": "Replacement color as #RGB or #RRGGBB. Required for background",
		},
		"style": map[string]interface{}{
			"type":        "string",
			"description": "Style preset. Required for style",
			"enum":        []string{"anime", "vintage", "noir", "sketch", "emboss", "oil"},
		},
	}
}

// GetToolDefinitions returns all available tools. Output defaults in the
// schemas are taken from cfg.
func GetToolDefinitions(cfg config.Config) []Tool {
	output := outputProperties(cfg.DefaultFormat, cfg.DefaultQuality)
	return []Tool{
		// Source Information
		{
			Name:        "image_info",
			Description: "Inspect an image without decoding its pixels: dimensions, format, color depth, alpha, size, and EXIF camera/date when present.",
			InputSchema: objectSchema(nil, sourceProperties()),
		},

		// Point Transforms
		{
			Name:        "image_adjust",
			Description: "Adjust brightness, contrast and saturation. Returns the result as base64 along with its dimensions and format.",
			InputSchema: objectSchema(nil, sourceProperties(), adjustmentProperties(), output),
		},
		{
			Name:        "image_filter",
			Description: "Apply a color filter (grayscale, sepia, warm, cool, posterize, blur) blended by intensity.",
			InputSchema: objectSchema([]string{"filter"}, sourceProperties(), filterProperties(), output),
		},

		// Geometry
		{
			Name:        "image_transform",
			Description: "Rotate and scale an image about its center. The canvas keeps its size; uncovered areas become transparent.",
			InputSchema: objectSchema(nil, sourceProperties(), geometryProperties(), output),
		},

		// Kernel and Edge-Aware Features
		{
			Name:        "image_ai_feature",
			Description: "Run one enhancement feature: enhance, restore, retouch, background replacement or a style preset. Background replacement only detects near-white backgrounds.",
			InputSchema: objectSchema([]string{"feature"}, sourceProperties(), aiFeatureProperties(), output),
		},
		{
			Name:        "image_process",
			Description: "Run the full pipeline in one call. Stages run in fixed order: geometry, filter, adjustment, then the ai feature. Omit a stage to skip it.",
			InputSchema: objectSchema(nil, sourceProperties(), map[string]interface{}{
				"geometry": map[string]interface{}{
					"type":       "object",
					"properties": geometryProperties(),
				},
				"filter": map[string]interface{}{
					"type":       "object",
					"properties": filterProperties(),
					"required":   []string{"filter"},
				},
				"adjustment": map[string]interface{}{
					"type":       "object",
					"properties": adjustmentProperties(),
				},
				"ai": map[string]interface{}{
					"type":       "object",
					"properties": aiFeatureProperties(),
					"required":   []string{"feature"},
				},
			}, output),
		},

		// Output
		{
			Name:        "image_convert",
			Description: "Re-encode an image in another format.",
			InputSchema: objectSchema([]string{"format"}, sourceProperties(), outputProperties(cfg.DefaultFormat, convertQuality)),
		},
		{
			Name:        "image_to_base64",
			Description: "Encode an image as base64 text, optionally as a data URL. The source bytes are returned unchanged unless a compression between 1 and 99 re-encodes them as jpeg at that quality.",
			InputSchema: objectSchema(nil, sourceProperties(), map[string]interface{}{
				"prefix": map[string]interface{}{
					"type":        "boolean",
					"description": "Prepend the data:<mime>;base64, header. Default false",
					"default":     false,
				},
				"compression": map[string]interface{}{
					"type":        "integer",
					"description": "1-99 re-encodes as jpeg with quality compression/100. 0 or 100 returns the source bytes as-is. Default 100",
					"default":     100,
				},
			}),
		},

		// Analysis
		{
			Name:        "image_edge_map",
			Description: "Compute the Sobel edge map used by background replacement and return it as a black and white PNG.",
			InputSchema: objectSchema(nil, sourceProperties(), map[string]interface{}{
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Gradient magnitude above which a pixel is an edge. Default 30",
					"default":     30,
				},
				"output_path": map[string]interface{}{
					"type":        "string",
					"description": "Optional absolute path to also write the PNG to",
				},
			}),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(s.cfg),
		},
	}
}

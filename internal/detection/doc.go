// Package detection provides edge-aware transforms for RGBA buffers.
//
// # Edge Detection
//
// SobelEdges estimates the luma gradient of every interior pixel with the
// two 3x3 Sobel kernels and marks pixels whose magnitude exceeds a
// threshold. The result is an EdgeMap: one flag per pixel, scoped to the
// call that computed it and never cached.
//
// RenderEdgeMap turns an EdgeMap into a viewable black and white image.
//
// # Background Replacement
//
// ReplaceBackground recolors a light backdrop while keeping the subject
// intact:
//
//  1. Edge Detection: Sobel magnitude above 30 marks an edge
//  2. Classification: non-edge pixels with R, G and B all above 240
//  3. Replacement: background pixels take the target color, alpha kept
//  4. Softening: edge pixels get a 3x3 box blur of the pre-replacement image
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Limitations
//
// Classification is a near-white threshold, not segmentation. Photographs
// shot against dark, colored or textured backdrops are left unchanged, and
// bright highlights inside the subject that are not on an edge are
// recolored along with the background.
package detection

// Package imaging is the buffer access layer of the pixel pipeline.
//
// It turns encoded images (files, raw bytes, Base64 text or data URLs) into
// Buffers of interleaved 8-bit RGBA samples and turns Buffers back into
// encoded Artifacts. It also hosts the small color helpers shared by the
// transform packages and the error taxonomy of the pipeline.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward.
//
// # Formats
//
// Decoding supports PNG, JPEG, GIF, BMP, TIFF and WebP. EXIF orientation is
// applied on decode. Encoding supports PNG, JPEG, GIF, BMP and TIFF; quality
// only matters for JPEG. Requesting WebP output returns an *EncodeError.
//
// # Ownership
//
// Every Decode call allocates a new Buffer and never mutates the caller's
// bytes. Buffers are not safe for concurrent mutation; each pipeline run owns
// the Buffer it decoded. Nothing is cached between calls.
//
// # Error Handling
//
//   - *DecodeError: the source is not a supported raster image, is corrupt,
//     or has zero dimensions.
//   - *EncodeError: the output format is unsupported or the buffer exceeds
//     the codec's limits.
//   - *ConfigError: a transform parameter is out of range or missing. Raised
//     by the transform packages before any buffer is touched.
package imaging

// Package imaging loads, normalizes and encodes images for the superpixel
// pipeline.
//
// It decodes PNG, JPEG, GIF, TIFF and WebP files, caches decoded images,
// converts them to normalized RGB rasters and CIELAB, downscales oversized
// orthomosaics and encodes results as PNG.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// Rasters are always anchored at the origin, whatever the bounds of the
// source image.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Other functions are
// stateless and can be called concurrently on different images.
//
// # Color Representation
//
//   - Raster components are float64 in [0, 1], alpha dropped
//   - Lab: L in 0-100, a and b roughly -128 to 127 (D65)
//   - Hex: "#RRGGBB", optionally "#RRGGBBAA" on input
//
// # Error Handling
//
// Missing files wrap superpixel.ErrNotFound. Undecodable files and zero-area
// images wrap superpixel.ErrInput.
package imaging

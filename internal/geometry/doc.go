// Package geometry converts a label grid into one simplified outline per
// region.
//
// # Algorithm
//
// Extract follows the same pipeline for every region:
//
//  1. Bounding boxes: one pass over the grid records each region's box, so
//     later steps only touch pixels near the region
//  2. Components: the region's pixels are split into 8-connected blobs
//  3. Boundary tracing: the outer boundary of each blob is traced with
//     Moore-neighbor tracing, producing a closed ring through the centers of
//     boundary pixels
//  4. Selection: the blob whose ring encloses the largest area is kept
//  5. Simplification: Douglas-Peucker with a tolerance of 1% of the ring's
//     length removes redundant vertices
//
// # Limitations
//
// A region split into several disjoint blobs is reported by its dominant
// blob only. Polygon.Components tells callers how many blobs were found so
// they can detect such regions. Holes inside a region are not represented.
//
// # Coordinate System
//
// Vertices are integer pixel coordinates with (0,0) at the top-left. Polygons
// are implicitly closed; the first vertex is not repeated at the end. A region
// consisting of a single pixel yields a one-vertex polygon, and a region one
// pixel wide and straight yields its two end pixels.
package geometry

// Package superpixel defines the data shared by every stage of the superpixel
// pipeline: the label grid produced by segmentation, class masks used for
// ground truth and predictions, and the error kinds each stage reports.
//
// # Region Ids
//
// Region ids are 0-based. Grids produced by segmentation are also contiguous,
// so a grid with N regions uses exactly the ids 0..N-1. Hand-built grids may
// leave gaps; an id with no pixels is simply absent from every output.
//
// Every cell of a LabelGrid belongs to exactly one region. There is no
// reserved background id, so the sum of region areas always equals
// Width*Height.
//
// # Layout
//
// Grids and masks are stored row-major: the cell at (x, y) lives at index
// y*Width + x. Coordinates follow the image convention used across this
// module, with (0,0) at the top-left corner.
//
// # Errors
//
// Stages wrap one of ErrInput, ErrNotFound or ErrConsistency so callers can
// branch with errors.Is. Numeric degeneracies such as zero variance are
// handled where they occur and never surface as errors.
package superpixel

// Package store persists uploads, segmentation records, per-superpixel user
// labels and class masks under one data directory:
//
//	<root>/uploads/<image_id>_<name>          original uploads (plus .png previews for TIFF)
//	<root>/segments/<image_id>_segments.json  segmentation records
//	<root>/labels/<image_id>_labels.json      user labels
//	<root>/masks/<image_id>_mask.png          projected class masks
//
// Every JSON or PNG write goes to a temporary file in the target directory,
// is synced and then renamed over the target, so readers never observe a
// partial file. Label updates are read-modify-write and are serialized by the
// Store.
package store

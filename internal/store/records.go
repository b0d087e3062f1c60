package store

import (
	"path/filepath"

	"github.com/ironsheep/superpixel-tools/internal/geometry"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// FeatureSummary is the per-region statistics kept in a record.
type FeatureSummary struct {
	Centroid [2]float64 `json:"centroid"`
	Area     int        `json:"area"`
	LabMean  [3]float64 `json:"lab_mean"`
}

// Record is the durable result of segmenting one image.
type Record struct {
	ImageID       string `json:"image_id"`
	ImageFilename string `json:"image_filename"`

	// ImageShape is [height, width, 3] of the frame that was segmented,
	// which is smaller than the upload when it was downscaled.
	ImageShape [3]int `json:"image_shape"`

	// NSegments is the number of regions produced.
	NSegments int `json:"n_segments"`

	Polygons []geometry.Polygon `json:"polygons"`
	Meta     geometry.Meta      `json:"meta"`

	// Features is keyed by the decimal region id.
	Features map[string]FeatureSummary `json:"features"`
}

func (s *Store) recordPath(imageID string) string {
	return filepath.Join(s.root, SegmentsDir, imageID+"_segments.json")
}

// SaveRecord writes rec, replacing any earlier record for the same image.
func (s *Store) SaveRecord(rec *Record) error {
	if rec == nil {
		return superpixel.InputError("record is nil")
	}
	if err := checkID("image id", rec.ImageID); err != nil {
		return err
	}
	if err := s.writeJSON(s.recordPath(rec.ImageID), rec); err != nil {
		return err
	}
	s.logger.Debug().Str("image_id", rec.ImageID).Int("regions", rec.NSegments).Msg("saved segmentation record")
	return nil
}

// LoadRecord reads the record for imageID. A missing record wraps
// superpixel.ErrNotFound.
func (s *Store) LoadRecord(imageID string) (*Record, error) {
	if err := checkID("image id", imageID); err != nil {
		return nil, err
	}
	var rec Record
	if err := s.readJSON(s.recordPath(imageID), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Package pipeline chains segmentation, polygon extraction, feature
// extraction, classification and projection.
package pipeline

import (
	"context"
	"image"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/superpixel-tools/internal/classifier"
	"github.com/ironsheep/superpixel-tools/internal/features"
	"github.com/ironsheep/superpixel-tools/internal/geometry"
	"github.com/ironsheep/superpixel-tools/internal/labeling"
	"github.com/ironsheep/superpixel-tools/internal/projection"
	"github.com/ironsheep/superpixel-tools/internal/segmentation"
	"github.com/ironsheep/superpixel-tools/internal/store"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// Pipeline runs the superpixel stages for one image at a time. It holds no
// per-image state and is safe for concurrent use.
type Pipeline struct {
	adapter *segmentation.Adapter
	logger  zerolog.Logger
}

// New creates a pipeline that segments with adapter. A nil adapter uses SLIC.
func New(adapter *segmentation.Adapter, logger zerolog.Logger) *Pipeline {
	if adapter == nil {
		adapter = segmentation.NewAdapter(nil, segmentation.WithLogger(logger))
	}
	return &Pipeline{adapter: adapter, logger: logger}
}

// Output holds everything derived from one segmentation.
type Output struct {
	Segmentation *segmentation.Result
	Geometry     *geometry.Result
	Features     *features.Set
}

// Analyze segments img and derives polygons and features concurrently from
// the shared grid.
func (p *Pipeline) Analyze(ctx context.Context, img image.Image, params segmentation.Params) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seg, err := p.adapter.Segment(img, params)
	if err != nil {
		return nil, err
	}

	out := &Output{Segmentation: seg}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := geometry.Extract(seg.Grid)
		if err != nil {
			return err
		}
		out.Geometry = res
		return ctx.Err()
	})
	g.Go(func() error {
		set, err := features.Extract(seg.Image, seg.Grid)
		if err != nil {
			return err
		}
		out.Features = set
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug().
		Int("regions", seg.RegionCount).
		Int("polygons", len(out.Geometry.Polygons)).
		Bool("downscaled", seg.Downscaled).
		Msg("analyzed image")
	return out, nil
}

// Record converts o into the durable segmentation record.
func (o *Output) Record(imageID, filename string) *store.Record {
	rec := &store.Record{
		ImageID:       imageID,
		ImageFilename: filename,
		ImageShape:    o.Segmentation.Shape,
		NSegments:     o.Segmentation.RegionCount,
		Polygons:      o.Geometry.Polygons,
		Meta:          o.Geometry.Meta,
		Features:      make(map[string]store.FeatureSummary, len(o.Features.Regions)),
	}
	for _, r := range o.Features.Regions {
		rec.Features[strconv.Itoa(r.ID)] = store.FeatureSummary{
			Centroid: r.Centroid,
			Area:     r.Area,
			LabMean:  r.LabMean,
		}
	}
	return rec
}

// Aggregate assigns each region of o the majority class of mask. The mask
// must match the segmented frame, so a mask for a downscaled image has to be
// downscaled the same way first.
func (o *Output) Aggregate(mask *superpixel.ClassMask, numClasses int) ([]labeling.Example, *labeling.Result, error) {
	res, err := labeling.Aggregate(o.Segmentation.Grid, mask, numClasses)
	if err != nil {
		return nil, nil, err
	}
	examples, err := labeling.TrainingExamples(o.Features, res)
	if err != nil {
		return nil, nil, err
	}
	return examples, res, nil
}

// Classification is the result of Classify.
type Classification struct {
	*projection.Result

	// Predictions is the class of every region, indexed by region id.
	Predictions []int

	// Counts is the number of regions predicted for each class.
	Counts map[int]int
}

// Classify predicts a class per region of o with model and projects the
// classes back to pixels. When withOverlay is set the palette is blended over
// the segmented frame.
func (o *Output) Classify(model classifier.Model, palette projection.Palette, opacity float64, withOverlay bool) (*Classification, error) {
	if model == nil {
		return nil, superpixel.InputError("model is nil")
	}
	preds, err := model.Predict(o.Features.Matrix())
	if err != nil {
		return nil, err
	}
	table, err := projection.PredictionsByID(o.Features.IDs(), preds)
	if err != nil {
		return nil, err
	}

	var img image.Image
	if withOverlay {
		img = o.Segmentation.Image
	}
	res, err := projection.Render(img, o.Segmentation.Grid, table, palette, opacity)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, c := range preds {
		counts[c]++
	}
	return &Classification{Result: res, Predictions: table, Counts: counts}, nil
}

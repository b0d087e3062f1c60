// Package training builds labeled datasets from image/mask directories and
// fits region classifiers on them.
package training

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	imgutil "github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/labeling"
	"github.com/ironsheep/superpixel-tools/internal/pipeline"
	"github.com/ironsheep/superpixel-tools/internal/segmentation"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// Pair is an image and the ground truth mask with the same file name.
type Pair struct {
	Image string
	Mask  string
}

// FindPairs lists the images in imagesDir that have a mask of the same name
// in masksDir, sorted by name. Images without a mask are logged and skipped.
func FindPairs(imagesDir, masksDir string, logger zerolog.Logger) ([]Pair, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, superpixel.NotFoundError("images directory %s", imagesDir)
		}
		return nil, err
	}

	var pairs []Pair
	for _, e := range entries {
		if e.IsDir() || imgutil.FormatOf(e.Name()) == "unknown" {
			continue
		}
		mask := filepath.Join(masksDir, e.Name())
		if _, err := os.Stat(mask); err != nil {
			logger.Warn().Str("image", e.Name()).Str("mask", mask).Msg("skipping image without mask")
			continue
		}
		pairs = append(pairs, Pair{Image: filepath.Join(imagesDir, e.Name()), Mask: mask})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Image < pairs[j].Image })
	return pairs, nil
}

// Dataset is a labeled feature matrix pooled over many images.
type Dataset struct {
	X [][]float64
	Y []int

	// Images is the number of pairs that contributed examples.
	Images int

	// Skipped is the number of pairs rejected (shape mismatch, unreadable).
	Skipped int
}

// Builder turns image/mask pairs into a Dataset.
type Builder struct {
	Pipeline   *pipeline.Pipeline
	Params     segmentation.Params
	NumClasses int
	Logger     zerolog.Logger

	// Workers bounds how many pairs are processed at once. Zero means one
	// per CPU.
	Workers int
}

// Build segments every pair and labels each region by majority vote of its
// mask. Pairs whose image and mask differ in size, or that cannot be read,
// are logged and skipped. Errors wrap superpixel.ErrInput when no pair
// contributes any example.
func (b *Builder) Build(ctx context.Context, pairs []Pair) (*Dataset, error) {
	if b.NumClasses <= 0 {
		return nil, superpixel.InputError("class count must be positive, got %d", b.NumClasses)
	}
	p := b.Pipeline
	if p == nil {
		p = pipeline.New(nil, b.Logger)
	}

	results := make([][]labeling.Example, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g.SetLimit(workers)

	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			examples, err := b.buildPair(ctx, p, pair)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				b.Logger.Warn().Err(err).Str("image", filepath.Base(pair.Image)).Msg("skipping pair")
				return nil
			}
			results[i] = examples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &Dataset{}
	for _, examples := range results {
		if examples == nil {
			ds.Skipped++
			continue
		}
		X, y := labeling.Unzip(examples)
		ds.X = append(ds.X, X...)
		ds.Y = append(ds.Y, y...)
		ds.Images++
	}
	if len(ds.X) == 0 {
		return nil, superpixel.InputError("no training data found, check image and mask directories")
	}
	return ds, nil
}

func (b *Builder) buildPair(ctx context.Context, p *pipeline.Pipeline, pair Pair) ([]labeling.Example, error) {
	img, err := imgutil.Decode(pair.Image)
	if err != nil {
		return nil, err
	}
	maskImg, err := imgutil.Decode(pair.Mask)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Size() != maskImg.Bounds().Size() {
		return nil, superpixel.InputError("image is %v but mask is %v", img.Bounds().Size(), maskImg.Bounds().Size())
	}
	mask, err := superpixel.ClassMaskFromImage(maskImg)
	if err != nil {
		return nil, err
	}

	out, err := p.Analyze(ctx, img, b.Params)
	if err != nil {
		return nil, err
	}
	if out.Segmentation.Downscaled {
		mask, err = FitMask(mask, out.Segmentation.Grid.Width, out.Segmentation.Grid.Height)
		if err != nil {
			return nil, err
		}
	}

	examples, _, err := out.Aggregate(mask, b.NumClasses)
	if err != nil {
		return nil, err
	}
	b.Logger.Info().
		Str("image", filepath.Base(pair.Image)).
		Int("regions", out.Segmentation.RegionCount).
		Msg("labeled image")
	return examples, nil
}

// FitMask resamples a class mask to width x height with nearest-neighbor
// sampling so class values are never blended.
func FitMask(mask *superpixel.ClassMask, width, height int) (*superpixel.ClassMask, error) {
	if mask.Width == width && mask.Height == height {
		return mask, nil
	}
	resized := imaging.Resize(mask.Image(), width, height, imaging.NearestNeighbor)
	return superpixel.ClassMaskFromImage(resized)
}

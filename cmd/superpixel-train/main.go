// Command superpixel-train builds a superpixel classifier from a directory of
// images and a directory of ground truth masks.
//
// Every image is segmented, each superpixel takes the majority class of its
// mask pixels, and a k-nearest-neighbor model is fit on the per-superpixel
// feature vectors. A stratified share of the superpixels is held out to
// report accuracy.
//
// Usage:
//
//	superpixel-train --images_dir data/images --masks_dir data/masks --out models/knn.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ironsheep/superpixel-tools/internal/classifier"
	"github.com/ironsheep/superpixel-tools/internal/config"
	"github.com/ironsheep/superpixel-tools/internal/features"
	"github.com/ironsheep/superpixel-tools/internal/logging"
	"github.com/ironsheep/superpixel-tools/internal/pipeline"
	"github.com/ironsheep/superpixel-tools/internal/segmentation"
	"github.com/ironsheep/superpixel-tools/internal/training"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvConfigPath), "YAML configuration file")
	imagesDir := flag.String("images_dir", "", "directory of training images (required)")
	masksDir := flag.String("masks_dir", "", "directory of masks, each with the same filename as its image (required)")
	out := flag.String("out", "", "model file to write (default: model.path from config)")
	nSegments := flag.Int("n_segments", 0, "approximate superpixels per image (default from config)")
	compactness := flag.Float64("compactness", -1, "SLIC compactness (default from config)")
	testSize := flag.Float64("test_size", 0, "share of superpixels held out for evaluation (default from config)")
	k := flag.Int("k", 0, "neighbors per prediction (default from config)")
	seed := flag.Int64("seed", 0, "split seed (default from config)")
	workers := flag.Int("workers", 0, "images processed at once (default: one per CPU)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "superpixel-train: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "superpixel-train: %v\n", err)
		os.Exit(1)
	}

	if *imagesDir == "" || *masksDir == "" {
		fmt.Fprintln(os.Stderr, "superpixel-train: --images_dir and --masks_dir are required")
		flag.Usage()
		os.Exit(2)
	}
	if *out == "" {
		*out = cfg.Model.Path
	}
	if *out == "" {
		fmt.Fprintln(os.Stderr, "superpixel-train: --out is required when model.path is not configured")
		os.Exit(2)
	}

	params := cfg.SegmentationParams()
	if *nSegments > 0 {
		params.TargetCount = *nSegments
	}
	if *compactness >= 0 {
		params.Compactness = *compactness
	}
	if *testSize == 0 {
		*testSize = cfg.Training.TestSize
	}
	if *k == 0 {
		*k = cfg.Training.K
	}
	if !isFlagSet("seed") {
		*seed = cfg.Training.Seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, *imagesDir, *masksDir, *out, params, *testSize, *k, *seed, *workers); err != nil {
		logger.Fatal().Err(err).Msg("training failed")
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func run(ctx context.Context, logger zerolog.Logger, cfg *config.Config, imagesDir, masksDir, out string,
	params segmentation.Params, testSize float64, k int, seed int64, workers int) error {
	pairs, err := training.FindPairs(imagesDir, masksDir, logger)
	if err != nil {
		return err
	}
	logger.Info().Int("pairs", len(pairs)).Msg("found image/mask pairs")

	adapter := segmentation.NewAdapter(nil, segmentation.WithLogger(logging.Component(logger, "segmentation")))
	builder := &training.Builder{
		Pipeline:   pipeline.New(adapter, logging.Component(logger, "pipeline")),
		Params:     params,
		NumClasses: len(cfg.Classes.Names),
		Logger:     logger,
		Workers:    workers,
	}
	ds, err := builder.Build(ctx, pairs)
	if err != nil {
		return err
	}

	model, report, err := training.Fit(ds, classifier.NewKNNTrainer(k), len(cfg.Classes.Names), testSize, seed)
	if err != nil {
		return err
	}
	if err := classifier.Save(out, model, features.Names(), cfg.Classes.Names, report.Accuracy); err != nil {
		return err
	}

	logReport(logger, cfg.Classes.Names, report)
	logger.Info().Str("path", out).Msg("saved model")
	return nil
}

func logReport(logger zerolog.Logger, names []string, r *training.Report) {
	counts := zerolog.Dict()
	classes := make([]int, 0, len(r.ClassCounts))
	for c := range r.ClassCounts {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	for _, c := range classes {
		name := fmt.Sprint(c)
		if c >= 0 && c < len(names) {
			name = names[c]
		}
		counts.Int(name, r.ClassCounts[c])
	}

	logger.Info().
		Int("images", r.Images).
		Int("samples", r.Samples).
		Int("train", r.TrainSize).
		Int("test", r.TestSize).
		Dict("class_counts", counts).
		Float64("accuracy", r.Accuracy).
		Interface("confusion", r.Confusion).
		Msg("training report")
}

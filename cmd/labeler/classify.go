package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Veraticus/frame-labeler/internal/capture"
	"github.com/Veraticus/frame-labeler/internal/cli"
	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/engine"
	"github.com/Veraticus/frame-labeler/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func classifyCmd() *cobra.Command {
	var (
		output      string
		top         int
		concurrency int
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "classify <file|dir>...",
		Short: "Classify image files once",
		Long: `Classify still images with the configured model and print the results.
Directories are scanned for jpg, png, gif and webp files (not recursively).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectImages(args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cls, err := initClassifier(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = cls.Close() }()

			ctx := common.WithLogger(cmd.Context(), slog.Default().With("command", "classify"))
			if _, err := cls.Load(ctx); err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}

			var onDone func()
			if !quiet {
				bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(files), "Classifying images...")
				onDone = func() { _ = bar.Add(1) }
			}

			start := time.Now()
			results, err := classifyFiles(ctx, cls, files, concurrency, onDone)
			if err != nil {
				return err
			}

			if err := cli.WriteReport(cmd.OutOrStdout(), results, output, top); err != nil {
				return err
			}
			if !quiet {
				cmd.PrintErrln(cli.Summary(results, time.Since(start)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", cli.FormatTable, "output format (table, yaml)")
	cmd.Flags().IntVar(&top, "top", 3, "predictions to show per file (0 for all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "files classified in parallel")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar and summary")

	return cmd
}

// collectImages expands directories into their image files.
func collectImages(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		found, err := capture.ListImages(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}
	return files, nil
}

// classifyFiles runs the classifier over files with bounded concurrency.
// Per-file failures are recorded in the results; only cancellation aborts
// the batch.
func classifyFiles(ctx context.Context, cls engine.Classifier, files []string, concurrency int, onDone func()) ([]cli.FileResult, error) {
	results := make([]cli.FileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))

	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = classifyFile(ctx, cls, path, uint64(i+1))
			if onDone != nil {
				onDone()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func classifyFile(ctx context.Context, cls engine.Classifier, path string, seq uint64) cli.FileResult {
	start := time.Now()
	result := cli.FileResult{Path: path}

	img, err := capture.DecodeFile(path)
	if err != nil {
		common.Logger(ctx).Warn("Skipping unreadable image", "path", path, "error", err)
		result.Err = err
		return result
	}

	b := img.Bounds()
	preds, err := cls.Classify(ctx, model.Frame{
		Timestamp: start,
		Image:     img,
		Source:    "file:" + filepath.Base(path),
		Seq:       seq,
		Width:     b.Dx(),
		Height:    b.Dy(),
	})
	result.Duration = time.Since(start)
	if err != nil {
		common.Logger(ctx).Warn("Failed to classify file", "path", path, "error", err)
		result.Err = err
		return result
	}

	common.Logger(ctx).Debug("Classified file",
		"path", path,
		"results", len(preds),
		"duration", result.Duration)

	result.Predictions = preds
	return result
}

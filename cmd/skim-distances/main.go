// cmd/skim-distances/main.go
//
// Compute the pairwise distance artifact of a reference corpus. Each
// reference's canonical k-mer set is built once (exact roaring bitmap, or a
// bounded MinHash sketch for very large corpora) and all unordered pairs are
// scored with Jaccard distance by a row-partitioned worker pool. With
// --extend, rows are appended to an existing artifact instead of recomputed.
package main

import (
	"context"
	"fmt"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trevor-schnegg/SKiM/internal/artifact"
	"github.com/trevor-schnegg/SKiM/internal/cliutil"
	"github.com/trevor-schnegg/SKiM/internal/distance"
	"github.com/trevor-schnegg/SKiM/internal/kmer"
	"github.com/trevor-schnegg/SKiM/internal/logging"
	"github.com/trevor-schnegg/SKiM/internal/refkmers"
	"github.com/trevor-schnegg/SKiM/internal/taxmap"
)

var (
	cfgFlags       cliutil.ConfigFlags
	flagOutput     string
	flagThreads    int
	flagSketchSize int
	flagExtend     string
)

var rootCmd = &cobra.Command{
	Use:   "skim-distances <file2taxid> <reference-dir>",
	Short: "Compute pairwise distances between reference files",
	Args:  cobra.ExactArgs(2),
	RunE:  run,
}

func init() {
	cfgFlags.Register(rootCmd)
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", ".", "output file or directory")
	rootCmd.Flags().IntVar(&flagThreads, "threads", cliutil.DefaultThreads(), "worker goroutines")
	rootCmd.Flags().IntVar(&flagSketchSize, "sketch-size", 0, "use bounded MinHash sketches of this many slots instead of exact sets (0 disables)")
	rootCmd.Flags().StringVar(&flagExtend, "extend", "", "existing distance artifact to append the new references to")
}

func run(cmd *cobra.Command, args []string) error {
	f2tPath, refDir := args[0], args[1]
	ctx, cancel := cliutil.SignalContext()
	defer cancel()

	cfg, err := cfgFlags.Config()
	if err != nil {
		return err
	}

	entries, skipped, err := taxmap.Load(f2tPath, func(line int, msg string) {
		logging.Warn("skipping file2taxid line", zap.Int("line", line), zap.String("reason", msg))
	})
	if err != nil {
		return err
	}
	if skipped > 0 {
		logging.Warn("file2taxid had unparseable lines", zap.Int("skipped", skipped))
	}
	if len(entries) == 0 {
		return fmt.Errorf("file2taxid %s names no references", f2tPath)
	}

	var old *distance.Artifact
	fromRow := 0
	if flagExtend != "" {
		old, err = distance.Read(flagExtend)
		if err != nil {
			return err
		}
		if !old.Config.Equal(cfg) {
			return fmt.Errorf("cannot extend: %s was computed with %s but %s was requested",
				flagExtend, old.Config, cfg)
		}
		fromRow = len(old.Entries)
		if fromRow >= len(entries) {
			return fmt.Errorf("%s already covers %d references, file2taxid names %d", flagExtend, fromRow, len(entries))
		}
		for i, e := range old.Entries {
			if entries[i] != e {
				return fmt.Errorf("cannot extend: entry %d differs (%s vs %s)", i, entries[i].Path, e.Path)
			}
		}
	}

	logging.Info("building reference k-mer sets",
		zap.String("config", cfg.String()),
		zap.Int("references", len(entries)),
		zap.Bool("sketched", flagSketchSize > 0))
	dist, err := buildDistFunc(ctx, refDir, entries, cfg)
	if err != nil {
		return err
	}

	logging.Info("estimating pairwise distances", zap.Int("threads", flagThreads))
	rows := len(entries) - 1 - max(fromRow-1, 0)
	bar := pb.Full.Start(rows)
	var m *distance.Matrix
	if old != nil {
		m, err = distance.Extend(ctx, old.Matrix, len(entries), flagThreads, dist, func() { bar.Increment() })
	} else {
		m, err = distance.Estimate(ctx, len(entries), flagThreads, dist, func() { bar.Increment() })
	}
	bar.Finish()
	if err != nil {
		return err
	}

	outPath := artifact.OutputPath(flagOutput, "skim.pd")
	art := &distance.Artifact{Config: cfg, Entries: entries, Matrix: m}
	if err := distance.Write(outPath, art); err != nil {
		return err
	}
	logging.Info("wrote distance artifact", zap.String("path", outPath), zap.Int("references", len(entries)))
	return nil
}

// buildDistFunc materializes every reference's k-mer set up front and returns
// the pure pairwise distance function the estimator calls.
func buildDistFunc(ctx context.Context, refDir string, entries []taxmap.Entry, cfg kmer.Config) (func(i, j int) float64, error) {
	bar := pb.Full.Start(len(entries))
	defer bar.Finish()

	if flagSketchSize > 0 {
		sketches, err := refkmers.SketchAll(ctx, refDir, entries, cfg.K, flagSketchSize, flagThreads, func() { bar.Increment() })
		if err != nil {
			return nil, err
		}
		return func(i, j int) float64 { return sketches[i].Distance(sketches[j]) }, nil
	}

	bitmaps, err := refkmers.BitmapAll(ctx, refDir, entries, cfg, flagThreads, func() { bar.Increment() })
	if err != nil {
		return nil, err
	}
	return func(i, j int) float64 { return refkmers.JaccardDistance(bitmaps[i], bitmaps[j]) }, nil
}

func main() {
	cliutil.Execute(rootCmd)
}

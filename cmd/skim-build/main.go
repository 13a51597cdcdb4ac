// cmd/skim-build/main.go
//
// Build the classification database from an ordered file2taxid and the
// reference directory. Every reference's canonical k-mer set is accumulated
// into the sharded key index in ordered sequence, then the key table is
// sorted, validated, and persisted atomically.
package main

import (
	"fmt"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trevor-schnegg/SKiM/internal/artifact"
	"github.com/trevor-schnegg/SKiM/internal/cliutil"
	"github.com/trevor-schnegg/SKiM/internal/database"
	"github.com/trevor-schnegg/SKiM/internal/logging"
	"github.com/trevor-schnegg/SKiM/internal/refkmers"
	"github.com/trevor-schnegg/SKiM/internal/taxmap"
)

var (
	cfgFlags      cliutil.ConfigFlags
	flagOutput    string
	flagThreads   int
	flagDistances string
)

var rootCmd = &cobra.Command{
	Use:   "skim-build <ordered-file2taxid> <reference-dir>",
	Short: "Build the classification database",
	Args:  cobra.ExactArgs(2),
	RunE:  run,
}

func init() {
	cfgFlags.Register(rootCmd)
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", ".", "output file or directory")
	rootCmd.Flags().IntVar(&flagThreads, "threads", cliutil.DefaultThreads(), "worker goroutines (also the shard count)")
	rootCmd.Flags().StringVar(&flagDistances, "distances", "", "distance artifact the ordering came from, to cross-check the configuration")
}

func run(cmd *cobra.Command, args []string) error {
	f2tPath, refDir := args[0], args[1]
	ctx, cancel := cliutil.SignalContext()
	defer cancel()

	cfg, err := cfgFlags.Config()
	if err != nil {
		return err
	}
	if flagDistances != "" {
		h, err := artifact.Inspect(flagDistances)
		if err != nil {
			return err
		}
		if !h.Config().Equal(cfg) {
			return fmt.Errorf("ordering came from %s built with %s, but %s was requested",
				flagDistances, h.Config(), cfg)
		}
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

	logging.Info("building reference k-mer sets",
		zap.String("config", cfg.String()), zap.Int("references", len(entries)))
	bar := pb.Full.Start(len(entries))
	bitmaps, err := refkmers.BitmapAll(ctx, refDir, entries, cfg, flagThreads, func() { bar.Increment() })
	bar.Finish()
	if err != nil {
		return err
	}

	logging.Info("accumulating key index", zap.Int("shards", flagThreads))
	builder := database.NewBuilder(cfg, len(entries), flagThreads)
	bar = pb.Full.Start(len(entries))
	for i, bm := range bitmaps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		builder.AddFile(bm)
		bitmaps[i] = nil // done with this reference's set
		bar.Increment()
	}
	bar.Finish()

	db, err := builder.Finalize(entries)
	if err != nil {
		return err
	}

	outPath := artifact.OutputPath(flagOutput, "skim.db")
	if err := database.Write(outPath, db); err != nil {
		return err
	}
	logging.Info("wrote database",
		zap.String("path", outPath),
		zap.Int("references", db.NumFiles()),
		zap.Int("keys", len(db.Keys)))
	return nil
}

func main() {
	cliutil.Execute(rootCmd)
}

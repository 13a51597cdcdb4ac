// cmd/skim-classify/main.go
//
// Classify FASTQ/FASTA reads against a database. Reads are scored in
// parallel and emitted in input order, one tab-separated row per read. The
// extraction configuration always comes from the database itself; passing
// -k/-s/-t asserts the expectation and fails fast on a mismatch.
package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trevor-schnegg/SKiM/internal/artifact"
	"github.com/trevor-schnegg/SKiM/internal/classify"
	"github.com/trevor-schnegg/SKiM/internal/cliutil"
	"github.com/trevor-schnegg/SKiM/internal/database"
	"github.com/trevor-schnegg/SKiM/internal/logging"
)

var (
	cfgFlags    cliutil.ConfigFlags
	flagOutput  string
	flagThreads int
	flagCutoff  int
	flagNFixed  int
)

var rootCmd = &cobra.Command{
	Use:   "skim-classify <database> <reads>",
	Short: "Classify sequencing reads against a database",
	Args:  cobra.ExactArgs(2),
	RunE:  run,
}

func init() {
	cfgFlags.Register(rootCmd)
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", ".", "output file or directory")
	rootCmd.Flags().IntVar(&flagThreads, "threads", cliutil.DefaultThreads(), "worker goroutines")
	rootCmd.Flags().IntVarP(&flagCutoff, "exp-cutoff", "e", classify.DefaultExpCutoff, "significance exponent: classify when p < 10^-e")
	rootCmd.Flags().IntVarP(&flagNFixed, "num-trials", "n", classify.DefaultNFixed, "fixed trial count of the binomial lookup table")
}

func run(cmd *cobra.Command, args []string) error {
	dbPath, readsPath := args[0], args[1]
	ctx, cancel := cliutil.SignalContext()
	defer cancel()

	if flagCutoff < 1 {
		return fmt.Errorf("--exp-cutoff must be >= 1, got %d", flagCutoff)
	}
	if flagNFixed < 1 {
		return fmt.Errorf("--num-trials must be >= 1, got %d", flagNFixed)
	}

	db, err := database.Read(dbPath)
	if err != nil {
		return err
	}
	logging.Info("loaded database",
		zap.String("path", dbPath),
		zap.String("config", db.Cfg.String()),
		zap.Int("references", db.NumFiles()),
		zap.Int("keys", len(db.Keys)),
		zap.Int("lossy_level", db.LossyLevel))

	configAsserted := cmd.Flags().Changed("kmer-length") ||
		cmd.Flags().Changed("smer-length") || cmd.Flags().Changed("syncmer-offset")
	if configAsserted {
		want, err := cfgFlags.Config()
		if err != nil {
			return err
		}
		if err := classify.CheckConfig(db, want); err != nil {
			return err
		}
	}

	outPath := artifact.OutputPath(flagOutput, "skim.r2f")
	start := time.Now()
	var stats classify.Stats
	err = artifact.CreateFile(outPath, func(w io.Writer) error {
		var rerr error
		stats, rerr = classify.Run(ctx, db, readsPath, classify.Options{
			ExpCutoff: flagCutoff,
			NFixed:    flagNFixed,
			Threads:   flagThreads,
		}, func(r classify.Result) error {
			_, werr := fmt.Fprintln(w, r.Row())
			return werr
		})
		return rerr
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	logging.Info("classification finished",
		zap.Int("reads", stats.Reads),
		zap.Int("classified", stats.Classified),
		zap.Uint64("bases", stats.Bases),
		zap.Int("skipped_records", stats.Skipped),
		zap.Duration("elapsed", elapsed),
		zap.Float64("mbp_per_s", float64(stats.Bases)/1e6/elapsed.Seconds()),
		zap.String("output", outPath))
	return nil
}

func main() {
	cliutil.Execute(rootCmd)
}

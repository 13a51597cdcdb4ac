// cmd/skim-compress/main.go
//
// Lossy recompression: derive a coarsened copy of an exact database whose
// membership runs are merged across gaps of at most the given level. The
// exact database is never modified.
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trevor-schnegg/SKiM/internal/artifact"
	"github.com/trevor-schnegg/SKiM/internal/cliutil"
	"github.com/trevor-schnegg/SKiM/internal/database"
	"github.com/trevor-schnegg/SKiM/internal/logging"
)

var (
	flagOutput string
	flagLevel  int
)

var rootCmd = &cobra.Command{
	Use:   "skim-compress <database>",
	Short: "Derive a lossy, smaller copy of a database",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", ".", "output file or directory")
	rootCmd.Flags().IntVarP(&flagLevel, "level", "l", 1, "lossiness level (membership runs merge across gaps of at most this size)")
}

func run(cmd *cobra.Command, args []string) error {
	db, err := database.Read(args[0])
	if err != nil {
		return err
	}
	logging.Info("loaded database",
		zap.String("path", args[0]),
		zap.Int("references", db.NumFiles()),
		zap.Int("keys", len(db.Keys)))

	lossy, err := db.Lossy(flagLevel)
	if err != nil {
		return err
	}

	outPath := artifact.OutputPath(flagOutput, "skim.cdb")
	if err := database.Write(outPath, lossy); err != nil {
		return err
	}
	logging.Info("wrote lossy database", zap.String("path", outPath), zap.Int("level", flagLevel))
	return nil
}

func main() {
	cliutil.Execute(rootCmd)
}

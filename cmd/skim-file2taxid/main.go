// cmd/skim-file2taxid/main.go
//
// Scan a reference directory for FASTA files and emit the file2taxid TSV
// that every later stage consumes. Taxon ids come from an optional
// accession2taxid TSV keyed by file stem; unknown files get taxid 0.
// Oversized records can be split into bounded, overlapping fragments written
// to a separate directory.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trevor-schnegg/SKiM/internal/artifact"
	"github.com/trevor-schnegg/SKiM/internal/cliutil"
	"github.com/trevor-schnegg/SKiM/internal/fasta"
	"github.com/trevor-schnegg/SKiM/internal/logging"
	"github.com/trevor-schnegg/SKiM/internal/taxmap"
)

var (
	flagOutput    string
	flagAccession string
	flagMaxLen    int
	flagOverlap   int
	flagSplitDir  string
)

var rootCmd = &cobra.Command{
	Use:   "skim-file2taxid <reference-dir>",
	Short: "Generate the file2taxid TSV for a reference directory",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", ".", "output file or directory")
	rootCmd.Flags().StringVar(&flagAccession, "accession2taxid", "", "TSV mapping file stems to taxon ids")
	rootCmd.Flags().IntVar(&flagMaxLen, "max-seq-length", 0, "split records longer than this many bases (0 disables)")
	rootCmd.Flags().IntVar(&flagOverlap, "overlap", 0, "overlap between split fragments")
	rootCmd.Flags().StringVar(&flagSplitDir, "split-dir", "", "directory for split reference copies (required with --max-seq-length)")
}

func run(cmd *cobra.Command, args []string) error {
	refDir := args[0]
	ctx, cancel := cliutil.SignalContext()
	defer cancel()

	if flagMaxLen > 0 && flagSplitDir == "" {
		return fmt.Errorf("--max-seq-length requires --split-dir")
	}
	if flagMaxLen > 0 && flagOverlap >= flagMaxLen {
		return fmt.Errorf("--overlap (%d) must be smaller than --max-seq-length (%d)", flagOverlap, flagMaxLen)
	}

	var (
		accession map[string]uint64
		err       error
	)
	if flagAccession != "" {
		var skipped int
		accession, skipped, err = taxmap.LoadAccessionMap(flagAccession, func(line int, msg string) {
			logging.Warn("skipping accession2taxid line", zap.Int("line", line), zap.String("reason", msg))
		})
		if err != nil {
			return err
		}
		if skipped > 0 {
			logging.Warn("accession2taxid had unparseable lines", zap.Int("skipped", skipped))
		}
	}

	names, err := fastaFiles(refDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no FASTA files found under %s", refDir)
	}
	logging.Info("scanning reference directory",
		zap.String("dir", refDir), zap.Int("files", len(names)))

	entries := make([]taxmap.Entry, 0, len(names))
	for _, name := range names {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		taxid := accession[stem(name)]
		outName := name
		if flagMaxLen > 0 {
			outName, err = splitFile(refDir, name, flagMaxLen, flagOverlap)
			if err != nil {
				return err
			}
		}
		entries = append(entries, taxmap.Entry{Path: outName, TaxID: taxid})
	}

	outPath := artifact.OutputPath(flagOutput, "skim.f2t")
	if err := artifact.CreateFile(outPath, func(w io.Writer) error {
		return taxmap.Save(w, entries)
	}); err != nil {
		return err
	}
	logging.Info("wrote file2taxid", zap.String("path", outPath), zap.Int("entries", len(entries)))
	return nil
}

// fastaFiles lists the FASTA file names of dir, sorted for a deterministic
// entry order.
func fastaFiles(dir string) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read reference directory %s: %w", dir, err)
	}
	var names []string
	for _, it := range items {
		if !it.IsDir() && fasta.IsFastaPath(it.Name()) {
			names = append(names, it.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func stem(name string) string {
	name = strings.TrimSuffix(name, ".gz")
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// splitFile rewrites one reference with oversized records split into
// overlapping fragments, placed under --split-dir with the same file name.
// The copy is written like every other artifact, temp file then rename, so a
// half-written reference never sits under its final name.
func splitFile(refDir, name string, maxLen, overlap int) (string, error) {
	if err := os.MkdirAll(flagSplitDir, 0o755); err != nil {
		return "", err
	}
	records, err := fasta.ReadAll(filepath.Join(refDir, name))
	if err != nil {
		return "", err
	}

	outName := strings.TrimSuffix(name, ".gz")
	split := 0
	err = artifact.CreateFile(filepath.Join(flagSplitDir, outName), func(w io.Writer) error {
		for _, rec := range records {
			frags := taxmap.SplitRecord(rec, maxLen, overlap)
			if len(frags) > 1 {
				split++
			}
			for _, frag := range frags {
				if err := fasta.WriteRecord(w, frag); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if split > 0 {
		logging.Debug("split oversized records",
			zap.String("file", name), zap.Int("records", split))
	}
	return outName, nil
}

func main() {
	cliutil.Execute(rootCmd)
}

// internal/cliutil/cliutil.go
//
// Shared plumbing for the stage binaries: signal-aware context, the k-mer
// configuration flag set, logging setup, and the cobra entry point.
package cliutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trevor-schnegg/SKiM/internal/kmer"
	"github.com/trevor-schnegg/SKiM/internal/logging"
)

// SignalContext returns a context canceled on SIGINT/SIGTERM. Workers finish
// their current unit of work and stop; interrupted runs leave no partial
// artifact because outputs are promoted by rename only on success.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ConfigFlags binds the k-mer extraction flags shared by the stages that scan
// reference sequence.
type ConfigFlags struct {
	K             int
	SmerLen       int
	SyncmerOffset int
}

func (f *ConfigFlags) Register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.K, "kmer-length", "k", kmer.DefaultK, "k-mer length (14-16)")
	cmd.Flags().IntVarP(&f.SmerLen, "smer-length", "s", kmer.DefaultSmerLen, "s-mer length for syncmer subsampling (s equal to k disables it)")
	cmd.Flags().IntVarP(&f.SyncmerOffset, "syncmer-offset", "t", kmer.DefaultSyncmerOffset, "required offset of the minimal s-mer")
}

func (f *ConfigFlags) Config() (kmer.Config, error) {
	cfg := kmer.Config{K: f.K, SmerLen: f.SmerLen, SyncmerOffset: f.SyncmerOffset}
	if err := cfg.Validate(); err != nil {
		return kmer.Config{}, err
	}
	return cfg, nil
}

// DefaultThreads is the default value of every --threads flag.
func DefaultThreads() int { return runtime.NumCPU() }

// Execute wires logging into cmd and runs it, exiting non-zero on error.
func Execute(cmd *cobra.Command) {
	var verbose bool
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.SilenceUsage = true
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return logging.Init(verbose)
	}

	err := cmd.Execute()
	_ = logging.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

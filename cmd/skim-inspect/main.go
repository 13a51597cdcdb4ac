// cmd/skim-inspect/main.go
//
// Print any artifact's header as YAML without loading its body. This is how
// downstream tooling discovers the configuration a database or distance
// artifact was built with.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trevor-schnegg/SKiM/internal/artifact"
	"github.com/trevor-schnegg/SKiM/internal/cliutil"
)

var rootCmd = &cobra.Command{
	Use:   "skim-inspect <artifact>",
	Short: "Print an artifact's header",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := artifact.Inspect(args[0])
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(h)
	},
}

func main() {
	cliutil.Execute(rootCmd)
}

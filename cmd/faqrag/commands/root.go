// Package commands defines all Cobra CLI commands for the faqrag binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/faqrag-go/internal/audit"
	"github.com/54b3r/faqrag-go/internal/config"
	"github.com/54b3r/faqrag-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "faqrag",
		Short: "Course FAQ assistant backed by Qdrant and an LLM",
		Long: `faqrag answers course questions from a pre-built FAQ knowledge base.

Each question is matched against Qdrant with one of three search types
(semantic, sparse, hybrid) and the retrieved passages are handed to an
LLM that answers only from that context.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.faqrag/config.yaml).
See 'faqrag --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Env vars always override YAML values.
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}

			audit.LogCommandStart(cmd.Context(), log, cmd.Name(), path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.faqrag/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewAskCmd(),
		NewVersionCmd(),
	)

	return root
}

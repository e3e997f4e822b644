package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/faqrag-go/internal/logging"
	"github.com/54b3r/faqrag-go/internal/qa"
	"github.com/54b3r/faqrag-go/internal/rag"
)

// invalidSearchType is printed in place of an answer, matching the HTTP
// response for an unknown search type.
const invalidSearchType = "Invalid search type"

// NewAskCmd constructs the `faqrag ask` command, which runs one question
// through the pipeline and prints the answer to stdout.
func NewAskCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single course question",
		Long: `Retrieve FAQ passages for a question and print the LLM's answer.

Examples:
  faqrag ask "When does the course start?"
  faqrag ask --mode sparse "How do I submit homework?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			deps, err := buildPipeline(ctx, log, nil)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer deps.close()

			answerText, err := deps.pipeline.Answer(ctx, qa.Request{
				Question:   strings.Join(args, " "),
				SearchType: mode,
			})
			if errors.Is(err, rag.ErrInvalidMode) {
				answerText = invalidSearchType
			} else if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), answerText)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(rag.ModeHybrid), "Search type: semantic, sparse or hybrid")

	return cmd
}

// Command faqrag answers course-FAQ questions with retrieval-augmented
// generation over Qdrant. It provides a CLI interface (via Cobra) and an HTTP
// server exposing POST /search.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/faqrag-go/cmd/faqrag/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

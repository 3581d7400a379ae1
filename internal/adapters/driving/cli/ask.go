package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [document-id] [question]",
	Short: "Ask a question about a contract",
	Long: `Answers a question using only the clauses of one contract as context.
Requires an LLM provider (see 'clausesense settings set llm').`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	question := strings.Join(args[1:], " ")
	answer, err := reportService.Ask(commandContext(cmd), args[0], question)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range answer.Sources {
			cmd.Printf("  clause %d (%.2f): %s\n", s.Clause.Ordinal+1, s.Score, snippet(s.Clause.Text, 100))
		}
	}
	return nil
}

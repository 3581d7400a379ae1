package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

var (
	searchTopK      int
	searchVendor    string
	searchTypes     []string
	searchDocuments []string
	searchMinScore  float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search clauses across contracts",
	Long: `Finds the clauses most similar in meaning to the query, across every
ingested contract. Results can be narrowed by vendor, clause type or document.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", domain.DefaultTopK, "maximum number of clauses")
	searchCmd.Flags().StringVar(&searchVendor, "vendor", "", "only search this vendor's contracts")
	searchCmd.Flags().StringSliceVar(&searchTypes, "type", nil, "clause types to include (e.g. liability-cap)")
	searchCmd.Flags().StringSliceVar(&searchDocuments, "document", nil, "document ids to include")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results below this similarity")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	filter := domain.SearchFilter{
		Vendor:      searchVendor,
		DocumentIDs: searchDocuments,
	}
	for _, raw := range searchTypes {
		t, ok := domain.ParseClauseType(raw)
		if !ok {
			return fmt.Errorf("unknown clause type %q", raw)
		}
		filter.ClauseTypes = append(filter.ClauseTypes, t)
	}
	if cmd.Flags().Changed("min-score") {
		score := searchMinScore
		filter.MinScore = &score
	}

	results, err := retrievalService.Search(commandContext(cmd), query, searchTopK, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.ScoredClause) error {
	if len(results) == 0 {
		cmd.Println("No matching clauses.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		title := r.DocumentTitle
		if title == "" {
			title = r.Clause.DocumentID
		}
		cmd.Printf("  [%d] %s, clause %d (%.2f)\n", i+1, title, r.Clause.Ordinal+1, r.Score)
		cmd.Printf("      Vendor: %s  Type: %s\n", r.Vendor, r.Clause.Type)
		cmd.Printf("      %s\n", snippet(r.Clause.Text, 160))
		cmd.Println()
	}
	return nil
}

func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausesense/internal/core/domain"
	"github.com/custodia-labs/clausesense/internal/core/ports/driving"
)

var (
	reportPlaybook string
	reportJSON     bool
	reportSkipLLM  bool
	reportLatest   bool
)

var reportCmd = &cobra.Command{
	Use:   "report [document-id]",
	Short: "Assess a contract against the risk rules",
	Long: `Runs the playbook's risk rules over a contract's clauses and prints the
findings, each with the clause it cites, the overall health score and, when an
LLM is configured, a summary and a negotiation draft.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportPlaybook, "playbook", "", "playbook to apply (default from settings)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "output the report as JSON")
	reportCmd.Flags().BoolVar(&reportSkipLLM, "skip-llm", false, "skip summary and negotiation draft")
	reportCmd.Flags().BoolVar(&reportLatest, "latest", false, "show the last stored report instead of assessing")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	ctx := commandContext(cmd)
	var (
		report *domain.Report
		err    error
	)
	if reportLatest {
		report, err = reportService.LatestReport(ctx, args[0])
	} else {
		report, err = reportService.Assess(ctx, args[0], driving.ReportOptions{
			Playbook: reportPlaybook,
			SkipLLM:  reportSkipLLM,
		})
	}
	if report == nil {
		return fmt.Errorf("failed to assess document: %w", err)
	}

	if reportJSON {
		if jerr := outputJSON(cmd, report); jerr != nil {
			return jerr
		}
	} else {
		renderReport(cmd, report)
	}

	if err != nil {
		cmd.PrintErrf("Warning: %v\n", err)
	}
	return nil
}

func renderReport(cmd *cobra.Command, r *domain.Report) {
	st := newReportStyles(cmd.OutOrStdout())

	cmd.Println(st.Title.Render(fmt.Sprintf("Risk report: %s (%s)", r.Title, r.Vendor)))
	cmd.Println(st.Muted.Render(fmt.Sprintf("Document %s, playbook %s, generated %s",
		r.DocumentID, r.Playbook, r.GeneratedAt.Format("2006-01-02 15:04"))))
	cmd.Println()
	cmd.Printf("Health: %d/100  Risk: %s  Findings: %d\n", r.Score.Health, st.Level(r.Score.Level), len(r.Findings))
	cmd.Println()

	if terms := r.KeyTerms; len(terms.Parties)+len(terms.Dates)+len(terms.Amounts) > 0 {
		cmd.Println(st.Heading.Render("Key terms"))
		printTerms(cmd, "Parties", terms.Parties)
		printTerms(cmd, "Dates", terms.Dates)
		printTerms(cmd, "Amounts", terms.Amounts)
		cmd.Println()
	}

	cmd.Println(st.Heading.Render("Findings"))
	if len(r.Findings) == 0 {
		cmd.Println("  No risks found.")
	}
	for i := range r.Findings {
		f := &r.Findings[i]
		cmd.Printf("  [%s] %s %s\n", st.Severity(f.Severity), f.RuleID, f.Title)
		cmd.Printf("      %s\n", f.Rationale)
		if f.Recommendation != "" {
			cmd.Printf("      Recommendation: %s\n", f.Recommendation)
		}
		for _, ev := range f.Evidence {
			cmd.Println(st.Quote.Render(fmt.Sprintf("Clause %d: %q", ev.Ordinal+1, snippet(ev.Quote, 200))))
		}
		cmd.Println()
	}

	if len(r.Warnings) > 0 {
		cmd.Println(st.Heading.Render("Skipped rules"))
		for _, w := range r.Warnings {
			cmd.Printf("  %s\n", w.Error())
		}
		cmd.Println()
	}

	if r.Summary != "" {
		cmd.Println(st.Heading.Render("Summary"))
		cmd.Println(r.Summary)
		cmd.Println()
	}
	if r.Negotiation != "" {
		cmd.Println(st.Heading.Render("Negotiation draft"))
		cmd.Println(r.Negotiation)
		cmd.Println()
	}
	for _, n := range r.Notes {
		cmd.Println(st.Muted.Render("Note: " + n))
	}
}

func printTerms(cmd *cobra.Command, label string, values []string) {
	if len(values) == 0 {
		return
	}
	cmd.Printf("  %s: %s\n", label, strings.Join(values, "; "))
}

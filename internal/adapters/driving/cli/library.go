package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List vendors with contract counts",
	Args:  cobra.NoArgs,
	RunE:  runVendors,
}

var playbooksCmd = &cobra.Command{
	Use:   "playbooks",
	Short: "List review playbooks",
	Args:  cobra.NoArgs,
	RunE:  runPlaybooks,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed every clause with the configured model",
	Long: `Re-embeds all stored clauses with the configured embedding model.
Run this after changing the embedding provider or model.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show clause library statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
	rootCmd.AddCommand(playbooksCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(statsCmd)
}

func runVendors(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	vendors, err := documentService.Vendors(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list vendors: %w", err)
	}
	if len(vendors) == 0 {
		cmd.Println("No vendors yet.")
		return nil
	}
	for _, v := range vendors {
		cmd.Printf("  %-30s %d contracts (last %s)\n", v.Vendor, v.DocumentCount, v.LastIngested.Format("2006-01-02"))
	}
	return nil
}

func runPlaybooks(cmd *cobra.Command, _ []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	for _, p := range reportService.Playbooks() {
		cmd.Printf("  %s", p.Name)
		if p.Description != "" {
			cmd.Printf(": %s", p.Description)
		}
		cmd.Println()
		if len(p.Enable) > 0 {
			cmd.Printf("      enables: %s\n", strings.Join(p.Enable, ", "))
		}
		if len(p.Disable) > 0 {
			cmd.Printf("      disables: %s\n", strings.Join(p.Disable, ", "))
		}
		if len(p.Severities) > 0 {
			ids := make([]string, 0, len(p.Severities))
			for id := range p.Severities {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			overrides := make([]string, len(ids))
			for i, id := range ids {
				overrides[i] = id + "=" + p.Severities[id].String()
			}
			cmd.Printf("      severities: %s\n", strings.Join(overrides, ", "))
		}
	}
	return nil
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	n, err := indexService.Reindex(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	cmd.Printf("Re-embedded %d clauses with %s\n", n, indexService.Stats().Model)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	stats := indexService.Stats()
	cmd.Printf("Documents: %d\n", stats.Documents)
	cmd.Printf("Clauses: %d\n", stats.Clauses)
	cmd.Printf("Model: %s\n", stats.Model)
	models := make([]string, 0, len(stats.Vectors))
	for m := range stats.Vectors {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		cmd.Printf("  %s: %d vectors\n", m, stats.Vectors[m])
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	documentVendor string
	documentJSON   bool
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested contracts",
	Long:  `List, view, or purge ingested contracts.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested contracts",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show contract info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentClausesCmd = &cobra.Command{
	Use:   "clauses [doc-id]",
	Short: "Print a contract's clauses",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentClauses,
}

var documentPurgeCmd = &cobra.Command{
	Use:   "purge [doc-id]",
	Short: "Remove a contract",
	Long:  `Removes a contract with its clauses, vectors and stored reports.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentPurge,
}

func init() {
	documentListCmd.Flags().StringVar(&documentVendor, "vendor", "", "only list this vendor's contracts")
	for _, c := range []*cobra.Command{documentListCmd, documentGetCmd, documentClausesCmd} {
		c.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	}

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentClausesCmd)
	documentCmd.AddCommand(documentPurgeCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(commandContext(cmd), documentVendor)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if documentJSON {
		for i := range docs {
			docs[i].Pages = nil
		}
		return outputJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}
	cmd.Println("Documents:")
	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %s  %-20s %s (%d clauses)\n", d.ID, d.Vendor, d.Title, d.ClauseCount)
	}
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if documentJSON {
		return outputJSON(cmd, doc)
	}

	cmd.Printf("Document: %s\n", doc.ID)
	cmd.Printf("  Title: %s\n", doc.Title)
	cmd.Printf("  Vendor: %s\n", doc.Vendor)
	if doc.Filename != "" {
		cmd.Printf("  File: %s\n", doc.Filename)
	}
	cmd.Printf("  Pages: %d\n", len(doc.Pages))
	cmd.Printf("  Clauses: %d\n", doc.ClauseCount)
	cmd.Printf("  Ingested: %s\n", doc.IngestedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentClauses(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	clauses, err := documentService.Clauses(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get clauses: %w", err)
	}
	if documentJSON {
		return outputJSON(cmd, clauses)
	}

	for i := range clauses {
		c := &clauses[i]
		header := fmt.Sprintf("[%d] %s (%.2f)", c.Ordinal+1, c.Type, c.Confidence)
		if c.Title != "" {
			header += " " + c.Title
		}
		cmd.Println(header)
		cmd.Println(c.Text)
		cmd.Println()
	}
	return nil
}

func runDocumentPurge(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Purge(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to purge document: %w", err)
	}
	cmd.Printf("Purged document %s\n", args[0])
	return nil
}

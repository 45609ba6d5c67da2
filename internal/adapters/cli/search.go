package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

func newSearchCommand(factory ServiceFactory) *cobra.Command {
	var (
		docType  string
		category string
		limit    int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search legal documents by relevance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := domain.SearchQuery{Text: args[0], Category: category, Limit: limit}
			if docType != "" {
				parsed, err := domain.ParseDocumentType(docType)
				if err != nil {
					return err
				}
				query.Type = parsed
			}
			return withServices(cmd, factory, func(svc *Services) error {
				if svc.Retriever == nil {
					return errors.Join(errNotConfigured, errors.New("retriever"))
				}
				results, err := svc.Retriever.Search(cmd.Context(), query)
				if err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
				if asJSON {
					if results == nil {
						results = []domain.RetrievalResult{}
					}
					return printJSON(cmd, results)
				}
				printResults(cmd, results)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&docType, "type", "t", "", "document type filter (ley, decreto, sentencia, ...)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category filter")
	cmd.Flags().IntVarP(&limit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func printResults(cmd *cobra.Command, results []domain.RetrievalResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}
	if results[0].FromCache {
		cmd.Println("Results (cached):")
	} else {
		cmd.Println("Results:")
	}
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.Title, r.RelevanceScore)
		if r.ReferenceNumber != "" {
			cmd.Printf("      %s %s\n", r.DocumentType, r.ReferenceNumber)
		}
		if r.Snippet != "" {
			cmd.Printf("      %s\n", r.Snippet)
		}
		cmd.Println()
	}
}

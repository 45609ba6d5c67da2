package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/loader"
)

func newLoadCommand(factory ServiceFactory) *cobra.Command {
	var (
		overrides loader.Overrides
		docType   string
		notify    bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "load [paths...]",
		Short: "Load .txt, .md, .pdf and .xlsx documents into the store",
		Long: `Loads every supported file under the given paths. Metadata (type,
reference, date, source, category) is detected from the text unless
overridden by flags. Spreadsheets load one document per row.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if docType != "" {
				parsed, err := domain.ParseDocumentType(docType)
				if err != nil {
					return err
				}
				overrides.Type = parsed
			}
			return withServices(cmd, factory, func(svc *Services) error {
				if svc.Loader == nil {
					return errors.Join(errNotConfigured, errors.New("loader"))
				}
				report, err := svc.Loader.Load(cmd.Context(), args, overrides, notify)
				if asJSON {
					if jsonErr := printJSON(cmd, report); jsonErr != nil {
						return jsonErr
					}
				} else {
					printReport(cmd, report, notify)
				}
				if err != nil {
					return fmt.Errorf("load failed: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&docType, "type", "t", "", "document type for every loaded file")
	cmd.Flags().StringVarP(&overrides.Category, "category", "c", "", "category for every loaded file")
	cmd.Flags().StringVar(&overrides.Subcategory, "subcategory", "", "subcategory for every loaded file")
	cmd.Flags().StringVarP(&overrides.Reference, "reference", "r", "", "reference number for every loaded file")
	cmd.Flags().StringVar(&overrides.Source, "source", "", "issuing authority for every loaded file")
	cmd.Flags().BoolVar(&notify, "notify", false, "publish a documents-changed event when done")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the report as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report loader.Report, notify bool) {
	cmd.Printf("Loaded %d document(s) from %d file(s) in %.0f ms\n", report.Loaded, report.Files, report.Duration)
	for _, s := range report.Skipped {
		cmd.Printf("  skipped %s: %s\n", s.Path, s.Reason)
	}
	if notify && !report.Notified && report.Loaded > 0 {
		cmd.Println("No change event was published (NATS disabled?).")
	}
}

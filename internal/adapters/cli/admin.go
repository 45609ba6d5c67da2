package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

func newIndexCommand(factory ServiceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect or rebuild the relevance index",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the index state as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withServices(cmd, factory, func(svc *Services) error {
					if svc.Index == nil {
						return errors.Join(errNotConfigured, errors.New("index"))
					}
					return printJSON(cmd, svc.Index.Status())
				})
			},
		},
		&cobra.Command{
			Use:   "rebuild",
			Short: "Rebuild the index from the document store",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withServices(cmd, factory, func(svc *Services) error {
					if svc.Index == nil {
						return errors.Join(errNotConfigured, errors.New("index"))
					}
					status, err := svc.Index.Rebuild(cmd.Context())
					if err != nil {
						if errors.Is(err, domain.ErrIndexBuilding) {
							return fmt.Errorf("rebuild skipped: %w", err)
						}
						return fmt.Errorf("rebuild failed: %w", err)
					}
					cmd.Printf("Index %s: %d of %d documents indexed\n", status.State, status.IndexedCount, status.DocumentCount)
					return nil
				})
			},
		},
	)
	return cmd
}

func newCacheCommand(factory ServiceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the query cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete expired query cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, factory, func(svc *Services) error {
				if svc.Cache == nil {
					return errors.Join(errNotConfigured, errors.New("cache"))
				}
				deleted, err := svc.Cache.ClearExpired(cmd.Context())
				if err != nil {
					return fmt.Errorf("sweep failed: %w", err)
				}
				cmd.Printf("Deleted %d expired entr%s\n", deleted, pluralY(deleted))
				return nil
			})
		},
	})
	return cmd
}

func pluralY(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

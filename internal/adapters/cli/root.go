// Package cli is the operator command line: load documents, query the
// corpus and manage the index and cache.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/loader"
)

type DocumentLoader interface {
	Load(ctx context.Context, paths []string, overrides loader.Overrides, notify bool) (loader.Report, error)
}

// Services are built per command invocation so that --help never touches
// the database.
type Services struct {
	Retriever ports.Retriever
	Assistant ports.LegalAssistant
	Index     ports.IndexAdmin
	Cache     ports.CacheMaintainer
	Loader    DocumentLoader
}

type ServiceFactory func(ctx context.Context) (*Services, func(), error)

var errNotConfigured = errors.New("service not configured")

func NewRootCommand(factory ServiceFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "legalctl",
		Short:         "Operate the labor-law assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoadCommand(factory),
		newSearchCommand(factory),
		newAskCommand(factory),
		newIndexCommand(factory),
		newCacheCommand(factory),
	)
	return root
}

// withServices runs fn with freshly built services and releases them after.
func withServices(cmd *cobra.Command, factory ServiceFactory, fn func(*Services) error) error {
	svc, closeFn, err := factory(cmd.Context())
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(svc)
}

func printJSON(cmd *cobra.Command, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

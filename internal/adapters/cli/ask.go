package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

func newAskCommand(factory ServiceFactory) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a labor-law question with cited sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, factory, func(svc *Services) error {
				if svc.Assistant == nil {
					return errors.Join(errNotConfigured, errors.New("assistant"))
				}
				answer := svc.Assistant.Ask(cmd.Context(), args[0])
				if asJSON {
					return printJSON(cmd, answer)
				}
				printAnswer(cmd, answer)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the answer as JSON")
	return cmd
}

func printAnswer(cmd *cobra.Command, answer domain.LegalAnswer) {
	cmd.Println(answer.ResponseText)
	cmd.Println()
	cmd.Printf("Confidence: %.2f\n", answer.ConfidenceScore)
	if answer.NeedsHumanReview {
		cmd.Printf("Needs human review: %s\n", answer.ReviewReason)
	}
	if len(answer.References) > 0 {
		cmd.Println("Sources:")
		for _, ref := range answer.References {
			cmd.Printf("  [%s] %s\n", ref.Marker, ref.Title)
		}
	}
}

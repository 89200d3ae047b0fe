package cli

import (
	"fmt"

	"github.com/example/swagdoc/internal/validator"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an emitted OpenAPI document or chunk manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			log := newLogger(cmd.ErrOrStderr(), debug)
			out := cmd.OutOrStdout()

			report, err := validator.New(log).ValidateFile(cmd.Context(), args[0])
			if report == nil {
				return err
			}
			for _, p := range report.Problems {
				fmt.Fprintf(out, "  - %s\n", p)
			}
			if err != nil {
				return fmt.Errorf("%s: %d problem(s): %w", args[0], len(report.Problems), validator.ErrInvalid)
			}
			fmt.Fprintf(out, "%s: OpenAPI %s, %d paths, %d schemas: valid\n", args[0], report.Version, report.Paths, report.Schemas)
			return nil
		},
	}
}

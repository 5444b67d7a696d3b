package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"locamark/internal/i18n"
	"locamark/internal/models"
)

func importCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "import [backup.csv]",
		Short: "Add the rows of a CSV backup as new locations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := openApp(*s.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			n, err := a.svc.ImportCSV(ctx, f)
			if err != nil {
				return err
			}

			lang := models.DefaultLanguage
			if settings, err := a.svc.Settings(ctx); err == nil {
				lang = settings.Language
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T(lang, i18n.MsgImported, n))
			return nil
		},
	}
}

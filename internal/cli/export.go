package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func exportCommand(s *session) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every saved location as CSV or GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*s.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			ctx := cmd.Context()
			switch strings.ToLower(format) {
			case "csv":
				_, err = a.svc.ExportCSV(ctx, w)
				return err
			case "geojson":
				data, err := a.svc.ExportGeoJSON(ctx)
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			default:
				return fmt.Errorf("unsupported export format %q", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv, geojson")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output file, - for stdout")

	return cmd
}

package classifiers

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/tom-alerce/internal/alerce"
	"github.com/tphakala/tom-alerce/internal/app"
	"github.com/tphakala/tom-alerce/internal/conf"
)

// Command creates a command listing ALeRCE classifiers and their classes.
func Command(settings *conf.Settings, opts ...app.Option) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classifiers",
		Short: "List ALeRCE classifiers and classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Alerce.Client().FetchClassifiers(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			cfg := a.Alerce.Client().Config()
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CLASSIFIER\tVERSION\tIN USE\tCLASSES")
			for _, c := range list {
				inUse := ""
				switch {
				case c.ClassifierName == alerce.ClassifierLightCurve && c.ClassifierVersion == cfg.LCClassifierVersion,
					c.ClassifierName == alerce.ClassifierStamp && c.ClassifierVersion == cfg.StampClassifierVersion:
					inUse = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					c.ClassifierName, c.ClassifierVersion, inUse, strings.Join(c.Classes, ", "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

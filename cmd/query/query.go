package query

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/tom-alerce/internal/alerce"
	"github.com/tphakala/tom-alerce/internal/app"
	"github.com/tphakala/tom-alerce/internal/broker"
	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/datastore"
)

// Command creates the query command. Every enabled field of the ALeRCE
// search form becomes a flag of the same name.
func Command(settings *conf.Settings, opts ...app.Option) *cobra.Command {
	var asJSON bool
	var saveAs string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search ALeRCE for alerts",
		Long: `Search ALeRCE with the same fields as the web form.

Examples:
  tom-alerce query --lc_classifier_class SNIa --probability 0.7
  tom-alerce query --ra 150.1 --dec -20.5 --sr 0.01 --json
  tom-alerce query --relative_mjd__gt 24 --max_pages 5 --save "last day"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := formValues(cmd)

			a, err := app.New(settings, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			alerts, err := a.Alerce.FetchAlerts(ctx, values)
			if err != nil {
				return err
			}

			generic := make([]broker.GenericAlert, 0, len(alerts))
			for _, alert := range alerts {
				g, err := a.Alerce.ToGenericAlert(alert)
				if err != nil {
					return err
				}
				generic = append(generic, g)
			}

			if saveAs != "" {
				q := &datastore.BrokerQuery{Name: saveAs, Broker: a.Alerce.Name()}
				if err := q.SetValues(values); err != nil {
					return err
				}
				if err := a.Store.SaveQuery(ctx, q); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved query %q (id %d)\n", q.Name, q.ID)
			}

			if asJSON {
				return PrintJSON(cmd.OutOrStdout(), generic)
			}
			return PrintTable(cmd.OutOrStdout(), generic)
		},
	}

	for _, f := range searchFields() {
		usage := f.Label
		if choices := choiceValues(f); choices != "" {
			usage += " (" + choices + ")"
		}
		cmd.Flags().String(f.Name, "", usage)
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().StringVar(&saveAs, "save", "", "Save the search under this name")
	return cmd
}

// searchFields lists the user editable form fields
func searchFields() []broker.Field {
	form := alerce.BuildQueryForm(nil, "", "")
	var fields []broker.Field
	for _, fs := range form.Fieldsets {
		for _, f := range fs.Fields {
			if !f.Disabled {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

func choiceValues(f broker.Field) string {
	var vals []string
	for _, c := range f.Choices {
		if c.Value != "" {
			vals = append(vals, c.Value)
		}
	}
	return strings.Join(vals, ", ")
}

// formValues collects the form flags the user set
func formValues(cmd *cobra.Command) url.Values {
	values := url.Values{}
	for _, f := range searchFields() {
		if !cmd.Flags().Changed(f.Name) {
			continue
		}
		v, err := cmd.Flags().GetString(f.Name)
		if err == nil && v != "" {
			values.Set(f.Name, v)
		}
	}
	return values
}

// PrintJSON writes alerts as an indented JSON array.
func PrintJSON(w io.Writer, alerts []broker.GenericAlert) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(alerts)
}

// PrintTable writes alerts as aligned columns.
func PrintTable(w io.Writer, alerts []broker.GenericAlert) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRA\tDEC\tLAST DETECTION\tMAG\tSCORE")
	for _, a := range alerts {
		fmt.Fprintf(tw, "%s\t%.5f\t%.5f\t%s\t%s\t%s\n",
			a.ID, a.RA, a.Dec, formatTime(a.Timestamp), formatFloat(a.Mag, 3), formatFloat(a.Score, 3))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d alert(s)\n", len(alerts))
	return err
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func formatFloat(v *float64, prec int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, *v)
}

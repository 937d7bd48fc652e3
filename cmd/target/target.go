package target

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/tom-alerce/internal/app"
	"github.com/tphakala/tom-alerce/internal/astrotime"
	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/errors"
)

// Command creates the target command group.
func Command(settings *conf.Settings, opts ...app.Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "List stored targets and plan observations",
	}
	cmd.AddCommand(listCommand(settings, opts), visibilityCommand(settings, opts))
	return cmd
}

func listCommand(settings *conf.Settings, opts []app.Option) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored targets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			targets, err := a.Store.ListTargets(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tRA\tDEC\tCREATED")
			for _, t := range targets {
				ra, err := astrotime.DegToSexagesimal(t.RA, astrotime.FormatHMS)
				if err != nil {
					return err
				}
				dec, err := astrotime.DegToSexagesimal(t.Dec, astrotime.FormatDMS)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
					t.ID, t.Name, ra, dec, t.Created.UTC().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of targets")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of targets to skip")
	return cmd
}

func visibilityCommand(settings *conf.Settings, opts []app.Option) *cobra.Command {
	var date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "visibility <id>",
		Short: "Show altitude and airmass of a target through the night",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return errors.Newf("invalid target id %q", args[0]).
					Category(errors.CategoryValidation).
					Component("cli").
					Build()
			}

			now := time.Now()
			if date != "" {
				day, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return errors.New(err).
						Category(errors.CategoryValidation).
						Context("date", date).
						Component("cli").
						Build()
				}
				now = day.Add(12 * time.Hour)
			}

			a, err := app.New(settings, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Visibility == nil {
				return errors.Newf("no observatory configured, set observatory.name").
					Category(errors.CategoryConfiguration).
					Component("cli").
					Build()
			}

			t, err := a.Store.GetTarget(cmd.Context(), uint(id))
			if err != nil {
				return err
			}
			report, err := a.Visibility.ForTarget(t, now)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(w, "%s from %s, night %s to %s UTC\n", report.Target, report.Observatory,
				report.Night.Dusk.UTC().Format(time.DateTime), report.Night.Dawn.UTC().Format(time.DateTime))

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME (UTC)\tALTITUDE\tAIRMASS\tOBSERVABLE")
			for _, s := range report.Samples {
				airmass := "-"
				if s.Airmass != nil {
					airmass = fmt.Sprintf("%.2f", *s.Airmass)
				}
				observable := ""
				if s.Observable {
					observable = "yes"
				}
				fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\n", s.Time.UTC().Format("15:04"), s.Altitude, airmass, observable)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if report.BestAirmass != nil && report.BestTime != nil {
				fmt.Fprintf(w, "Best airmass %.2f at %s UTC\n", *report.BestAirmass, report.BestTime.UTC().Format("15:04"))
			} else {
				fmt.Fprintln(w, "Target does not rise during the night")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Night starting on this date (YYYY-MM-DD), default tonight")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

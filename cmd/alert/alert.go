package alert

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/tom-alerce/internal/app"
	"github.com/tphakala/tom-alerce/internal/conf"
)

// Command creates the alert command group.
func Command(settings *conf.Settings, opts ...app.Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Inspect or import a single ALeRCE object",
	}
	cmd.AddCommand(showCommand(settings, opts), importCommand(settings, opts))
	return cmd
}

func showCommand(settings *conf.Settings, opts []app.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "show <oid>",
		Short: "Print an object as returned by ALeRCE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			alert, err := a.Alerce.FetchAlert(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var out bytes.Buffer
			if err := json.Indent(&out, alert.Raw(), "", "  "); err != nil {
				return err
			}
			out.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(out.Bytes())
			return err
		},
	}
}

func importCommand(settings *conf.Settings, opts []app.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "import <oid>",
		Short: "Create a target from an ALeRCE object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			alert, err := a.Alerce.FetchAlert(ctx, args[0])
			if err != nil {
				return err
			}
			target, err := a.Alerce.ToTarget(ctx, alert)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created target %s (id %d) at RA %.6f Dec %.6f\n",
				target.Name, target.ID, target.RA, target.Dec)
			return err
		},
	}
}

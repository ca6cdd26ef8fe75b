package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDevicesCmd() *cobra.Command {
	var manipsOnly bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List attached devices and mark manipulator controllers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			cat := a.reg.Catalog()
			devices := cat.List()
			if manipsOnly {
				devices = cat.Manipulators()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tSERIAL\tDESCRIPTION\tMODEL")
			for _, d := range devices {
				model := "-"
				if sig, ok := cat.Classify(d); ok {
					model = sig.Name
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.Index, d.SerialID, d.Description, model)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%d devices, %d manipulators\n", cat.Count(), cat.CountManipulators())

			return nil
		},
	}
	cmd.Flags().BoolVarP(&manipsOnly, "manipulators", "m", false, "list manipulator controllers only")

	return cmd
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/console"
)

func routesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "routes",
		Aliases: []string{"rutas"},
		Short:   "List and toggle transit routes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List routes sorted by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			panel := console.NewRoutesPanel(a.client, a.notifier)
			if err := panel.Load(ctx); err != nil {
				return err
			}
			return a.printRoutes(panel.Routes())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle ROUTE_ID",
		Short: "Switch a route between open and blocked",
		Long:  "Switch a route between open and blocked. Congested routes cannot be toggled.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			panel := console.NewRoutesPanel(a.client, a.notifier)
			if err := panel.Load(ctx); err != nil {
				return err
			}
			if err := panel.Toggle(ctx, args[0]); err != nil {
				return err
			}
			for _, r := range panel.Routes() {
				if r.ID == args[0] {
					return a.printRoutes([]models.Route{r})
				}
			}
			return nil
		},
	})

	return cmd
}

func (a *app) printRoutes(routes []models.Route) error {
	if a.asJSON {
		return a.printJSON(routes)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMBRE\tESTADO\tRECORRIDO")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, console.StatusLabel(r.Status), r.PathDescription)
	}
	return tw.Flush()
}

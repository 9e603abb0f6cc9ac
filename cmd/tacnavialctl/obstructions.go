package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/console"
)

func obstructionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "obstructions",
		Aliases: []string{"obs"},
		Short:   "Manage reported obstructions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List obstructions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			panel := console.NewObstructionsPanel(a.client, a.notifier)
			if err := panel.Load(ctx); err != nil {
				return err
			}
			return a.printObstructions(panel.Obstructions())
		},
	})

	var (
		lat, lng       float64
		endLat, endLng float64
		typ            string
		title          string
		description    string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Report a point obstruction or, with --end-lat/--end-lng, a closure segment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			req := &models.ObstructionCreateRequest{
				Coordinates: models.Coordinates{Lat: lat, Lng: lng},
				Type:        models.ObstructionType(typ),
				Title:       title,
				Description: description,
			}
			if cmd.Flags().Changed("end-lat") || cmd.Flags().Changed("end-lng") {
				req.EndCoordinates = &models.Coordinates{Lat: endLat, Lng: endLng}
			}

			panel := console.NewObstructionsPanel(a.client, a.notifier)
			created, err := panel.Add(ctx, req)
			if err != nil {
				return err
			}
			return a.printObstructions([]models.Obstruction{*created})
		},
	}
	add.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	add.Flags().Float64Var(&lng, "lng", 0, "Longitude")
	add.Flags().Float64Var(&endLat, "end-lat", 0, "End latitude of a closure segment")
	add.Flags().Float64Var(&endLng, "end-lng", 0, "End longitude of a closure segment")
	add.Flags().StringVarP(&typ, "type", "t", string(models.ObstructionOther), "construction, closure, event, accident or other")
	add.Flags().StringVar(&title, "title", "", "Title (5-100 characters)")
	add.Flags().StringVar(&description, "description", "", "Description (10-500 characters)")
	_ = add.MarkFlagRequired("lat")
	_ = add.MarkFlagRequired("lng")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("description")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove OBSTRUCTION_ID",
		Short: "Remove an obstruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			panel := console.NewObstructionsPanel(a.client, a.notifier)
			return panel.Remove(ctx, args[0])
		},
	})

	return cmd
}

func (a *app) printObstructions(items []models.Obstruction) error {
	if a.asJSON {
		return a.printJSON(items)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIPO\tTÍTULO\tUBICACIÓN\tAÑADIDA")
	for _, o := range items {
		where := fmt.Sprintf("%.5f,%.5f", o.Coordinates.Lat, o.Coordinates.Lng)
		if o.EndCoordinates != nil {
			where += fmt.Sprintf(" → %.5f,%.5f", o.EndCoordinates.Lat, o.EndCoordinates.Lng)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Type, o.Title, where, o.AddedAt.Time().Local().Format(time.DateTime))
	}
	return tw.Flush()
}

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tacnavial/tacnavial/internal/api/models"
)

func planCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a driving route between two places in Tacna",
		Long: `Plan a driving route between two places in Tacna.

Each place is either a street address or a "lat,lng" pair.`,
		Example: `  tacnavialctl plan --from "Plaza de Armas, Tacna" --to "-18.0050,-70.2450"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			resp, err := a.client.Plan(ctx, &models.DirectionsRequest{
				Origin:      parsePlace(from),
				Destination: parsePlace(to),
			})
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(resp)
			}

			fmt.Fprintf(a.out, "Origen:  %.5f,%.5f\nDestino: %.5f,%.5f\n",
				resp.Origin.Lat, resp.Origin.Lng, resp.Destination.Lat, resp.Destination.Lng)
			fmt.Fprintf(a.out, "Proveedor: %s, obstrucciones activas: %d\n\n", resp.Provider, resp.ActiveObstructions)

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tDISTANCIA\tDURACIÓN\tOBSTRUCCIONES\tRESUMEN")
			for i, r := range resp.Routes {
				fmt.Fprintf(tw, "%d\t%.1f km\t%d min\t%d\t%s\n",
					i+1, float64(r.DistanceMeters)/1000, (r.DurationSeconds+59)/60, r.NearbyObstructions, r.Summary)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Origin address or lat,lng")
	cmd.Flags().StringVar(&to, "to", "", "Destination address or lat,lng")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// parsePlace reads "lat,lng" as coordinates and anything else as an address.
func parsePlace(s string) models.Place {
	s = strings.TrimSpace(s)
	if c, ok := parseLatLng(s); ok {
		return models.Place{Coordinates: &c}
	}
	return models.Place{Address: s}
}

func parseLatLng(s string) (models.Coordinates, bool) {
	latStr, lngStr, found := strings.Cut(s, ",")
	if !found {
		return models.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return models.Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return models.Coordinates{}, false
	}
	return models.Coordinates{Lat: lat, Lng: lng}, true
}

func geocodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode ADDRESS",
		Short: "Resolve an address to coordinates, biased to Tacna",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := strings.TrimSpace(strings.Join(args, " "))
			if address == "" {
				return errors.New("address must not be empty")
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			resp, err := a.client.Geocode(ctx, address)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(resp)
			}
			fmt.Fprintf(a.out, "%.6f,%.6f\t%s\n", resp.Coordinates.Lat, resp.Coordinates.Lng, resp.FormattedAddress)
			return nil
		},
	}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server, subsystem and provider status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			st, err := a.client.Status(ctx)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(st)
			}

			fmt.Fprintf(a.out, "Estado: %s\n\n", st.Status)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPONENTE\tESTADO\tDETALLE")
			for _, s := range st.Subsystems {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Status, s.Detail)
			}
			for _, p := range st.Providers {
				fmt.Fprintf(tw, "%s\t%s\tcircuit %s %s\n", p.Provider, p.Status, p.CircuitState, p.Message)
			}
			return tw.Flush()
		},
	}
}

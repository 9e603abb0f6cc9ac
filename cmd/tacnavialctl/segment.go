package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacnavial/tacnavial/internal/api/models"
)

// segmentCmd defines and submits a closure segment in one go, using a fresh
// editor session on the server.
func segmentCmd(a *app) *cobra.Command {
	var (
		startAddress, endAddress string
		startLat, startLng       string
		endLat, endLng           string
		typ, title, description  string
	)
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Report a closure segment by addresses or coordinates",
		Example: `  tacnavialctl segment --start-address "Av. Bolognesi 100" --end-address "Av. Bolognesi 500" \
      --title "Cierre por obras" --description "Trabajos de asfaltado hasta el viernes"
  tacnavialctl segment --start-lat -18.0146 --start-lng -70.2534 --end-lat -18.0100 --end-lng -70.2500 \
      --title "Desfile cívico" --description "Vía cerrada durante el desfile" --type event`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			byAddress := startAddress != "" || endAddress != ""
			byCoords := startLat != "" || startLng != "" || endLat != "" || endLng != ""
			if byAddress == byCoords {
				return fmt.Errorf("give either --start-address/--end-address or --start-lat/--start-lng/--end-lat/--end-lng")
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			session, err := a.client.CreateSegmentSession(ctx)
			if err != nil {
				return err
			}

			if byAddress {
				session, err = a.client.DefineSegmentByAddresses(ctx, session.ID, &models.SegmentAddressesRequest{
					StartAddress: startAddress,
					EndAddress:   endAddress,
				})
			} else {
				session, err = a.client.DefineSegmentByCoordinates(ctx, session.ID, &models.SegmentCoordinatesRequest{
					StartLat: startLat,
					StartLng: startLng,
					EndLat:   endLat,
					EndLng:   endLng,
				})
			}
			if err != nil {
				return err
			}
			if !session.DialogOpen {
				return fmt.Errorf("segment not ready: %s", session.Message)
			}

			if typ == "" {
				typ = string(session.DefaultType)
			}
			resp, err := a.client.SubmitSegment(ctx, session.ID, &models.SegmentSubmitRequest{
				Type:        models.ObstructionType(typ),
				Title:       title,
				Description: description,
			})
			if err != nil {
				return err
			}
			return a.printObstructions([]models.Obstruction{resp.Obstruction})
		},
	}
	cmd.Flags().StringVar(&startAddress, "start-address", "", "Street address where the segment starts")
	cmd.Flags().StringVar(&endAddress, "end-address", "", "Street address where the segment ends")
	cmd.Flags().StringVar(&startLat, "start-lat", "", "Start latitude")
	cmd.Flags().StringVar(&startLng, "start-lng", "", "Start longitude")
	cmd.Flags().StringVar(&endLat, "end-lat", "", "End latitude")
	cmd.Flags().StringVar(&endLng, "end-lng", "", "End longitude")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "Obstruction type (defaults to closure)")
	cmd.Flags().StringVar(&title, "title", "", "Title (5-100 characters)")
	cmd.Flags().StringVar(&description, "description", "", "Description (10-500 characters)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

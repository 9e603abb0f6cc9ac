package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tacnavial/tacnavial/internal/api/models"
	"github.com/tacnavial/tacnavial/internal/console"
)

func commentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comentarios"},
		Short:   "Read and submit public comments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List comments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			feed := console.NewCommentsFeed(a.client, a.notifier)
			if err := feed.Load(ctx); err != nil {
				return err
			}
			return a.printComments(feed.Comments())
		},
	})

	var lat, lng float64
	submit := &cobra.Command{
		Use:   "submit TEXT",
		Short: "Submit a comment (10-500 characters)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			req := &models.CommentSubmitRequest{Text: args[0]}
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				req.Latitude, req.Longitude = &lat, &lng
			}

			feed := console.NewCommentsFeed(a.client, a.notifier)
			c, err := feed.Submit(ctx, req)
			if err != nil {
				return err
			}
			return a.printComments([]models.Comment{*c})
		},
	}
	submit.Flags().Float64Var(&lat, "lat", 0, "Latitude the comment refers to")
	submit.Flags().Float64Var(&lng, "lng", 0, "Longitude the comment refers to")
	cmd.AddCommand(submit)

	return cmd
}

func (a *app) printComments(items []models.Comment) error {
	if a.asJSON {
		return a.printJSON(items)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENVIADO\tTEXTO")
	for _, c := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.SubmittedAt.Time().Local().Format(time.DateTime), c.Text)
	}
	return tw.Flush()
}

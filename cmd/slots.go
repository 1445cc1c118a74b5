package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"slotbook/models"
)

func newSlotsCmd() *cobra.Command {
	var date, userID string

	c := &cobra.Command{
		Use:   "slots",
		Short: "Print the slot board for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			views, err := a.service.ListSlots(cmd.Context(), date, userID)
			if err != nil {
				return err
			}
			return printSlots(cmd.OutOrStdout(), views)
		},
	}

	c.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD")
	c.Flags().StringVar(&userID, "user", "", "show the board as seen by this user")
	_ = c.MarkFlagRequired("date")
	return c
}

func printSlots(out io.Writer, views []models.SlotView) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tBOOKING")
	for _, v := range views {
		id := "-"
		if v.BookingID != nil {
			id = *v.BookingID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Time, v.Status, id)
	}
	return tw.Flush()
}

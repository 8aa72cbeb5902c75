package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"travel-wallet/internal/models"
	"travel-wallet/internal/render"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func newTripsCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "trips",
		Short: "List trips of the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			trips, err := a.ledger.Trips(cmd.Context(), a.user)
			if err != nil {
				return fmt.Errorf("failed to list trips: %w", err)
			}
			printTrips(stdout, trips)
			return nil
		},
	}
}

func newHistoryCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [trip-id]",
		Short: "Show recent expenses of the active trip or of the given trip",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			var trip *models.Trip
			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid trip id %q", args[0])
				}
				trip, err = a.ledger.Trip(ctx, id)
				if err == nil && trip.UserID != a.user {
					err = models.ErrTripNotFound
				}
				if err != nil {
					return fmt.Errorf("trip %d: %w", id, err)
				}
			} else {
				trip, err = a.ledger.ActiveTrip(ctx, a.user)
				if errors.Is(err, models.ErrNoActiveTrip) {
					fmt.Fprintln(stdout, "No active trip.")
					return nil
				}
				if err != nil {
					return err
				}
			}

			if limit <= 0 {
				limit = a.cfg.HistoryLimit
			}
			expenses, err := a.ledger.Expenses(ctx, trip.ID, limit)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}
			summary, err := a.ledger.Summary(ctx, trip.ID)
			if err != nil {
				return fmt.Errorf("failed to summarize trip: %w", err)
			}
			printHistory(stdout, trip, expenses, summary)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of expenses to show (default from config)")
	return cmd
}

func printTrips(w io.Writer, trips []models.Trip) {
	if len(trips) == 0 {
		fmt.Fprintln(w, headerStyle.Render("No trips yet"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d trip(s)", len(trips))))
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tBalance\tRate\tCreated\t")
	for _, t := range trips {
		id := strconv.FormatInt(t.ID, 10)
		if t.IsActive {
			id = activeStyle.Render("*" + id)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s %s = %s %s\t%s\t%s\t\n",
			id,
			t.Name,
			render.Number(t.BalanceTo), t.ToCurrency,
			render.Number(t.BalanceFrom), t.FromCurrency,
			render.Rate(t.ExchangeRate),
			dimStyle.Render(t.CreatedAt.Local().Format("2006-01-02")),
		)
	}
	_ = tw.Flush()
}

func printHistory(w io.Writer, trip *models.Trip, expenses []models.Expense, summary models.TripSummary) {
	fmt.Fprintln(w, headerStyle.Render(trip.Name))
	if len(expenses) == 0 {
		fmt.Fprintln(w, "No expenses yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Date\t%s\t%s\tDescription\t\n", trip.ToCurrency, trip.FromCurrency)
	for _, e := range expenses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			dimStyle.Render(e.CreatedAt.Local().Format("02.01.2006 15:04")),
			render.Number(e.AmountTo),
			render.Number(e.AmountFrom),
			e.Description,
		)
	}
	fmt.Fprintf(tw, "Total (%d)\t%s\t%s\t\t\n", summary.Count, render.Number(summary.TotalTo), render.Number(summary.TotalFrom))
	_ = tw.Flush()
}

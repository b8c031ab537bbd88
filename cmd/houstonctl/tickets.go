package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soundcrew/houston/internal/config"
	"github.com/soundcrew/houston/internal/report"
	"github.com/soundcrew/houston/internal/ticket"
)

// filterFlags are the mutually exclusive selectors shared by list and export.
type filterFlags struct {
	date  string
	play  string
	month string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "only tickets for this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.play, "play", "", "only tickets for this play (exact name)")
	cmd.Flags().StringVar(&f.month, "month", "", "only tickets for this month (YYYY-MM)")
	cmd.MarkFlagsMutuallyExclusive("date", "play", "month")
}

func (f *filterFlags) filter() (ticket.Filter, error) {
	var tf ticket.Filter
	switch {
	case f.date != "":
		tf = ticket.ByDate(f.date)
	case f.play != "":
		tf = ticket.ByPlay(f.play)
	case f.month != "":
		tf = ticket.ByMonth(f.month)
	}
	return tf, tf.Validate()
}

// openStore opens the ticket store named by the config file, or by the
// environment when configPath is empty.
func openStore(ctx context.Context, configPath string) (ticket.Store, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return ticket.Open(ctx, cfg.Store.Driver, cfg.Store.Path, cfg.Store.DSN)
}

func listTickets(cmd *cobra.Command, configPath string, flags filterFlags) ([]ticketRow, error) {
	f, err := flags.filter()
	if err != nil {
		return nil, err
	}
	store, err := openStore(cmd.Context(), configPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	tickets, err := store.List(cmd.Context(), f)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	rows := make([]ticketRow, len(tickets))
	for i, t := range tickets {
		rows[i] = ticketRow{id: t.ID, date: t.Date, venue: t.Venue, play: t.Play, staff: t.StaffList(), problem: t.Problem}
	}
	return rows, nil
}

type ticketRow struct {
	id      int64
	date    string
	venue   string
	play    string
	staff   string
	problem string
}

func newTicketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Ticket inspection commands",
	}
	cmd.AddCommand(newTicketsListCmd())
	return cmd
}

func newTicketsListCmd() *cobra.Command {
	var (
		configPath string
		flags      filterFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored tickets",
		Long:  "Lists tickets straight from the configured store, oldest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := listTickets(cmd, configPath, flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No tickets found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tVENUE\tPLAY\tSTAFF\tPROBLEM")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", r.id, r.date, r.venue, r.play, r.staff, truncate(r.problem, 40))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to houston config file (default: environment)")
	flags.register(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		configPath string
		output     string
		flags      filterFlags
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tickets to an Excel workbook",
		Long:  "Writes the selected tickets to an .xlsx workbook with the same layout the bot sends to chats.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			tickets, err := store.List(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("list tickets: %w", err)
			}
			if len(tickets) == 0 {
				return fmt.Errorf("no tickets %s", report.Describe(f))
			}
			data, err := report.Workbook(tickets)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tickets to %s\n", len(tickets), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to houston config file (default: environment)")
	cmd.Flags().StringVarP(&output, "output", "o", report.FileName, "workbook path")
	flags.register(cmd)
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/library"
)

func newStatsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print library counts and the most urgent overdue loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			db, err := database.NewDatabase(cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			stats, err := library.New(db, library.SystemClock{}, cfg.Loans).Reports.Stats(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printStats(out io.Writer, s *library.Stats) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Books\t%d\n", s.TotalBooks)
	fmt.Fprintf(w, "Active members\t%d\n", s.ActiveMembers)
	fmt.Fprintf(w, "Open loans\t%d\n", s.OpenLoans)
	fmt.Fprintf(w, "Overdue loans\t%d\n", s.OverdueLoans)

	if len(s.Overdue) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "DUE\tBOOK\tMEMBER")
		for _, loan := range s.Overdue {
			fmt.Fprintf(w, "%s\t%s\t%s\n", loan.DueDate.Format(time.DateOnly), loan.BookTitle, loan.MemberName)
		}
	}
	return w.Flush()
}

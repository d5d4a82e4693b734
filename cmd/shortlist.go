package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/where2work/internal/model"
	"github.com/sells-group/where2work/internal/store"
)

var shortlistCmd = &cobra.Command{
	Use:   "shortlist",
	Short: "Inspect and manage stored shortlists",
	Long:  "Commands for listing, clearing and pruning the per-session shortlists kept by the sqlite or postgres store.",
}

// -- shortlist list --

var shortlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a session's shortlisted companies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		session, _ := cmd.Flags().GetString("session")

		st, err := openShortlistStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := st.ListShortlist(ctx, session)
		if err != nil {
			return eris.Wrap(err, "shortlist list")
		}
		return printShortlist(cmd.OutOrStdout(), entries)
	},
}

// openShortlistStore opens the configured store, refusing the memory driver
// since a fresh process would only ever see an empty one.
func openShortlistStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.Driver == "" || cfg.Store.Driver == store.DriverMemory {
		return nil, eris.New("shortlist: store.driver is memory, which keeps nothing between runs; use sqlite or postgres")
	}
	return initStore(ctx)
}

func printShortlist(w io.Writer, entries []model.ShortlistEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Shortlist is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tADDED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.CompanyName, e.AddedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

// -- shortlist clear --

var shortlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every company from a session's shortlist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		session, _ := cmd.Flags().GetString("session")

		st, err := openShortlistStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.ClearShortlist(ctx, session)
		if err != nil {
			return eris.Wrap(err, "shortlist clear")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s\n", n, plural(n, "entry", "entries"))
		return nil
	},
}

// -- shortlist prune --

var shortlistPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove shortlist entries older than a duration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return eris.New("shortlist prune: --older-than must be positive")
		}

		st, err := openShortlistStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.PruneShortlists(ctx, time.Now().Add(-olderThan))
		if err != nil {
			return eris.Wrap(err, "shortlist prune")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s\n", n, plural(n, "entry", "entries"))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{shortlistListCmd, shortlistClearCmd} {
		c.Flags().String("session", "", "session id (the w2w_session cookie value)")
		_ = c.MarkFlagRequired("session")
	}
	shortlistPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "remove entries added before now minus this duration")

	shortlistCmd.AddCommand(shortlistListCmd, shortlistClearCmd, shortlistPruneCmd)
	rootCmd.AddCommand(shortlistCmd)
}

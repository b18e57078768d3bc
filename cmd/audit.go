package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/referents-ia/portail/internal/audit"
)

var (
	auditActor     string
	auditLimit     int
	auditOlderThan time.Duration
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and prune the activity journal",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the latest journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openConfiguredDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		entries, err := audit.NewStore(database).Query(context.Background(), audit.QueryFilter{
			ActorID: auditActor,
			Limit:   auditLimit,
		})
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tSUMMARY")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.ActorID, e.Action, e.Summary)
		}
		return tw.Flush()
	},
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete journal entries older than a given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		database, err := openConfiguredDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		n, err := audit.NewStore(database).DeleteBefore(context.Background(), time.Now().Add(-auditOlderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Deleted %d journal entries\n", n)
		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditActor, "actor", "", "only entries of this user id")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum number of entries")
	auditPruneCmd.Flags().DurationVar(&auditOlderThan, "older-than", 90*24*time.Hour, "age of the entries to delete")
	auditCmd.AddCommand(auditListCmd, auditPruneCmd)
	rootCmd.AddCommand(auditCmd)
}

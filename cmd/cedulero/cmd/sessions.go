package cmd

import (
	"fmt"
	"log"
	"time"

	"cedulero-backend/lib/sessionstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspects and maintains the captured session collection.",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists all captured sessions and whether each is still usable.",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := sessionstore.Open(config.SessionsFile)
		if err != nil {
			log.Fatal(err)
		}

		now := time.Now()
		window := validityWindow()

		t := newTable()
		t.AppendHeader(table.Row{"#", "Tab", "Token", "Last used", "Status"})
		for i, s := range store.Sessions() {
			status := "expired"
			if s.Datetime.After(now.Add(-window)) {
				status = "valid"
			}
			t.AppendRow(table.Row{
				i,
				s.TabID,
				s.TokenID,
				s.Datetime.Format(time.ANSIC),
				status,
			})
		}
		t.Render()
	},
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Removes expired sessions from the collection.",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := sessionstore.Open(config.SessionsFile)
		if err != nil {
			log.Fatal(err)
		}

		removed, err := store.Prune(time.Now(), validityWindow())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("removed %d expired sessions\n", removed)
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)
	rootCmd.AddCommand(sessionsCmd)
}

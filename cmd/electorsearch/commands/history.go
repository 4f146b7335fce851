package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"electorsearch/internal/components/serviceutil"
	"electorsearch/internal/history"
	"electorsearch/internal/search"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int

func init() {
	historyLimit = historyCmd.Flags().IntP("limit", "l", 20, "The number of searches to list.")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (history.Store, func()) {
	database, err := cfg.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("open history database", err)
	}
	return history.NewStore(database), func() { database.Close() }
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Lists saved searches, most recent first.",
	Run: func(cmd *cobra.Command, args []string) {
		store, closeDb := openHistory()
		defer closeDb()

		entries, err := store.List(cmd.Context(), *historyLimit)
		if err != nil {
			serviceutil.Fatal("list searches", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"ID", "Date", "Assemblies", "Name", "Relative", "Searches", "Failed", "Message"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.ID,
				e.CreatedAt.Local().Format(time.DateTime),
				strings.Join(e.Query.Assemblies, ","),
				e.Query.Name,
				e.Query.RelativeName,
				e.Combinations,
				e.Failed,
				e.Message,
			})
		}
		t.Render()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Prints the records of a saved search.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			serviceutil.Fatal("parse id", err)
		}

		store, closeDb := openHistory()
		defer closeDb()

		entry, err := store.Get(cmd.Context(), id)
		if err != nil {
			serviceutil.Fatal(fmt.Sprintf("get search %d", id), err)
		}

		result := search.Result{Records: entry.Records}
		result.Meta.Message = entry.Message
		printRecords(result)
	},
}

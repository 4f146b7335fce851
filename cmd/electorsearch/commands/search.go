package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"electorsearch/internal/components/serviceutil"
	"electorsearch/internal/history"
	"electorsearch/internal/search"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchAssemblies   *[]string
	searchName         *string
	searchRelativeName *string
	searchPermutations *bool
	searchConcurrency  *int
	searchDump         *string
	searchSave         *bool
	searchJson         *bool
)

func init() {
	flags := searchCmd.Flags()
	searchAssemblies = flags.StringSliceP("assembly", "a", nil, "The assembly constituency number(s) to search, repeatable.")
	searchName = flags.StringP("name", "n", "", "The elector's name.")
	searchRelativeName = flags.StringP("relative-name", "r", "", "The name of the elector's relative.")
	searchPermutations = flags.BoolP("permutations", "p", false, "Also search every spelling variant of both names.")
	searchConcurrency = flags.Int("concurrency", 0, "The maximum number of searches in flight, overrides the config.")
	searchDump = flags.String("dump", "", "Write every http exchange to this directory.")
	searchSave = flags.Bool("save", false, "Save the search to the history database.")
	searchJson = flags.Bool("json", false, "Print the result as json instead of a table.")

	searchCmd.MarkFlagRequired("assembly")
	searchCmd.MarkFlagRequired("name")
	searchCmd.MarkFlagRequired("relative-name")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search --assembly <no> --name <name> --relative-name <name> [--permutations]",
	Short: "Searches the electoral roll and prints the matching electors.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		concurrency := cfg.Portal.Concurrency
		if *searchConcurrency > 0 {
			concurrency = *searchConcurrency
		}
		orchestrator := search.NewOrchestrator(newClient(*searchDump), tel, search.Options{
			Concurrency: concurrency,
		})

		query := search.Query{
			Assemblies:      *searchAssemblies,
			Name:            *searchName,
			RelativeName:    *searchRelativeName,
			UsePermutations: *searchPermutations,
		}
		combos, _ := orchestrator.Combinations(query)
		slog.Info("searching", "combinations", len(combos))

		t1 := time.Now()
		result, err := orchestrator.Search(ctx, query, func(p search.Progress) {
			fmt.Fprintf(os.Stderr, "\r[%d/%d] %d failed, %s", p.Completed, p.Total, p.Failed, p.Message)
		})
		fmt.Fprintln(os.Stderr)
		if err != nil {
			serviceutil.Fatal("invalid search", err)
		}
		slog.Info("search time", "seconds", time.Since(t1).Seconds())

		if *searchSave {
			database, err := cfg.Database.OpenDB()
			if err != nil {
				serviceutil.Fatal("open history database", err)
			}
			defer database.Close()

			id, err := history.NewStore(database).Save(ctx, time.Now(), query, result)
			if err != nil {
				serviceutil.Fatal("save search", err)
			}
			slog.Info("saved search", "id", id)
		}

		result.Records = search.Rank(result.Records, query.Name, query.RelativeName)
		if *searchJson {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			err = encoder.Encode(result)
			if err != nil {
				serviceutil.Fatal("write result", err)
			}
			return
		}
		if result.Truncated {
			fmt.Println("warning: too many spelling variants, some were not searched.")
		}
		printRecords(result)
	},
}

func printRecords(result search.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{
		"AC", "Part", "Serial", "House", "Name", "Relation", "Relative", "Gender", "EPIC", "Section",
	})
	for _, rec := range result.Records {
		t.AppendRow(table.Row{
			rec.AssemblyNo,
			rec.PartNo,
			rec.SerialNo,
			rec.HouseNo,
			rec.Name,
			rec.Relation,
			rec.RelativeName,
			rec.Gender,
			rec.EpicNo,
			rec.SectionName,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", result.Meta.Message})
	t.Render()
}

package commands

import (
	"fmt"

	"electorsearch/internal/permute"

	"github.com/spf13/cobra"
)

var permuteCount *bool

func init() {
	permuteCount = permuteCmd.Flags().BoolP("count", "c", false, "Only print the number of variants.")
	rootCmd.AddCommand(permuteCmd)
}

var permuteCmd = &cobra.Command{
	Use:   "permute <name> [name...]",
	Short: "Prints the spelling variants that a search with --permutations would try.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			variants, truncated := permute.Default.ExpandN(permute.Normalize(name))
			if *permuteCount {
				fmt.Printf("%s\t%d\n", name, len(variants))
				continue
			}
			for _, v := range variants {
				fmt.Println(v)
			}
			if truncated {
				fmt.Printf("(capped at %d variants)\n", permute.Default.MaxVariants)
			}
		}
	},
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shubhpawar/office-ladies-podcast-search/cmd/podsearch/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !IsVerbose() {
			fmt.Println(build.String())
			return nil
		}
		return printResult(build.Get())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/edgeline/edge-engine/cmd"
	"github.com/edgeline/edge-engine/internal/config"
	"github.com/edgeline/edge-engine/internal/echo"
)

// RootCmd is the root command for the edge-engine CLI.
var RootCmd = &cobra.Command{
	Use:   "edge-engine",
	Short: "NFL/NCAAF line-collection and edge-detection toolkit",
	Long: echo.HeaderStyle().Render("Edge Engine") + "\n\n" +
		"Collects schedules, ratings, injuries, weather, and odds; runs power-rating\n" +
		"based edge detection against the resulting lines; and settles predictions\n" +
		"against closing lines and final scores once games go final. `serve` runs\n" +
		"the same pipeline continuously on a ticker and exposes /metrics.",
}

func init() {
	RootCmd.AddCommand(cmd.CollectCmd())
	RootCmd.AddCommand(cmd.DetectEdgesCmd())
	RootCmd.AddCommand(cmd.CheckResultsCmd())
	RootCmd.AddCommand(cmd.ServeCmd())
	RootCmd.AddCommand(cmd.DbCmd())
	RootCmd.AddCommand(cmd.CacheCmd())
}

func main() {
	config.MustLoad(nil)

	if err := RootCmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}

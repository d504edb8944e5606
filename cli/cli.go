package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gridlock.dev/forecast/cmd"
	"gridlock.dev/forecast/internal/echo"
)

// RootCmd is the root command for the forecast CLI
var RootCmd = &cobra.Command{
	Use:   "forecast",
	Short: "NFL forecast engine and API toolkit",
	Long: echo.HeaderStyle().Render("NFL Forecast") + "\n\n" +
		"ELO rollforward, Monte Carlo season simulation, playoff seeding,\n" +
		"and probability aggregation for NFL regular-season and playoff outcomes.",
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Path to config file (defaults to conf.toml)")
	RootCmd.AddCommand(cmd.ForecastCmd())
	RootCmd.AddCommand(cmd.DbCmd())
	RootCmd.AddCommand(cmd.ServerCmd())
	RootCmd.AddCommand(cmd.StatusCmd())
	RootCmd.AddCommand(cmd.CacheCmd())
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gridlock.dev/forecast/internal/db"
	"gridlock.dev/forecast/internal/echo"
)

// StatusCmd creates the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check data freshness and completeness",
		Long:  "Display the roster, schedule, rating, and simulation run state tracked by the database.",
		RunE:  status,
	}
}

func status(cmd *cobra.Command, args []string) error {
	echo.Header("Forecast Status")
	ctx := cmd.Context()

	database, err := db.Connect("")
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer database.Close()

	refreshes, err := database.DatasetRefreshes(ctx)
	if err != nil {
		echo.Infof("  ⚠ Unable to read dataset refresh metadata: %v", err)
		refreshes = map[string]db.DatasetRefresh{}
	}

	teamCount, teamsErr := safeCount(ctx, database, `SELECT COUNT(*) FROM teams`)
	echo.Info("• Team roster")
	if teamsErr != nil {
		echo.Infof("  ⚠ Unable to read teams table: %v", teamsErr)
	} else if teamCount == 0 {
		echo.Infof("  • teams table is empty. Run `forecast db seed`.")
	} else {
		echo.Successf("  ✓ %d teams loaded", teamCount)
	}
	printRefresh(refreshes, "teams")

	completedCount, completedErr := safeCount(ctx, database, `SELECT COUNT(*) FROM games WHERE completed = TRUE`)
	remainingCount, remainingErr := safeCount(ctx, database, `SELECT COUNT(*) FROM games WHERE completed = FALSE`)
	echo.Info("")
	echo.Info("• Schedule")
	if completedErr != nil {
		echo.Infof("  ⚠ Unable to read games table: %v", completedErr)
	} else {
		echo.Successf("  ✓ %d completed games, %d remaining", completedCount, orZero(remainingCount, remainingErr))
	}
	printRefresh(refreshes, "games")

	ratingCount, ratingsErr := safeCount(ctx, database, `SELECT COUNT(*) FROM ratings`)
	echo.Info("")
	echo.Info("• Ratings")
	if ratingsErr != nil {
		echo.Infof("  ⚠ Unable to read ratings table: %v", ratingsErr)
	} else if ratingCount == 0 {
		echo.Infof("  • ratings table is empty. Run `forecast forecast rollforward`.")
	} else {
		echo.Successf("  ✓ %d team ratings recorded", ratingCount)
	}
	printRefresh(refreshes, "ratings")

	runCount, runsErr := safeCount(ctx, database, `SELECT COUNT(*) FROM simulation_runs`)
	echo.Info("")
	echo.Info("• Simulation runs")
	if runsErr != nil {
		echo.Infof("  ⚠ Unable to read simulation_runs table: %v", runsErr)
	} else if runCount == 0 {
		echo.Infof("  • no simulation runs recorded yet. Run `forecast forecast simulate`.")
	} else {
		echo.Successf("  ✓ %d simulation run(s) recorded", runCount)
	}

	echo.Info("")
	echo.Success("✓ Status check completed")
	return nil
}

func safeCount(ctx context.Context, database *db.DB, query string) (int64, error) {
	var count int64
	if err := database.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func printRefresh(refreshes map[string]db.DatasetRefresh, dataset string) {
	if entry, ok := refreshes[dataset]; ok {
		entryCopy := entry
		echo.Infof("    Last refresh: %s", formatRefresh(&entryCopy))
	} else {
		echo.Infof("    Last refresh: never recorded")
	}
}

func orZero(n int64, err error) int64 {
	if err != nil {
		return 0
	}
	return n
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gridlock.dev/forecast/internal/aggregate"
	"gridlock.dev/forecast/internal/cache"
	"gridlock.dev/forecast/internal/config"
	"gridlock.dev/forecast/internal/core"
	"gridlock.dev/forecast/internal/db"
	"gridlock.dev/forecast/internal/echo"
	"gridlock.dev/forecast/internal/evaluate"
	"gridlock.dev/forecast/internal/repository"
	"gridlock.dev/forecast/internal/simulate"
	"gridlock.dev/forecast/internal/tiebreak"
)

// ForecastCmd creates the forecast command group: the four stages of the
// pipeline described in spec.md §4 — rollforward, simulate, evaluate, and
// calibrate.
func ForecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast engine operations",
		Long:  "Run the ELO rollforward, Monte Carlo season simulation, calibration fit, and evaluation stages.",
	}

	cmd.AddCommand(ForecastRollforwardCmd())
	cmd.AddCommand(ForecastSimulateCmd())
	cmd.AddCommand(ForecastEvaluateCmd())
	cmd.AddCommand(ForecastCalibrateCmd())
	return cmd
}

// ForecastRollforwardCmd creates the rollforward command
func ForecastRollforwardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollforward",
		Short: "Replay completed games through the ELO rollforward engine",
		Long:  "Load the current rating snapshot (or run preseason regression if none exists), replay every completed game in order, and persist the resulting ratings and rollforward log.",
		RunE:  runRollforward,
	}
}

// ForecastSimulateCmd creates the simulate command
func ForecastSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the Monte Carlo season simulation",
		Long:  "Simulate the remaining schedule under the ELO model, seed the playoffs for every scenario, and persist the aggregated per-team probabilities.",
		RunE:  runSimulate,
	}
	cmd.Flags().Int("scenarios", 0, "Number of scenarios to run (defaults to the configured forecast.scenarios)")
	return cmd
}

// ForecastEvaluateCmd creates the evaluate command
func ForecastEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Score historical rollforward predictions against outcomes",
		Long:  "Recompute the raw ELO win probability for every completed game and score it against the observed result: Brier score, log loss, accuracy, and calibration bins.",
		RunE:  runEvaluate,
	}
}

// ForecastCalibrateCmd creates the calibrate command
func ForecastCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate [version]",
		Short: "Fit an isotonic calibration map from historical predictions",
		Long:  "Fit a non-decreasing calibration map from raw ELO win probabilities to observed outcomes over every completed game, and persist it under the given version.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCalibrate,
	}
	return cmd
}

// loadEngineContext connects to the database and loads config and roster
// (through a TeamRepository with a nil cache client). Each subcommand
// builds its other repositories itself. No cache is used: these are
// offline batch jobs, not request-serving paths.
func loadEngineContext(cmd *cobra.Command) (*db.DB, *config.Config, *core.Roster, error) {
	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.Connect(cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error: %w", err)
	}

	var cacheClient *cache.Client
	teamRepo := repository.NewTeamRepository(database.DB, cacheClient)

	roster, err := teamRepo.Roster(cmd.Context())
	if err != nil {
		database.Close()
		return nil, nil, nil, fmt.Errorf("failed to load roster: %w", err)
	}
	if roster.Len() == 0 {
		database.Close()
		return nil, nil, nil, fmt.Errorf("error: teams table is empty. Run `forecast db seed` first")
	}

	return database, cfg, roster, nil
}

func runRollforward(cmd *cobra.Command, args []string) error {
	echo.Header("ELO Rollforward")
	ctx := cmd.Context()

	database, cfg, roster, err := loadEngineContext(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	echo.Success(fmt.Sprintf("✓ Loaded %d teams", roster.Len()))

	gameRepo := repository.NewGameRepository(database.DB, nil)
	ratingRepo := repository.NewRatingRepository(database.DB)

	completed, err := gameRepo.CompletedGames(ctx, roster)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	echo.Infof("Loaded %d completed games", len(completed))

	store := core.NewRatingStore(cfg.Forecast)
	snapshot, err := ratingRepo.LoadSnapshot(ctx, roster)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	if len(snapshot) > 0 {
		echo.Info("Found existing rating snapshot, using it as the rollforward's starting point")
		store.LoadInitialSnapshot(snapshot)
	} else {
		echo.Info("No rating snapshot found, running preseason regression from the configured mean")
		prior := make(map[core.TeamIndex]float64, roster.Len())
		for _, team := range roster.All() {
			prior[team.Index] = cfg.Forecast.RegressionMean
		}
		marketTotals, err := ratingRepo.LoadMarketWinTotals(ctx, roster)
		if err != nil {
			return fmt.Errorf("error: %w", err)
		}
		store.LoadInitialRegression(prior, marketTotals)
	}

	if err := core.ValidateOrder(completed, nil); err != nil {
		return fmt.Errorf("error: %w", err)
	}
	if err := core.ValidateReferences(completed, store.KnownMask()); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	engine := core.NewRollforwardEngine(cfg.Forecast)
	rows, terminal, err := engine.Run(store.Snapshot(), completed, store.KnownMask())
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	echo.Successf("✓ Processed %d games", len(rows))

	if err := gameRepo.SaveRollforwardLog(ctx, rows); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	store.Replace(terminal)
	if err := ratingRepo.SaveSnapshot(ctx, roster, store.Snapshot()); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Success("✓ Rollforward complete, ratings snapshot saved")
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	echo.Header("Monte Carlo Season Simulation")
	ctx := cmd.Context()

	database, cfg, roster, err := loadEngineContext(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	gameRepo := repository.NewGameRepository(database.DB, nil)
	ratingRepo := repository.NewRatingRepository(database.DB)
	runRepo := repository.NewRunRepository(database.DB)

	completed, err := gameRepo.CompletedGames(ctx, roster)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	schedule, err := gameRepo.RemainingSchedule(ctx, roster)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	echo.Infof("Loaded %d completed games, %d remaining", len(completed), len(schedule))

	if err := core.ValidateOrder(completed, schedule); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	snapshot, err := ratingRepo.LoadSnapshot(ctx, roster)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	if len(snapshot) == 0 {
		return fmt.Errorf("error: ratings table is empty. Run `forecast forecast rollforward` first")
	}

	store := core.NewRatingStore(cfg.Forecast)
	store.LoadInitialSnapshot(snapshot)
	if err := core.ValidateReferences(completed, store.KnownMask()); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	scenarios := cfg.Forecast.Scenarios
	if n, _ := cmd.Flags().GetInt("scenarios"); n > 0 {
		scenarios = n
	}
	echo.Infof("Running %d scenarios (detail_level=%s, workers=%d)", scenarios, cfg.Forecast.DetailLevel, cfg.Forecast.WorkerCount)

	engine := simulate.NewEngine(cfg.Forecast)
	results, completedScenarios, err := engine.Run(ctx, store.Snapshot(), completed, schedule, scenarios)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	echo.Successf("✓ Completed %d/%d scenarios", completedScenarios, scenarios)

	runID, err := runRepo.CreateRun(ctx, cfg.Forecast, completedScenarios)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	outcomes := make(map[core.TeamIndex][]aggregate.ScenarioOutcome, roster.Len())
	for _, result := range results {
		records := tiebreak.BuildRecords(roster, result.SeasonGames)
		seeding := tiebreak.Seed(roster, records)

		seedOf := make(map[core.TeamIndex]int, roster.Len())
		for i, t := range seeding.AFC {
			seedOf[t] = i + 1
		}
		for i, t := range seeding.NFC {
			seedOf[t] = i + 1
		}
		for idx, rec := range records {
			rec.Seed = seedOf[idx]
			records[idx] = rec
		}

		if err := runRepo.SaveScenario(ctx, roster, runID, result, records); err != nil {
			return fmt.Errorf("error: %w", err)
		}

		for _, team := range roster.All() {
			rec := records[team.Index]
			outcomes[team.Index] = append(outcomes[team.Index], aggregate.ScenarioOutcome{
				Seed: rec.Seed,
				Wins: rec.Wins,
			})
		}
	}

	stats := make(map[core.TeamIndex]aggregate.TeamStats, roster.Len())
	for _, team := range roster.All() {
		stats[team.Index] = aggregate.ForTeam(team.Index, outcomes[team.Index])
	}

	if err := runRepo.SaveAggregates(ctx, roster, runID, stats); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Successf("✓ Simulation run %s saved", runID)
	return nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	echo.Header("Forecast Evaluation")
	ctx := cmd.Context()

	database, cfg, roster, err := loadEngineContext(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	gameRepo := repository.NewGameRepository(database.DB, nil)
	ratingRepo := repository.NewRatingRepository(database.DB)
	runRepo := repository.NewRunRepository(database.DB)

	completed, err := gameRepo.CompletedGames(ctx, roster)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	if len(completed) == 0 {
		return fmt.Errorf("error: no completed games recorded yet")
	}

	preds, err := predictionsFromHistory(ctx, cfg, roster, completed, ratingRepo)
	if err != nil {
		return err
	}

	metrics := evaluate.Evaluate(preds)
	echo.Successf("✓ Brier: %.4f  LogLoss: %.4f  Accuracy: %.4f  N: %d", metrics.Brier, metrics.LogLoss, metrics.Accuracy, metrics.N)

	runID, err := runRepo.SaveEvaluation(ctx, metrics)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Successf("✓ Evaluation run %s saved", runID)
	return nil
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	version := args[0]
	echo.Header("Calibration Fit")
	ctx := cmd.Context()

	database, cfg, roster, err := loadEngineContext(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	gameRepo := repository.NewGameRepository(database.DB, nil)
	ratingRepo := repository.NewRatingRepository(database.DB)
	calibrationRepo := repository.NewCalibrationMapRepository(database.DB)

	completed, err := gameRepo.CompletedGames(ctx, roster)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	if len(completed) == 0 {
		return fmt.Errorf("error: no completed games recorded yet")
	}

	preds, err := predictionsFromHistory(ctx, cfg, roster, completed, ratingRepo)
	if err != nil {
		return err
	}

	samples := make([]core.TrainingPair, len(preds))
	for i, p := range preds {
		samples[i] = core.TrainingPair{RawProbability: p.Predicted, Outcome: p.Actual}
	}

	m := core.FitIsotonic(version, samples)
	if err := calibrationRepo.Save(ctx, m); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Successf("✓ Calibration map %q fit from %d samples and saved", version, len(samples))
	return nil
}

// predictionsFromHistory replays completed games through a fresh rating
// store that always starts from preseason regression (never from a stored
// snapshot), and pairs each game's
// raw visiting-win probability with its observed result. Unlike
// rollforward, the in-memory rows never touch the rating snapshot or the
// rollforward_log table — evaluation and calibration are read-only
// over history.
func predictionsFromHistory(ctx context.Context, cfg *config.Config, roster *core.Roster, completed []core.CompletedGame, ratingRepo *repository.RatingRepository) ([]evaluate.Prediction, error) {
	store := core.NewRatingStore(cfg.Forecast)
	prior := make(map[core.TeamIndex]float64, roster.Len())
	for _, team := range roster.All() {
		prior[team.Index] = cfg.Forecast.RegressionMean
	}
	marketTotals, err := ratingRepo.LoadMarketWinTotals(ctx, roster)
	if err != nil {
		return nil, fmt.Errorf("error: %w", err)
	}
	store.LoadInitialRegression(prior, marketTotals)

	if err := core.ValidateReferences(completed, store.KnownMask()); err != nil {
		return nil, fmt.Errorf("error: %w", err)
	}

	engine := core.NewRollforwardEngine(cfg.Forecast)
	rows, _, err := engine.Run(store.Snapshot(), completed, store.KnownMask())
	if err != nil {
		return nil, fmt.Errorf("error: %w", err)
	}

	// Run emits one row per game in the same order as completed, so the
	// neutral-site flag (not itself part of RollforwardRow) can be zipped
	// back in by index.
	preds := make([]evaluate.Prediction, len(rows))
	for i, row := range rows {
		pv := engine.VisitingWinProbability(row.HomePreElo, row.VisitingPreElo, completed[i].NeutralSite, row.ContextAdj)
		preds[i] = evaluate.Prediction{Predicted: pv, Actual: float64(row.Result)}
	}
	return preds, nil
}

package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/armdyn/internal/logging"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	integrator string
	controller string
	kp         float64
	ki         float64
	kd         float64

	samples     int
	workers     int
	noise       float64
	includeBase bool
	rcond       float64
	checks      int

	logger *zap.SugaredLogger
)

// main registers the armdyn commands and exits with status 1 when a command
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "armdyn",
		Short: "rigid-body dynamics for multi-arm robots on floating bases",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger("armdyn", verbose)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".armdyn", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	robotFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&configFile, "config", "", "robot config file (yaml)")
		cmd.Flags().StringVar(&preset, "preset", "panda", "built-in robot when no config is given")
	}
	simFlags := func(cmd *cobra.Command) {
		robotFlags(cmd)
		cmd.Flags().Float64Var(&dt, "dt", 0, "timestep (overrides config)")
		cmd.Flags().Float64Var(&duration, "time", 0, "duration (overrides config)")
		cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides config)")
		cmd.Flags().StringVar(&integrator, "integrator", "", "euler, rk4 or semi_implicit (overrides config)")
		cmd.Flags().StringVar(&controller, "controller", "", "none, damped, gravcomp or hold (overrides config)")
		cmd.Flags().Float64Var(&kp, "kp", 0, "hold kp (overrides config)")
		cmd.Flags().Float64Var(&ki, "ki", 0, "hold ki (overrides config)")
		cmd.Flags().Float64Var(&kd, "kd", 0, "hold kd (overrides config)")
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	simFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation in the terminal dashboard",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	simFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time the dynamics and integrators",
		Args:  cobra.NoArgs,
		RunE:  benchRobot,
	}
	robotFlags(benchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [column...]",
		Short: "plot run results",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json",
		Short: "run a simulation and print it as JSON",
		Args:  cobra.NoArgs,
		RunE:  exportJSON,
	}
	simFlags(exportJSONCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in robots",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [preset] [path]",
		Short: "write a preset as an editable config file",
		Args:  cobra.ExactArgs(2),
		RunE:  writePreset,
	}

	regressCmd := &cobra.Command{
		Use:   "regress [name]",
		Short: "generate and store a dynamics regressor from random samples",
		Args:  cobra.ExactArgs(1),
		RunE:  generateRegressor,
	}
	robotFlags(regressCmd)
	regressCmd.Flags().IntVar(&samples, "samples", 200, "number of samples")
	regressCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = one per CPU)")
	regressCmd.Flags().Float64Var(&noise, "noise", 0, "measurement noise standard deviation")
	regressCmd.Flags().BoolVar(&includeBase, "base", true, "include base wrench rows")
	regressCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	identifyCmd := &cobra.Command{
		Use:   "identify [name]",
		Short: "estimate inertial parameters from a stored regressor",
		Args:  cobra.ExactArgs(1),
		RunE:  identifyParams,
	}
	robotFlags(identifyCmd)
	identifyCmd.Flags().Float64Var(&rcond, "rcond", 0, "relative singular value cutoff")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "check dynamics consistency on random configurations",
		Args:  cobra.NoArgs,
		RunE:  checkRobot,
	}
	robotFlags(checkCmd)
	checkCmd.Flags().IntVar(&checks, "n", 1000, "number of configurations")
	checkCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id] [column]",
		Short: "amplitude spectrum and dominant frequency of a run column",
		Args:  cobra.ExactArgs(2),
		RunE:  spectrumRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id] [joint]",
		Short: "phase portrait of one joint",
		Args:  cobra.ExactArgs(2),
		RunE:  phaseRun,
	}
	phaseCmd.Flags().IntVar(&phaseWidth, "width", 60, "plot width")
	phaseCmd.Flags().IntVar(&phaseHeight, "height", 20, "plot height")
	phaseCmd.Flags().StringVar(&svgOut, "svg", "", "write an svg to this path instead of printing")

	poseCmd := &cobra.Command{
		Use:   "pose",
		Short: "render the initial pose as svg",
		Args:  cobra.NoArgs,
		RunE:  renderPose,
	}
	robotFlags(poseCmd)
	poseCmd.Flags().StringVar(&poseOut, "out", "pose.svg", "output path")
	poseCmd.Flags().IntVar(&poseWidth, "width", 60, "canvas width in cells")
	poseCmd.Flags().IntVar(&poseHeight, "height", 30, "canvas height in cells")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search hold gains",
		Args:  cobra.NoArgs,
		RunE:  tuneGains,
	}
	simFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&kpRange, "kp-range", nil, "kp values to try")
	tuneCmd.Flags().Float64SliceVar(&kiRange, "ki-range", nil, "ki values to try")
	tuneCmd.Flags().Float64SliceVar(&kdRange, "kd-range", nil, "kd values to try")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "tracking_error", "metric to minimize")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run the steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a robot across values of one parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	simFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "payload", "kp, ki, kd, dt, duration, gravity or payload")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 1, "concurrent runs")

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, listCmd, plotCmd, exportCmd, exportJSONCmd,
		presetsCmd, initCmd, regressCmd, identifyCmd, checkCmd,
		spectrumCmd, phaseCmd, poseCmd, tuneCmd, batchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

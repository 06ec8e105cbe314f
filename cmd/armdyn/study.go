package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/armdyn/internal/analysis"
	"github.com/san-kum/armdyn/internal/automation"
	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/experiment"
	"github.com/san-kum/armdyn/internal/export"
	"github.com/san-kum/armdyn/internal/optim"
	"github.com/san-kum/armdyn/internal/sim"
	"github.com/san-kum/armdyn/internal/storage"
	"github.com/san-kum/armdyn/internal/viz"
)

var (
	kpRange      []float64
	kiRange      []float64
	kdRange      []float64
	tuneMetric   string
	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	sweepWorkers int
	phaseWidth   int
	phaseHeight  int
	svgOut       string
	poseOut      string
	poseWidth    int
	poseHeight   int
)

// findColumn returns the first column equal to name, else the first with
// name as prefix.
func findColumn(columns []string, name string) (int, bool) {
	for i, c := range columns {
		if c == name {
			return i, true
		}
	}
	for i, c := range columns {
		if strings.HasPrefix(c, name) {
			return i, true
		}
	}
	return -1, false
}

func loadRun(runID string) (*storage.RunMetadata, [][]float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, states, nil
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	meta, states, err := loadRun(args[0])
	if err != nil {
		return err
	}
	col, ok := findColumn(meta.Columns, args[1])
	if !ok {
		return fmt.Errorf("no column matches %s (columns: %v)", args[1], meta.Columns)
	}

	data := analysis.Column(states, col)
	ps := analysis.PowerSpectrum(data)
	if len(ps) < 2 {
		return fmt.Errorf("not enough samples for a spectrum")
	}
	f := analysis.DominantFrequency(data, meta.Dt)
	fmt.Printf("column: %s\n", meta.Columns[col])
	fmt.Printf("resolution: %.4g Hz\n", 1/(float64(len(data))*meta.Dt))
	fmt.Printf("dominant frequency: %.4g Hz\n\n", f)

	// the low end holds the mechanical modes
	show := ps[1:min(len(ps), 200)]
	fmt.Println(asciigraph.Plot(show,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("amplitude vs bin"),
	))
	return nil
}

func phaseRun(cmd *cobra.Command, args []string) error {
	meta, states, err := loadRun(args[0])
	if err != nil {
		return err
	}
	qi, ok := findColumn(meta.Columns, "q:"+args[1])
	if !ok {
		return fmt.Errorf("no joint matches %s", args[1])
	}
	vi, ok := findColumn(meta.Columns, "qd:"+strings.TrimPrefix(meta.Columns[qi], "q:"))
	if !ok {
		return fmt.Errorf("no velocity column for %s", meta.Columns[qi])
	}

	p := analysis.NewPhasePortrait(states, qi, vi)
	if svgOut != "" {
		return writeSVG(svgOut, export.PhaseToSVG(p, 10*phaseWidth, 20*phaseHeight, "#00ff88"))
	}
	fmt.Printf("%s against %s\n\n", meta.Columns[vi], meta.Columns[qi])
	fmt.Print(p.ASCII(phaseWidth, phaseHeight))
	return nil
}

func writeSVG(path, svg string) error {
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return errors.Wrap(err, "writing svg")
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// renderPose draws the robot at its configured initial state.
func renderPose(cmd *cobra.Command, args []string) error {
	cfg, tree, err := loadTree()
	if err != nil {
		return err
	}
	eng := dynamics.New(tree, dynamics.WithGravity(cfg.GravityVec()))
	x := sim.NewLayout(tree).Pack(cfg.InitState(tree))
	return writeSVG(poseOut, export.PoseToSVG(viz.NewSkeleton(eng), x, viz.NewCamera(), poseWidth, poseHeight, 4))
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadSimConfig(cmd)
	if err != nil {
		return err
	}
	names := []string{"kp", "ki", "kd"}
	ranges := [][]float64{kpRange, kiRange, kdRange}
	var pn []string
	var pr [][]float64
	for i, r := range ranges {
		if len(r) > 0 {
			pn = append(pn, names[i])
			pr = append(pr, r)
		}
	}
	if len(pn) == 0 {
		return fmt.Errorf("give at least one of --kp-range, --ki-range, --kd-range")
	}

	g := optim.NewGridSearch(pn, pr)
	g.SetLogger(logger)
	best, val, err := g.Search(cmd.Context(), optim.HoldBuilder(cfg, experiment.NewRegistry(), logger), tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(pn, "\t")), strings.ToUpper(tuneMetric))
	for _, tr := range g.Trials() {
		for _, n := range pn {
			fmt.Fprintf(w, "%g\t", tr.Params[n])
		}
		fmt.Fprintf(w, "%.6g\n", tr.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest %s = %.6g at", tuneMetric, val)
	for _, n := range pn {
		fmt.Printf(" %s=%g", n, best[n])
	}
	fmt.Println()
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), st, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTEPS\tFAULTS\tRUN ID")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", r.Step, r.Result.StepsTaken, r.Faults, id)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadSimConfig(cmd)
	if err != nil {
		return err
	}
	sweep := automation.ParameterSweep{
		Param:    sweepParam,
		ParamMin: sweepMin,
		ParamMax: sweepMax,
		NumSteps: sweepSteps,
		Workers:  sweepWorkers,
	}
	results, err := automation.RunSweep(cmd.Context(), cfg, sweep, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	var metricNames []string
	for name := range results[0].Metrics {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tFAULTS\n", strings.ToUpper(sweepParam), strings.ToUpper(strings.Join(metricNames, "\t")))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t", r.ParamValue)
		for _, name := range metricNames {
			fmt.Fprintf(w, "%.6g\t", r.Metrics[name])
		}
		fmt.Fprintf(w, "%d\n", r.Faults)
	}
	return w.Flush()
}

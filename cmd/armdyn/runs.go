package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROBOT\tTIME\tDURATION\tDT\tINTEG\tCTRL\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%d\n",
			run.ID,
			run.Robot,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Controller,
			run.Steps,
		)
	}

	return w.Flush()
}

// plotRun plots the named columns of a run, or the first joint positions
// when none are named. Columns match by prefix, so "q:arm0" plots every
// joint of arm0.
func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	var picked []int
	if len(args) > 1 {
		for i, col := range meta.Columns {
			for _, want := range args[1:] {
				if strings.HasPrefix(col, want) {
					picked = append(picked, i)
					break
				}
			}
		}
		if len(picked) == 0 {
			return fmt.Errorf("no column matches %v (columns: %v)", args[1:], meta.Columns)
		}
	} else {
		for i := 0; i < len(meta.Columns) && i < 6; i++ {
			picked = append(picked, i)
		}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("robot: %s\n", meta.Robot)
	fmt.Printf("samples: %d\n\n", len(states))

	for _, col := range picked {
		data := make([]float64, len(states))
		for i := range states {
			data[i] = states[i][col]
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(meta.Columns[col]+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCHAINS\tDOF\tBASE\tCONTROLLER")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		tree, err := cfg.Tree()
		if err != nil {
			return err
		}
		base := "floating"
		if tree.FixedBase() {
			base = "fixed"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", name, tree.NumChains(), tree.NumDOF(), base, cfg.Sim.Controller)
	}
	return w.Flush()
}

func writePreset(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if err := config.Save(args[1], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

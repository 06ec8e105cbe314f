package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/identify"
	"github.com/san-kum/armdyn/internal/regressor"
	"github.com/san-kum/armdyn/internal/storage"
)

func generateRegressor(cmd *cobra.Command, args []string) error {
	cfg, tree, err := loadTree()
	if err != nil {
		return err
	}
	eng := dynamics.New(tree, dynamics.WithGravity(cfg.GravityVec()), dynamics.WithLogger(logger))
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	b, err := regressor.Generate(cmd.Context(), eng, samples, workers, includeBase, regressor.RandomSampler(seed, noise))
	if err != nil {
		return err
	}
	k, y := b.Export()
	if k == nil {
		return fmt.Errorf("no samples generated")
	}

	st := storage.New(dataDir)
	if err := st.SaveRegressor(args[0], k, y); err != nil {
		return err
	}
	rows, cols := k.Dims()
	logger.Infow("regressor stored", "name", args[0], "samples", b.Samples(), "rows", rows, "cols", cols, "elapsed", time.Since(start))
	fmt.Printf("stored %s: %d samples, K is %dx%d\n", args[0], b.Samples(), rows, cols)
	return nil
}

func identifyParams(cmd *cobra.Command, args []string) error {
	_, tree, err := loadTree()
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	k, y, err := st.LoadRegressor(args[0])
	if err != nil {
		return err
	}
	if _, cols := k.Dims(); cols != 10*tree.NumBodies() {
		return errors.Errorf("regressor %s has %d columns, %s needs %d", args[0], cols, tree.Name(), 10*tree.NumBodies())
	}

	est, err := identify.LeastSquares(k, y, rcond)
	if err != nil {
		return err
	}
	nominal := regressor.Params(tree)

	fmt.Printf("rank: %d of %d parameters\n", est.Rank, nominal.Len())
	fmt.Printf("residual rms: %.3g\n", est.Residual)
	fmt.Printf("nominal model rms: %.3g\n", identify.RMS(k, nominal, y))
	if est.Rank > 0 {
		fmt.Printf("condition: %.3g\n\n", est.Singular[0]/est.Singular[est.Rank-1])
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tNOMINAL MASS\tESTIMATE\tFIRST MOMENT ESTIMATE")
	for i := 0; i < tree.NumBodies(); i++ {
		p := identify.BodyParams(est.Params, i)
		h := p.FirstMoment()
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t(%.4f, %.4f, %.4f)\n",
			tree.Body(i).Name, tree.Body(i).Params.Mass(), p.Mass(), h[0], h[1], h[2])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if est.Rank < nominal.Len() {
		fmt.Println("\nnot every parameter is identifiable; only combinations seen by K are meaningful")
	}

	// physically invalid estimates are reported but not fatal
	if err := identify.Apply(tree, est); err != nil {
		logger.Warnw("estimate not applied to every body", "error", err)
	}
	return nil
}

// checkRobot runs forward dynamics on random states, feeds the result back
// through inverse dynamics and checks the mass matrix.
func checkRobot(cmd *cobra.Command, args []string) error {
	cfg, tree, err := loadTree()
	if err != nil {
		return err
	}
	eng := dynamics.New(tree, dynamics.WithGravity(cfg.GravityVec()), dynamics.WithLogger(logger))
	r := rand.New(rand.NewSource(seed))
	n := tree.NumDOF()
	tau := make([]float64, n)
	back := make([]float64, n)
	qdd := make([]float64, n)

	var torqueErr, baseErr float64
	notPD := 0
	for i := 0; i < checks; i++ {
		st := regressor.RandomState(tree, r)
		for j := range tau {
			tau[j] = 10 * r.NormFloat64()
		}
		base, err := eng.ForwardDynamics(st, nil, tau, qdd)
		if err != nil {
			return errors.Wrapf(err, "configuration %d", i)
		}
		st.SetAccelerations(qdd)
		st.Base.Acc = base.Linear
		st.Base.AngAcc = base.Angular
		w, err := eng.InverseDynamics(st, nil, back)
		if err != nil {
			return errors.Wrapf(err, "configuration %d", i)
		}
		for j := range tau {
			torqueErr = math.Max(torqueErr, math.Abs(tau[j]-back[j]))
		}
		if !tree.FixedBase() {
			baseErr = math.Max(baseErr, math.Max(w.Force.Len(), w.Torque.Len()))
		}

		h, err := eng.MassMatrix(st)
		if err != nil {
			return errors.Wrapf(err, "configuration %d", i)
		}
		var chol mat.Cholesky
		if !chol.Factorize(h) {
			notPD++
		}
	}

	fmt.Printf("%s: %d configurations\n", tree.Name(), checks)
	fmt.Printf("  max |tau - ID(FD(tau))|: %.3g\n", torqueErr)
	if !tree.FixedBase() {
		fmt.Printf("  max free-base residual wrench: %.3g\n", baseErr)
	}
	fmt.Printf("  mass matrices not positive definite: %d\n", notPD)
	if torqueErr > 1e-6 || baseErr > 1e-6 || notPD > 0 {
		return fmt.Errorf("dynamics check failed")
	}
	fmt.Println("ok")
	return nil
}

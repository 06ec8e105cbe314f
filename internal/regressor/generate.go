package regressor

import (
	"context"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// Sampler produces sample i using a worker-private engine.
type Sampler func(i int, eng *dynamics.Engine) (Sample, error)

// Generate fills n samples with up to workers goroutines, each owning a
// clone of eng. Rows appear in sample order regardless of scheduling.
func Generate(ctx context.Context, eng *dynamics.Engine, n, workers int, includeBase bool, sampler Sampler) (*Builder, error) {
	b := NewBuilder(eng, includeBase)
	if n <= 0 {
		return b, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	rows, cols := b.RowsPerSample(), b.Cols()
	b.k = make([]float64, n*rows*cols)
	b.y = make([]float64, n*rows)
	chunk := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start, end := w*chunk, (w+1)*chunk
		if end > n {
			end = n
		}
		if start >= end {
			break
		}
		local := eng.Clone()
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				s, err := sampler(i, local)
				if err != nil {
					return errors.Wrapf(err, "sample %d", i)
				}
				off := i * rows
				if err := fill(local, b.includeBase, s, b.k[off*cols:(off+rows)*cols], b.y[off:off+rows]); err != nil {
					return errors.Wrapf(err, "sample %d", i)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	b.samples = n
	return b, nil
}

// RandomSampler draws joint positions uniformly inside the limits, random
// joint and base motion, and measures torques and base force by inverse
// dynamics with the engine's current parameters. noise adds zero-mean
// Gaussian noise of that standard deviation to every measurement. Sample i
// depends only on seed and i.
func RandomSampler(seed int64, noise float64) Sampler {
	return func(i int, eng *dynamics.Engine) (Sample, error) {
		r := rand.New(rand.NewSource(seed + int64(i)))
		tree := eng.Tree()
		st := RandomState(tree, r)

		tau := make([]float64, tree.NumDOF())
		if _, err := eng.InverseDynamics(st, nil, tau); err != nil {
			return Sample{}, err
		}
		f0 := eng.BaseForce()
		if noise > 0 {
			for j := range tau {
				tau[j] += noise * r.NormFloat64()
			}
			for k := range f0 {
				f0[k] += noise * r.NormFloat64()
			}
		}
		return Sample{State: st, Tau: tau, BaseForce: f0}, nil
	}
}

// RandomState draws an in-limit configuration with random motion.
func RandomState(tree *model.Tree, r *rand.Rand) *model.State {
	st := model.NewState(tree)
	for j := range st.Joints {
		b := tree.Body(tree.DOFBody(j))
		lo, hi := -math.Pi, math.Pi
		if b.HasLimits() {
			lo, hi = b.Limits[0], b.Limits[1]
		}
		js := &st.Joints[j]
		js.Pos = lo + r.Float64()*(hi-lo)
		js.Vel = r.NormFloat64()
		js.Acc = 2 * r.NormFloat64()
	}
	if !tree.FixedBase() {
		vec := func(s float64) mgl64.Vec3 {
			return mgl64.Vec3{s * r.NormFloat64(), s * r.NormFloat64(), s * r.NormFloat64()}
		}
		st.Base.Orient = spatial.QuatFromAxisAngle(vec(1), 2*math.Pi*r.Float64())
		st.Base.Pos = vec(1)
		st.Base.Vel = vec(0.5)
		st.Base.Acc = vec(1)
		st.Base.AngVel = vec(0.5)
		st.Base.AngAcc = vec(1)
	}
	return st
}

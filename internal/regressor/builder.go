package regressor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// Sample is one measurement: the full motion state, the wrenches acting on
// the bodies, the measured joint torques and, for floating bases, the
// measured base force in base coordinates.
type Sample struct {
	State     *model.State
	Wrenches  model.Wrenches
	Tau       []float64
	BaseForce spatial.Vec6
}

// Builder accumulates regressor rows. It is not safe for concurrent use.
type Builder struct {
	eng         *dynamics.Engine
	tree        *model.Tree
	includeBase bool
	k           []float64
	y           []float64
	samples     int
}

// NewBuilder creates a builder evaluating motion with eng. includeBase adds
// the six base rows per sample; it is ignored for fixed-base trees.
func NewBuilder(eng *dynamics.Engine, includeBase bool) *Builder {
	return &Builder{
		eng:         eng,
		tree:        eng.Tree(),
		includeBase: includeBase && !eng.Tree().FixedBase(),
	}
}

// RowsPerSample is the number of rows each sample contributes.
func (b *Builder) RowsPerSample() int {
	n := b.tree.NumDOF()
	if b.includeBase {
		n += 6
	}
	return n
}

// Cols is the number of regressor columns.
func (b *Builder) Cols() int {
	return spatial.NumParams * b.tree.NumBodies()
}

func (b *Builder) Samples() int { return b.samples }

// AddSample appends the rows for one measurement.
func (b *Builder) AddSample(s Sample) error {
	rows, cols := b.RowsPerSample(), b.Cols()
	b.k = append(b.k, make([]float64, rows*cols)...)
	b.y = append(b.y, make([]float64, rows)...)
	off := b.samples * rows
	if err := fill(b.eng, b.includeBase, s, b.k[off*cols:], b.y[off:off+rows]); err != nil {
		b.k = b.k[:off*cols]
		b.y = b.y[:off]
		return err
	}
	b.samples++
	return nil
}

// Reset drops every sample.
func (b *Builder) Reset() {
	b.k = b.k[:0]
	b.y = b.y[:0]
	b.samples = 0
}

// Export copies the stacked system. Both results are nil when no sample has
// been added.
func (b *Builder) Export() (*mat.Dense, *mat.VecDense) {
	if b.samples == 0 {
		return nil, nil
	}
	rows := b.samples * b.RowsPerSample()
	k := make([]float64, len(b.k))
	copy(k, b.k)
	y := make([]float64, len(b.y))
	copy(y, b.y)
	return mat.NewDense(rows, b.Cols(), k), mat.NewVecDense(rows, y)
}

// Params stacks the current tree parameters in column order, so that
// K·Params() reproduces Y for noise-free samples.
func Params(tree *model.Tree) *mat.VecDense {
	out := mat.NewVecDense(spatial.NumParams*tree.NumBodies(), nil)
	for i, p := range tree.Params() {
		for k, v := range p {
			out.SetVec(spatial.NumParams*i+k, v)
		}
	}
	return out
}

// fill writes the rows of one sample into k (row-major, Cols wide) and y.
// Both must be zeroed.
func fill(eng *dynamics.Engine, includeBase bool, s Sample, k, y []float64) error {
	tree := eng.Tree()
	nd := tree.NumDOF()
	cols := spatial.NumParams * tree.NumBodies()
	if len(s.Tau) != nd {
		return errors.Wrapf(dynamics.ErrDimensionMismatch, "sample has %d torques, tree has %d", len(s.Tau), nd)
	}
	if err := eng.Propagate(s.State); err != nil {
		return err
	}

	for j := 0; j < nd; j++ {
		y[j] = s.Tau[j] + s.State.Joints[j].Uex
	}
	if includeBase {
		for r := 0; r < 6; r++ {
			y[nd+r] = s.BaseForce[r]
		}
	}

	for i := 0; i < tree.NumBodies(); i++ {
		body := tree.Body(i)
		if body.Inactive {
			continue
		}
		block := spatial.BodyRegressor(eng.Acceleration(i), eng.Velocity(i))
		col := spatial.NumParams * i
		walkBlock(eng, s.State, i, &block, func(at int, blk *spatial.Regressor) {
			bd := tree.Body(at)
			if bd.DOF >= 0 {
				row := k[bd.DOF*cols+col:]
				for c := 0; c < spatial.NumParams; c++ {
					row[c] += bd.Subspace.Dot(blk.Col(c))
				}
			}
			if at == 0 && includeBase {
				for r := 0; r < 6; r++ {
					row := k[(nd+r)*cols+col:]
					for c := 0; c < spatial.NumParams; c++ {
						row[c] += blk[r][c]
					}
				}
			}
		})
	}

	// External wrenches enter the torques with the opposite sign of the
	// inertial forces, so move them to the measured side.
	for i, w := range s.Wrenches {
		if i < 0 || i >= tree.NumBodies() || tree.Body(i).Inactive {
			continue
		}
		walkForce(eng, s.State, i, w, func(at int, f spatial.Vec6) {
			bd := tree.Body(at)
			if bd.DOF >= 0 {
				y[bd.DOF] += bd.Subspace.Dot(f)
			}
			if at == 0 && includeBase {
				for r := 0; r < 6; r++ {
					y[nd+r] += f[r]
				}
			}
		})
	}
	return nil
}

// walkBlock visits body i and every ancestor with the regressor block of i
// expressed in that ancestor's frame.
func walkBlock(eng *dynamics.Engine, st *model.State, i int, blk *spatial.Regressor, visit func(at int, blk *spatial.Regressor)) {
	tree := eng.Tree()
	for at := i; ; {
		visit(at, blk)
		if at == 0 {
			return
		}
		*blk = blk.TransposeForce(eng.Transform(st, at))
		at = tree.Parent(at)
	}
}

// walkForce is walkBlock for a single force vector.
func walkForce(eng *dynamics.Engine, st *model.State, i int, f spatial.Vec6, visit func(at int, f spatial.Vec6)) {
	tree := eng.Tree()
	for at := i; ; {
		visit(at, f)
		if at == 0 {
			return
		}
		f = eng.Transform(st, at).ApplyTransposeForce(f)
		at = tree.Parent(at)
	}
}

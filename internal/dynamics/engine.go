package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// DefaultGravity points down the world z axis.
var DefaultGravity = mgl64.Vec3{0, 0, -9.81}

// Option configures an Engine.
type Option func(*Engine)

// WithGravity overrides DefaultGravity.
func WithGravity(g mgl64.Vec3) Option {
	return func(e *Engine) { e.gravity = g }
}

// WithLogger attaches a logger. The per-tick path never logs.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine evaluates the dynamics of one tree with a private workspace.
type Engine struct {
	tree    *model.Tree
	gravity mgl64.Vec3
	logger  *zap.SugaredLogger
	trig    *TrigCache

	// geometry, refreshed by prepare
	orient   quat.Number
	basePos  mgl64.Vec3
	baseRot  mgl64.Mat3
	xup      []spatial.Transform
	world    []spatial.Transform
	worldOK  bool
	prepared bool

	v, a, f []spatial.Vec6
	ic      []spatial.Mat6

	// mass matrix over all joints (+6 base rows)
	h      *mat.SymDense
	bias   []float64
	solver map[int]*reducedSystem
	active []int
}

// reducedSystem is a preallocated H·x = rhs. solve factorizes h in place.
type reducedSystem struct {
	h   *mat.SymDense
	rhs *mat.VecDense
	x   *mat.VecDense
}

// New sizes a workspace for tree.
func New(tree *model.Tree, opts ...Option) *Engine {
	nb, nd := tree.NumBodies(), tree.NumDOF()
	size := nd
	if !tree.FixedBase() {
		size += 6
	}
	e := &Engine{
		tree:    tree,
		gravity: DefaultGravity,
		logger:  zap.NewNop().Sugar(),
		trig:    NewTrigCache(nd),
		baseRot: mgl64.Ident3(),
		xup:     make([]spatial.Transform, nb),
		world:   make([]spatial.Transform, nb),
		v:       make([]spatial.Vec6, nb),
		a:       make([]spatial.Vec6, nb),
		f:       make([]spatial.Vec6, nb),
		ic:      make([]spatial.Mat6, nb),
		bias:    make([]float64, size),
		solver:  make(map[int]*reducedSystem),
		active:  make([]int, 0, size),
	}
	if size > 0 {
		e.h = mat.NewSymDense(size, nil)
	}
	for _, opt := range opts {
		opt(e)
	}
	for i := 0; i < nb; i++ {
		b := tree.Body(i)
		if b.Joint == model.JointFixed && i > 0 {
			e.xup[i] = spatial.FromPose(b.Rotation, b.Offset)
		}
	}
	e.xup[0] = spatial.Identity()

	e.logger.Debugw("dynamics engine ready",
		"tree", tree.Name(),
		"bodies", nb,
		"dof", nd,
		"chains", tree.NumChains(),
		"fixed_base", tree.FixedBase(),
		"mass", tree.TotalMass(),
	)
	return e
}

// Clone returns an engine on the same tree with a fresh workspace.
func (e *Engine) Clone() *Engine {
	return New(e.tree, WithGravity(e.gravity), WithLogger(e.logger))
}

func (e *Engine) Tree() *model.Tree        { return e.tree }
func (e *Engine) Gravity() mgl64.Vec3      { return e.gravity }
func (e *Engine) Trig() *TrigCache         { return e.trig }
func (e *Engine) BaseRotation() mgl64.Mat3 { return e.baseRot }

// Velocity returns the spatial velocity of body b from the last propagation,
// in body coordinates.
func (e *Engine) Velocity(b int) spatial.Vec6 { return e.v[b] }

// Acceleration returns the spatial acceleration of body b from the last
// propagation. It includes the fictitious gravity acceleration.
func (e *Engine) Acceleration(b int) spatial.Vec6 { return e.a[b] }

// Force returns the net spatial force transmitted into body b across its
// joint after the last inverse dynamics pass.
func (e *Engine) Force(b int) spatial.Vec6 { return e.f[b] }

// Transform returns the parent-to-body transform of b for the joint angles
// and base orientation in st.
func (e *Engine) Transform(st *model.State, b int) spatial.Transform {
	e.prepare(st)
	return e.xup[b]
}

// prepare refreshes the trig cache and every joint transform. Nothing is
// recomputed when neither the joint angles nor the base pose changed.
func (e *Engine) prepare(st *model.State) {
	nd := e.tree.NumDOF()
	jointsChanged := e.trig.Update(nd, func(j int) float64 { return st.Joints[j].Pos })
	baseChanged := !e.prepared || st.Base.Orient != e.orient || st.Base.Pos != e.basePos
	if !jointsChanged && !baseChanged {
		return
	}
	if baseChanged && !e.tree.FixedBase() {
		e.orient = st.Base.Orient
		e.basePos = st.Base.Pos
		e.baseRot = spatial.QuatToMat(st.Base.Orient)
		e.xup[0] = spatial.FromPose(e.baseRot, e.basePos)
	}
	if jointsChanged {
		for j := 0; j < nd; j++ {
			b := e.tree.Body(e.tree.DOFBody(j))
			s, c := e.trig.SinCos(j)
			e.xup[b.Index] = spatial.FromPose(b.Rotation.Mul3(spatial.RotZ(s, c)), b.Offset)
		}
	}
	e.prepared = true
	e.worldOK = false
}

// checkState validates dimensions and finiteness of st.
func (e *Engine) checkState(op string, st *model.State) error {
	if len(st.Joints) != e.tree.NumDOF() {
		return &DynamicsError{Op: op, Wrapped: errors.Wrapf(ErrDimensionMismatch,
			"state has %d joints, tree has %d", len(st.Joints), e.tree.NumDOF())}
	}
	for j := range st.Joints {
		js := &st.Joints[j]
		if !finite(js.Pos, js.Vel, js.Acc, js.U, js.Uff, js.Uex) {
			return &DynamicsError{Op: op, Wrapped: errors.Wrapf(ErrInvalidState, "joint %d", j)}
		}
	}
	if e.tree.FixedBase() {
		return nil
	}
	bs := &st.Base
	q := bs.Orient
	if !finite(q.Real, q.Imag, q.Jmag, q.Kmag) || quat.Abs(q) == 0 {
		return &DynamicsError{Op: op, Wrapped: errors.Wrap(ErrInvalidState, "base orientation")}
	}
	for _, v := range []*mgl64.Vec3{&bs.Pos, &bs.Vel, &bs.Acc, &bs.AngVel, &bs.AngAcc} {
		if !finite(v[0], v[1], v[2]) {
			return &DynamicsError{Op: op, Wrapped: errors.Wrap(ErrInvalidState, "base motion")}
		}
	}
	return nil
}

func checkLen(op, name string, got, want int) error {
	if got == want {
		return nil
	}
	return &DynamicsError{Op: op, Wrapped: errors.Wrapf(ErrDimensionMismatch,
		"%s has %d entries, want %d", name, got, want)}
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

package dynamics

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// near compares componentwise with an absolute tolerance; mgl64's
// ApproxEqualThreshold is relative and rejects round-off against exact zeros.
func near(a, b []float64, eps float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func presetTree(name string) *model.Tree {
	tree, err := config.GetPreset(name).Tree()
	if err != nil {
		panic(err)
	}
	return tree
}

func randVec3(r *rand.Rand, scale float64) mgl64.Vec3 {
	return mgl64.Vec3{r.NormFloat64() * scale, r.NormFloat64() * scale, r.NormFloat64() * scale}
}

// randomConfiguration draws joint angles inside the limits and a random base
// orientation; all motion is zero.
func randomConfiguration(tree *model.Tree, r *rand.Rand) *model.State {
	st := model.NewState(tree)
	for j := range st.Joints {
		b := tree.Body(tree.DOFBody(j))
		lo, hi := -math.Pi, math.Pi
		if b.HasLimits() {
			lo, hi = b.Limits[0], b.Limits[1]
		}
		st.Joints[j].Pos = lo + r.Float64()*(hi-lo)
	}
	if !tree.FixedBase() {
		st.Base.Orient = spatial.QuatFromAxisAngle(randVec3(r, 1), r.Float64()*2*math.Pi)
		st.Base.Pos = randVec3(r, 1)
	}
	return st
}

// randomState adds random joint and base motion to randomConfiguration.
func randomState(tree *model.Tree, r *rand.Rand) *model.State {
	st := randomConfiguration(tree, r)
	for j := range st.Joints {
		st.Joints[j].Vel = r.NormFloat64()
		st.Joints[j].Acc = r.NormFloat64()
		st.Joints[j].Uex = 0.1 * r.NormFloat64()
	}
	if !tree.FixedBase() {
		st.Base.Vel = randVec3(r, 0.5)
		st.Base.Acc = randVec3(r, 0.5)
		st.Base.AngVel = randVec3(r, 0.5)
		st.Base.AngAcc = randVec3(r, 0.5)
	}
	return st
}

// tip is the outermost active body of chain c.
func tip(tree *model.Tree, c int) int {
	ch := tree.Chain(c)
	for k := len(ch) - 1; k > 0; k-- {
		if tree.Body(ch[k]).IsActive() {
			return ch[k]
		}
	}
	return ch[0]
}

func randomWrenches(tree *model.Tree, r *rand.Rand) model.Wrenches {
	w := model.Wrenches{}
	for c := 0; c < tree.NumChains(); c++ {
		w[tip(tree, c)] = spatial.NewVec6(randVec3(r, 0.5), randVec3(r, 2))
	}
	return w
}

func randomTorques(n int, r *rand.Rand) []float64 {
	tau := make([]float64, n)
	for j := range tau {
		tau[j] = 5 * r.NormFloat64()
	}
	return tau
}

// applyAccel writes a forward dynamics result back into st.
func applyAccel(st *model.State, qdd []float64, base BaseAccel) {
	st.SetAccelerations(qdd)
	st.Base.Acc = base.Linear
	st.Base.AngAcc = base.Angular
}

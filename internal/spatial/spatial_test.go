package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

const tol = 1e-9

func randVec3(r *rand.Rand) mgl64.Vec3 {
	return mgl64.Vec3{r.Float64()*2 - 1, r.Float64()*2 - 1, r.Float64()*2 - 1}
}

func randVec6(r *rand.Rand) Vec6 {
	return NewVec6(randVec3(r), randVec3(r))
}

func randTransform(r *rand.Rand) Transform {
	rot := EulerXYZ(r.Float64()*6, r.Float64()*6, r.Float64()*6)
	return FromPose(rot, randVec3(r))
}

func randParams(r *rand.Rand) Params {
	return ParamsFromCOM(0.5+r.Float64()*3, randVec3(r).Mul(0.2),
		DiagInertia(0.01+r.Float64()*0.1, 0.01+r.Float64()*0.1, 0.01+r.Float64()*0.1))
}

func assertVec6(t *testing.T, want, got Vec6) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "component %d", i)
	}
}

func assertVec3(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "component %d", i)
	}
}

func TestTransformMatchesMatrix(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		x := randTransform(r)
		m := randVec6(r)
		xm := x.Matrix()
		assertVec6(t, xm.MulVec(m), x.ApplyMotion(m))

		f := randVec6(r)
		xt := xm.Transpose()
		assertVec6(t, xt.MulVec(f), x.ApplyTransposeForce(f))
	}
}

func TestTransformInverse(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	x := randTransform(r)
	m := randVec6(r)
	assertVec6(t, m, x.ApplyInverseMotion(x.ApplyMotion(m)))
	assertVec6(t, m, x.Inverse().ApplyMotion(x.ApplyMotion(m)))
}

func TestTransformCompose(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	ab, bc := randTransform(r), randTransform(r)
	m := randVec6(r)
	assertVec6(t, bc.ApplyMotion(ab.ApplyMotion(m)), ab.Compose(bc).ApplyMotion(m))
}

func TestPowerInvariance(t *testing.T) {
	// v·f is the same in every frame.
	r := rand.New(rand.NewSource(4))
	x := randTransform(r)
	vParent := randVec6(r)
	fChild := randVec6(r)
	vChild := x.ApplyMotion(vParent)
	fParent := x.ApplyTransposeForce(fChild)
	assert.InDelta(t, vChild.Dot(fChild), vParent.Dot(fParent), tol)
}

func TestCrossProductsAreDual(t *testing.T) {
	// (v ×m m)·f = −m·(v ×* f)
	r := rand.New(rand.NewSource(5))
	v, m, f := randVec6(r), randVec6(r), randVec6(r)
	assert.InDelta(t, CrossMotion(v, m).Dot(f), -m.Dot(CrossForce(v, f)), tol)
	assertVec6(t, Vec6{}, CrossMotion(v, v))
}

func TestParamsFromCOM(t *testing.T) {
	p := ParamsFromCOM(2, mgl64.Vec3{1, 0, 0}, DiagInertia(0.1, 0.2, 0.3))
	assert.Equal(t, 2.0, p.Mass())
	assert.InDelta(t, 2.0, p[1], tol)
	assert.InDelta(t, 0.1, p[4], tol)
	assert.InDelta(t, 0.2+2, p[7], tol)
	assert.InDelta(t, 0.3+2, p[9], tol)
	assertVec3(t, mgl64.Vec3{1, 0, 0}, p.COM())
	assert.Equal(t, mgl64.Vec3{}, Params{}.COM())
}

func TestInertiaMatrixAgreesWithMulVec(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	p := randParams(r)
	m := p.Matrix()
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			assert.InDelta(t, m[i][j], m[j][i], tol, "spatial inertia must be symmetric")
		}
	}
	x := randVec6(r)
	assertVec6(t, m.MulVec(x), p.MulVec(x))
}

func TestRegressorLinearity(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	p := randParams(r)
	a, v := randVec6(r), randVec6(r)

	yi := InertialRegressor(a)
	assertVec6(t, p.MulVec(a), yi.MulParams(p))

	y := BodyRegressor(a, v)
	want := p.MulVec(a).Add(CrossForce(v, p.MulVec(v)))
	assertVec6(t, want, y.MulParams(p))

	x := randTransform(r)
	moved := y.TransposeForce(x)
	assertVec6(t, x.ApplyTransposeForce(want), moved.MulParams(p))
}

func TestInertiaToParent(t *testing.T) {
	r := rand.New(rand.NewSource(8))
	p := randParams(r)
	x := randTransform(r)
	in := p.Matrix()
	ip := x.InertiaToParent(&in)

	// Kinetic energy must not depend on the frame.
	vParent := randVec6(r)
	vChild := x.ApplyMotion(vParent)
	assert.InDelta(t, vChild.Dot(p.MulVec(vChild)), vParent.Dot(ip.MulVec(vParent)), 1e-8)
}

func TestQuatToMat(t *testing.T) {
	q := QuatFromAxisAngle(mgl64.Vec3{0, 0, 1}, math.Pi/2)
	m := QuatToMat(q)
	got := m.Mul3x1(mgl64.Vec3{1, 0, 0})
	assertVec3(t, mgl64.Vec3{0, 1, 0}, got)

	ez := EulerXYZ(0, 0, math.Pi/2)
	for i := range m {
		assert.InDelta(t, m[i], ez[i], tol, "entry %d", i)
	}
}

func TestVec6Finite(t *testing.T) {
	assert.True(t, Vec6{1, 2, 3}.IsFinite())
	assert.False(t, Vec6{math.NaN()}.IsFinite())
	assert.False(t, Params{math.Inf(1)}.IsFinite())
}

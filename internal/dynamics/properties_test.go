package dynamics

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/armdyn/internal/model"
)

var _ = Describe("Engine", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(42))
	})

	DescribeTable("inverse dynamics undoes forward dynamics",
		func(preset string) {
			tree := presetTree(preset)
			eng := New(tree)
			for trial := 0; trial < 25; trial++ {
				st := randomState(tree, rng)
				w := randomWrenches(tree, rng)
				tau := randomTorques(tree.NumDOF(), rng)
				qdd := make([]float64, tree.NumDOF())

				base, err := eng.ForwardDynamics(st, w, tau, qdd)
				Expect(err).NotTo(HaveOccurred())
				applyAccel(st, qdd, base)

				back := make([]float64, tree.NumDOF())
				wrench, err := eng.InverseDynamics(st, w, back)
				Expect(err).NotTo(HaveOccurred())
				for j := range tau {
					Expect(back[j]).To(BeNumerically("~", tau[j], 1e-7))
				}
				// a fixed mount carries a real reaction
				if !tree.FixedBase() {
					for k := 0; k < 3; k++ {
						Expect(wrench.Torque[k]).To(BeNumerically("~", 0, 1e-7))
						Expect(wrench.Force[k]).To(BeNumerically("~", 0, 1e-7))
					}
				}
			}
		},
		Entry("pendulum", "pendulum"),
		Entry("single arm on a floating base", "panda"),
		Entry("four arms on a floating base", "panda4"),
	)

	Describe("zero-motion statics", func() {
		staticTorques := func(eng *Engine, st *model.State) []float64 {
			tau := make([]float64, eng.Tree().NumDOF())
			_, err := eng.InverseDynamics(st, nil, tau)
			Expect(err).NotTo(HaveOccurred())
			return tau
		}

		It("gives every arm of the platform the torques of a lone arm", func() {
			one := New(presetTree("panda"))
			four := New(presetTree("panda4"))

			q := randomConfiguration(one.Tree(), rng).Positions(nil)
			st1 := model.NewState(one.Tree())
			st1.SetPositions(q)
			st4 := model.NewState(four.Tree())
			for c := 0; c < 4; c++ {
				for j, v := range q {
					st4.Joints[7*c+j].Pos = v
				}
			}

			tau1 := staticTorques(one, st1)
			tau4 := staticTorques(four, st4)
			for c := 0; c < 4; c++ {
				for j := range q {
					Expect(tau4[7*c+j]).To(BeNumerically("~", tau1[j], 1e-9), "chain %d joint %d", c, j)
				}
			}
		})

		It("keeps chains independent of each other", func() {
			eng := New(presetTree("panda4"))
			st := randomConfiguration(eng.Tree(), rng)
			st.Base.Orient = quat.Number{Real: 1}
			before := staticTorques(eng, st)

			for j := 14; j < 21; j++ {
				st.Joints[j].Pos += 0.3
			}
			after := staticTorques(eng, st)
			for j := range before {
				if j >= 14 && j < 21 {
					continue
				}
				Expect(after[j]).To(BeNumerically("~", before[j], 1e-12))
			}
		})

		It("holds a fixed-base posture with the static torques", func() {
			eng := New(presetTree("pendulum"))
			st := randomConfiguration(eng.Tree(), rng)
			tau := staticTorques(eng, st)
			qdd := make([]float64, 1)
			_, err := eng.ForwardDynamics(st, nil, tau, qdd)
			Expect(err).NotTo(HaveOccurred())
			Expect(qdd[0]).To(BeNumerically("~", 0, 1e-12))
		})

		It("needs no torque while a floating platform falls freely", func() {
			eng := New(presetTree("panda4"))
			st := randomConfiguration(eng.Tree(), rng)
			tau := make([]float64, eng.Tree().NumDOF())
			Expect(eng.GravityCompensation(st, nil, tau)).To(Succeed())
			for j := range tau {
				Expect(tau[j]).To(BeNumerically("~", 0, 1e-9))
			}

			qdd := make([]float64, len(tau))
			base, err := eng.ForwardDynamics(st, nil, tau, qdd)
			Expect(err).NotTo(HaveOccurred())
			for j := range qdd {
				Expect(qdd[j]).To(BeNumerically("~", 0, 1e-9))
			}
			g := eng.Gravity()
			for k := 0; k < 3; k++ {
				Expect(base.Linear[k]).To(BeNumerically("~", g[k], 1e-9))
				Expect(base.Angular[k]).To(BeNumerically("~", 0, 1e-9))
			}
		})
	})

	DescribeTable("gravity compensation yields zero joint acceleration",
		func(preset string) {
			tree := presetTree(preset)
			eng := New(tree)
			for trial := 0; trial < 10; trial++ {
				st := randomState(tree, rng)
				w := randomWrenches(tree, rng)
				tau := make([]float64, tree.NumDOF())
				Expect(eng.GravityCompensation(st, w, tau)).To(Succeed())

				qdd := make([]float64, tree.NumDOF())
				_, err := eng.ForwardDynamics(st, w, tau, qdd)
				Expect(err).NotTo(HaveOccurred())
				for j := range qdd {
					Expect(qdd[j]).To(BeNumerically("~", 0, 1e-8))
				}
			}
		},
		Entry("fixed base", "pendulum"),
		Entry("floating base", "panda"),
		Entry("floating platform", "panda4"),
	)

	Describe("mass matrix", func() {
		It("matches the columns obtained from inverse dynamics and is symmetric", func() {
			tree := presetTree("panda4")
			eng := New(tree, WithGravity(mgl64.Vec3{}))
			st := randomConfiguration(tree, rng)
			st.Base.Orient = quat.Number{Real: 1}

			h, err := eng.MassMatrix(st)
			Expect(err).NotTo(HaveOccurred())
			n := h.SymmetricDim()
			nd := tree.NumDOF()
			Expect(n).To(Equal(nd + 6))

			cols := mat.NewDense(n, n, nil)
			tau := make([]float64, nd)
			for k := 0; k < n; k++ {
				unit := st.Clone()
				switch {
				case k < nd:
					unit.Joints[k].Acc = 1
				case k < nd+3:
					unit.Base.AngAcc[k-nd] = 1
				default:
					unit.Base.Acc[k-nd-3] = 1
				}
				_, err := eng.InverseDynamics(unit, nil, tau)
				Expect(err).NotTo(HaveOccurred())
				for r := 0; r < nd; r++ {
					cols.Set(r, k, tau[r])
				}
				f0 := eng.BaseForce()
				for r := 0; r < 6; r++ {
					cols.Set(nd+r, k, f0[r])
				}
			}
			for r := 0; r < n; r++ {
				for c := 0; c < n; c++ {
					Expect(cols.At(r, c)).To(BeNumerically("~", cols.At(c, r), 1e-9))
					Expect(h.At(r, c)).To(BeNumerically("~", cols.At(r, c), 1e-9))
				}
			}
		})

		It("is positive definite across 10,000 configurations", func() {
			tree := presetTree("panda4")
			eng := New(tree)
			var chol mat.Cholesky
			for trial := 0; trial < 10000; trial++ {
				st := randomConfiguration(tree, rng)
				h, err := eng.MassMatrix(st)
				Expect(err).NotTo(HaveOccurred())
				Expect(chol.Factorize(h)).To(BeTrue(), "configuration %d", trial)
			}
		})
	})

	Describe("pendulum", func() {
		var (
			eng *Engine
			st  *model.State
			tau []float64
		)

		BeforeEach(func() {
			eng = New(presetTree("pendulum"))
			st = model.NewState(eng.Tree())
			tau = make([]float64, 1)
		})

		It("needs m·g·r to hold the rod horizontal", func() {
			_, err := eng.InverseDynamics(st, nil, tau)
			Expect(err).NotTo(HaveOccurred())
			Expect(tau[0]).To(BeNumerically("~", 1.0*9.81*0.5, 1e-12))
		})

		It("needs nothing when the rod is vertical", func() {
			st.Joints[0].Pos = math.Pi / 2
			_, err := eng.InverseDynamics(st, nil, tau)
			Expect(err).NotTo(HaveOccurred())
			Expect(tau[0]).To(BeNumerically("~", 0, 1e-12))
		})
	})
})

package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

const (
	DefaultDt         = 0.001
	DefaultDuration   = 5.0
	DefaultIntegrator = "rk4"
	DefaultController = "none"
	DefaultKp         = 100.0
	DefaultKd         = 20.0
)

// Config is the on-disk description of a robot and how to simulate it.
type Config struct {
	Name      string        `yaml:"name"`
	Gravity   [3]float64    `yaml:"gravity"`
	FixedBase bool          `yaml:"fixed_base"`
	Base      BodyConfig    `yaml:"base"`
	Chains    []ChainConfig `yaml:"chains"`
	Sim       SimConfig     `yaml:"sim"`
}

// BodyConfig gives inertial data either as mass, centre of mass and inertia
// about the centre of mass, or as the ten raw parameters in Params.
type BodyConfig struct {
	Mass float64    `yaml:"mass"`
	COM  [3]float64 `yaml:"com"`
	// Inertia is ixx, ixy, ixz, iyy, iyz, izz about the centre of mass.
	Inertia [6]float64 `yaml:"inertia"`
	Params  []float64  `yaml:"params,omitempty"`
}

type ChainConfig struct {
	Name        string             `yaml:"name"`
	Mount       [3]float64         `yaml:"mount"`
	Yaw         float64            `yaml:"yaw"`
	Disabled    bool               `yaml:"disabled,omitempty"`
	Links       []LinkConfig       `yaml:"links"`
	EndEffector *EndEffectorConfig `yaml:"end_effector,omitempty"`
	Gripper     *EndEffectorConfig `yaml:"gripper,omitempty"`
}

type LinkConfig struct {
	Name       string     `yaml:"name"`
	Alpha      float64    `yaml:"alpha"`
	A          float64    `yaml:"a"`
	D          float64    `yaml:"d"`
	Limits     [2]float64 `yaml:"limits"`
	Inactive   bool       `yaml:"inactive,omitempty"`
	BodyConfig `yaml:",inline"`
}

type EndEffectorConfig struct {
	Name       string     `yaml:"name"`
	Offset     [3]float64 `yaml:"offset"`
	Euler      [3]float64 `yaml:"euler"`
	Inactive   bool       `yaml:"inactive,omitempty"`
	BodyConfig `yaml:",inline"`
}

type SimConfig struct {
	Dt         float64    `yaml:"dt"`
	Duration   float64    `yaml:"duration"`
	Integrator string     `yaml:"integrator"`
	Controller string     `yaml:"controller"`
	Seed       int64      `yaml:"seed"`
	Init       InitConfig `yaml:"init"`
	Gains      GainConfig `yaml:"gains"`
}

// InitConfig seeds the simulation state. Missing joint entries are zero.
type InitConfig struct {
	Joints    []float64  `yaml:"joints,omitempty"`
	JointVel  []float64  `yaml:"joint_vel,omitempty"`
	BasePos   [3]float64 `yaml:"base_pos"`
	BaseVel   [3]float64 `yaml:"base_vel"`
	BaseOmega [3]float64 `yaml:"base_omega"`
}

type GainConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:    "robot",
		Gravity: [3]float64{0, 0, -9.81},
		Sim: SimConfig{
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			Integrator: DefaultIntegrator,
			Controller: DefaultController,
			Gains:      GainConfig{Kp: DefaultKp, Kd: DefaultKd},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks simulation settings and inertial data. Topology problems
// are left to model.NewTree.
func (c *Config) Validate() error {
	var errs error
	if c.Sim.Dt <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("dt must be positive, got %f", c.Sim.Dt))
	}
	if c.Sim.Duration <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("duration must be positive, got %f", c.Sim.Duration))
	}
	if len(c.Chains) == 0 {
		errs = multierr.Append(errs, errors.New("at least one chain is required"))
	}
	check := func(where string, b BodyConfig) {
		if b.Params != nil && len(b.Params) != spatial.NumParams {
			errs = multierr.Append(errs, fmt.Errorf("%s: params needs %d values, got %d", where, spatial.NumParams, len(b.Params)))
		}
		if b.Mass < 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: negative mass %f", where, b.Mass))
		}
	}
	check("base", c.Base)
	for ci, ch := range c.Chains {
		for li, l := range ch.Links {
			check(fmt.Sprintf("chain %d link %d", ci, li), l.BodyConfig)
		}
		if ch.EndEffector != nil {
			check(fmt.Sprintf("chain %d end effector", ci), ch.EndEffector.BodyConfig)
		}
		if ch.Gripper != nil {
			check(fmt.Sprintf("chain %d gripper", ci), ch.Gripper.BodyConfig)
		}
	}
	return errs
}

// ToParams converts the inertial description into body parameters.
func (b BodyConfig) ToParams() spatial.Params {
	if len(b.Params) == spatial.NumParams {
		var p spatial.Params
		copy(p[:], b.Params)
		return p
	}
	in := b.Inertia
	ic := mgl64.Mat3FromRows(
		mgl64.Vec3{in[0], in[1], in[2]},
		mgl64.Vec3{in[1], in[3], in[4]},
		mgl64.Vec3{in[2], in[4], in[5]},
	)
	return spatial.ParamsFromCOM(b.Mass, mgl64.Vec3(b.COM), ic)
}

// GravityVec returns the configured gravity.
func (c *Config) GravityVec() mgl64.Vec3 {
	return mgl64.Vec3(c.Gravity)
}

// RobotSpec converts the chain description for model.Build.
func (c *Config) RobotSpec() model.RobotSpec {
	spec := model.RobotSpec{
		Name:      c.Name,
		FixedBase: c.FixedBase,
		Base:      c.Base.ToParams(),
	}
	for _, ch := range c.Chains {
		cs := model.ChainSpec{
			Name:  ch.Name,
			Mount: mgl64.Vec3(ch.Mount),
			Yaw:   ch.Yaw,
		}
		for _, l := range ch.Links {
			cs.Links = append(cs.Links, model.LinkSpec{
				Name:     l.Name,
				Alpha:    l.Alpha,
				A:        l.A,
				D:        l.D,
				Limits:   l.Limits,
				Params:   l.ToParams(),
				Inactive: l.Inactive,
			})
		}
		cs.EndEffector = ch.EndEffector.toModel()
		cs.Gripper = ch.Gripper.toModel()
		spec.Chains = append(spec.Chains, cs)
	}
	return spec
}

func (ee *EndEffectorConfig) toModel() *model.EndEffector {
	if ee == nil {
		return nil
	}
	return &model.EndEffector{
		Name:     ee.Name,
		Offset:   mgl64.Vec3(ee.Offset),
		Euler:    mgl64.Vec3(ee.Euler),
		Params:   ee.ToParams(),
		Inactive: ee.Inactive,
	}
}

// Tree builds the kinematic tree and applies per-chain activity.
func (c *Config) Tree() (*model.Tree, error) {
	tree, err := model.Build(c.RobotSpec())
	if err != nil {
		return nil, err
	}
	for ci, ch := range c.Chains {
		if ch.Disabled {
			tree.SetChainActive(ci, false)
		}
	}
	return tree, nil
}

// InitState returns the initial simulation state for tree.
func (c *Config) InitState(tree *model.Tree) *model.State {
	st := model.NewState(tree)
	for j := range st.Joints {
		if j < len(c.Sim.Init.Joints) {
			st.Joints[j].Pos = c.Sim.Init.Joints[j]
		}
		if j < len(c.Sim.Init.JointVel) {
			st.Joints[j].Vel = c.Sim.Init.JointVel[j]
		}
	}
	st.Base.Pos = mgl64.Vec3(c.Sim.Init.BasePos)
	st.Base.Vel = mgl64.Vec3(c.Sim.Init.BaseVel)
	st.Base.AngVel = mgl64.Vec3(c.Sim.Init.BaseOmega)
	return st
}

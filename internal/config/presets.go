package config

import (
	"fmt"
	"math"
	"sort"
)

// Presets maps a preset name to a constructor so callers always receive a
// private copy.
var Presets = map[string]func() *Config{
	"pendulum": Pendulum,
	"panda":    func() *Config { return PandaPlatform(1) },
	"panda4":   func() *Config { return PandaPlatform(4) },
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PendulumMass and PendulumLength describe the point mass of the pendulum preset.
const (
	PendulumMass   = 1.0
	PendulumLength = 0.5
)

// Pendulum is a point mass on a massless rod, swinging about a horizontal
// axis of a fixed base. At zero angle the rod is horizontal.
func Pendulum() *Config {
	cfg := DefaultConfig()
	cfg.Name = "pendulum"
	cfg.FixedBase = true
	cfg.Chains = []ChainConfig{{
		Name: "pendulum",
		Links: []LinkConfig{{
			Name:  "hinge",
			Alpha: math.Pi / 2,
			BodyConfig: BodyConfig{
				Mass: PendulumMass,
				COM:  [3]float64{PendulumLength, 0, 0},
			},
		}},
	}}
	cfg.Sim.Dt = 0.001
	cfg.Sim.Duration = 5
	return cfg
}

// Franka Emika Panda geometry (modified DH) and nominal link inertia.
var (
	pandaAlpha = [7]float64{0, -math.Pi / 2, math.Pi / 2, math.Pi / 2, -math.Pi / 2, math.Pi / 2, math.Pi / 2}
	pandaA     = [7]float64{0, 0, 0, 0.0825, -0.0825, 0, 0.088}
	pandaD     = [7]float64{0.333, 0, 0.316, 0, 0.384, 0, 0}

	pandaLimits = [7][2]float64{
		{-2.8973, 2.8973},
		{-1.7628, 1.7628},
		{-2.8973, 2.8973},
		{-3.0718, -0.0698},
		{-2.8973, 2.8973},
		{-0.0175, 3.7525},
		{-2.8973, 2.8973},
	}

	pandaMass = [7]float64{4.970684, 0.646926, 3.228604, 3.587895, 1.225946, 1.666555, 0.735522}
	pandaCOM  = [7][3]float64{
		{0.003875, 0.002081, -0.04762},
		{-0.003141, -0.02872, 0.003495},
		{0.027518, 0.039252, -0.066502},
		{-0.05317, 0.104419, 0.027454},
		{-0.011953, 0.041065, -0.038437},
		{0.060149, -0.014117, -0.010517},
		{0.010517, -0.004252, 0.061597},
	}
	pandaInertia = [7][3]float64{
		{0.7034, 0.7066, 0.0091},
		{0.0079, 0.0281, 0.0259},
		{0.0372, 0.0361, 0.0108},
		{0.0259, 0.0196, 0.0283},
		{0.0356, 0.0294, 0.0086},
		{0.0020, 0.0043, 0.0054},
		{0.0126, 0.0101, 0.0048},
	}
)

const (
	pandaFlange      = 0.107
	pandaFingerReach = 0.0584 + 0.045
	pandaHandYaw     = -math.Pi / 4
	platformRadius   = 0.3
)

// PandaChain returns one seven-joint Panda arm with its hand. The gripper
// fingers ride on the hand but start inactive, so the nominal model is the
// arm and hand alone.
func PandaChain(name string, mount [3]float64, yaw float64) ChainConfig {
	ch := ChainConfig{Name: name, Mount: mount, Yaw: yaw}
	for i := 0; i < 7; i++ {
		in := pandaInertia[i]
		ch.Links = append(ch.Links, LinkConfig{
			Name:   fmt.Sprintf("joint%d", i+1),
			Alpha:  pandaAlpha[i],
			A:      pandaA[i],
			D:      pandaD[i],
			Limits: pandaLimits[i],
			BodyConfig: BodyConfig{
				Mass:    pandaMass[i],
				COM:     pandaCOM[i],
				Inertia: [6]float64{in[0], 0, 0, in[1], 0, in[2]},
			},
		})
	}
	ch.EndEffector = &EndEffectorConfig{
		Name:   "hand",
		Offset: [3]float64{0, 0, pandaFlange + pandaFingerReach},
		Euler:  [3]float64{0, 0, pandaHandYaw},
		BodyConfig: BodyConfig{
			Mass:    0.73,
			COM:     [3]float64{0, 0, -0.07},
			Inertia: [6]float64{0.001, 0, 0, 0.0025, 0, 0.0017},
		},
	}
	ch.Gripper = &EndEffectorConfig{
		Name:     "gripper",
		Inactive: true,
		BodyConfig: BodyConfig{
			Mass:    0.03,
			COM:     [3]float64{0, 0, -0.02},
			Inertia: [6]float64{1e-5, 0, 0, 1e-5, 0, 5e-6},
		},
	}
	return ch
}

// PandaPlatform mounts n Panda arms on a floating platform. With more than
// one arm the mounts are spread evenly in azimuth and each arm faces outward.
func PandaPlatform(n int) *Config {
	cfg := DefaultConfig()
	cfg.Name = "panda"
	mass := 10.0
	if n > 1 {
		cfg.Name = fmt.Sprintf("panda%d", n)
		mass = 20.0
	}
	cfg.Base = BodyConfig{
		Mass:    mass,
		COM:     [3]float64{0, 0, -0.05},
		Inertia: [6]float64{0.5, 0, 0, 0.5, 0, 0.8},
	}
	home := []float64{0, -math.Pi / 4, 0, -3 * math.Pi / 4, 0, math.Pi / 2, math.Pi / 4}
	for i := 0; i < n; i++ {
		var mount [3]float64
		yaw := 0.0
		if n > 1 {
			yaw = 2 * math.Pi * float64(i) / float64(n)
			mount = [3]float64{platformRadius * math.Cos(yaw), platformRadius * math.Sin(yaw), 0}
		}
		cfg.Chains = append(cfg.Chains, PandaChain(fmt.Sprintf("arm%d", i), mount, yaw))
		cfg.Sim.Init.Joints = append(cfg.Sim.Init.Joints, home...)
	}
	cfg.Sim.Controller = "gravcomp"
	return cfg
}

package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/armdyn/internal/control"
	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 22
	historyCapacity = 600
	frameRate       = 30
	maxStepsFrame   = 200
	nudgeTorque     = 1.0
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the Bubble Tea model of the dashboard. It owns the simulation
// state and advances it in real time on every tick.
type Model struct {
	name   string
	arm    *sim.Arm
	tree   *model.Tree
	integ  sim.Integrator
	manual *control.Manual
	gains  control.Tunable

	x0, state sim.State
	u         sim.Control
	t, dt     float64
	perFrame  int

	canvas   *Canvas
	camera   *Camera
	skeleton *Skeleton
	energy   []float64

	running  bool
	fault    error
	joint    int
	gainKeys []string
	gain     int
	showHelp bool
}

// NewModel builds a dashboard around ctrl. Operator torques from the
// keyboard are added on top of ctrl's output.
func NewModel(name string, arm *sim.Arm, integ sim.Integrator, ctrl sim.Controller, x0 sim.State, dt float64) Model {
	tree := arm.Engine().Tree()
	m := Model{
		name:     name,
		arm:      arm,
		tree:     tree,
		integ:    integ,
		manual:   control.NewManual(ctrl, tree.NumDOF()),
		x0:       x0.Clone(),
		state:    x0.Clone(),
		u:        make(sim.Control, tree.NumDOF()),
		dt:       dt,
		perFrame: stepsPerFrame(dt),
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		camera:   NewCamera(),
		skeleton: NewSkeleton(arm.Engine()),
		energy:   make([]float64, 0, historyCapacity),
		running:  true,
	}
	if t, ok := ctrl.(control.Tunable); ok {
		m.gains = t
		for k := range t.GetParams() {
			m.gainKeys = append(m.gainKeys, k)
		}
		sort.Strings(m.gainKeys)
	}
	return m
}

func stepsPerFrame(dt float64) int {
	n := int(math.Round(1.0 / frameRate / dt))
	if n < 1 {
		return 1
	}
	if n > maxStepsFrame {
		return maxStepsFrame
	}
	return n
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			if n := m.tree.NumDOF(); n > 0 {
				m.joint = (m.joint + 1) % n
			}
		case "+", "=":
			m.manual.Nudge(m.joint, nudgeTorque)
		case "-", "_":
			m.manual.Nudge(m.joint, -nudgeTorque)
		case "0":
			m.manual.Clear()
		case "g":
			if len(m.gainKeys) > 0 {
				m.gain = (m.gain + 1) % len(m.gainKeys)
			}
		case "up":
			m.scaleGain(1.05)
		case "down":
			m.scaleGain(0.95)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "]":
			m.camera.ZoomIn()
		case "[":
			m.camera.ZoomOut()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.Advance(m.perFrame)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) scaleGain(factor float64) {
	if m.gains == nil || len(m.gainKeys) == 0 {
		return
	}
	key := m.gainKeys[m.gain]
	m.gains.SetParam(key, m.gains.GetParams()[key]*factor)
}

// Advance integrates n steps. A diverged state pauses the dashboard and
// keeps the last valid state on screen.
func (m *Model) Advance(n int) {
	for i := 0; i < n; i++ {
		m.u = m.manual.Compute(m.state, m.t)
		next := m.integ.Step(m.arm, m.state, m.u, m.t, m.dt)
		m.arm.Normalize(next)
		if !next.IsValid() {
			m.fault = fmt.Errorf("state diverged at t=%.3f", m.t)
			m.running = false
			return
		}
		m.state = next
		m.t += m.dt
	}
	m.energy = append(m.energy, m.arm.Energy(m.state))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
}

func (m *Model) reset() {
	m.t = 0
	m.state = m.x0.Clone()
	m.energy = m.energy[:0]
	m.manual.Clear()
	m.fault = nil
	m.running = true
}

// State returns the current simulation time and state.
func (m Model) State() (float64, sim.State) { return m.t, m.state }

func (m Model) View() string {
	m.canvas.Clear()
	Render(m.canvas, m.skeleton.Segments(m.state), m.camera)
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	switch {
	case m.fault != nil:
		s.WriteString(statusFault.Render("FAULT: "+m.fault.Error()) + "\n\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3fs", m.t)) + "\n")
	if len(m.energy) > 0 {
		s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.4f J", m.energy[len(m.energy)-1])) + "\n")
	}
	if f := m.arm.Faults(); f > 0 {
		s.WriteString(labelStyle.Render("FD faults") + statusFault.Render(fmt.Sprintf("%d", f)) + "\n")
	}
	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(36), asciigraph.Caption("Energy"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}

	s.WriteString("\n" + m.jointTable())
	s.WriteString(m.gainTable())
	s.WriteString(hintStyle.Render("SPC pause  R reset  Q quit  ? help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

// jointTable lists the selected joint's chain with position, limit bar and
// commanded torque.
func (m Model) jointTable() string {
	var s strings.Builder
	n := m.tree.NumDOF()
	if n == 0 {
		return ""
	}
	b := m.tree.Body(m.tree.DOFBody(m.joint))
	for _, body := range m.tree.Chain(b.Chain) {
		jb := m.tree.Body(body)
		if jb.DOF < 0 {
			continue
		}
		j := jb.DOF
		frac := 0.5
		if jb.HasLimits() {
			frac = (m.state[j] - jb.Limits[0]) / (jb.Limits[1] - jb.Limits[0])
		}
		tau := 0.0
		if j < len(m.u) {
			tau = m.u[j]
		}
		line := fmt.Sprintf("%-16s %7.3f %s %8.2f", m.tree.JointName(j), m.state[j], LimitBar(frac, 10), tau)
		if j == m.joint {
			s.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	return s.String()
}

func (m Model) gainTable() string {
	if m.gains == nil {
		return ""
	}
	var s strings.Builder
	s.WriteString("\nGAINS\n")
	params := m.gains.GetParams()
	for i, k := range m.gainKeys {
		line := fmt.Sprintf("%-4s %8.2f", k, params[k])
		if i == m.gain {
			s.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	return s.String()
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset                    ║
║  Q        - Quit                     ║
║  Tab      - Select next joint        ║
║  + / -    - Push selected joint      ║
║  0        - Clear pushes             ║
║  G        - Select next gain         ║
║  Up/Down  - Scale gain by 5%         ║
║  x/y/z    - Rotate camera            ║
║  [ / ]    - Zoom out / in            ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run starts the dashboard on the alternate screen and blocks until the
// user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

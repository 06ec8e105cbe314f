package export

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/armdyn/internal/analysis"
	"github.com/san-kum/armdyn/internal/config"
	"github.com/san-kum/armdyn/internal/dynamics"
	"github.com/san-kum/armdyn/internal/sim"
	"github.com/san-kum/armdyn/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 10)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatal("not a complete svg document")
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(svg, `width="40" height="40"`) {
		t.Error("unexpected document size")
	}
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should give empty output")
	}
}

func TestPoseToSVG(t *testing.T) {
	cfg := config.GetPreset("panda")
	tree, err := cfg.Tree()
	if err != nil {
		t.Fatal(err)
	}
	eng := dynamics.New(tree)
	x := sim.NewLayout(tree).Pack(cfg.InitState(tree))

	svg := PoseToSVG(viz.NewSkeleton(eng), x, viz.NewCamera(), 40, 20, 4)
	if strings.Count(svg, "<circle") == 0 {
		t.Error("expected the arm to be drawn")
	}
}

func TestPhaseToSVG(t *testing.T) {
	rows := make([][]float64, 50)
	for i := range rows {
		th := 2 * math.Pi * float64(i) / 50
		rows[i] = []float64{math.Cos(th), math.Sin(th)}
	}
	svg := PhaseToSVG(analysis.NewPhasePortrait(rows, 0, 1), 200, 100, "#ff8800")
	if !strings.Contains(svg, `stroke="#ff8800"`) || strings.Count(svg, " L") != 49 {
		t.Errorf("unexpected path: %s", svg)
	}
	if PhaseToSVG(nil, 10, 10, "red") != "" {
		t.Error("nil portrait should give empty output")
	}
}

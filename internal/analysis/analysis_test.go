package analysis

import (
	"math"
	"strings"
	"testing"
)

func TestDominantFrequency(t *testing.T) {
	const dt = 0.01
	data := make([]float64, 1000)
	for i := range data {
		tm := float64(i) * dt
		data[i] = 3 + math.Sin(2*math.Pi*2*tm) + 0.2*math.Sin(2*math.Pi*7*tm)
	}
	if f := DominantFrequency(data, dt); math.Abs(f-2) > 0.1 {
		t.Errorf("expected 2 Hz, got %f", f)
	}

	flat := []float64{1, 1, 1, 1}
	if f := DominantFrequency(flat, dt); f != 0 {
		t.Errorf("expected 0 for flat data, got %f", f)
	}
	if f := DominantFrequency(nil, dt); f != 0 {
		t.Errorf("expected 0 for no data, got %f", f)
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 10))
	if len(ps) != 6 {
		t.Errorf("expected 6 bins, got %d", len(ps))
	}
}

func TestPhasePortrait(t *testing.T) {
	rows := make([][]float64, 200)
	for i := range rows {
		th := 2 * math.Pi * float64(i) / 200
		rows[i] = []float64{math.Cos(th), -math.Sin(th)}
	}
	p := NewPhasePortrait(rows, 0, 1)
	if p == nil || len(p.X) != 200 {
		t.Fatal("expected a portrait")
	}
	art := p.ASCII(40, 20)
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	if !strings.Contains(art, "•") || !strings.Contains(art, "┼") {
		t.Error("expected points and crossing axes")
	}

	if NewPhasePortrait(rows, 0, 5) != nil {
		t.Error("expected nil for out of range column")
	}
	if (*PhasePortrait)(nil).ASCII(10, 10) != "" {
		t.Error("nil portrait should render empty")
	}
}

func TestColumn(t *testing.T) {
	got := Column([][]float64{{1, 2}, {3}}, 1)
	if got[0] != 2 || got[1] != 0 {
		t.Errorf("unexpected column %v", got)
	}
}

package analysis

import (
	"strings"
)

// PhasePortrait holds one trajectory projected onto two state columns.
type PhasePortrait struct {
	XIndex, YIndex int
	X, Y           []float64
}

// NewPhasePortrait projects rows onto columns xi and yi. It returns nil when
// either column is out of range.
func NewPhasePortrait(rows [][]float64, xi, yi int) *PhasePortrait {
	if len(rows) == 0 || xi < 0 || yi < 0 || xi >= len(rows[0]) || yi >= len(rows[0]) {
		return nil
	}
	return &PhasePortrait{
		XIndex: xi,
		YIndex: yi,
		X:      Column(rows, xi),
		Y:      Column(rows, yi),
	}
}

func bounds(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - 0.1*span, hi + 0.1*span
}

// ASCII renders the portrait on a width x height character grid with axes
// through the origin when it is in view.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.X) == 0 || width < 2 || height < 2 {
		return ""
	}
	minX, maxX := bounds(p.X)
	minY, maxY := bounds(p.Y)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	col := func(x float64) int { return int((x - minX) / (maxX - minX) * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/(maxY-minY)*float64(height-1)) }

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := 0; r < height; r++ {
			grid[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := 0; c < width; c++ {
			if grid[r][c] == '│' {
				grid[r][c] = '┼'
			} else {
				grid[r][c] = '─'
			}
		}
	}
	for i := range p.X {
		r, c := row(p.Y[i]), col(p.X[i])
		if r >= 0 && r < height && c >= 0 && c < width {
			grid[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, r := range grid {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}

package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is an orbiting perspective camera looking at Target.
type Camera struct {
	Target   mgl64.Vec3
	Distance float64
	Yaw      float64
	Pitch    float64
	Roll     float64
	Zoom     float64
}

// NewCamera looks at the arm from the side and slightly above.
func NewCamera() *Camera {
	return &Camera{
		Target:   mgl64.Vec3{0, 0, 0.4},
		Distance: 4,
		Yaw:      -math.Pi / 6,
		Pitch:    -math.Pi / 10,
		Zoom:     1,
	}
}

func (c *Camera) RotateX(a float64) { c.Pitch += a }
func (c *Camera) RotateY(a float64) { c.Roll += a }
func (c *Camera) RotateZ(a float64) { c.Yaw += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// view maps world coordinates to camera coordinates: x right, y up, z
// towards the viewer. World z is up.
func (c *Camera) view() mgl64.Mat3 {
	// world z up becomes camera y up
	toCam := mgl64.Mat3FromRows(
		mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{0, 0, 1},
		mgl64.Vec3{0, -1, 0},
	)
	return mgl64.Rotate3DZ(c.Roll).
		Mul3(mgl64.Rotate3DX(c.Pitch)).
		Mul3(toCam).
		Mul3(mgl64.Rotate3DZ(c.Yaw))
}

// Project maps p onto a sw x sh dot grid. It returns the dot coordinates,
// the depth along the viewing axis and whether the point is in front of the
// camera and on screen.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	q := c.view().Mul3x1(p.Sub(c.Target)).Mul(c.Zoom)
	depth := c.Distance - q.Z()
	if depth <= 0.1 {
		return 0, 0, depth, false
	}
	scale := float64(min(sw, sh)) / 2 * c.Distance / depth
	// dots are twice as tall as they are wide
	x := int(math.Round(q.X()*scale)) + sw/2
	y := int(math.Round(-q.Y()*scale)) + sh/2
	return x, y, depth, x >= 0 && x < sw && y >= 0 && y < sh
}

// Segment is a line between two world points.
type Segment struct {
	From, To mgl64.Vec3
	Marker   bool
}

// Render draws segments far to near. Segments with both ends off screen or
// behind the camera are skipped.
func Render(c *Canvas, segs []Segment, cam *Camera) {
	if c == nil || cam == nil {
		return
	}
	sw, sh := c.DotSize()
	type projected struct {
		x0, y0, x1, y1 int
		depth          float64
		marker         bool
	}
	proj := make([]projected, 0, len(segs))
	for _, s := range segs {
		x0, y0, d0, ok0 := cam.Project(s.From, sw, sh)
		x1, y1, d1, ok1 := cam.Project(s.To, sw, sh)
		if (!ok0 && !ok1) || d0 <= 0.1 || d1 <= 0.1 {
			continue
		}
		proj = append(proj, projected{x0, y0, x1, y1, (d0 + d1) / 2, s.Marker})
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, p := range proj {
		c.DrawLine(p.x0, p.y0, p.x1, p.y1)
		if p.marker {
			c.DrawMarker(p.x1, p.y1)
		}
	}
}

package dynamics

import "math"

// TrigCache holds the sine and cosine of every joint angle for the current
// tick. Update recomputes them only when an angle actually changed, so every
// consumer within a tick shares one evaluation.
type TrigCache struct {
	q       []float64
	sin     []float64
	cos     []float64
	valid   bool
	updates int
}

// NewTrigCache creates a cache for n joints.
func NewTrigCache(n int) *TrigCache {
	return &TrigCache{
		q:   make([]float64, n),
		sin: make([]float64, n),
		cos: make([]float64, n),
	}
}

// Update loads joint angles through pos and reports whether anything was
// recomputed.
func (c *TrigCache) Update(n int, pos func(j int) float64) bool {
	changed := !c.valid
	if !changed {
		for j := 0; j < n; j++ {
			if pos(j) != c.q[j] {
				changed = true
				break
			}
		}
	}
	if !changed {
		return false
	}
	for j := 0; j < n; j++ {
		c.q[j] = pos(j)
		c.sin[j], c.cos[j] = math.Sincos(c.q[j])
	}
	c.valid = true
	c.updates++
	return true
}

// SinCos returns the cached values for joint j.
func (c *TrigCache) SinCos(j int) (sin, cos float64) {
	return c.sin[j], c.cos[j]
}

// Invalidate forces the next Update to recompute.
func (c *TrigCache) Invalidate() {
	c.valid = false
}

// Updates counts how many times the cache was actually recomputed.
func (c *TrigCache) Updates() int {
	return c.updates
}

package game

import "math"

// surfaceBias lifts the interpolated ground so characters stand on it
// rather than sink by a pixel.
const surfaceBias = 2.0

var inf = math.Inf(1)

// Hole is a circular destroyed region punched into the terrain
type Hole struct {
	Center  Vec     `msgpack:"c"`
	Radius  float64 `msgpack:"r"`
	Radius2 float64 `msgpack:"r2"`
}

// Contains reports whether p lies strictly inside the hole
func (h Hole) Contains(p Vec) bool {
	return SqDist(p, h.Center) < h.Radius2
}

// HitKind tags what a raycast ran into
type HitKind int

const (
	HitNone HitKind = iota
	HitGround
	HitHole
)

// RayHit is the result of Terrain.Raycast. Hole is an index into Holes()
// when Kind is HitHole, otherwise -1.
type RayHit struct {
	Distance float64
	Kind     HitKind
	Hole     int
}

// Hit reports whether the cast found a boundary
func (r RayHit) Hit() bool {
	return r.Kind != HitNone && !math.IsInf(r.Distance, 1)
}

var noHit = RayHit{Distance: inf, Kind: HitNone, Hole: -1}

// Terrain is the height field plus the append-only hole overlay
type Terrain struct {
	width   float64
	height  float64
	ground  float64
	spacing float64
	heights []float64
	holes   []Hole
}

// NewTerrain wraps existing height samples, e.g. from a snapshot
func NewTerrain(cfg Config, heights []float64) *Terrain {
	h := make([]float64, len(heights))
	copy(h, heights)
	return &Terrain{
		width:   cfg.Width,
		height:  cfg.Height,
		ground:  cfg.Ground(),
		spacing: cfg.SampleSpacing,
		heights: h,
	}
}

// GenerateTerrain samples layered noise across the world. The base curve
// is a sine hump so both edges sit low and the middle rises.
func GenerateTerrain(cfg Config, rng *Rand) *Terrain {
	noise := NewNoise(rng)
	n := int(cfg.Width/cfg.SampleSpacing) + 2
	heights := make([]float64, 0, n)
	for x := 0.0; x < cfg.Width+cfg.SampleSpacing; x += cfg.SampleSpacing {
		base := -math.Sin(x / cfg.Width * math.Pi)
		aux := math.Abs(noise.Fractal(x, cfg.NoiseOctaves, cfg.NoiseScale, cfg.NoisePersistence))
		heights = append(heights, math.Round(base*cfg.NoiseAmplitude-aux*cfg.NoiseAmplitude/2))
	}
	return NewTerrain(cfg, heights)
}

// Heights returns a copy of the height samples
func (t *Terrain) Heights() []float64 {
	out := make([]float64, len(t.heights))
	copy(out, t.heights)
	return out
}

// Holes returns a copy of the hole list
func (t *Terrain) Holes() []Hole {
	out := make([]Hole, len(t.holes))
	copy(out, t.holes)
	return out
}

// HoleCount returns the number of punched holes
func (t *Terrain) HoleCount() int {
	return len(t.holes)
}

// Width returns the world width
func (t *Terrain) Width() float64 {
	return t.width
}

// sample returns the bracketing index and fraction for x, clamped to the field
func (t *Terrain) sample(x float64) (int, float64) {
	if len(t.heights) < 2 {
		return 0, 0
	}
	f := x / t.spacing
	j := int(math.Floor(f))
	if j < 0 {
		return 0, 0
	}
	if j > len(t.heights)-2 {
		return len(t.heights) - 2, 1
	}
	return j, f - float64(j)
}

// HeightAt returns the interpolated ground y at x. Larger y is lower.
func (t *Terrain) HeightAt(x float64) float64 {
	if len(t.heights) == 0 {
		return t.ground
	}
	if len(t.heights) == 1 {
		return t.ground + t.heights[0] + surfaceBias
	}
	j, k := t.sample(x)
	return Lerp(t.ground+t.heights[j], t.ground+t.heights[j+1], k) + surfaceBias
}

// IsSolid is false above the ground and inside any hole, true otherwise
func (t *Terrain) IsSolid(p Vec) bool {
	if p.Y < t.HeightAt(p.X) {
		return false
	}
	for _, h := range t.holes {
		if h.Contains(p) {
			return false
		}
	}
	return true
}

// PunchHole appends a hole. Non-positive radii are ignored.
func (t *Terrain) PunchHole(center Vec, radius float64) bool {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return false
	}
	t.holes = append(t.holes, Hole{Center: center, Radius: radius, Radius2: radius * radius})
	return true
}

// Damage scatters count surface craters, as the world looks after a prior battle
func (t *Terrain) Damage(rng *Rand, count int) {
	lo, hi := 1000, int(t.width)-1000
	if hi <= lo {
		lo, hi = 0, int(t.width)
	}
	for i := 0; i < count; i++ {
		x := float64(rng.Range(lo, hi))
		y := t.HeightAt(x)
		r := float64(rng.Range(60, 120))
		if t.IsSolid(V(x, y+10)) {
			t.PunchHole(V(x, y), r)
		}
	}
}

// CraterLayers lists the radii a renderer masks for one hole. Physics only
// uses the hole's own radius.
func CraterLayers(radius float64) []float64 {
	layers := make([]float64, 0, 5)
	if radius > 50 {
		layers = append(layers, radius-20)
	}
	return append(layers, radius, radius+10, radius, radius+10)
}

// rayCircle returns the near intersection distance of a unit ray with a
// hole, or +Inf when the ray misses or the circle is behind the origin.
func rayCircle(origin, dir Vec, h Hole) float64 {
	vc := origin.Sub(h.Center)
	v := -2 * vc.Dot(dir)
	disc := v*v - 4*(vc.Dot(vc)-h.Radius2)
	if disc < 0 {
		return inf
	}
	dist := v - math.Sqrt(disc)
	if math.IsNaN(dist) || dist < 0 {
		return inf
	}
	return dist / 2
}

// Raycast finds the distance from a solid origin to the nearest open
// boundary along dir. Ground is only considered for the axis directions.
func (t *Terrain) Raycast(origin, dir Vec) RayHit {
	if !t.IsSolid(origin) {
		return noHit
	}
	dir = dir.Normalize()
	best := noHit
	for i, h := range t.holes {
		if d := rayCircle(origin, dir, h); d < best.Distance {
			best = RayHit{Distance: d, Kind: HitHole, Hole: i}
		}
	}

	ground := inf
	switch {
	case dir.X == 0 && dir.Y < 0:
		ground = origin.Y - t.HeightAt(origin.X)
	case dir.Y == 0 && dir.X > 0:
		ground = t.exitRight(origin)
	case dir.Y == 0 && dir.X < 0:
		ground = t.exitLeft(origin)
	}
	if ground < best.Distance {
		best = RayHit{Distance: ground, Kind: HitGround, Hole: -1}
	}
	return best
}

// exitRight walks ground segments to the right until one drops below y
func (t *Terrain) exitRight(origin Vec) float64 {
	x1 := math.Floor(origin.X/t.spacing) * t.spacing
	for x1 < t.width {
		x2 := x1 + t.spacing
		y1, y2 := t.HeightAt(x1), t.HeightAt(x2)
		if y1 != y2 && origin.Y >= y1 && origin.Y <= y2 {
			if d := Lerp(x1, x2, Unlerp(origin.Y, y1, y2)) - origin.X; d >= 0 {
				return d
			}
		}
		x1 = x2
	}
	return inf
}

// exitLeft is exitRight mirrored
func (t *Terrain) exitLeft(origin Vec) float64 {
	x2 := math.Ceil(origin.X/t.spacing) * t.spacing
	for x2 > 0 {
		x1 := x2 - t.spacing
		y1, y2 := t.HeightAt(x1), t.HeightAt(x2)
		if y1 != y2 && origin.Y <= y1 && origin.Y >= y2 {
			if d := origin.X - Lerp(x1, x2, Unlerp(origin.Y, y1, y2)); d >= 0 {
				return d
			}
		}
		x2 = x1
	}
	return inf
}

// BruteForceCast steps one unit at a time along dir until the terrain, or
// hit when given, reports a collision. Leaving the world yields +Inf.
func (t *Terrain) BruteForceCast(origin, dir Vec, hit func(Vec) bool) float64 {
	dir = dir.Normalize()
	if dir == (Vec{}) {
		return inf
	}
	for dist := 1.0; ; dist++ {
		p := origin.Add(dir.Scale(dist))
		if p.X < 0 || p.X > t.width || p.Y < 0 || p.Y > t.height {
			return inf
		}
		if t.IsSolid(p) || (hit != nil && hit(p)) {
			return dist
		}
	}
}

// SurfaceAt returns the tangent of the boundary a raycast reported, used to
// reflect bouncing bodies.
func (t *Terrain) SurfaceAt(p Vec, hit RayHit) Vec {
	if hit.Kind == HitHole && hit.Hole >= 0 && hit.Hole < len(t.holes) {
		return p.Sub(t.holes[hit.Hole].Center).Perpendicular()
	}
	if len(t.heights) < 2 {
		return V(t.spacing, 0)
	}
	j, _ := t.sample(p.X)
	return V(t.spacing, t.heights[j+1]-t.heights[j])
}

package game

import "math"

// Vec is a 2D vector in world units. Y grows downward.
type Vec struct {
	X float64
	Y float64
}

// V is shorthand for Vec{x, y}
func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

func (v Vec) Add(o Vec) Vec {
	return Vec{v.X + o.X, v.Y + o.Y}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{v.X - o.X, v.Y - o.Y}
}

func (v Vec) Scale(s float64) Vec {
	return Vec{v.X * s, v.Y * s}
}

func (v Vec) Dot(o Vec) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Magnitude returns the Euclidean length of v
func (v Vec) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns v scaled to unit length. The zero vector stays zero.
func (v Vec) Normalize() Vec {
	m := v.Magnitude()
	if m == 0 {
		return Vec{}
	}
	return Vec{v.X / m, v.Y / m}
}

// Perpendicular rotates v by a quarter turn: (x, y) -> (-y, x)
func (v Vec) Perpendicular() Vec {
	return Vec{-v.Y, v.X}
}

// Invert flips both components
func (v Vec) Invert() Vec {
	return Vec{-v.X, -v.Y}
}

// Reflect flips the component of v along n: v - 2(v·n̂)n̂
func (v Vec) Reflect(n Vec) Vec {
	nn := n.Normalize()
	d := v.Dot(nn)
	return Vec{v.X - 2*d*nn.X, v.Y - 2*d*nn.Y}
}

// LerpVec interpolates component-wise between a and b
func LerpVec(a, b Vec, t float64) Vec {
	return Vec{Lerp(a.X, b.X, t), Lerp(a.Y, b.Y, t)}
}

// Lerp interpolates linearly between a and b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Unlerp returns where v sits between a and b as a fraction
func Unlerp(v, a, b float64) float64 {
	if a == b {
		return 0
	}
	return (v - a) / (b - a)
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SqDist returns the squared distance between two points
func SqDist(a, b Vec) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Distance returns the distance between two points
func Distance(a, b Vec) float64 {
	return math.Sqrt(SqDist(a, b))
}

// AngleBetween returns the unsigned angle between two vectors in radians
func AngleBetween(a, b Vec) float64 {
	ma, mb := a.Magnitude(), b.Magnitude()
	if ma == 0 || mb == 0 {
		return 0
	}
	return math.Acos(Clamp(a.Dot(b)/(ma*mb), -1, 1))
}

package game

import "math"

// Noise is a seeded 1D gradient noise source used for terrain generation.
type Noise struct {
	gradients [256]float64
	perm      [512]uint8
}

// NewNoise builds the gradient and permutation tables from rng
func NewNoise(rng *Rand) *Noise {
	n := &Noise{}
	var p [256]uint8
	for i := range p {
		p[i] = uint8(i)
		n.gradients[i] = rng.Float64()*2 - 1
	}
	for i := len(p) - 1; i > 0; i-- {
		j := rng.Range(0, i+1)
		p[i], p[j] = p[j], p[i]
	}
	for i := range n.perm {
		n.perm[i] = p[i&255]
	}
	return n
}

func smoothstep(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// At samples raw noise at x. The result lies roughly in [-1, 1].
func (n *Noise) At(x float64) float64 {
	x0 := math.Floor(x)
	t := x - x0
	i := int(x0) & 255
	g0 := n.gradients[n.perm[i]]
	g1 := n.gradients[n.perm[i+1]]
	return 2 * Lerp(g0*t, g1*(t-1), smoothstep(t))
}

// Fractal sums octaves of noise at doubling frequency and geometric amplitude,
// normalized by the total amplitude.
func (n *Noise) Fractal(x float64, octaves int, scale, persistence float64) float64 {
	var sum, maxAmp float64
	amp := 1.0
	freq := scale
	for i := 0; i < octaves; i++ {
		sum += n.At((x+1000)*freq) * amp
		maxAmp += amp
		amp *= persistence
		freq *= 2
	}
	if maxAmp == 0 {
		return 0
	}
	return sum / maxAmp
}

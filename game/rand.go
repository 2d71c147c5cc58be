package game

// Rand is a splitmix32 generator. Both peers seed it identically for
// shared sequences such as gun spread.
type Rand struct {
	state uint32
}

// NewRand creates a generator with the given seed
func NewRand(seed uint32) *Rand {
	return &Rand{state: seed}
}

// Uint32 returns the next raw 32-bit value
func (r *Rand) Uint32() uint32 {
	r.state += 0x9e3779b9
	t := r.state ^ r.state>>16
	t *= 0x21f0aaad
	t ^= t >> 15
	t *= 0x735a2d97
	t ^= t >> 15
	return t
}

// Float64 returns a value in [0, 1)
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / 4294967296.0
}

// Range returns an integer in [min, max)
func (r *Rand) Range(min, max int) int {
	return int(float64(min) + r.Float64()*float64(max-min))
}

// Sign returns -1 or 1 with equal odds
func (r *Rand) Sign() int {
	if r.Float64() < 0.5 {
		return -1
	}
	return 1
}

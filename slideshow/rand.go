package slideshow

import "math/rand/v2"

// Rand is the random source used for slot and candidate selection.
type Rand interface {
	// Intn returns a value in [0, n). n is always positive.
	Intn(n int) int
}

type defaultRand struct{}

func (defaultRand) Intn(n int) int {
	return rand.IntN(n)
}

// NewRand returns a Rand backed by a seeded PCG generator.
func NewRand(seed uint64) Rand {
	return &pcgRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type pcgRand struct {
	r *rand.Rand
}

func (p *pcgRand) Intn(n int) int {
	return p.r.IntN(n)
}

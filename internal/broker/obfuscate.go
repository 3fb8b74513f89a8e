package broker

import "math/rand/v2"

const (
	obfuscationSpread   = 5
	smallCellSuppressed = 5
)

// Obfuscator perturbs a single-site count before it leaves the broker.
type Obfuscator interface {
	Obfuscate(n int) int
}

type randomObfuscator struct {
	intN func(n int) int
}

// NewRandomObfuscator adds a uniform offset in [-5, 5] and reports 0 for anything below 5.
// The randomness does not need to be cryptographically secure.
func NewRandomObfuscator() Obfuscator {
	return &randomObfuscator{intN: rand.IntN}
}

// NewObfuscatorWithSource is the same as NewRandomObfuscator with an injectable source; intN(n) must return [0, n).
func NewObfuscatorWithSource(intN func(n int) int) Obfuscator {
	return &randomObfuscator{intN: intN}
}

func (o *randomObfuscator) Obfuscate(n int) int {
	v := n + o.intN(2*obfuscationSpread+1) - obfuscationSpread
	if v < smallCellSuppressed {
		return 0
	}
	return v
}

type identity struct{}

// NoObfuscation returns counts unchanged.
func NoObfuscation() Obfuscator { return identity{} }

func (identity) Obfuscate(n int) int { return n }

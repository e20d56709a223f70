// Package random isolates the randomness behind cosmetic features.
package random

import (
	"math/rand"
	"time"
)

// Source draws integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// New returns a freshly seeded source. Not safe for concurrent use.
func New() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Between draws an integer in [lo, hi].
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Shuffle permutes n elements with Fisher-Yates using src.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		swap(i, j)
	}
}

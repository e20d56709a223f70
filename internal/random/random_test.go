package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixed []int

func (f *fixed) Intn(n int) int {
	v := (*f)[0]
	*f = (*f)[1:]
	return v % n
}

func TestBetween(t *testing.T) {
	src := &fixed{0, 13, 5}
	assert.Equal(t, 2, Between(src, 2, 15))
	assert.Equal(t, 15, Between(src, 2, 15))
	assert.Equal(t, 7, Between(src, 2, 15))
	assert.Equal(t, 4, Between(src, 4, 4))
}

func TestBetweenStaysInRange(t *testing.T) {
	src := New()
	for i := 0; i < 1000; i++ {
		v := Between(src, 1, 30)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 30)
	}
}

func TestShuffle(t *testing.T) {
	src := &fixed{0, 0}
	xs := []string{"a", "b", "c"}
	Shuffle(src, len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
	// i=2 swaps with 0, then i=1 swaps with 0
	assert.Equal(t, []string{"b", "c", "a"}, xs)
}

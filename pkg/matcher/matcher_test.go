package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/listdelta/pkg/matcher"
)

func TestConstantMatchers(t *testing.T) {
	t.Parallel()

	for _, v := range []*string{nil, new(string)} {
		assert.False(t, matcher.False[*string]().Matches(v))
		assert.True(t, matcher.True[*string]().Matches(v))
	}
}

func TestNotAndFunc(t *testing.T) {
	t.Parallel()

	even := matcher.Func[int](func(n int) bool { return n%2 == 0 })

	assert.True(t, even.Matches(4))
	assert.False(t, matcher.Not[int](even).Matches(4))
	assert.True(t, matcher.Not(matcher.False[int]()).Matches(0))
}

func TestEqualAndIn(t *testing.T) {
	t.Parallel()

	assert.True(t, matcher.Equal("a").Matches("a"))
	assert.False(t, matcher.Equal("a").Matches("b"))

	in := matcher.In("x", "", "y")
	assert.True(t, in.Matches(""))
	assert.True(t, in.Matches("y"))
	assert.False(t, in.Matches("z"))
}

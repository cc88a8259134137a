package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_OrElse(t *testing.T) {
	v, used := OK(1.5).OrElse(9)
	assert.Equal(t, 1.5, v)
	assert.False(t, used)

	v, used = Failed[float64](errors.New("down")).OrElse(9)
	assert.Equal(t, 9.0, v)
	assert.True(t, used)
}

func TestFinite(t *testing.T) {
	bad := errors.New("bad")

	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		l := finite(OK(x), bad)
		assert.ErrorIs(t, l.Err, bad)
	}

	l := finite(OK(0.4), bad)
	assert.NoError(t, l.Err)

	upstream := errors.New("upstream")
	l = finite(Failed[float64](upstream), bad)
	assert.ErrorIs(t, l.Err, upstream)
}

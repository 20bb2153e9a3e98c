package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainOrder(t *testing.T) {
	// translate to origin, rotate 90°, move to (100, 50)
	m := Chain(Translate(-10, 0), Rot(Deg2Rad(90)), Translate(100, 50))

	x, y := m.Apply(20, 0)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 60, y, 1e-9, "positive angles turn clockwise with y down")
}

func TestInverseRoundTrip(t *testing.T) {
	m := Chain(Scale(2, 3), Rot(0.7), Translate(5, -4))
	x, y := m.Apply(3, 4)
	ix, iy := m.Inverse().Apply(x, y)
	assert.InDelta(t, 3, ix, 1e-9)
	assert.InDelta(t, 4, iy, 1e-9)
}

func TestAff3(t *testing.T) {
	a := Translate(7, 9).Aff3()
	assert.Equal(t, 7.0, a[2])
	assert.Equal(t, 9.0, a[5])
}

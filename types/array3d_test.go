package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArray3DIndexing(t *testing.T) {
	a := NewArray3D[float64](3, 4, 5)
	assert.Equal(t, 60, a.Size())
	a.Set(2, 3, 4, 7.5)
	assert.Equal(t, 7.5, a.At(2, 3, 4))
	assert.Equal(t, 0., a.At(0, 0, 0))
}

func TestSliceIsIndependentlyOwned(t *testing.T) {
	a := NewArray3D[int](4, 4, 4)
	for n := range a.Data() {
		a.Data()[n] = n
	}
	s, err := a.Slice(1, 3, 1, 3, 1, 3)
	assert.NoError(t, err)
	assert.Equal(t, 2, s.NumI())
	assert.Equal(t, a.At(1, 1, 1), s.At(0, 0, 0))
	assert.Equal(t, a.At(2, 2, 2), s.At(1, 1, 1))

	// mutating the slice must not touch the source
	orig := a.At(1, 1, 1)
	s.Set(0, 0, 0, -999)
	assert.Equal(t, orig, a.At(1, 1, 1))
}

func TestSliceOutOfRange(t *testing.T) {
	a := NewArray3D[int](4, 4, 4)
	_, err := a.Slice(0, 5, 0, 4, 0, 4)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestInsertRoundTrip(t *testing.T) {
	a := NewArray3D[int](4, 4, 4)
	for n := range a.Data() {
		a.Data()[n] = n
	}
	s, err := a.Slice(0, 2, 0, 2, 0, 2)
	assert.NoError(t, err)
	b := NewArray3D[int](4, 4, 4)
	assert.NoError(t, b.Insert(2, 4, 2, 4, 2, 4, s))
	assert.Equal(t, a.At(1, 1, 1), b.At(3, 3, 3))
}

func TestInsertShapeMismatch(t *testing.T) {
	a := NewArray3D[int](4, 4, 4)
	s := NewArray3D[int](2, 2, 2)
	err := a.Insert(0, 3, 0, 2, 0, 2, s)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestGrowDuplicatesTerminalLayer(t *testing.T) {
	a := NewArray3D[int](2, 2, 2)
	a.Set(1, 0, 0, 42)
	a.Set(1, 1, 1, 43)
	g := a.Grow(DirI)
	assert.Equal(t, 3, g.NumI())
	assert.Equal(t, 2, g.NumJ())
	assert.Equal(t, 42, g.At(2, 0, 0))
	assert.Equal(t, 43, g.At(2, 1, 1))
}

func TestNewDirection(t *testing.T) {
	assert.Equal(t, DirJ, NewDirection("j"))
	assert.Panics(t, func() { NewDirection("q") })
}

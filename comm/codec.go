package comm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/notargets/mbcfd/fluid"
	"github.com/notargets/mbcfd/geom"
	"github.com/notargets/mbcfd/types"
)

/*
Buffer is the write side of the opaque halo codec. Records are packed
little-endian in a fixed producer-consumer order; the reader must unpack in
the same order. Integers travel as int32, floats as IEEE-754 doubles.
*/
type Buffer struct {
	data []byte
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Bytes() []byte { return b.data }
func (b *Buffer) Len() int      { return len(b.data) }

func (b *Buffer) PackInt(v int) {
	b.data = binary.LittleEndian.AppendUint32(b.data, uint32(int32(v)))
}

func (b *Buffer) PackInts(vs []int) {
	for _, v := range vs {
		b.PackInt(v)
	}
}

func (b *Buffer) PackBool(v bool) {
	var n int
	if v {
		n = 1
	}
	b.PackInt(n)
}

func (b *Buffer) PackFloat(v float64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, math.Float64bits(v))
}

func (b *Buffer) PackFloats(vs []float64) {
	for _, v := range vs {
		b.PackFloat(v)
	}
}

func (b *Buffer) PackVec3(v geom.Vec3) {
	for n := 0; n < 3; n++ {
		b.PackFloat(v[n])
	}
}

func (b *Buffer) PackVec3s(vs []geom.Vec3) {
	for _, v := range vs {
		b.PackVec3(v)
	}
}

// PackUnitVec3Mag packs the direction and magnitude as four doubles, the
// vec3d-with-magnitude wire type.
func (b *Buffer) PackUnitVec3Mag(v geom.UnitVec3Mag) {
	b.PackVec3(v.Unit)
	b.PackFloat(v.Mag)
}

func (b *Buffer) PackUnitVec3Mags(vs []geom.UnitVec3Mag) {
	for _, v := range vs {
		b.PackUnitVec3Mag(v)
	}
}

// PackPrimVars and PackConsVars are the fixed-arity cell record wire type.
func (b *Buffer) PackPrimVars(q fluid.PrimVars) {
	for n := 0; n < fluid.NumEquations; n++ {
		b.PackFloat(q[n])
	}
}

func (b *Buffer) PackPrimVarsSlice(qs []fluid.PrimVars) {
	for _, q := range qs {
		b.PackPrimVars(q)
	}
}

func (b *Buffer) PackConsVars(u fluid.ConsVars) {
	for n := 0; n < fluid.NumEquations; n++ {
		b.PackFloat(u[n])
	}
}

func (b *Buffer) PackConsVarsSlice(us []fluid.ConsVars) {
	for _, u := range us {
		b.PackConsVars(u)
	}
}

func (b *Buffer) PackString(s string) {
	b.data = append(b.data, s...)
}

// Reader is the read side of the codec. Every unpack checks the remaining
// length; a short buffer is a halo protocol violation.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Remaining() int { return len(r.data) - r.pos }

func (r *Reader) need(n int) (err error) {
	if r.Remaining() < n {
		err = fmt.Errorf("%w: buffer underrun, need %d bytes with %d remaining",
			types.ErrHaloProtocol, n, r.Remaining())
	}
	return
}

func (r *Reader) UnpackInt() (v int, err error) {
	if err = r.need(4); err != nil {
		return
	}
	v = int(int32(binary.LittleEndian.Uint32(r.data[r.pos:])))
	r.pos += 4
	return
}

func (r *Reader) UnpackInts(n int) (vs []int, err error) {
	vs = make([]int, n)
	for i := 0; i < n; i++ {
		if vs[i], err = r.UnpackInt(); err != nil {
			return
		}
	}
	return
}

func (r *Reader) UnpackBool() (v bool, err error) {
	var n int
	if n, err = r.UnpackInt(); err != nil {
		return
	}
	v = n != 0
	return
}

func (r *Reader) UnpackFloat() (v float64, err error) {
	if err = r.need(8); err != nil {
		return
	}
	v = math.Float64frombits(binary.LittleEndian.Uint64(r.data[r.pos:]))
	r.pos += 8
	return
}

func (r *Reader) UnpackFloats(n int) (vs []float64, err error) {
	vs = make([]float64, n)
	for i := 0; i < n; i++ {
		if vs[i], err = r.UnpackFloat(); err != nil {
			return
		}
	}
	return
}

func (r *Reader) UnpackVec3() (v geom.Vec3, err error) {
	for n := 0; n < 3; n++ {
		if v[n], err = r.UnpackFloat(); err != nil {
			return
		}
	}
	return
}

func (r *Reader) UnpackVec3s(n int) (vs []geom.Vec3, err error) {
	vs = make([]geom.Vec3, n)
	for i := 0; i < n; i++ {
		if vs[i], err = r.UnpackVec3(); err != nil {
			return
		}
	}
	return
}

func (r *Reader) UnpackUnitVec3Mag() (v geom.UnitVec3Mag, err error) {
	if v.Unit, err = r.UnpackVec3(); err != nil {
		return
	}
	v.Mag, err = r.UnpackFloat()
	return
}

func (r *Reader) UnpackUnitVec3Mags(n int) (vs []geom.UnitVec3Mag, err error) {
	vs = make([]geom.UnitVec3Mag, n)
	for i := 0; i < n; i++ {
		if vs[i], err = r.UnpackUnitVec3Mag(); err != nil {
			return
		}
	}
	return
}

func (r *Reader) UnpackPrimVars() (q fluid.PrimVars, err error) {
	for n := 0; n < fluid.NumEquations; n++ {
		if q[n], err = r.UnpackFloat(); err != nil {
			return
		}
	}
	return
}

func (r *Reader) UnpackPrimVarsSlice(n int) (qs []fluid.PrimVars, err error) {
	qs = make([]fluid.PrimVars, n)
	for i := 0; i < n; i++ {
		if qs[i], err = r.UnpackPrimVars(); err != nil {
			return
		}
	}
	return
}

func (r *Reader) UnpackConsVars() (u fluid.ConsVars, err error) {
	for n := 0; n < fluid.NumEquations; n++ {
		if u[n], err = r.UnpackFloat(); err != nil {
			return
		}
	}
	return
}

func (r *Reader) UnpackConsVarsSlice(n int) (us []fluid.ConsVars, err error) {
	us = make([]fluid.ConsVars, n)
	for i := 0; i < n; i++ {
		if us[i], err = r.UnpackConsVars(); err != nil {
			return
		}
	}
	return
}

func (r *Reader) UnpackString(n int) (s string, err error) {
	if err = r.need(n); err != nil {
		return
	}
	s = string(r.data[r.pos : r.pos+n])
	r.pos += n
	return
}

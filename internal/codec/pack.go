// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package codec

import (
	"fmt"

	"github.com/jrick/pqss/internal/matrix"
	"github.com/jrick/pqss/internal/zq"
)

// PackedSize returns the byte length of a packed rows x cols matrix with
// d-bit elements.
func PackedSize(rows, cols int, d uint) int {
	return (rows*cols*int(d) + 7) / 8
}

func checkPacked(rows, cols int, d uint, n int) {
	switch d {
	case 15:
		if rows*cols%8 != 0 {
			panic(fmt.Sprintf("codec: %d elements do not fill 15-byte groups", rows*cols))
		}
	case 16:
	default:
		panic(fmt.Sprintf("codec: unsupported D=%d", d))
	}
	if n != PackedSize(rows, cols, d) {
		panic(fmt.Sprintf("codec: packed buffer is %d bytes, need %d", n, PackedSize(rows, cols, d)))
	}
}

// Pack returns the packed encoding of m.
func Pack(m *matrix.Matrix) []byte {
	dst := make([]byte, PackedSize(m.Rows, m.Cols, m.Ring.D()))
	PackInto(dst, m)
	return dst
}

// PackInto writes the packed encoding of m to dst, which must be exactly
// PackedSize bytes.
func PackInto(dst []byte, m *matrix.Matrix) {
	d := m.Ring.D()
	checkPacked(m.Rows, m.Cols, d, len(dst))
	v := func(i int) uint16 { return m.Ring.Canonical(m.Elems[i]) }

	switch d {
	case 15:
		// Eight 15-bit values fill fifteen bytes.
		for i, o := 0, 0; i < len(m.Elems); i, o = i+8, o+15 {
			v0, v1, v2, v3 := v(i+0), v(i+1), v(i+2), v(i+3)
			v4, v5, v6, v7 := v(i+4), v(i+5), v(i+6), v(i+7)
			b := dst[o : o+15]
			b[0] = byte(v0 >> 7)
			b[1] = byte(v0<<1) | byte(v1>>14)
			b[2] = byte(v1 >> 6)
			b[3] = byte(v1<<2) | byte(v2>>13)
			b[4] = byte(v2 >> 5)
			b[5] = byte(v2<<3) | byte(v3>>12)
			b[6] = byte(v3 >> 4)
			b[7] = byte(v3<<4) | byte(v4>>11)
			b[8] = byte(v4 >> 3)
			b[9] = byte(v4<<5) | byte(v5>>10)
			b[10] = byte(v5 >> 2)
			b[11] = byte(v5<<6) | byte(v6>>9)
			b[12] = byte(v6 >> 1)
			b[13] = byte(v6<<7) | byte(v7>>8)
			b[14] = byte(v7)
		}
	case 16:
		for i := range m.Elems {
			x := v(i)
			dst[2*i+0] = byte(x >> 8)
			dst[2*i+1] = byte(x)
		}
	}
}

// Unpack parses a packed rows x cols matrix over ring.
func Unpack(ring zq.Ring, rows, cols int, src []byte) *matrix.Matrix {
	d := ring.D()
	checkPacked(rows, cols, d, len(src))
	m := matrix.New(ring, rows, cols)
	e := m.Elems
	w := func(x byte) uint32 { return uint32(x) }

	switch d {
	case 15:
		for i, o := 0, 0; i < len(e); i, o = i+8, o+15 {
			b := src[o : o+15]
			e[i+0] = ring.Reduce(w(b[0])<<7 | w(b[1])>>1)
			e[i+1] = ring.Reduce(w(b[1]&0x01)<<14 | w(b[2])<<6 | w(b[3])>>2)
			e[i+2] = ring.Reduce(w(b[3]&0x03)<<13 | w(b[4])<<5 | w(b[5])>>3)
			e[i+3] = ring.Reduce(w(b[5]&0x07)<<12 | w(b[6])<<4 | w(b[7])>>4)
			e[i+4] = ring.Reduce(w(b[7]&0x0f)<<11 | w(b[8])<<3 | w(b[9])>>5)
			e[i+5] = ring.Reduce(w(b[9]&0x1f)<<10 | w(b[10])<<2 | w(b[11])>>6)
			e[i+6] = ring.Reduce(w(b[11]&0x3f)<<9 | w(b[12])<<1 | w(b[13])>>7)
			e[i+7] = ring.Reduce(w(b[13]&0x7f)<<8 | w(b[14]))
		}
	case 16:
		for i := range e {
			e[i] = ring.Reduce(w(src[2*i])<<8 | w(src[2*i+1]))
		}
	}
	return m
}

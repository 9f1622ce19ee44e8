// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package zq

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var ringParams = []struct {
	d, b uint
}{
	{15, 2},
	{16, 3},
	{16, 4},
}

func TestEncodeDecode(t *testing.T) {
	for _, p := range ringParams {
		t.Run(fmt.Sprintf("D%d-B%d", p.d, p.b), func(t *testing.T) {
			r := NewRing(p.d)
			for k := uint16(0); k < 1<<p.b; k++ {
				e := r.Encode(p.b, k)
				require.Equal(t, uint16(k)<<(p.d-p.b), uint16(e))
				require.Equal(t, k, r.Decode(p.b, e))
			}
		})
	}
}

// Decoding tolerates any error in [-q/2^(B+1), q/2^(B+1)).
func TestDecodeRoundingTolerance(t *testing.T) {
	for _, p := range ringParams {
		t.Run(fmt.Sprintf("D%d-B%d", p.d, p.b), func(t *testing.T) {
			r := NewRing(p.d)
			bound := int32(r.Q() >> (p.b + 1))
			for k := uint16(0); k < 1<<p.b; k++ {
				v := r.Encode(p.b, k)
				for e := -bound; e < bound; e++ {
					u := r.Add(v, r.Reduce(uint32(e)))
					if got := r.Decode(p.b, u); got != k {
						t.Fatalf("dc(ec(%d)%+d) = %d", k, e, got)
					}
				}
			}
		})
	}
}

func TestArithmeticWraps(t *testing.T) {
	r := NewRing(15)
	require.Equal(t, Elem(0), r.Reduce(1<<15))
	require.Equal(t, Elem(5), r.Reduce(1<<15+5))
	require.Equal(t, Elem(1), r.Add(r.Reduce(1<<15-1), 2))
	require.Equal(t, Elem(1<<15-1), r.Sub(0, 1))
	require.Equal(t, Elem(0), r.Add(7, r.Neg(7)))
	require.Equal(t, Elem((3*(1<<14))&(1<<15-1)), r.Mul(3, 1<<14))

	r16 := NewRing(16)
	require.Equal(t, Elem(0xffff), r16.Sub(0, 1))
	require.Equal(t, Elem(0), r16.Mul(1<<8, 1<<8))
}

func TestCanonicalEquality(t *testing.T) {
	r := NewRing(15)
	a := r.Reduce(0x1234)
	b := r.Reduce(0x1234 + 1<<15)
	require.True(t, r.Equal(a, b))
	require.Equal(t, uint16(0xffff), r.CTEqual(a, b))
	require.Equal(t, uint16(0), r.CTEqual(a, r.Add(b, 1)))
}

func TestMaskPrimitives(t *testing.T) {
	values := []uint32{0, 1, 2, 0x7fff, 0x8000, 0xffff}
	for _, a := range values {
		for _, b := range values {
			eq := CTEq32(a, b)
			gt := CTGt32(a, b)
			if a == b {
				require.Equal(t, ^uint32(0), eq)
			} else {
				require.Zero(t, eq)
			}
			if a > b {
				require.Equal(t, ^uint32(0), gt)
			} else {
				require.Zero(t, gt)
			}
		}
	}
	require.Equal(t, byte(0xaa), CTSelect8(^uint32(0), 0xaa, 0x55))
	require.Equal(t, byte(0x55), CTSelect8(0, 0xaa, 0x55))
	require.Equal(t, uint16(0x1234), CTSelect16(^uint32(0), 0x1234, 0x4321))
	require.Equal(t, uint16(0x4321), CTSelect16(0, 0x1234, 0x4321))
}

func TestNewRingRejectsWideModulus(t *testing.T) {
	require.Panics(t, func() { NewRing(17) })
	require.Panics(t, func() { NewRing(0) })
}

func TestSigned(t *testing.T) {
	r := NewRing(15)
	require.Equal(t, uint16(0xffff), r.Signed(r.Neg(1)))
	require.Equal(t, uint16(0xfff6), r.Signed(r.Neg(10)))
	require.Equal(t, uint16(12), r.Signed(12))
	require.Equal(t, uint16(0x3fff), r.Signed(0x3fff))
	require.Equal(t, uint16(0xc000), r.Signed(0x4000))
	for _, v := range []uint16{0, 1, 0x3fff, 0x4000, 0x7fff} {
		require.Equal(t, Elem(v), r.Reduce(uint32(r.Signed(Elem(v)))))
	}

	r16 := NewRing(16)
	for _, v := range []uint16{0, 1, 0x7fff, 0x8000, 0xffff} {
		require.Equal(t, v, r16.Signed(Elem(v)))
	}
}

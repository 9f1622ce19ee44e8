// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package zq implements arithmetic over Z_q for q = 2^D, D <= 16.
//
// Elements are stored in 16 bits and always reduced to the low D bits.
// Every operation is branch-free over element values.
package zq

import "fmt"

// Elem is an element of Z_q.  Values produced by a Ring are canonical.
type Elem uint16

// Ring describes Z_q with q = 2^D.
type Ring struct {
	d    uint
	mask uint16
}

// NewRing returns the ring Z_(2^d).  It panics unless 1 <= d <= 16.
func NewRing(d uint) Ring {
	if d == 0 || d > 16 {
		panic(fmt.Sprintf("zq: unsupported modulus exponent %d", d))
	}
	return Ring{d: d, mask: uint16(uint32(1)<<d - 1)}
}

// D returns log2(q).
func (r Ring) D() uint { return r.d }

// Q returns the modulus.
func (r Ring) Q() uint32 { return 1 << r.d }

// Reduce maps any unsigned integer into Z_q.
func (r Ring) Reduce(v uint32) Elem {
	return Elem(uint16(v) & r.mask)
}

// Canonical returns the value of e masked to D bits.
func (r Ring) Canonical(e Elem) uint16 {
	return uint16(e) & r.mask
}

// Signed returns the 16-bit two's complement form of e read as a signed
// D-bit value, so small negative elements keep their high bits set.
func (r Ring) Signed(e Elem) uint16 {
	shift := 16 - r.d
	return uint16(int16(uint16(e)<<shift) >> shift)
}

func (r Ring) Add(a, b Elem) Elem {
	return Elem((uint16(a) + uint16(b)) & r.mask)
}

func (r Ring) Neg(a Elem) Elem {
	return Elem(-uint16(a) & r.mask)
}

func (r Ring) Sub(a, b Elem) Elem {
	return r.Add(a, r.Neg(b))
}

func (r Ring) Mul(a, b Elem) Elem {
	return Elem((uint16(a) * uint16(b)) & r.mask)
}

// Encode embeds the b-bit value k in the high bits of an element,
// returning k * q/2^b.
func (r Ring) Encode(b uint, k uint16) Elem {
	k &= uint16(1)<<b - 1
	return Elem((k << (r.d - b)) & r.mask)
}

// Decode extracts the b most significant bits of e with rounding to the
// nearest integer: round(e * 2^b / q) mod 2^b.
func (r Ring) Decode(b uint, e Elem) uint16 {
	t := uint32(r.Canonical(e))<<b + uint32(1)<<(r.d-1)
	return uint16((t >> r.d) & (uint32(1)<<b - 1))
}

// Equal reports whether a and b are the same element.  It is not
// constant time; use CTEqual for anything touching secrets.
func (r Ring) Equal(a, b Elem) bool {
	return r.Canonical(a) == r.Canonical(b)
}

// CTEqual returns 0xffff when a == b and 0 otherwise, in constant time.
func (r Ring) CTEqual(a, b Elem) uint16 {
	return uint16(CTEq32(uint32(r.Canonical(a)), uint32(r.Canonical(b))))
}

// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package zq

// Mask primitives.  Inputs must be below 2^31, which holds for every
// 16-bit ring value they are used with.

// CTEq32 returns 0xffffffff if a == b, or 0 otherwise.
func CTEq32(a, b uint32) uint32 {
	x := a ^ b
	// x|-x has the top bit set iff x != 0
	return ((x | -x) >> 31) - 1
}

// CTGt32 returns 0xffffffff if a > b, or 0 otherwise.
func CTGt32(a, b uint32) uint32 {
	return -((b - a) >> 31)
}

// CTSelect8 returns a when mask is all ones and b when mask is zero.
func CTSelect8(mask uint32, a, b byte) byte {
	m := byte(mask)
	return b ^ (m & (a ^ b))
}

// CTSelect16 returns a when mask is all ones and b when mask is zero.
func CTSelect16(mask uint32, a, b uint16) uint16 {
	m := uint16(mask)
	return b ^ (m & (a ^ b))
}

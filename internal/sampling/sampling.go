// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package sampling draws error terms from the discrete, zero-centered
// FrodoKEM error distributions by inversion of a cumulative table.
package sampling

import (
	"encoding/binary"
	"fmt"

	"github.com/jrick/pqss/internal/matrix"
	"github.com/jrick/pqss/internal/zq"
)

// Table is a zero-centered CDF T_chi.  It is immutable once built.
type Table struct {
	cdf []uint16
}

// Relative frequencies of the non-negative half of each distribution.
var (
	chi640  = []uint16{9288, 8720, 7216, 5264, 3384, 1918, 958, 422, 164, 56, 17, 4, 1}
	chi976  = []uint16{11278, 10277, 7774, 4882, 2545, 1101, 396, 118, 29, 6, 1}
	chi1344 = []uint16{18286, 14320, 6876, 2023, 364, 40, 2}
)

// Tables for the three FrodoKEM security levels.
var (
	Frodo640  = NewTable(chi640)
	Frodo976  = NewTable(chi976)
	Frodo1344 = NewTable(chi1344)
)

// NewTable accumulates chi into a CDF:
// T[0] = chi[0]/2 - 1, T[z] = T[0] + chi[1] + ... + chi[z].
func NewTable(chi []uint16) *Table {
	if len(chi) == 0 {
		panic("sampling: empty distribution")
	}
	cdf := make([]uint16, len(chi))
	cdf[0] = chi[0]/2 - 1
	for z := 1; z < len(chi); z++ {
		cdf[z] = cdf[z-1] + chi[z]
	}
	if cdf[len(cdf)-1] != 1<<15-1 {
		panic(fmt.Sprintf("sampling: distribution sums to %d", cdf[len(cdf)-1]))
	}
	return &Table{cdf: cdf}
}

// CDF returns a copy of the cumulative table.
func (t *Table) CDF() []uint16 {
	return append([]uint16(nil), t.cdf...)
}

// Sample maps 16 random bits to an error term.  The top 15 bits select
// the magnitude, counting every table entry they exceed with no early
// exit, and the low bit selects the sign.
func (t *Table) Sample(ring zq.Ring, r uint16) zq.Elem {
	u := uint32(r >> 1)
	var e uint16
	for z := 0; z < len(t.cdf)-1; z++ {
		e += uint16(zq.CTGt32(u, uint32(t.cdf[z])) & 1)
	}
	s := r & 1
	return ring.Reduce(uint32((-s ^ e) + s))
}

// SampleMatrix draws a rows x cols error matrix from r, consuming one
// little-endian 16-bit word per element.
func (t *Table) SampleMatrix(ring zq.Ring, rows, cols int, r []byte) *matrix.Matrix {
	if len(r) != 2*rows*cols {
		panic(fmt.Sprintf("sampling: %d random bytes for %dx%d matrix", len(r), rows, cols))
	}
	m := matrix.New(ring, rows, cols)
	for i := range m.Elems {
		m.Elems[i] = t.Sample(ring, binary.LittleEndian.Uint16(r[2*i:]))
	}
	return m
}

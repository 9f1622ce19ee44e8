// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package matrix implements fixed-dimension matrices over Z_q.
package matrix

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/jrick/pqss/internal/zq"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"
)

// Matrix is a rows x cols matrix over Z_q stored in row-major order.
type Matrix struct {
	Rows, Cols int
	Ring       zq.Ring
	Elems      []zq.Elem
}

// New returns a zero matrix.
func New(ring zq.Ring, rows, cols int) *Matrix {
	return &Matrix{
		Rows:  rows,
		Cols:  cols,
		Ring:  ring,
		Elems: make([]zq.Elem, rows*cols),
	}
}

func (m *Matrix) At(i, j int) zq.Elem {
	return m.Elems[i*m.Cols+j]
}

func (m *Matrix) Set(i, j int, e zq.Elem) {
	m.Elems[i*m.Cols+j] = m.Ring.Reduce(uint32(e))
}

func (m *Matrix) sameShape(rhs *Matrix, op string) {
	if m.Rows != rhs.Rows || m.Cols != rhs.Cols || m.Ring != rhs.Ring {
		panic(fmt.Sprintf("matrix: %s of %dx%d and %dx%d", op,
			m.Rows, m.Cols, rhs.Rows, rhs.Cols))
	}
}

// Transpose returns a cols x rows copy of m.
func (m *Matrix) Transpose() *Matrix {
	t := New(m.Ring, m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			t.Elems[j*t.Cols+i] = m.Elems[i*m.Cols+j]
		}
	}
	return t
}

// Add returns m + rhs.
func (m *Matrix) Add(rhs *Matrix) *Matrix {
	m.sameShape(rhs, "add")
	res := New(m.Ring, m.Rows, m.Cols)
	for i := range res.Elems {
		res.Elems[i] = m.Ring.Add(m.Elems[i], rhs.Elems[i])
	}
	return res
}

// Sub returns m - rhs.
func (m *Matrix) Sub(rhs *Matrix) *Matrix {
	m.sameShape(rhs, "sub")
	res := New(m.Ring, m.Rows, m.Cols)
	for i := range res.Elems {
		res.Elems[i] = m.Ring.Sub(m.Elems[i], rhs.Elems[i])
	}
	return res
}

// Mul returns the m.Rows x rhs.Cols product m * rhs.  The inner
// dimensions must agree.
func (m *Matrix) Mul(rhs *Matrix) *Matrix {
	if m.Cols != rhs.Rows || m.Ring != rhs.Ring {
		panic(fmt.Sprintf("matrix: mul of %dx%d and %dx%d",
			m.Rows, m.Cols, rhs.Rows, rhs.Cols))
	}
	res := New(m.Ring, m.Rows, rhs.Cols)
	for i := 0; i < m.Rows; i++ {
		lrow := m.Elems[i*m.Cols : (i+1)*m.Cols]
		out := res.Elems[i*res.Cols : (i+1)*res.Cols]
		for k, a := range lrow {
			rrow := rhs.Elems[k*rhs.Cols : (k+1)*rhs.Cols]
			for j, b := range rrow {
				// Accumulate mod 2^16; q divides 2^16.
				out[j] += a * b
			}
		}
		for j := range out {
			out[j] = m.Ring.Reduce(uint32(out[j]))
		}
	}
	return res
}

// Equal reports whether m and rhs hold the same elements.  It exits on
// the first difference and must only be used on public data.
func (m *Matrix) Equal(rhs *Matrix) bool {
	if m.Rows != rhs.Rows || m.Cols != rhs.Cols || m.Ring != rhs.Ring {
		return false
	}
	for i := range m.Elems {
		if !m.Ring.Equal(m.Elems[i], rhs.Elems[i]) {
			return false
		}
	}
	return true
}

// CTEqual returns 0xffffffff when every element of m equals the element
// of rhs at the same position, and 0 otherwise.  Every element is
// visited regardless of earlier mismatches.
func (m *Matrix) CTEqual(rhs *Matrix) uint32 {
	m.sameShape(rhs, "compare")
	mask := ^uint32(0)
	for i := range m.Elems {
		mask &= zq.CTEq32(uint32(m.Ring.Canonical(m.Elems[i])),
			uint32(m.Ring.Canonical(rhs.Elems[i])))
	}
	return mask
}

// Clear zeroes every element.
func (m *Matrix) Clear() {
	clear(m.Elems)
}

// LESize returns the length of the raw little-endian encoding of m.
func (m *Matrix) LESize() int {
	return 2 * len(m.Elems)
}

// WriteLE writes every element as a 2-byte little-endian word into dst.
// Elements are sign-extended from D bits.
func (m *Matrix) WriteLE(dst []byte) {
	if len(dst) != m.LESize() {
		panic(fmt.Sprintf("matrix: LE buffer is %d bytes, need %d", len(dst), m.LESize()))
	}
	for i, e := range m.Elems {
		binary.LittleEndian.PutUint16(dst[2*i:], m.Ring.Signed(e))
	}
}

// ReadLE parses a rows x cols matrix written by WriteLE.
func ReadLE(ring zq.Ring, rows, cols int, src []byte) *Matrix {
	m := New(ring, rows, cols)
	if len(src) != m.LESize() {
		panic(fmt.Sprintf("matrix: LE buffer is %d bytes, need %d", len(src), m.LESize()))
	}
	for i := range m.Elems {
		m.Elems[i] = ring.Reduce(uint32(binary.LittleEndian.Uint16(src[2*i:])))
	}
	return m
}

// Generate expands seedA into the public n x n matrix A.  Row i is the
// SHAKE128 output of LE16(i) || seedA, read as 2n little-endian words.
//
// A is public, so rows are expanded concurrently.
func Generate(ring zq.Ring, n int, seedA []byte) *Matrix {
	a := New(ring, n, n)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	workers := runtime.GOMAXPROCS(0)
	per := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += per {
		hi := min(lo+per, n)
		g.Go(func() error {
			return generateRows(a, seedA, lo, hi)
		})
	}
	if err := g.Wait(); err != nil {
		panic(fmt.Sprintf("matrix: expand A: %v", err))
	}
	return a
}

func generateRows(a *Matrix, seedA []byte, lo, hi int) error {
	in := make([]byte, 2+len(seedA))
	copy(in[2:], seedA)
	buf := make([]byte, 2*a.Cols)
	for i := lo; i < hi; i++ {
		binary.LittleEndian.PutUint16(in, uint16(i))
		h := sha3.NewShake128()
		if _, err := h.Write(in); err != nil {
			return err
		}
		if _, err := h.Read(buf); err != nil {
			return err
		}
		row := a.Elems[i*a.Cols : (i+1)*a.Cols]
		for j := range row {
			row[j] = a.Ring.Reduce(uint32(binary.LittleEndian.Uint16(buf[2*j:])))
		}
	}
	return nil
}

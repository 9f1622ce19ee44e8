// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package pke implements FrodoPKE, the LWE public-key encryption scheme
// underlying FrodoKEM.
//
// Functions in this package panic on buffers of the wrong length;
// callers validate lengths first.
package pke

import (
	"fmt"

	"github.com/jrick/pqss/internal/codec"
	"github.com/jrick/pqss/internal/matrix"
	"github.com/jrick/pqss/internal/params"
)

// Domain separators prefixed to seedSE before expansion.
const (
	keyGenDomain  = 0x5f
	encryptDomain = 0x96
)

func checkLen(what string, b []byte, n int) {
	if len(b) != n {
		panic(fmt.Sprintf("pke: %s is %d bytes, need %d", what, len(b), n))
	}
}

// expand returns XOF(domain || seedSE) squeezed to n bytes.
func expand(p *params.Params, domain byte, seedSE []byte, n int) []byte {
	checkLen("seedSE", seedSE, p.SeedSESize())
	out := make([]byte, n)
	p.XOF.Sum(out, []byte{domain}, seedSE)
	return out
}

// KeyMatrices derives B = A*S + E and returns it with S^T.
func KeyMatrices(p *params.Params, seedA, seedSE []byte) (b, st *matrix.Matrix) {
	checkLen("seedA", seedA, p.SeedASize())
	a := matrix.Generate(p.Ring, p.N, seedA)

	half := 2 * p.N * p.NBar
	r := expand(p, keyGenDomain, seedSE, 2*half)
	defer clear(r)
	st = p.Errors.SampleMatrix(p.Ring, p.NBar, p.N, r[:half])
	e := p.Errors.SampleMatrix(p.Ring, p.N, p.NBar, r[half:])
	defer e.Clear()

	s := st.Transpose()
	defer s.Clear()
	b = a.Mul(s).Add(e)
	return b, st
}

// EncryptMatrices computes B' = S'*A + E' and C = S'*B + E'' + Encode(msg)
// with S', E', E'' drawn from seedSE.
func EncryptMatrices(p *params.Params, seedA []byte, b *matrix.Matrix, seedSE, msg []byte) (bp, c *matrix.Matrix) {
	checkLen("seedA", seedA, p.SeedASize())
	checkLen("message", msg, p.MessageSize())

	nn := 2 * p.N * p.NBar
	r := expand(p, encryptDomain, seedSE, 2*nn+2*p.NBar*p.NBar)
	defer clear(r)
	sp := p.Errors.SampleMatrix(p.Ring, p.NBar, p.N, r[:nn])
	defer sp.Clear()
	ep := p.Errors.SampleMatrix(p.Ring, p.NBar, p.N, r[nn:2*nn])
	defer ep.Clear()
	epp := p.Errors.SampleMatrix(p.Ring, p.NBar, p.NBar, r[2*nn:])
	defer epp.Clear()

	a := matrix.Generate(p.Ring, p.N, seedA)
	bp = sp.Mul(a).Add(ep)

	v := sp.Mul(b).Add(epp)
	defer v.Clear()
	c = v.Add(codec.Encode(p.Ring, p.B, p.NBar, p.NBar, msg))
	return bp, c
}

// DecryptMatrices recovers the message from C - B'*S.
func DecryptMatrices(p *params.Params, st, bp, c *matrix.Matrix) []byte {
	s := st.Transpose()
	defer s.Clear()
	m := c.Sub(bp.Mul(s))
	defer m.Clear()
	return codec.Decode(m, p.B)
}

// UnpackB parses the matrix B from the tail of a public key.
func UnpackB(p *params.Params, pk []byte) *matrix.Matrix {
	checkLen("public key", pk, p.PublicKeySize())
	return codec.Unpack(p.Ring, p.N, p.NBar, pk[p.SeedASize():])
}

// PackCiphertext writes pack(B') || pack(C) into dst.
func PackCiphertext(p *params.Params, dst []byte, bp, c *matrix.Matrix) {
	checkLen("ciphertext", dst, p.PKECiphertextSize())
	codec.PackInto(dst[:p.PackedBSize()], bp)
	codec.PackInto(dst[p.PackedBSize():], c)
}

// UnpackCiphertext parses B' and C from the first PKECiphertextSize
// bytes of ct.
func UnpackCiphertext(p *params.Params, ct []byte) (bp, c *matrix.Matrix) {
	checkLen("ciphertext", ct, p.PKECiphertextSize())
	bp = codec.Unpack(p.Ring, p.NBar, p.N, ct[:p.PackedBSize()])
	c = codec.Unpack(p.Ring, p.NBar, p.NBar, ct[p.PackedBSize():])
	return bp, c
}

// KeyGen returns a FrodoPKE key pair: pk = seedA || pack(B) and
// sk = pack(S^T).
func KeyGen(p *params.Params, seedA, seedSE []byte) (pk, sk []byte) {
	b, st := KeyMatrices(p, seedA, seedSE)
	defer st.Clear()
	pk = make([]byte, p.PublicKeySize())
	copy(pk, seedA)
	codec.PackInto(pk[p.SeedASize():], b)
	return pk, codec.Pack(st)
}

// Encrypt encrypts msg to pk using randomness expanded from seedSE.
func Encrypt(p *params.Params, seedSE, pk, msg []byte) []byte {
	b := UnpackB(p, pk)
	bp, c := EncryptMatrices(p, pk[:p.SeedASize()], b, seedSE, msg)
	ct := make([]byte, p.PKECiphertextSize())
	PackCiphertext(p, ct, bp, c)
	return ct
}

// Decrypt recovers the message of ct.  Every well-sized ciphertext
// decrypts to some message.
func Decrypt(p *params.Params, sk, ct []byte) []byte {
	checkLen("secret key", sk, p.PKESecretKeySize())
	st := codec.Unpack(p.Ring, p.NBar, p.N, sk)
	defer st.Clear()
	bp, c := UnpackCiphertext(p, ct)
	return DecryptMatrices(p, st, bp, c)
}

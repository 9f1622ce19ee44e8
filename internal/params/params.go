// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package params defines the fixed FrodoKEM parameter sets.
package params

import (
	"github.com/jrick/pqss/internal/codec"
	"github.com/jrick/pqss/internal/sampling"
	"github.com/jrick/pqss/internal/xof"
	"github.com/jrick/pqss/internal/zq"
	"github.com/pkg/errors"
)

// Params describes one FrodoKEM instantiation.  Bit lengths are in bits,
// matching the published tables; the size methods return bytes.
type Params struct {
	Name    string
	N       int // LWE dimension n
	NBar    int // n̄, columns of B and rows of B'
	D       uint
	B       uint // bits encoded per element of the message matrix
	LenA    int  // seedA and z
	LenSec  int  // s, mu, k, pkh and the shared secret
	LenSE   int  // seedSE
	LenSalt int
	XOF     xof.Kind
	Errors  *sampling.Table
	Ring    zq.Ring
}

// The six supported parameter sets.
var (
	Frodo640 = mustValidate(&Params{
		Name: "FrodoKEM-640-SHAKE", N: 640, NBar: 8, D: 15, B: 2,
		LenA: 128, LenSec: 128, LenSE: 256, LenSalt: 256,
		XOF: xof.SHAKE128, Errors: sampling.Frodo640,
	})
	Frodo976 = mustValidate(&Params{
		Name: "FrodoKEM-976-SHAKE", N: 976, NBar: 8, D: 16, B: 3,
		LenA: 128, LenSec: 192, LenSE: 384, LenSalt: 384,
		XOF: xof.SHAKE256, Errors: sampling.Frodo976,
	})
	Frodo1344 = mustValidate(&Params{
		Name: "FrodoKEM-1344-SHAKE", N: 1344, NBar: 8, D: 16, B: 4,
		LenA: 128, LenSec: 256, LenSE: 512, LenSalt: 512,
		XOF: xof.SHAKE256, Errors: sampling.Frodo1344,
	})
	EFrodo640 = mustValidate(&Params{
		Name: "eFrodoKEM-640-SHAKE", N: 640, NBar: 8, D: 15, B: 2,
		LenA: 128, LenSec: 128, LenSE: 128, LenSalt: 0,
		XOF: xof.SHAKE128, Errors: sampling.Frodo640,
	})
	EFrodo976 = mustValidate(&Params{
		Name: "eFrodoKEM-976-SHAKE", N: 976, NBar: 8, D: 16, B: 3,
		LenA: 128, LenSec: 192, LenSE: 192, LenSalt: 0,
		XOF: xof.SHAKE256, Errors: sampling.Frodo976,
	})
	EFrodo1344 = mustValidate(&Params{
		Name: "eFrodoKEM-1344-SHAKE", N: 1344, NBar: 8, D: 16, B: 4,
		LenA: 128, LenSec: 256, LenSE: 256, LenSalt: 0,
		XOF: xof.SHAKE256, Errors: sampling.Frodo1344,
	})
)

// All lists every parameter set, salted variants first.
var All = []*Params{Frodo640, Frodo976, Frodo1344, EFrodo640, EFrodo976, EFrodo1344}

func mustValidate(p *Params) *Params {
	if err := p.validate(); err != nil {
		panic(err)
	}
	p.Ring = zq.NewRing(p.D)
	return p
}

func (p *Params) validate() error {
	switch {
	case p.D != 15 && p.D != 16:
		return errors.Errorf("params: %s: unsupported D=%d", p.Name, p.D)
	case p.B < 2 || p.B > 4:
		return errors.Errorf("params: %s: unsupported B=%d", p.Name, p.B)
	case int(p.B)*p.NBar*p.NBar != p.LenSec:
		return errors.Errorf("params: %s: message matrix carries %d bits, need %d",
			p.Name, int(p.B)*p.NBar*p.NBar, p.LenSec)
	case p.N*p.NBar%8 != 0:
		return errors.Errorf("params: %s: n*n̄ not a multiple of 8", p.Name)
	case p.LenA%8 != 0 || p.LenSec%8 != 0 || p.LenSE%8 != 0 || p.LenSalt%8 != 0:
		return errors.Errorf("params: %s: lengths must be whole bytes", p.Name)
	case p.Errors == nil:
		return errors.Errorf("params: %s: missing error distribution", p.Name)
	}
	return nil
}

func (p *Params) String() string { return p.Name }

// Salted reports whether ciphertexts carry a salt.
func (p *Params) Salted() bool { return p.LenSalt != 0 }

func (p *Params) SeedASize() int  { return p.LenA / 8 }
func (p *Params) ZSize() int      { return p.LenA / 8 }
func (p *Params) SSize() int      { return p.LenSec / 8 }
func (p *Params) SeedSESize() int { return p.LenSE / 8 }
func (p *Params) SaltSize() int   { return p.LenSalt / 8 }
func (p *Params) MessageSize() int {
	return codec.MessageSize(p.NBar, p.NBar, p.B)
}
func (p *Params) SharedSecretSize() int { return p.LenSec / 8 }
func (p *Params) PKHSize() int          { return p.LenSec / 8 }

// PackedBSize is the packed size of B (n x n̄) and of B' (n̄ x n).
func (p *Params) PackedBSize() int { return codec.PackedSize(p.N, p.NBar, p.D) }

// PackedCSize is the packed size of C (n̄ x n̄).
func (p *Params) PackedCSize() int { return codec.PackedSize(p.NBar, p.NBar, p.D) }

// STSize is the raw little-endian size of S^T in the KEM secret key.
func (p *Params) STSize() int { return 2 * p.NBar * p.N }

func (p *Params) PublicKeySize() int { return p.SeedASize() + p.PackedBSize() }

func (p *Params) SecretKeySize() int {
	return p.SSize() + p.PublicKeySize() + p.STSize() + p.PKHSize()
}

func (p *Params) CiphertextSize() int {
	return p.PKECiphertextSize() + p.SaltSize()
}

// PKESecretKeySize is the size of the packed S^T of a bare PKE key.
func (p *Params) PKESecretKeySize() int { return p.PackedBSize() }

func (p *Params) PKECiphertextSize() int { return p.PackedBSize() + p.PackedCSize() }

// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package frodokem implements the FrodoKEM key-encapsulation mechanism
// and its underlying FrodoPKE scheme for the six standard SHAKE
// parameter sets.
//
// The KeyGen, Encaps and Decaps methods are deterministic functions of
// their inputs, suitable for known-answer testing.  GenerateKeyPair and
// Encapsulate draw the required randomness from an io.Reader.
//
// Decaps never reports an invalid ciphertext.  A ciphertext that is not
// the honest encapsulation of its recovered message yields a
// pseudorandom shared secret derived from the secret key.
package frodokem

import (
	"strings"

	"github.com/jrick/pqss/internal/params"
	"github.com/pkg/errors"
)

// Scheme is one FrodoKEM parameter set.
type Scheme struct {
	p *params.Params
}

// Parameter sets.  The e-prefixed ephemeral variants omit the salt and
// use a shorter seedSE; they are intended for keys used only a few times.
var (
	FrodoKEM640   = &Scheme{params.Frodo640}
	FrodoKEM976   = &Scheme{params.Frodo976}
	FrodoKEM1344  = &Scheme{params.Frodo1344}
	EFrodoKEM640  = &Scheme{params.EFrodo640}
	EFrodoKEM976  = &Scheme{params.EFrodo976}
	EFrodoKEM1344 = &Scheme{params.EFrodo1344}
)

var schemes = []*Scheme{
	FrodoKEM640, FrodoKEM976, FrodoKEM1344,
	EFrodoKEM640, EFrodoKEM976, EFrodoKEM1344,
}

// Schemes returns every supported parameter set.
func Schemes() []*Scheme {
	return append([]*Scheme(nil), schemes...)
}

// ByName returns the scheme with the given name, compared without
// regard to case.
func ByName(name string) (*Scheme, error) {
	for _, s := range schemes {
		if strings.EqualFold(s.p.Name, name) {
			return s, nil
		}
	}
	return nil, errors.Errorf("frodokem: unknown parameter set %q", name)
}

// Name returns the published name, e.g. "FrodoKEM-640-SHAKE".
func (s *Scheme) Name() string { return s.p.Name }

func (s *Scheme) String() string { return s.p.Name }

// Salted reports whether ciphertexts carry a salt.
func (s *Scheme) Salted() bool { return s.p.Salted() }

func (s *Scheme) PublicKeySize() int    { return s.p.PublicKeySize() }
func (s *Scheme) SecretKeySize() int    { return s.p.SecretKeySize() }
func (s *Scheme) CiphertextSize() int   { return s.p.CiphertextSize() }
func (s *Scheme) SharedSecretSize() int { return s.p.SharedSecretSize() }

// SSize is the length of the rejection secret s given to KeyGen.
func (s *Scheme) SSize() int { return s.p.SSize() }

// SeedSESize is the length of the seedSE input to KeyGen.
func (s *Scheme) SeedSESize() int { return s.p.SeedSESize() }

// ZSize is the length of the z input to KeyGen.
func (s *Scheme) ZSize() int { return s.p.ZSize() }

// MessageSize is the length of mu given to Encaps.
func (s *Scheme) MessageSize() int { return s.p.MessageSize() }

// SaltSize is the length of the salt given to Encaps, zero for the
// ephemeral variants.
func (s *Scheme) SaltSize() int { return s.p.SaltSize() }

func (s *Scheme) checkLen(what string, b []byte, n int) error {
	if len(b) != n {
		return errors.Errorf("%s: invalid %s length %d, want %d", s.p.Name, what, len(b), n)
	}
	return nil
}

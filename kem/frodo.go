// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package kem

import (
	"strings"

	"github.com/jrick/pqss/frodokem"
)

// frodoComponent derives the FrodoKEM key generation inputs s, seedSE
// and z from the seed with KMAC256.
type frodoComponent struct {
	scheme *frodokem.Scheme
	id     string
}

var frodoComponents = func() []frodoComponent {
	schemes := frodokem.Schemes()
	cs := make([]frodoComponent, len(schemes))
	for i, s := range schemes {
		cs[i] = frodoComponent{scheme: s, id: strings.ToLower(s.Name())}
	}
	return cs
}()

func (c frodoComponent) name() string        { return c.id }
func (c frodoComponent) publicKeySize() int  { return c.scheme.PublicKeySize() }
func (c frodoComponent) privateKeySize() int { return c.scheme.SecretKeySize() }
func (c frodoComponent) ciphertextSize() int { return c.scheme.CiphertextSize() }

func (c frodoComponent) subkey(seed []byte, label string, n int) []byte {
	return kmac256KDF(seed, []byte("pqss "+c.id+" "+label), n)
}

func (c frodoComponent) generate(seed []byte) (pub, priv []byte, err error) {
	s := c.subkey(seed, "s", c.scheme.SSize())
	defer clear(s)
	seedSE := c.subkey(seed, "seedSE", c.scheme.SeedSESize())
	defer clear(seedSE)
	z := c.subkey(seed, "z", c.scheme.ZSize())
	return c.scheme.KeyGen(s, seedSE, z)
}

func (c frodoComponent) encap(pub []byte) (ct, secret []byte, err error) {
	return c.scheme.Encapsulate(nil, pub)
}

func (c frodoComponent) decap(priv, ct []byte) ([]byte, error) {
	return c.scheme.Decaps(priv, ct)
}

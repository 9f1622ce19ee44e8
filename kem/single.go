// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package kem

import (
	"github.com/pkg/errors"
)

// component is one algorithm that can be used alone or as half of a
// hybrid KEM.  Shared secrets returned by a component are raw and are
// expanded or combined by the KEM wrapping it.
type component interface {
	name() string
	publicKeySize() int
	privateKeySize() int
	ciphertextSize() int

	// generate deterministically derives a key pair from a SeedSize seed.
	generate(seed []byte) (pub, priv []byte, err error)
	encap(pub []byte) (ct, secret []byte, err error)
	decap(priv, ct []byte) (secret []byte, err error)
}

// single is a KEM backed by one component.
type single struct {
	c component
}

func newSingle(c component) KEM { return single{c} }

func (k single) String() string      { return k.c.name() }
func (k single) PublicKeySize() int  { return k.c.publicKeySize() }
func (k single) CiphertextSize() int { return k.c.ciphertextSize() }

func (k single) GenerateKey(seed []byte) (pubkey []byte, err error) {
	if len(seed) != SeedSize {
		return nil, errors.Errorf("%s: invalid seed length %d", k, len(seed))
	}
	pub, priv, err := k.c.generate(seed)
	clear(priv)
	return pub, err
}

func (k single) Encapsulate(pubkey []byte) (ciphertext, sharedKey []byte, err error) {
	if len(pubkey) != k.c.publicKeySize() {
		return nil, nil, errors.Errorf("%s: invalid pubkey length %d", k, len(pubkey))
	}
	ct, secret, err := k.c.encap(pubkey)
	if err != nil {
		return nil, nil, err
	}
	defer clear(secret)
	return ct, expandKey(k.String(), secret), nil
}

func (k single) Decapsulate(seed, ciphertext []byte) (sharedKey []byte, err error) {
	var priv []byte
	switch len(seed) {
	case SeedSize:
		_, priv, err = k.c.generate(seed)
		if err != nil {
			return nil, err
		}
		defer clear(priv)
	case k.c.privateKeySize():
		priv = seed
	default:
		return nil, errors.Errorf("%s: invalid privkey length %d", k, len(seed))
	}
	if len(ciphertext) != k.c.ciphertextSize() {
		return nil, errors.Errorf("%s: invalid ciphertext length %d", k, len(ciphertext))
	}

	secret, err := k.c.decap(priv, ciphertext)
	if err != nil {
		return nil, err
	}
	defer clear(secret)
	return expandKey(k.String(), secret), nil
}

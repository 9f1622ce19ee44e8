// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package kem

import (
	"crypto/rand"

	"github.com/companyzero/sntrup4591761"
	"github.com/pkg/errors"
)

type sntrupComponent struct{}

func (sntrupComponent) name() string        { return "sntrup4591761" }
func (sntrupComponent) publicKeySize() int  { return sntrup4591761.PublicKeySize }
func (sntrupComponent) privateKeySize() int { return sntrup4591761.PrivateKeySize }
func (sntrupComponent) ciphertextSize() int { return sntrup4591761.CiphertextSize }

func (sntrupComponent) generate(seed []byte) (pub, priv []byte, err error) {
	csprng := cshake256CSPRNG(seed, []byte("pqss sntrup4591761 csprng"))
	pk, sk, err := sntrup4591761.GenerateKey(csprng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sntrup4591761: generate")
	}
	return pk[:], sk[:], nil
}

func (sntrupComponent) encap(pub []byte) (ct, secret []byte, err error) {
	c, k, err := sntrup4591761.Encapsulate(rand.Reader, (*[sntrup4591761.PublicKeySize]byte)(pub))
	if err != nil {
		return nil, nil, errors.Wrap(err, "sntrup4591761: encapsulate")
	}
	return c[:], k[:], nil
}

func (sntrupComponent) decap(priv, ct []byte) ([]byte, error) {
	k, ok := sntrup4591761.Decapsulate((*[sntrup4591761.CiphertextSize]byte)(ct),
		(*[sntrup4591761.PrivateKeySize]byte)(priv))
	if ok != 1 {
		return nil, errors.New("sntrup4591761: decapsulate failure")
	}
	return k[:], nil
}

// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package kem

import (
	"crypto/ecdh"
	"crypto/rand"

	"github.com/pkg/errors"
)

const x25519KeySize = 32

// x25519Component is a non-interactive Diffie-Hellman KEM: the
// ciphertext is an ephemeral public key.
type x25519Component struct{}

func (x25519Component) name() string        { return "x25519" }
func (x25519Component) publicKeySize() int  { return x25519KeySize }
func (x25519Component) privateKeySize() int { return x25519KeySize }
func (x25519Component) ciphertextSize() int { return x25519KeySize }

func (x25519Component) generate(seed []byte) (pub, priv []byte, err error) {
	subkey := kmac256KDF(seed, []byte("pqss x25519 subkey"), x25519KeySize)
	sk, err := ecdh.X25519().NewPrivateKey(subkey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "x25519: generate")
	}
	return sk.PublicKey().Bytes(), subkey, nil
}

func (x25519Component) encap(pub []byte) (ct, secret []byte, err error) {
	curve := ecdh.X25519()
	rPub, err := curve.NewPublicKey(pub)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid recipient X25519 public key")
	}
	ePriv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	secret, err = ePriv.ECDH(rPub)
	if err != nil {
		return nil, nil, errors.Wrap(err, "x25519")
	}
	return ePriv.PublicKey().Bytes(), secret, nil
}

func (x25519Component) decap(priv, ct []byte) ([]byte, error) {
	curve := ecdh.X25519()
	ePub, err := curve.NewPublicKey(ct)
	if err != nil {
		return nil, errors.Wrap(err, "invalid X25519 ciphertext")
	}
	rPriv, err := curve.NewPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	secret, err := rPriv.ECDH(ePub)
	if err != nil {
		return nil, errors.Wrap(err, "x25519")
	}
	return secret, nil
}

// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package kem

import (
	"bytes"
	"crypto/rand"

	"github.com/pkg/errors"
)

const kdfSaltSize = 32

// hybrid combines two components so that the shared key remains secret
// while either one is unbroken.  Ciphertexts are salt || ct1 || ct2.
type hybrid struct {
	c1, c2 component
	id     string
}

func newHybrid(c1, c2 component) KEM {
	return &hybrid{c1: c1, c2: c2, id: c1.name() + "-" + c2.name()}
}

func (k *hybrid) String() string { return k.id }

func (k *hybrid) PublicKeySize() int {
	return k.c1.publicKeySize() + k.c2.publicKeySize()
}

func (k *hybrid) CiphertextSize() int {
	return kdfSaltSize + k.c1.ciphertextSize() + k.c2.ciphertextSize()
}

// generate derives both key pairs from independent subseeds.
func (k *hybrid) generate(seed []byte) (pub1, priv1, pub2, priv2 []byte, err error) {
	seed1 := kmac256KDF(seed, []byte("pqss "+k.id+" subkey "+k.c1.name()), SeedSize)
	defer clear(seed1)
	seed2 := kmac256KDF(seed, []byte("pqss "+k.id+" subkey "+k.c2.name()), SeedSize)
	defer clear(seed2)

	pub1, priv1, err = k.c1.generate(seed1)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	pub2, priv2, err = k.c2.generate(seed2)
	if err != nil {
		clear(priv1)
		return nil, nil, nil, nil, err
	}
	return pub1, priv1, pub2, priv2, nil
}

func (k *hybrid) GenerateKey(seed []byte) (pubkey []byte, err error) {
	if len(seed) != SeedSize {
		return nil, errors.Errorf("%s: invalid seed length %d", k.id, len(seed))
	}
	pub1, priv1, pub2, priv2, err := k.generate(seed)
	if err != nil {
		return nil, err
	}
	clear(priv1)
	clear(priv2)
	return append(pub1, pub2...), nil
}

func (k *hybrid) Encapsulate(pubkey []byte) (ciphertext, sharedKey []byte, err error) {
	if len(pubkey) != k.PublicKeySize() {
		return nil, nil, errors.Errorf("%s: invalid pubkey length %d", k.id, len(pubkey))
	}
	pub1 := pubkey[:k.c1.publicKeySize()]
	pub2 := pubkey[k.c1.publicKeySize():]

	ct1, secret1, err := k.c1.encap(pub1)
	if err != nil {
		return nil, nil, err
	}
	defer clear(secret1)
	ct2, secret2, err := k.c2.encap(pub2)
	if err != nil {
		return nil, nil, err
	}
	defer clear(secret2)

	salt := make([]byte, kdfSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, err
	}

	ciphertext = make([]byte, 0, k.CiphertextSize())
	ciphertext = append(ciphertext, salt...)
	ciphertext = append(ciphertext, ct1...)
	ciphertext = append(ciphertext, ct2...)
	return ciphertext, k.combine(secret1, secret2, ct1, pub1, pub2, salt), nil
}

func (k *hybrid) Decapsulate(seed, ciphertext []byte) (sharedKey []byte, err error) {
	if len(seed) != SeedSize {
		return nil, errors.Errorf("%s: invalid seed length %d", k.id, len(seed))
	}
	if len(ciphertext) != k.CiphertextSize() {
		return nil, errors.Errorf("%s: invalid ciphertext length %d", k.id, len(ciphertext))
	}

	pub1, priv1, pub2, priv2, err := k.generate(seed)
	if err != nil {
		return nil, err
	}
	defer clear(priv1)
	defer clear(priv2)

	salt := ciphertext[:kdfSaltSize]
	ct1 := ciphertext[kdfSaltSize : kdfSaltSize+k.c1.ciphertextSize()]
	ct2 := ciphertext[kdfSaltSize+k.c1.ciphertextSize():]

	secret1, err := k.c1.decap(priv1, ct1)
	if err != nil {
		return nil, err
	}
	defer clear(secret1)
	secret2, err := k.c2.decap(priv2, ct2)
	if err != nil {
		return nil, err
	}
	defer clear(secret2)

	return k.combine(secret1, secret2, ct1, pub1, pub2, salt), nil
}

// combine derives the shared key with KMAC256 keyed by both component
// secrets.
func (k *hybrid) combine(secret1, secret2, ct1, pub1, pub2, salt []byte) []byte {
	ikm := make([]byte, 0, len(secret1)+len(secret2))
	ikm = append(ikm, secret1...)
	ikm = append(ikm, secret2...)
	defer clear(ikm)

	var info bytes.Buffer
	info.Grow(len(ct1) + len(pub1) + len(pub2) + len(salt) + len(k.id) + 5)
	info.Write(ct1)
	info.Write(pub1)
	info.Write(pub2)
	info.Write(salt)
	info.WriteString("pqss " + k.id)
	return kmac256KDF(ikm, info.Bytes(), KeySize)
}

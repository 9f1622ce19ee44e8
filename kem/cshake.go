// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package kem

import (
	"io"

	"github.com/jrick/pqss/internal/kmac"
	"golang.org/x/crypto/sha3"
)

func kmac256KDF(key []byte, customization []byte, length int) []byte {
	return kmac.Derive(key, nil, customization, length)
}

func cshake256CSPRNG(key []byte, customization []byte) io.Reader {
	h := sha3.NewCShake256(nil, customization)
	_, err := h.Write(key)
	if err != nil {
		panic(err)
	}
	return h
}

// expandKey stretches a KEM shared secret to KeySize bytes bound to the
// KEM name.
func expandKey(name string, secret []byte) []byte {
	key := make([]byte, KeySize)
	r := cshake256CSPRNG(secret, []byte("pqss "+name+" shared key"))
	if _, err := io.ReadFull(r, key); err != nil {
		panic(err)
	}
	return key
}

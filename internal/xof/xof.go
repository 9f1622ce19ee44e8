// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package xof selects the SHAKE extendable-output function used by a
// FrodoKEM parameter set.
package xof

import (
	"golang.org/x/crypto/sha3"
)

// Kind identifies a SHAKE instance.
type Kind uint8

const (
	SHAKE128 Kind = iota + 1
	SHAKE256
)

func (k Kind) String() string {
	switch k {
	case SHAKE128:
		return "SHAKE128"
	case SHAKE256:
		return "SHAKE256"
	default:
		return "unknown"
	}
}

// New returns a fresh hash state.
func (k Kind) New() sha3.ShakeHash {
	switch k {
	case SHAKE128:
		return sha3.NewShake128()
	case SHAKE256:
		return sha3.NewShake256()
	default:
		panic("xof: unknown kind")
	}
}

// Sum absorbs every input in order and fills out with the squeezed output.
func (k Kind) Sum(out []byte, in ...[]byte) {
	h := k.New()
	for _, b := range in {
		h.Write(b)
	}
	h.Read(out)
}

// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package kem adapts FrodoKEM, sntrup4591761 and X25519 to the
// seed-based interface used to key encryption streams.
package kem

import (
	"sort"

	"github.com/pkg/errors"
)

// SeedSize is the required byte length of seeds for GenerateKey.
const SeedSize = 64

// KeySize is the size of the shared key.
const KeySize = 32

// Default is the KEM used for newly generated keys.
const Default = "x25519-frodokem-976-shake"

// KEM describes the algorithms for a Key Encapsulation Mechanism (KEM) to key
// the encryption stream.
type KEM interface {
	String() string

	PublicKeySize() int
	CiphertextSize() int

	// GenerateKey deterministically derives the KEM public key from the seed.
	// Seeds must provide 64 bytes of entropy.
	// The serialized private key is never exposed by this interface.
	GenerateKey(seed []byte) (pubkey []byte, err error)

	// Encapsulate creates a shared key and a ciphertext to be shared with
	// the recipient.
	Encapsulate(pubkey []byte) (ciphertext, sharedKey []byte, err error)

	// Decapsulate recovers the shared key created by the message sender
	// from the ciphertext.
	//
	// Single-algorithm KEMs also accept a serialized private key in
	// place of the seed.
	//
	// The shared key will always be 32-bytes long and suitable to use to
	// key an AEAD.
	Decapsulate(seed, ciphertext []byte) (sharedKey []byte, err error)
}

var registry = map[string]KEM{}

func register(k KEM) KEM {
	registry[k.String()] = k
	return k
}

var (
	_kemSNTRUP4591761         = register(newSingle(sntrupComponent{}))
	_kemX25519SNTRUP4591761   = register(newHybrid(x25519Component{}, sntrupComponent{}))
	_kemX25519FrodoKEM976     = register(newHybrid(x25519Component{}, frodoComponents[1]))
	_kemSNTRUP4591761Frodo640 = register(newHybrid(sntrupComponent{}, frodoComponents[0]))
)

func init() {
	// Every FrodoKEM parameter set is also available alone.
	for _, c := range frodoComponents {
		register(newSingle(c))
	}
}

// SNTRUP4591761 returns the KEM implementation for sntrup4591761.
func SNTRUP4591761() KEM { return _kemSNTRUP4591761 }

// X25519SNTRUP4591761 returns the hybrid of X25519 and sntrup4591761.
func X25519SNTRUP4591761() KEM { return _kemX25519SNTRUP4591761 }

// X25519FrodoKEM976 returns the hybrid of X25519 and FrodoKEM-976-SHAKE.
func X25519FrodoKEM976() KEM { return _kemX25519FrodoKEM976 }

// SNTRUP4591761FrodoKEM640 returns the hybrid of sntrup4591761 and
// FrodoKEM-640-SHAKE.
func SNTRUP4591761FrodoKEM640() KEM { return _kemSNTRUP4591761Frodo640 }

// FrodoKEM976 returns the KEM implementation for FrodoKEM-976-SHAKE.
func FrodoKEM976() KEM { return registry["frodokem-976-shake"] }

// Open returns the KEM instance for a cryptosystem name.
func Open(name string) (KEM, error) {
	k, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("unknown KEM %q", name)
	}
	return k, nil
}

// Names returns the names of every KEM in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

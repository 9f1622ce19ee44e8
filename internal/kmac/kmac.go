// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kmac implements KMAC256 from NIST SP 800-185 over the cSHAKE256
// of golang.org/x/crypto/sha3.  It is used as a key derivation function
// for KEM seeds and hybrid shared keys.
//
// https://doi.org/10.6028/NIST.SP.800-185
package kmac

import (
	"encoding/binary"
	"hash"
	"math/bits"

	"golang.org/x/crypto/sha3"
)

// Tags shorter than 64 bits are refused.
const minimumTagSize = 8

type kmac struct {
	sha3.ShakeHash
	tagSize int

	// initBlock is the encoded key absorbed on creation and on Reset.
	initBlock []byte
}

// NewKMAC256 returns a KMAC256 instance keyed by key, which must be at
// least 32 bytes, producing tagSize bytes of output under the given
// customization string.
func NewKMAC256(key []byte, tagSize int, customization []byte) hash.Hash {
	if len(key) < 32 {
		panic("kmac: key must not be smaller than security strength")
	}
	if tagSize < minimumTagSize {
		panic("kmac: tag size is too small")
	}
	k := &kmac{
		ShakeHash: sha3.NewCShake256([]byte("KMAC"), customization),
		tagSize:   tagSize,
	}
	k.initBlock = make([]byte, 0, 9+len(key))
	k.initBlock = append(k.initBlock, leftEncode(uint64(len(key)*8))...)
	k.initBlock = append(k.initBlock, key...)
	k.Write(bytepad(k.initBlock, k.BlockSize()))
	return k
}

func (k *kmac) Reset() {
	k.ShakeHash.Reset()
	k.Write(bytepad(k.initBlock, k.BlockSize()))
}

func (k *kmac) Size() int { return k.tagSize }

// Sum appends the tag to b without changing the underlying state.
func (k *kmac) Sum(b []byte) []byte {
	dup := k.ShakeHash.Clone()
	dup.Write(rightEncode(uint64(k.tagSize * 8)))
	tag := make([]byte, k.tagSize)
	dup.Read(tag)
	return append(b, tag...)
}

// Derive returns length bytes of KMAC256(key, msg, customization).
func Derive(key, msg, customization []byte, length int) []byte {
	h := NewKMAC256(key, length, customization)
	h.Write(msg)
	return h.Sum(make([]byte, 0, length))
}

func bytepad(data []byte, rate int) []byte {
	out := make([]byte, 0, 9+len(data)+rate-1)
	out = append(out, leftEncode(uint64(rate))...)
	out = append(out, data...)
	if padlen := rate - len(out)%rate; padlen < rate {
		out = append(out, make([]byte, padlen)...)
	}
	return out
}

func leftEncode(x uint64) []byte {
	n := (bits.Len64(x) + 7) / 8
	if n == 0 {
		n = 1
	}
	b := make([]byte, 9)
	binary.BigEndian.PutUint64(b[1:], x)
	b = b[9-n-1:]
	b[0] = byte(n)
	return b
}

func rightEncode(x uint64) []byte {
	var b [9]byte
	binary.BigEndian.PutUint64(b[:8], x)
	i := byte(0)
	for i < 7 && b[i] == 0 {
		i++
	}
	b[8] = 8 - i
	return b[i:]
}

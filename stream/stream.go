// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package stream implements the chunked ChaCha20-Poly1305 file format keyed
// either by a KEM or by an Argon2id passphrase.
package stream

import (
	"encoding/binary"
	"io"
	"math/bits"
	"runtime"

	"github.com/jrick/pqss/kem"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/poly1305"
)

// counter implements a 12-byte little endian counter suitable for use as an
// incrementing ChaCha20-Poly1305 nonce.
type counter struct {
	limbs [3]uint32
	bytes []byte
}

func newCounter() *counter {
	return &counter{bytes: make([]byte, 12)}
}

func (c *counter) inc() {
	var carry uint32
	c.limbs[0], carry = bits.Add32(c.limbs[0], 1, carry)
	c.limbs[1], carry = bits.Add32(c.limbs[1], 0, carry)
	c.limbs[2], carry = bits.Add32(c.limbs[2], 0, carry)
	if carry == 1 {
		panic("nonce reuse")
	}
	binary.LittleEndian.PutUint32(c.bytes[0:4], c.limbs[0])
	binary.LittleEndian.PutUint32(c.bytes[4:8], c.limbs[1])
	binary.LittleEndian.PutUint32(c.bytes[8:12], c.limbs[2])
}

const streamVersion = 1

const chunksize = 1 << 16 // does not include AEAD overhead

const overhead = 16 // poly1305 tag overhead

// Associated data of each chunk marks whether it ends the stream.
var (
	adChunk = []byte{0}
	adFinal = []byte{1}
)

// Argon2id header layout: scheme, salt, time, memory, threads, tag.
const (
	argon2SaltSize = 16
	argon2Params   = 9
	argon2DataSize = 1 + argon2SaltSize + argon2Params
	argon2Header   = argon2DataSize + overhead
)

// KeyScheme describes the keying scheme used for message encryption.  It is
// recorded in the stream header, and decrypters must first parse the scheme
// from the header before deriving or recovering the encryption key.
type KeyScheme byte

// Key schemes
const (
	Sntrup4591761Scheme KeyScheme = iota + 1
	Argon2idScheme
	X25519Sntrup4591761Scheme
	X25519FrodoKEM976Scheme
	Sntrup4591761FrodoKEM640Scheme
	FrodoKEM640Scheme
	FrodoKEM976Scheme
	FrodoKEM1344Scheme
	EFrodoKEM640Scheme
	EFrodoKEM976Scheme
	EFrodoKEM1344Scheme
)

var schemeKEMs = map[KeyScheme]string{
	Sntrup4591761Scheme:            "sntrup4591761",
	X25519Sntrup4591761Scheme:      "x25519-sntrup4591761",
	X25519FrodoKEM976Scheme:        "x25519-frodokem-976-shake",
	Sntrup4591761FrodoKEM640Scheme: "sntrup4591761-frodokem-640-shake",
	FrodoKEM640Scheme:              "frodokem-640-shake",
	FrodoKEM976Scheme:              "frodokem-976-shake",
	FrodoKEM1344Scheme:             "frodokem-1344-shake",
	EFrodoKEM640Scheme:             "efrodokem-640-shake",
	EFrodoKEM976Scheme:             "efrodokem-976-shake",
	EFrodoKEM1344Scheme:            "efrodokem-1344-shake",
}

func kemToScheme(k kem.KEM) (KeyScheme, error) {
	for scheme, name := range schemeKEMs {
		if name == k.String() {
			return scheme, nil
		}
	}
	return 0, errors.Errorf("unknown scheme for KEM %v", k)
}

func (s KeyScheme) String() string {
	if s == Argon2idScheme {
		return "argon2id"
	}
	if name, ok := schemeKEMs[s]; ok {
		return name
	}
	return "unknown"
}

// Encapsulate creates the header beginning a PKI encryption stream.  It derives
// an ephemeral ChaCha20-Poly1305 symmetric key and encapsulates (encrypts) the
// key for the public key pk, recording the key ciphertext in the header.
func Encapsulate(k kem.KEM, pubkey []byte) (header []byte, aeadKey []byte, err error) {
	scheme, err := kemToScheme(k)
	if err != nil {
		return nil, nil, err
	}

	// Derive and encapsulate an ephemeral shared symmetric key to encrypt a
	// message that can only be decapsulated using pk's secret key.
	ciphertext, sharedKey, err := k.Encapsulate(pubkey)
	if err != nil {
		return nil, nil, err
	}

	header = make([]byte, 1+len(ciphertext))
	header[0] = byte(scheme)
	copy(header[1:], ciphertext)

	return header, sharedKey, nil
}

// PassphraseHeader creates the header beginning a passphrase-protected encryption stream.
// The time and memory parameters describe Argon2id difficulty parameters, where
// memory is measured in KiB.
// Cryptographically-secure randomness is read from rand.
func PassphraseHeader(rand io.Reader, passphrase []byte, time, memory uint32) (header []byte, aeadKey []byte, err error) {
	threads := uint8(min(runtime.NumCPU(), 255))

	header = make([]byte, argon2Header)
	header[0] = byte(Argon2idScheme)
	salt := header[1 : 1+argon2SaltSize]
	params := header[1+argon2SaltSize : argon2DataSize]
	data := header[:argon2DataSize]
	htag := header[argon2DataSize:]
	_, err = io.ReadFull(rand, salt)
	if err != nil {
		return nil, nil, err
	}
	binary.LittleEndian.PutUint32(params[0:4], time)
	binary.LittleEndian.PutUint32(params[4:8], memory)
	params[8] = threads

	// The first 32 bytes of the derived key authenticate the header so a
	// wrong passphrase is detected before decryption.  The final 32 bytes
	// key the stream.
	idkey := argon2.IDKey(passphrase, salt, time, memory, threads, 64)
	defer clear(idkey[:32])

	var tag [overhead]byte
	var polyKey [32]byte
	copy(polyKey[:], idkey[:32])
	poly1305.Sum(&tag, data, &polyKey)
	clear(polyKey[:])
	copy(htag, tag[:])

	return header, idkey[32:], nil
}

// Encrypt performs symmetric stream encryption, reading plaintext from r and
// writing an encrypted stream to w which can only be decrypted with knowledge
// of key.  The stream header is Associated Data.
func Encrypt(w io.Writer, r io.Reader, header []byte, aeadKey []byte) error {
	buf := make([]byte, 0, chunksize+overhead)
	aead, err := chacha20poly1305.New(aeadKey)
	if err != nil {
		return err
	}

	// # Protocol
	//
	// Keying Header
	// - Uniquely describes keying scheme and carries related data:
	//   a KEM ciphertext or Argon2id parameters.
	//
	// Version
	// - ChaCha20-Poly1305 sealed protocol version, using a zero nonce, with
	//   header as the Associated Data.
	//
	// Blocks
	// - ChaCha20-Poly1305 chunked payloads (incrementing previous nonce).
	//   Every chunk but the last holds exactly chunksize bytes of
	//   plaintext and is sealed with adChunk.  The last holds fewer,
	//   possibly zero, and is sealed with adFinal.

	_, err = w.Write(header)
	if err != nil {
		return err
	}

	buf = buf[:4]
	binary.LittleEndian.PutUint32(buf, streamVersion)
	nonce := newCounter()
	buf = aead.Seal(buf[:0], nonce.bytes, buf, header)
	_, err = w.Write(buf)
	if err != nil {
		return err
	}

	for {
		chunk := buf[:chunksize]
		l, err := io.ReadFull(r, chunk)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return err
		}
		ad := adChunk
		if l < chunksize {
			ad = adFinal
		}
		nonce.inc()
		chunk = aead.Seal(chunk[:0], nonce.bytes, chunk[:l], ad)
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		if l < chunksize {
			return nil
		}
	}
}

// Header represents a parsed stream header.  It records the keying scheme for
// the stream symmetric key, as well as parameters needed to derive the key
// given the specific scheme.  The Bytes field records the raw bytes of the full
// header, which must be passed to Decrypt for authentication.
type Header struct {
	Bytes  []byte
	Scheme KeyScheme

	// For KEM schemes
	KEM        kem.KEM
	Ciphertext []byte

	// For Argon2idScheme
	Salt    []byte
	Time    uint32
	Memory  uint32
	Threads uint8
	Tag     [16]byte
}

// ReadHeader parses the stream header from the reader.
func ReadHeader(r io.Reader) (*Header, error) {
	var scheme [1]byte
	_, err := io.ReadFull(r, scheme[:])
	if err != nil {
		return nil, errors.Wrap(err, "stream: read header")
	}
	h := new(Header)
	h.Scheme = KeyScheme(scheme[0])

	if h.Scheme == Argon2idScheme {
		h.Bytes = make([]byte, argon2Header)
		h.Bytes[0] = scheme[0]
		_, err = io.ReadFull(r, h.Bytes[1:])
		if err != nil {
			return nil, errors.Wrap(err, "stream: read header")
		}
		params := h.Bytes[1+argon2SaltSize : argon2DataSize]
		h.Salt = h.Bytes[1 : 1+argon2SaltSize]
		h.Time = binary.LittleEndian.Uint32(params[0:4])
		h.Memory = binary.LittleEndian.Uint32(params[4:8])
		h.Threads = params[8]
		copy(h.Tag[:], h.Bytes[argon2DataSize:])
		return h, nil
	}

	name, ok := schemeKEMs[h.Scheme]
	if !ok {
		return nil, errors.Errorf("stream: unknown key scheme %#0x", byte(h.Scheme))
	}
	h.KEM, err = kem.Open(name)
	if err != nil {
		return nil, err
	}
	h.Bytes = make([]byte, 1+h.KEM.CiphertextSize())
	h.Bytes[0] = scheme[0]
	_, err = io.ReadFull(r, h.Bytes[1:])
	if err != nil {
		return nil, errors.Wrap(err, "stream: read header")
	}
	h.Ciphertext = h.Bytes[1:]
	return h, nil
}

// Decapsulate decrypts a PKI encrypted symmetric key from the header.
// The scheme must be for PKI encryption.
func Decapsulate(h *Header, seedOrPrivateKey []byte) (aeadKey []byte, err error) {
	if h.KEM == nil {
		return nil, errors.New("stream: nothing to decapsulate in header")
	}

	sharedKey, err := h.KEM.Decapsulate(seedOrPrivateKey, h.Ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "stream: cannot decapsulate message key")
	}
	return sharedKey, nil
}

// PassphraseKey derives a symmetric key from a passphrase.
// The header scheme must be for symmetric passphrase encryption.
func PassphraseKey(h *Header, passphrase []byte) (aeadKey []byte, err error) {
	if h.Scheme != Argon2idScheme {
		return nil, errors.New("stream: not a symmetric passphrase encryption scheme")
	}
	idkey := argon2.IDKey(passphrase, h.Salt, h.Time, h.Memory, h.Threads, 64)
	defer clear(idkey[:32])

	var polyKey [32]byte
	copy(polyKey[:], idkey[:32])
	defer clear(polyKey[:])
	if !poly1305.Verify(&h.Tag, h.Bytes[:argon2DataSize], &polyKey) {
		return nil, errors.New("stream: incorrect passphrase")
	}

	return idkey[32:], nil
}

// Decrypt performs symmetric stream decryption, reading ciphertext from r,
// decrypting with key, and writing a stream of plaintext to w.  The stream
// header is Associated Data.  A stream missing its final chunk is an error.
func Decrypt(w io.Writer, r io.Reader, header []byte, aeadKey []byte) error {
	nonce := newCounter()
	buf := make([]byte, 0, chunksize+overhead)
	aead, err := chacha20poly1305.New(aeadKey)
	if err != nil {
		return err
	}

	buf = buf[:4+overhead]
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return errors.Wrap(err, "stream: read version")
	}
	buf, err = aead.Open(buf[:0], nonce.bytes, buf, header)
	if err != nil {
		return errors.Wrap(err, "stream: open version")
	}
	if v := binary.LittleEndian.Uint32(buf); v != streamVersion {
		return errors.Errorf("stream: unknown protocol version %d", v)
	}

	for {
		chunk := buf[:chunksize+overhead]
		l, err := io.ReadFull(r, chunk)
		if err == io.EOF {
			return errors.New("stream: truncated")
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return err
		}
		final := l < len(chunk)
		ad := adChunk
		if final {
			ad = adFinal
		}
		nonce.inc()
		chunk, err = aead.Open(chunk[:0], nonce.bytes, chunk[:l], ad)
		if err != nil {
			return errors.Wrapf(err, "stream: chunk %d", nonce.limbs[0])
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		if final {
			return nil
		}
	}
}

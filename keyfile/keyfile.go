// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package keyfile reads and writes the text formats of KEM public keys and
// passphrase-protected KEM seeds.
package keyfile

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/jrick/pqss/kem"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/sha3"
)

const (
	saltsize = 16

	publicKeyHeader = "pqss encryption public key"
	secretKeyHeader = "pqss encryption secret key"

	// Longest accepted key file line; large enough for any FrodoKEM
	// public key in base64.
	maxLine = 1 << 20
)

// Argon2idParams describes the difficulty parameters used when deriving a
// symmetric encryption key from a passphrase using the Argon2id KDF.
type Argon2idParams struct {
	Time   uint32
	Memory uint32
}

// NewArgon2idParams creates the Argon2id parameters from time and memory
// (measured in KiB) values.
func NewArgon2idParams(time, memoryKiB uint32) *Argon2idParams {
	return &Argon2idParams{
		Time:   time,
		Memory: memoryKiB,
	}
}

// Keyfields describes keyfile fields that must be preserved when a key is
// reencrypted.
type Keyfields struct {
	Comment     string
	Fingerprint string
}

// PublicKey is a KEM public key read from a public key file.
type PublicKey struct {
	KEM kem.KEM
	Key []byte
	Keyfields
}

// SecretKey is the KEM seed from which the key pair is derived.
type SecretKey struct {
	KEM  kem.KEM
	Seed []byte
}

// Zero clears the seed.
func (sk *SecretKey) Zero() { clear(sk.Seed) }

// Fingerprint returns the fingerprint string of a public key.
func Fingerprint(pk []byte) string {
	sum := make([]byte, 32)
	sha3.ShakeSum256(sum, pk)
	return "shake256:" + base64.StdEncoding.EncodeToString(sum)
}

// GenerateKeys generates a random key pair for k, writing the public key to
// pkw and the secret key to skw.  The secret key file stores the KEM seed
// encrypted with ChaCha20-Poly1305 using a symmetric key derived using
// Argon2id from passphrase and specified KDF parameters.
// Cryptographically-secure randomness is provided by rand.
func GenerateKeys(rand io.Reader, pkw, skw io.Writer, k kem.KEM, passphrase []byte,
	kdfp *Argon2idParams, comment string) (fingerprint string, err error) {

	sk := &SecretKey{KEM: k, Seed: make([]byte, kem.SeedSize)}
	defer sk.Zero()
	if _, err := io.ReadFull(rand, sk.Seed); err != nil {
		return "", errors.Wrap(err, "read seed")
	}
	pk, err := k.GenerateKey(sk.Seed)
	if err != nil {
		return "", err
	}
	fingerprint = Fingerprint(pk)

	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "%s\n", publicKeyHeader)
	fmt.Fprintf(buf, "comment: %s\n", comment)
	fmt.Fprintf(buf, "cryptosystem: %s\n", k)
	fmt.Fprintf(buf, "fingerprint: %s\n", fingerprint)
	fmt.Fprintf(buf, "encoding: base64\n")
	fmt.Fprintf(buf, "\n")
	enc := base64.NewEncoder(base64.StdEncoding, buf)
	enc.Write(pk)
	enc.Close()
	fmt.Fprintf(buf, "\n")
	if _, err := io.Copy(pkw, buf); err != nil {
		return "", err
	}

	kf := Keyfields{
		Comment:     comment,
		Fingerprint: fingerprint,
	}
	if err := EncryptSecretKey(rand, skw, sk, passphrase, kdfp, kf); err != nil {
		return "", err
	}
	return fingerprint, nil
}

func writeSecretKey(buf *bytes.Buffer, sk *SecretKey, kf Keyfields, skKey []byte, salt []byte, time, memory uint32, threads uint8) error {
	fmt.Fprintf(buf, "%s\n", secretKeyHeader)
	fmt.Fprintf(buf, "comment: %s\n", kf.Comment)
	fmt.Fprintf(buf, "cryptosystem: %s\n", sk.KEM)
	fmt.Fprintf(buf, "fingerprint: %s\n", kf.Fingerprint)
	fmt.Fprintf(buf, "encryption: argon2id-chacha20-poly1305\n")
	fmt.Fprintf(buf, "argon2id-salt: %s\n", base64.StdEncoding.EncodeToString(salt))
	fmt.Fprintf(buf, "argon2id-time: %d\n", time)
	fmt.Fprintf(buf, "argon2id-memory: %d\n", memory)
	fmt.Fprintf(buf, "argon2id-threads: %d\n", threads)
	fmt.Fprintf(buf, "encoding: base64\n")
	// Everything above is Associated Data
	data := buf.Bytes()
	fmt.Fprintf(buf, "\n")
	aead, err := chacha20poly1305.New(skKey)
	if err != nil {
		return err
	}
	// Each file has a fresh salt and therefore a fresh key.
	nonce := make([]byte, aead.NonceSize())
	sealed := aead.Seal(nil, nonce, sk.Seed, data)
	enc := base64.NewEncoder(base64.StdEncoding, buf)
	enc.Write(sealed)
	enc.Close()
	fmt.Fprintf(buf, "\n")
	return nil
}

// EncryptSecretKey writes the secret key encrypted in keyfile format to skw.
func EncryptSecretKey(rand io.Reader, skw io.Writer, sk *SecretKey, passphrase []byte, kdfp *Argon2idParams, kf Keyfields) error {
	if len(sk.Seed) != kem.SeedSize {
		return errors.Errorf("secret key seed has invalid length %d", len(sk.Seed))
	}
	salt := make([]byte, saltsize)
	if _, err := io.ReadFull(rand, salt); err != nil {
		return errors.Wrap(err, "read salt")
	}
	ncpu := uint8(min(runtime.NumCPU(), 255))
	skKey := argon2.IDKey(passphrase, salt, kdfp.Time, kdfp.Memory, ncpu, chacha20poly1305.KeySize)
	defer clear(skKey)

	buf := new(bytes.Buffer)
	err := writeSecretKey(buf, sk, kf, skKey, salt, kdfp.Time, kdfp.Memory, ncpu)
	if err != nil {
		return err
	}
	_, err = io.Copy(skw, buf)
	return err
}

func readKeyFile(r io.Reader, firstLine string) (fields map[string]string, ad []byte, encodedKey string, err error) {
	fields = make(map[string]string)

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxLine)
	i := 0
	keyline := false
	adbuf := new(bytes.Buffer)
	for s.Scan() {
		line := s.Text()
		if len(line) > 0 && line[0] == '#' {
			continue
		}
		if keyline {
			encodedKey = line
			break
		}
		if i == 0 {
			if line != firstLine {
				err = errors.Errorf("first line does not match %q", firstLine)
				return
			}
			fmt.Fprintf(adbuf, "%s\n", line)
			i++
			continue
		}
		if line == "" {
			// uncommented empty line indicates next line is the encoded key
			keyline = true
			continue
		}
		k, v, ok := strings.Cut(line, ": ")
		if !ok {
			err = errors.New("missing field separator")
			return
		}
		if _, ok := fields[k]; ok {
			err = errors.Errorf("duplicate field %q", k)
			return
		}
		fields[k] = v
		fmt.Fprintf(adbuf, "%s\n", line)
	}
	if err = s.Err(); err != nil {
		return
	}
	if i == 0 {
		err = errors.New("empty keyfile")
		return
	}

	return fields, adbuf.Bytes(), encodedKey, nil
}

func requireFields(fields, required map[string]string) error {
	for k, v := range required {
		if fields[k] != v {
			return errors.Errorf("keyfile field %q must be %q, but is %q", k, v, fields[k])
		}
	}
	return nil
}

func openKEM(fields map[string]string) (kem.KEM, error) {
	k, err := kem.Open(fields["cryptosystem"])
	if err != nil {
		return nil, errors.Wrap(err, "keyfile cryptosystem")
	}
	return k, nil
}

// ReadPublicKey reads a KEM public key in the keyfile format from r.
func ReadPublicKey(r io.Reader) (*PublicKey, error) {
	fields, _, encodedKey, err := readKeyFile(r, publicKeyHeader)
	if err != nil {
		return nil, err
	}
	err = requireFields(fields, map[string]string{
		"encoding": "base64",
	})
	if err != nil {
		return nil, err
	}
	k, err := openKEM(fields)
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, errors.Wrap(err, "public key encoding")
	}
	if len(key) != k.PublicKeySize() {
		return nil, errors.Errorf("public key has invalid length %d", len(key))
	}
	if fp := fields["fingerprint"]; fp != "" && fp != Fingerprint(key) {
		return nil, errors.New("public key does not match its fingerprint")
	}
	pk := &PublicKey{
		KEM: k,
		Key: key,
		Keyfields: Keyfields{
			Comment:     fields["comment"],
			Fingerprint: Fingerprint(key),
		},
	}
	return pk, nil
}

// OpenSecretKey reads and decrypts an encrypted KEM seed in the keyfile
// format from r.
func OpenSecretKey(r io.Reader, passphrase []byte) (_ *SecretKey, _ Keyfields, err error) {
	e := func(err error) (*SecretKey, Keyfields, error) {
		return nil, Keyfields{}, err
	}

	fields, keyAD, encodedSealedKey, err := readKeyFile(r, secretKeyHeader)
	if err != nil {
		return e(err)
	}
	err = requireFields(fields, map[string]string{
		"encryption": "argon2id-chacha20-poly1305",
		"encoding":   "base64",
	})
	if err != nil {
		return e(err)
	}
	k, err := openKEM(fields)
	if err != nil {
		return e(err)
	}
	sealedKey, err := base64.StdEncoding.DecodeString(encodedSealedKey)
	if err != nil {
		return e(errors.Wrap(err, "secret key encoding"))
	}
	salt, err := base64.StdEncoding.DecodeString(fields["argon2id-salt"])
	if err != nil {
		return e(errors.Wrap(err, "argon2id-salt"))
	}
	time, err := strconv.ParseUint(fields["argon2id-time"], 10, 32)
	if err != nil {
		return e(errors.Wrap(err, "argon2id-time"))
	}
	memory, err := strconv.ParseUint(fields["argon2id-memory"], 10, 32)
	if err != nil {
		return e(errors.Wrap(err, "argon2id-memory"))
	}
	ncpu, err := strconv.ParseUint(fields["argon2id-threads"], 10, 8)
	if err != nil {
		return e(errors.Wrap(err, "argon2id-threads"))
	}
	derivedKey := argon2.IDKey(passphrase, salt, uint32(time), uint32(memory), uint8(ncpu), chacha20poly1305.KeySize)
	defer clear(derivedKey)
	aead, err := chacha20poly1305.New(derivedKey)
	if err != nil {
		return e(err)
	}
	skNonce := make([]byte, aead.NonceSize())
	seed, err := aead.Open(sealedKey[:0], skNonce, sealedKey, keyAD)
	if err != nil {
		return e(errors.New("incorrect passphrase or corrupt secret key"))
	}
	if len(seed) != kem.SeedSize {
		clear(seed)
		return e(errors.Errorf("secret key has invalid length %d", len(seed)))
	}
	kf := Keyfields{
		Comment:     fields["comment"],
		Fingerprint: fields["fingerprint"],
	}
	return &SecretKey{KEM: k, Seed: seed}, kf, nil
}

// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package frodokem

import (
	"crypto/rand"
	"io"

	"github.com/jrick/pqss/internal/codec"
	"github.com/jrick/pqss/internal/matrix"
	"github.com/jrick/pqss/internal/pke"
	"github.com/jrick/pqss/internal/zq"
	"github.com/pkg/errors"
)

// secretKey slices a serialized secret key
// s || seedA || pack(B) || LE16(S^T) || pkh into its fields.
type secretKey struct {
	s, pk, st, pkh []byte
}

func (s *Scheme) parseSecretKey(sk []byte) secretKey {
	p := s.p
	off := 0
	next := func(n int) []byte {
		b := sk[off : off+n]
		off += n
		return b
	}
	return secretKey{
		s:   next(p.SSize()),
		pk:  next(p.PublicKeySize()),
		st:  next(p.STSize()),
		pkh: next(p.PKHSize()),
	}
}

// KeyGen deterministically derives a key pair from the rejection secret
// s, the error seed seedSE and the matrix seed z.
func (s *Scheme) KeyGen(sec, seedSE, z []byte) (pk, sk []byte, err error) {
	p := s.p
	if err := s.checkLen("s", sec, p.SSize()); err != nil {
		return nil, nil, err
	}
	if err := s.checkLen("seedSE", seedSE, p.SeedSESize()); err != nil {
		return nil, nil, err
	}
	if err := s.checkLen("z", z, p.ZSize()); err != nil {
		return nil, nil, err
	}

	seedA := make([]byte, p.SeedASize())
	p.XOF.Sum(seedA, z)

	b, st := pke.KeyMatrices(p, seedA, seedSE)
	defer st.Clear()

	pk = make([]byte, p.PublicKeySize())
	copy(pk, seedA)
	codec.PackInto(pk[p.SeedASize():], b)

	sk = make([]byte, p.SecretKeySize())
	fields := s.parseSecretKey(sk)
	copy(fields.s, sec)
	copy(fields.pk, pk)
	st.WriteLE(fields.st)
	p.XOF.Sum(fields.pkh, pk)
	return pk, sk, nil
}

// Encaps deterministically encapsulates the message mu under pk.  The
// salt must be SaltSize bytes (empty for the ephemeral variants).
func (s *Scheme) Encaps(mu, salt, pk []byte) (ct, ss []byte, err error) {
	p := s.p
	if err := s.checkLen("mu", mu, p.MessageSize()); err != nil {
		return nil, nil, err
	}
	if err := s.checkLen("salt", salt, p.SaltSize()); err != nil {
		return nil, nil, err
	}
	if err := s.checkLen("public key", pk, p.PublicKeySize()); err != nil {
		return nil, nil, err
	}

	pkh := make([]byte, p.PKHSize())
	p.XOF.Sum(pkh, pk)

	rnd := make([]byte, p.SeedSESize()+p.SSize())
	defer clear(rnd)
	p.XOF.Sum(rnd, pkh, mu, salt)
	seedSE, k := rnd[:p.SeedSESize()], rnd[p.SeedSESize():]

	b := pke.UnpackB(p, pk)
	bp, c := pke.EncryptMatrices(p, pk[:p.SeedASize()], b, seedSE, mu)

	ct = make([]byte, p.CiphertextSize())
	pke.PackCiphertext(p, ct[:p.PKECiphertextSize()], bp, c)
	copy(ct[p.PKECiphertextSize():], salt)

	ss = make([]byte, p.SharedSecretSize())
	p.XOF.Sum(ss, ct, k)
	return ct, ss, nil
}

// Decaps recovers the shared secret of ct.  An error is returned only for
// wrongly sized inputs; invalid ciphertexts are implicitly rejected.
func (s *Scheme) Decaps(sk, ct []byte) (ss []byte, err error) {
	p := s.p
	if err := s.checkLen("secret key", sk, p.SecretKeySize()); err != nil {
		return nil, err
	}
	if err := s.checkLen("ciphertext", ct, p.CiphertextSize()); err != nil {
		return nil, err
	}

	key := s.parseSecretKey(sk)
	salt := ct[p.PKECiphertextSize():]
	bp, c := pke.UnpackCiphertext(p, ct[:p.PKECiphertextSize()])

	st := matrix.ReadLE(p.Ring, p.NBar, p.N, key.st)
	defer st.Clear()
	mu := pke.DecryptMatrices(p, st, bp, c)
	defer clear(mu)

	rnd := make([]byte, p.SeedSESize()+p.SSize())
	defer clear(rnd)
	p.XOF.Sum(rnd, key.pkh, mu, salt)
	seedSE, k := rnd[:p.SeedSESize()], rnd[p.SeedSESize():]

	b := pke.UnpackB(p, key.pk)
	bpp, cp := pke.EncryptMatrices(p, key.pk[:p.SeedASize()], b, seedSE, mu)
	defer cp.Clear()

	// Select k on a match and s otherwise, without branching on the
	// comparison.
	mask := bp.CTEqual(bpp) & c.CTEqual(cp)
	kbar := make([]byte, len(k))
	defer clear(kbar)
	for i := range kbar {
		kbar[i] = zq.CTSelect8(mask, k[i], key.s[i])
	}

	ss = make([]byte, p.SharedSecretSize())
	p.XOF.Sum(ss, ct, kbar)
	return ss, nil
}

// PublicKey returns the copy of the public key embedded in sk.
func (s *Scheme) PublicKey(sk []byte) ([]byte, error) {
	if err := s.checkLen("secret key", sk, s.p.SecretKeySize()); err != nil {
		return nil, err
	}
	return append([]byte(nil), s.parseSecretKey(sk).pk...), nil
}

// GenerateKeyPair creates a key pair from seeds read from rand, or from
// crypto/rand when rand is nil.
func (s *Scheme) GenerateKeyPair(rand io.Reader) (pk, sk []byte, err error) {
	p := s.p
	seeds := make([]byte, p.SSize()+p.SeedSESize()+p.ZSize())
	defer clear(seeds)
	if err := readRandom(rand, seeds); err != nil {
		return nil, nil, errors.Wrapf(err, "%s: keygen", p.Name)
	}
	sec := seeds[:p.SSize()]
	seedSE := seeds[p.SSize() : p.SSize()+p.SeedSESize()]
	z := seeds[p.SSize()+p.SeedSESize():]
	return s.KeyGen(sec, seedSE, z)
}

// Encapsulate creates a ciphertext and shared secret for pk with mu and
// salt read from rand, or from crypto/rand when rand is nil.
func (s *Scheme) Encapsulate(rand io.Reader, pk []byte) (ct, ss []byte, err error) {
	p := s.p
	buf := make([]byte, p.MessageSize()+p.SaltSize())
	defer clear(buf)
	if err := readRandom(rand, buf); err != nil {
		return nil, nil, errors.Wrapf(err, "%s: encaps", p.Name)
	}
	return s.Encaps(buf[:p.MessageSize()], buf[p.MessageSize():], pk)
}

func readRandom(r io.Reader, b []byte) error {
	if r == nil {
		r = rand.Reader
	}
	_, err := io.ReadFull(r, b)
	return err
}

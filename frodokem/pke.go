// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package frodokem

import (
	"github.com/jrick/pqss/internal/pke"
)

// PKESecretKeySize is the size of a FrodoPKE secret key, the packed S^T.
func (s *Scheme) PKESecretKeySize() int { return s.p.PKESecretKeySize() }

// PKECiphertextSize is the size of a FrodoPKE ciphertext.
func (s *Scheme) PKECiphertextSize() int { return s.p.PKECiphertextSize() }

// SeedASize is the length of the seedA input to PKEKeyGen.
func (s *Scheme) SeedASize() int { return s.p.SeedASize() }

// PKEKeyGen derives a FrodoPKE key pair from seedA and seedSE.  The
// public key has the same encoding as a KEM public key.
func (s *Scheme) PKEKeyGen(seedA, seedSE []byte) (pk, sk []byte, err error) {
	if err := s.checkLen("seedA", seedA, s.p.SeedASize()); err != nil {
		return nil, nil, err
	}
	if err := s.checkLen("seedSE", seedSE, s.p.SeedSESize()); err != nil {
		return nil, nil, err
	}
	pk, sk = pke.KeyGen(s.p, seedA, seedSE)
	return pk, sk, nil
}

// PKEEncrypt encrypts a MessageSize message to pk using randomness
// expanded from seedSE.
func (s *Scheme) PKEEncrypt(seedSE, pk, msg []byte) ([]byte, error) {
	if err := s.checkLen("seedSE", seedSE, s.p.SeedSESize()); err != nil {
		return nil, err
	}
	if err := s.checkLen("public key", pk, s.p.PublicKeySize()); err != nil {
		return nil, err
	}
	if err := s.checkLen("message", msg, s.p.MessageSize()); err != nil {
		return nil, err
	}
	return pke.Encrypt(s.p, seedSE, pk, msg), nil
}

// PKEDecrypt recovers the message of ct.  Any well-sized ciphertext
// decrypts to some message.
func (s *Scheme) PKEDecrypt(sk, ct []byte) ([]byte, error) {
	if err := s.checkLen("secret key", sk, s.p.PKESecretKeySize()); err != nil {
		return nil, err
	}
	if err := s.checkLen("ciphertext", ct, s.p.PKECiphertextSize()); err != nil {
		return nil, err
	}
	return pke.Decrypt(s.p, sk, ct), nil
}

// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package keyfile

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/jrick/pqss/kem"
	"github.com/stretchr/testify/require"
)

var testParams = NewArgon2idParams(1, 64)

func generate(t *testing.T, name string) (k kem.KEM, pk, sk *bytes.Buffer, fp string) {
	k, err := kem.Open(name)
	require.NoError(t, err)
	pk, sk = new(bytes.Buffer), new(bytes.Buffer)
	fp, err = GenerateKeys(rand.Reader, pk, sk, k, []byte("passphrase"), testParams, "test key")
	require.NoError(t, err)
	return k, pk, sk, fp
}

func TestGenerateAndRead(t *testing.T) {
	k, pkbuf, skbuf, fp := generate(t, "efrodokem-640-shake")
	require.True(t, strings.HasPrefix(fp, "shake256:"))

	pk, err := ReadPublicKey(bytes.NewReader(pkbuf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, k, pk.KEM)
	require.Equal(t, fp, pk.Fingerprint)
	require.Equal(t, "test key", pk.Comment)
	require.Len(t, pk.Key, k.PublicKeySize())

	sk, kf, err := OpenSecretKey(bytes.NewReader(skbuf.Bytes()), []byte("passphrase"))
	require.NoError(t, err)
	require.Equal(t, fp, kf.Fingerprint)
	require.Equal(t, k, sk.KEM)

	// The sealed seed regenerates the public key.
	again, err := sk.KEM.GenerateKey(sk.Seed)
	require.NoError(t, err)
	require.Equal(t, pk.Key, again)

	ct, key1, err := k.Encapsulate(pk.Key)
	require.NoError(t, err)
	key2, err := k.Decapsulate(sk.Seed, ct)
	require.NoError(t, err)
	require.Equal(t, key1, key2)
}

func TestWrongPassphrase(t *testing.T) {
	_, _, skbuf, _ := generate(t, "sntrup4591761")
	_, _, err := OpenSecretKey(skbuf, []byte("wrong"))
	require.Error(t, err)
}

func TestTamperedHeader(t *testing.T) {
	_, _, skbuf, _ := generate(t, "sntrup4591761")
	tampered := strings.Replace(skbuf.String(), "comment: test key", "comment: evil key", 1)
	_, _, err := OpenSecretKey(strings.NewReader(tampered), []byte("passphrase"))
	require.Error(t, err)
}

func TestReencrypt(t *testing.T) {
	_, _, skbuf, fp := generate(t, "efrodokem-640-shake")
	sk, kf, err := OpenSecretKey(skbuf, []byte("passphrase"))
	require.NoError(t, err)

	out := new(bytes.Buffer)
	err = EncryptSecretKey(rand.Reader, out, sk, []byte("new passphrase"), testParams, kf)
	require.NoError(t, err)

	sk2, kf2, err := OpenSecretKey(out, []byte("new passphrase"))
	require.NoError(t, err)
	require.Equal(t, sk.Seed, sk2.Seed)
	require.Equal(t, fp, kf2.Fingerprint)
}

func TestReadPublicKeyErrors(t *testing.T) {
	_, pkbuf, _, _ := generate(t, "sntrup4591761")
	good := pkbuf.String()

	tests := []struct {
		name, from, to string
	}{
		{"header", publicKeyHeader, "ss encryption public key"},
		{"cryptosystem", "cryptosystem: sntrup4591761", "cryptosystem: rsa"},
		{"encoding", "encoding: base64", "encoding: hex"},
		{"separator", "comment: test key", "comment test key"},
		{"fingerprint", "fingerprint: shake256:", "fingerprint: shake256:AA"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bad := strings.Replace(good, tc.from, tc.to, 1)
			require.NotEqual(t, good, bad)
			_, err := ReadPublicKey(strings.NewReader(bad))
			require.Error(t, err)
		})
	}

	_, err := ReadPublicKey(strings.NewReader(""))
	require.Error(t, err)
}

func TestCommentsIgnored(t *testing.T) {
	_, pkbuf, _, fp := generate(t, "sntrup4591761")
	withComments := "# leading comment\n" + strings.Replace(pkbuf.String(), "encoding:", "# note\nencoding:", 1)
	pk, err := ReadPublicKey(strings.NewReader(withComments))
	require.NoError(t, err)
	require.Equal(t, fp, pk.Fingerprint)
}

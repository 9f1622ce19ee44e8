// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrick/pqss/keyfile"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// run executes the command line with a fixed passphrase source.
func run(t *testing.T, passphrases []string, args ...string) (string, error) {
	viper.Reset()
	saved := readPassphrase
	defer func() { readPassphrase = saved }()
	readPassphrase = func(string) ([]byte, error) {
		require.NotEmpty(t, passphrases, "unexpected passphrase prompt")
		p := passphrases[0]
		passphrases = passphrases[1:]
		return []byte(p), nil
	}

	cmd := newMainCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeRandomFile(t *testing.T, path string, n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0600))
	return b
}

func TestKeygenEncryptDecrypt(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, []string{"pw", "pw"}, "--dir", dir, "keygen",
		"-k", "efrodokem-640-shake", "-m", "64", "-f", "-c", "test")
	require.NoError(t, err)

	pkFile, err := os.Open(filepath.Join(dir, "id.public"))
	require.NoError(t, err)
	pk, err := keyfile.ReadPublicKey(pkFile)
	pkFile.Close()
	require.NoError(t, err)
	require.Equal(t, "efrodokem-640-shake", pk.KEM.String())
	require.Equal(t, "test", pk.Comment)

	// Keys are never overwritten.
	_, err = run(t, []string{"pw", "pw"}, "--dir", dir, "keygen", "-m", "64", "-f")
	require.ErrorContains(t, err, "already exist")

	in := filepath.Join(dir, "plain")
	enc := filepath.Join(dir, "plain.enc")
	dec := filepath.Join(dir, "plain.dec")
	plaintext := writeRandomFile(t, in, 100000)

	_, err = run(t, nil, "--dir", dir, "encrypt", "--in", in, "--out", enc)
	require.NoError(t, err)
	_, err = run(t, []string{"pw"}, "--dir", dir, "decrypt", "--in", enc, "--out", dec)
	require.NoError(t, err)
	got, err := os.ReadFile(dec)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)

	// A wrong passphrase fails and leaves no output behind.
	require.NoError(t, os.Remove(dec))
	_, err = run(t, []string{"wrong"}, "--dir", dir, "decrypt", "--in", enc, "--out", dec)
	require.Error(t, err)
	_, err = os.Stat(dec)
	require.True(t, os.IsNotExist(err))
}

func TestPassphraseEncryption(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plain")
	enc := filepath.Join(dir, "plain.enc")
	dec := filepath.Join(dir, "plain.dec")
	plaintext := writeRandomFile(t, in, 1000)

	_, err := run(t, []string{"secret", "secret"}, "--dir", dir, "encrypt", "-p",
		"-m", "64", "-f", "--in", in, "--out", enc)
	require.NoError(t, err)
	_, err = run(t, []string{"secret"}, "--dir", dir, "decrypt", "--in", enc, "--out", dec)
	require.NoError(t, err)
	got, err := os.ReadFile(dec)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestWeakArgon2Refused(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, nil, "--dir", dir, "keygen", "-m", "64")
	require.ErrorContains(t, err, "stronger parameters")
}

func TestMismatchedPassphrase(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, []string{"one", "two"}, "--dir", dir, "keygen",
		"-k", "sntrup4591761", "-m", "64", "-f")
	require.ErrorContains(t, err, "do not match")
	_, err = os.Stat(filepath.Join(dir, "id.public"))
	require.True(t, os.IsNotExist(err))
}

func TestPasswd(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, []string{"old", "old"}, "--dir", dir, "-i", "alice", "keygen",
		"-k", "sntrup4591761", "-m", "64", "-f")
	require.NoError(t, err)

	_, err = run(t, []string{"old", "new", "new"}, "--dir", dir, "-i", "alice", "passwd", "-m", "64", "-f")
	require.NoError(t, err)

	skFile, err := os.Open(filepath.Join(dir, "alice.secret"))
	require.NoError(t, err)
	defer skFile.Close()
	_, _, err = keyfile.OpenSecretKey(skFile, []byte("new"))
	require.NoError(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := "kem: sntrup4591761-frodokem-640-shake\nidentity: bob\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0600))

	_, err := run(t, []string{"pw", "pw"}, "--dir", dir, "keygen", "-m", "64", "-f")
	require.NoError(t, err)

	pkFile, err := os.Open(filepath.Join(dir, "bob.public"))
	require.NoError(t, err)
	defer pkFile.Close()
	pk, err := keyfile.ReadPublicKey(pkFile)
	require.NoError(t, err)
	require.Equal(t, "sntrup4591761-frodokem-640-shake", pk.KEM.String())
}

func TestParams(t *testing.T) {
	out, err := run(t, nil, "--dir", t.TempDir(), "params")
	require.NoError(t, err)
	for _, want := range []string{"FrodoKEM-640-SHAKE", "9616", "19888", "9752", "eFrodoKEM-1344-SHAKE", "21632", "x25519-frodokem-976-shake"} {
		require.True(t, strings.Contains(out, want), "missing %q in\n%s", want, out)
	}
}

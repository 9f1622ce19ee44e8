// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/jrick/pqss/frodokem"
	"github.com/jrick/pqss/kem"
	"github.com/jrick/pqss/keyfile"
	"github.com/jrick/pqss/stream"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// readPassphrase prompts on the controlling terminal.
var readPassphrase = func(prompt string) ([]byte, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "open terminal")
	}
	defer tty.Close()
	if _, err := fmt.Fprint(tty, prompt); err != nil {
		return nil, err
	}
	passphrase, err := term.ReadPassword(int(tty.Fd()))
	fmt.Fprintln(tty)
	return passphrase, err
}

func newPassphrase(prompt string) ([]byte, error) {
	passphrase, err := readPassphrase(prompt)
	if err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, errors.New("empty passphrase")
	}
	again, err := readPassphrase("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(passphrase, again) {
		return nil, errors.New("passphrases do not match")
	}
	return passphrase, nil
}

func checkArgon2(memory uint32, force bool) error {
	if memory >= defaultMemory {
		return nil
	}
	log.Warnf("recommended Argon2id memory parameter is %d KiB (%d MiB)",
		defaultMemory, defaultMemory/1024)
	if !force {
		return errors.New("choose stronger parameters, use defaults, or force with -f")
	}
	return nil
}

func addArgon2Flags(cmd *cobra.Command) {
	cmd.Flags().Uint32P("time", "t", defaultTime, "Argon2id time")
	cmd.Flags().Uint32P("memory", "m", defaultMemory, "Argon2id memory (KiB)")
	cmd.Flags().BoolP("force", "f", false, "force Argon2id key derivation despite low parameters")
}

var argon2Keys = map[string]string{
	"argon2.time":   "time",
	"argon2.memory": "memory",
}

func keygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair for an identity",
		Args:  cobra.NoArgs,
		RunE:  keygen,
	}
	cmd.Flags().StringP("kem", "k", kem.Default, "key encapsulation mechanism")
	cmd.Flags().StringP("comment", "c", "", "comment")
	addArgon2Flags(cmd)
	return cmd
}

func keygen(cmd *cobra.Command, args []string) (err error) {
	keys := map[string]string{"kem": "kem"}
	for k, v := range argon2Keys {
		keys[k] = v
	}
	if err := bindFlags(cmd.Flags(), keys); err != nil {
		return err
	}
	k, err := kem.Open(viper.GetString("kem"))
	if err != nil {
		return err
	}
	time, memory := argon2Params()
	force, _ := cmd.Flags().GetBool("force")
	if err := checkArgon2(memory, force); err != nil {
		return err
	}

	dir, err := appdir()
	if err != nil {
		return err
	}
	pkFilename, skFilename := keyFilenames(dir)
	for _, fn := range []string{pkFilename, skFilename} {
		if _, err := os.Stat(fn); !os.IsNotExist(err) {
			return errors.Errorf("%q keys already exist in %s", viper.GetString("identity"), dir)
		}
	}
	if err := unveil(dir, "rwc"); err != nil {
		return err
	}
	if err := unveil("/dev/tty", "rw"); err != nil {
		return err
	}
	if err := unveilBlock(); err != nil {
		return err
	}

	passphrase, err := newPassphrase("Secret key passphrase: ")
	if err != nil {
		return err
	}
	defer clear(passphrase)

	pkFile, err := os.OpenFile(pkFilename, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer pkFile.Close()
	skFile, err := os.OpenFile(skFilename, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		os.Remove(pkFilename)
		return err
	}
	defer skFile.Close()
	defer func() {
		if err != nil {
			os.Remove(pkFilename)
			os.Remove(skFilename)
		}
	}()

	comment, _ := cmd.Flags().GetString("comment")
	kdfp := keyfile.NewArgon2idParams(time, memory)
	log.Debugf("generating %s key with argon2id time=%d memory=%d", k, time, memory)
	fp, err := keyfile.GenerateKeys(rand.Reader, pkFile, skFile, k, passphrase, kdfp, comment)
	if err != nil {
		return err
	}
	log.Infof("create %v", pkFilename)
	log.Infof("create %v", skFilename)
	log.Infof("fingerprint: %s", fp)
	return nil
}

func addIOFlags(cmd *cobra.Command) {
	cmd.Flags().String("in", "", "input file (default stdin)")
	cmd.Flags().String("out", "", "output file (default stdout)")
}

// files holds the input and output named by the --in and --out flags,
// defaulting to stdin and stdout.
type files struct {
	in      io.Reader
	out     io.Writer
	inPath  string
	outPath string
	closers []io.Closer
}

func openFiles(cmd *cobra.Command) (*files, error) {
	f := &files{in: os.Stdin, out: os.Stdout}
	f.inPath, _ = cmd.Flags().GetString("in")
	f.outPath, _ = cmd.Flags().GetString("out")
	if f.inPath != "" && f.inPath != "-" {
		in, err := os.Open(f.inPath)
		if err != nil {
			return nil, err
		}
		f.in = in
		f.closers = append(f.closers, in)
	}
	if f.outPath != "" && f.outPath != "-" {
		out, err := os.Create(f.outPath)
		if err != nil {
			f.close(false)
			return nil, err
		}
		f.out = out
		f.closers = append(f.closers, out)
	}
	return f, nil
}

// close closes opened files and removes a created output file when failed
// is true.
func (f *files) close(failed bool) {
	for _, c := range f.closers {
		c.Close()
	}
	if failed && f.outPath != "" && f.outPath != "-" {
		os.Remove(f.outPath)
	}
}

// unveilFiles restricts the process to the key directory, the terminal
// and the named input and output.
func unveilFiles(dir string, f *files) error {
	paths := [][2]string{{dir, "r"}, {"/dev/tty", "rw"}}
	if f.inPath != "" && f.inPath != "-" {
		paths = append(paths, [2]string{f.inPath, "r"})
	}
	if f.outPath != "" && f.outPath != "-" {
		paths = append(paths, [2]string{filepath.Dir(f.outPath), "rwc"})
	}
	for _, p := range paths {
		if err := unveil(p[0], p[1]); err != nil {
			return err
		}
	}
	return unveilBlock()
}

func encryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt to an identity's public key or a passphrase",
		Args:  cobra.NoArgs,
		RunE:  encrypt,
	}
	cmd.Flags().BoolP("passphrase", "p", false, "encrypt with a passphrase instead of a public key")
	addArgon2Flags(cmd)
	addIOFlags(cmd)
	return cmd
}

func encrypt(cmd *cobra.Command, args []string) (err error) {
	if err := bindFlags(cmd.Flags(), argon2Keys); err != nil {
		return err
	}
	dir, err := appdir()
	if err != nil {
		return err
	}
	f, err := openFiles(cmd)
	if err != nil {
		return err
	}
	defer func() { f.close(err != nil) }()
	if err := unveilFiles(dir, f); err != nil {
		return err
	}

	var header, key []byte
	usePassphrase, _ := cmd.Flags().GetBool("passphrase")
	if usePassphrase {
		time, memory := argon2Params()
		force, _ := cmd.Flags().GetBool("force")
		if err := checkArgon2(memory, force); err != nil {
			return err
		}
		passphrase, err := newPassphrase("Encryption passphrase: ")
		if err != nil {
			return err
		}
		defer clear(passphrase)
		header, key, err = stream.PassphraseHeader(rand.Reader, passphrase, time, memory)
		if err != nil {
			return err
		}
	} else {
		pkFilename, _ := keyFilenames(dir)
		pkFile, err := os.Open(pkFilename)
		if os.IsNotExist(err) {
			return errors.Errorf("%s does not exist; use '-i' to choose another identity "+
				"or generate keys with 'pqss keygen'", pkFilename)
		}
		if err != nil {
			return err
		}
		pk, err := keyfile.ReadPublicKey(pkFile)
		pkFile.Close()
		if err != nil {
			return errors.Wrap(err, pkFilename)
		}
		log.Debugf("encrypting to %s key %s", pk.KEM, pk.Fingerprint)
		header, key, err = stream.Encapsulate(pk.KEM, pk.Key)
		if err != nil {
			return err
		}
	}
	defer clear(key)

	return stream.Encrypt(f.out, f.in, header, key)
}

func decryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt with an identity's secret key or a passphrase",
		Args:  cobra.NoArgs,
		RunE:  decrypt,
	}
	addIOFlags(cmd)
	return cmd
}

func decrypt(cmd *cobra.Command, args []string) (err error) {
	dir, err := appdir()
	if err != nil {
		return err
	}
	f, err := openFiles(cmd)
	if err != nil {
		return err
	}
	defer func() { f.close(err != nil) }()
	if err := unveilFiles(dir, f); err != nil {
		return err
	}

	h, err := stream.ReadHeader(f.in)
	if err != nil {
		return err
	}
	log.Debugf("stream key scheme %s", h.Scheme)

	var key []byte
	if h.Scheme == stream.Argon2idScheme {
		passphrase, err := readPassphrase("Decryption passphrase: ")
		if err != nil {
			return err
		}
		defer clear(passphrase)
		key, err = stream.PassphraseKey(h, passphrase)
		if err != nil {
			return err
		}
	} else {
		_, skFilename := keyFilenames(dir)
		sk, err := openSecretKey(skFilename)
		if err != nil {
			return err
		}
		defer sk.Zero()
		if sk.KEM.String() != h.KEM.String() {
			return errors.Errorf("stream is encrypted with %s but %s is a %s key",
				h.KEM, skFilename, sk.KEM)
		}
		key, err = stream.Decapsulate(h, sk.Seed)
		if err != nil {
			return err
		}
	}
	defer clear(key)

	return stream.Decrypt(f.out, f.in, h.Bytes, key)
}

func openSecretKey(filename string) (*keyfile.SecretKey, error) {
	sk, _, err := openSecretKeyFields(filename)
	return sk, err
}

func openSecretKeyFields(filename string) (*keyfile.SecretKey, keyfile.Keyfields, error) {
	skFile, err := os.Open(filename)
	if err != nil {
		return nil, keyfile.Keyfields{}, err
	}
	defer skFile.Close()
	passphrase, err := readPassphrase("Secret key passphrase: ")
	if err != nil {
		return nil, keyfile.Keyfields{}, err
	}
	defer clear(passphrase)
	sk, kf, err := keyfile.OpenSecretKey(skFile, passphrase)
	if err != nil {
		log.Errorf("%s: %v", filename, err)
		return nil, kf, errors.New("the secret keyfile cannot be opened; " +
			"this may be due to keyfile tampering or an incorrect passphrase")
	}
	return sk, kf, nil
}

func passwdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the passphrase of an identity's secret key",
		Args:  cobra.NoArgs,
		RunE:  passwd,
	}
	addArgon2Flags(cmd)
	return cmd
}

func passwd(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd.Flags(), argon2Keys); err != nil {
		return err
	}
	time, memory := argon2Params()
	force, _ := cmd.Flags().GetBool("force")
	if err := checkArgon2(memory, force); err != nil {
		return err
	}
	dir, err := appdir()
	if err != nil {
		return err
	}
	_, skFilename := keyFilenames(dir)

	sk, kf, err := openSecretKeyFields(skFilename)
	if err != nil {
		return err
	}
	defer sk.Zero()
	passphrase, err := newPassphrase("New secret key passphrase: ")
	if err != nil {
		return err
	}
	defer clear(passphrase)

	tmp, err := os.CreateTemp(dir, filepath.Base(skFilename)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	kdfp := keyfile.NewArgon2idParams(time, memory)
	if err := keyfile.EncryptSecretKey(rand.Reader, tmp, sk, passphrase, kdfp, kf); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), skFilename); err != nil {
		return err
	}
	log.Infof("reencrypted %s", skFilename)
	return nil
}

func paramsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print FrodoKEM parameter sets and available KEMs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printParams(cmd.OutOrStdout())
		},
	}
}

func printParams(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAMETER SET\tPUBLIC KEY\tSECRET KEY\tCIPHERTEXT\tSHARED SECRET")
	for _, s := range frodokem.Schemes() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", s.Name(), s.PublicKeySize(),
			s.SecretKeySize(), s.CiphertextSize(), s.SharedSecretSize())
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "KEM\tPUBLIC KEY\tCIPHERTEXT")
	for _, name := range kem.Names() {
		k, err := kem.Open(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\n", name, k.PublicKeySize(), k.CiphertextSize())
	}
	return tw.Flush()
}

// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jrick/pqss/kem"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix = "PQSS"
	defaultID = "id"

	defaultTime   = 1
	defaultMemory = 64 * 1024
)

// initConfig layers the environment and an optional config.yaml in the key
// directory beneath the command line flags.
func initConfig() error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("identity", defaultID)
	viper.SetDefault("kem", kem.Default)
	viper.SetDefault("argon2.time", defaultTime)
	viper.SetDefault("argon2.memory", defaultMemory)

	if viper.GetString("dir") == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "key directory")
		}
		viper.Set("dir", filepath.Join(home, ".pqss"))
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(viper.GetString("dir"))
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "config")
		}
	}
	return nil
}

// bindFlags binds command-specific flags to their config keys.  Flags
// shared by several commands are bound when the command runs.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return errors.Wrapf(err, "bind %s", flag)
		}
	}
	return nil
}

// appdir returns the key directory, creating it when missing.
func appdir() (string, error) {
	dir := viper.GetString("dir")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func keyFilenames(dir string) (pk, sk string) {
	id := viper.GetString("identity")
	return filepath.Join(dir, id+".public"), filepath.Join(dir, id+".secret")
}

func argon2Params() (time, memory uint32) {
	return viper.GetUint32("argon2.time"), viper.GetUint32("argon2.memory")
}

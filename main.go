// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop().Sugar()

func newLogger(verbose bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	encoderConfig.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level)
	return zap.New(core).Sugar()
}

// newMainCmd describes the tool and defaults to printing the help message.
func newMainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pqss",
		Short:        "Post-quantum file encryption with FrodoKEM",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			log = newLogger(viper.GetBool("verbose"))
			log.Debugf("key directory %s", viper.GetString("dir"))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "debug logging")
	flags.String("dir", "", "key directory (default $HOME/.pqss)")
	flags.StringP("identity", "i", defaultID, "identity name")
	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("dir", flags.Lookup("dir"))
	viper.BindPFlag("identity", flags.Lookup("identity"))

	cmd.AddCommand(keygenCmd())
	cmd.AddCommand(encryptCmd())
	cmd.AddCommand(decryptCmd())
	cmd.AddCommand(passwdCmd())
	cmd.AddCommand(paramsCmd())
	return cmd
}

func main() {
	// On failure Cobra prints the usage message and error string, so we only
	// need to exit with a non-0 status
	err := newMainCmd().Execute()
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

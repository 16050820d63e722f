/*
Copyright © 2024 Dean
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalviewer/src/log"
)

const defaultEnvFile = ".env"

var (
	cfgFile string
	envFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "evalviewer",
	Short: "Browse eval definitions and their samples",
	Long: `evalviewer serves a browser over a registry of eval definitions and the
sample files they point at, and can submit samples to a chat-completion model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "file of KEY=value credentials loaded into the environment")
}

func initConfig() error {
	if err := godotenv.Load(envFile); err != nil {
		// only an explicitly chosen env file has to exist
		if !errors.Is(err, fs.ErrNotExist) || envFile != defaultEnvFile {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	settingDefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	if err := log.Setup(viper.GetBool("log.development")); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	if cfgFile != "" {
		log.Info("Using config file", "path", viper.ConfigFileUsed())
	}
	return nil
}

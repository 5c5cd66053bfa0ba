// Package cmd is for command line interactions with the sirna application
package cmd

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sirna/config"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "sirna",
	Short: `Design small interfering RNA duplexes against an mRNA target.
Candidate windows are cut from the coding region, scored against
empirical design rules, and screened for off-target matches`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log progress while commands run")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in the settings file and ENV variables if set.
func initConfig() {
	config.SetDefaults()

	viper.SetConfigName(".sirna")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	viper.SetEnvPrefix("SIRNA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// a missing settings file is fine, defaults and flags cover everything
	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		log.Printf("using settings in %s", viper.ConfigFileUsed())
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/brandonscript/auto-m4b/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time.
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "auto-m4b",
		Short: "Watches an inbox folder and converts audiobooks into single-file .m4b",
		Long: `auto-m4b watches a folder of loose audio file collections and converts
each one into a single tagged .m4b audiobook using an external converter
tool, backing up originals and quarantining anything it can't process
automatically into a fix folder for manual review.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/auto-m4b.yaml)")
	rootCmd.PersistentFlags().String("inbox-dir", "", "directory to watch for new books")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored log output")
	rootCmd.PersistentFlags().Bool("nas-mode", false, "force NAS-tuned retry/buffer behavior instead of auto-detecting")

	viper.BindPFlag("inbox_dir", rootCmd.PersistentFlags().Lookup("inbox-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("nas_mode", rootCmd.PersistentFlags().Lookup("nas-mode"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("auto-m4b")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("AUTO_M4B")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}

	if viper.GetBool("verbose") {
		util.SetVerbose(true)
	}
	if viper.GetBool("quiet") {
		util.SetQuiet(true)
	}
	if viper.GetBool("no_color") {
		util.SetColors(false)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

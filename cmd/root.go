package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration, used when no .statex.yaml is found
const defaultConfigYAML = `
statement:
  LEDGER:
    patterns:
      account_no: 'Account No[ \t]*:[ \t]*\n?[ \t]*(\d+)'
      account_name: 'A/C Name[ \t]*:[ \t]*([^\n]*)'
      address: '(?s)Address[ \t]*:[ \t]*(.*?)\n[ \t]*City'
      open_date: 'Open Date[ \t]*:[ \t]*\n?[ \t]*(\d{2}-\d{2}-\d{4})'
      sanction_limit: 'Sanction Limit[ \t]*:[ \t]*([^\n]*)'
      interest_rate: 'Interest Rate[ \t]*:[ \t]*([^\n]*)'
      transaction: '(?P<date>\d{2}-[A-Za-z]{3}-\d{4})\s+(?P<description>.*?)\s+(?:(?P<debit>[\d,]+\.\d{2}(?:Dr|Cr)?)\s+(?P<credit>[\d,]+\.\d{2}(?:Dr|Cr)?)\s+|(?P<debit1>[\d,]+\.\d{2}Dr)\s+|(?P<credit1>[\d,]+\.\d{2}(?:Cr)?)\s+)?(?P<balance>[\d,]+\.\d{2}(?:Dr|Cr))'
limits:
  max_text_bytes: 16777216
server:
  port: "8080"
  max_upload_bytes: 16777216
  rate_limit_per_second: 0
  rate_limit_burst: 0
database:
  url: ""
  timeout: 300`

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "statex [filename]",
		Short: "Extract account details and transactions from bank statements",
		Long:  `statex is a utility to extract structured data out of bank statement PDFs`,
		Args:  cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				viper.Set("target", args[0])
				handler(extractCmd, []string{})
				return
			}
			cmd.Help()
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.statex.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	if !verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetFlags(log.Ltime | log.Lmsgprefix)
		log.SetPrefix("INFO: ")
	}
}

func initConfig() {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	if err := loadConfig(cfgFile); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, searching . and $HOME for .statex.yaml
// when path is empty, and falls back to the embedded defaults when none
// exists. STATEX_* environment variables override file values.
func loadConfig(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".statex")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STATEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		viper.SetConfigType("yaml")
		if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
			return fmt.Errorf("embedded configuration: %w", err)
		}
		return nil
	}
	return err
}

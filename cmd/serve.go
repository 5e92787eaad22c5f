package cmd

import (
	"log"
	"os"

	"github.com/aqlanhadi/statex/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Starts the HTTP API server. POST /upload turns a statement PDF into an
xlsx workbook; POST /extract returns the extracted data as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Configure logging for server mode
		log.SetOutput(os.Stdout)
		log.SetFlags(log.Ltime | log.Lmsgprefix)

		server := api.New(serverConfig())
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	},
}

// serverConfig builds the API configuration from viper, keeping the
// defaults for anything left unset.
func serverConfig() api.Config {
	cfg := api.DefaultConfig()
	if port := viper.GetString("server.port"); port != "" {
		cfg.Port = ":" + port
	}
	if n := viper.GetInt64("server.max_upload_bytes"); n > 0 {
		cfg.MaxUploadBytes = n
	}
	cfg.RateLimitPerSecond = viper.GetFloat64("server.rate_limit_per_second")
	cfg.RateLimitBurst = viper.GetInt("server.rate_limit_burst")
	cfg.LogPrefix = "SERVER: "
	return cfg
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to run the API server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

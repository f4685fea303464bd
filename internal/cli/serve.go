package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relook-app/relook/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&servePreview, "preview", false, "Keep all changes in memory only")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost    string
	servePort    int
	servePreview bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RELOOK API server",
	Long:  `Start the JSON API and live notification feed at localhost:4780.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override config from flags
	if serveHost != "" {
		cfg.API.Host = serveHost
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}
	if servePreview {
		cfg.App.Preview = true
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	d, err := daemon.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	d.Server.SetVersion(rootCmd.Version)

	return d.Serve(context.Background())
}

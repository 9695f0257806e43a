package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ciim-report-sync/internal/server"
)

// serveAddr overrides the configured listen address.
var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report operations over HTTP",
	Long: `Start an HTTP server exposing:
  GET  /api/status
  POST /api/resolve   {"date": "2024-03-04"}
  POST /api/check     {"paths": ["..."]}
  POST /api/transfer  {"scope": "weekly", "dates": [...], "overwrite": false}
  POST /api/daily     {"date": "2024-03-04", "recreate": false}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		return err
	}
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	fmt.Printf("Listening on %s\n", addr)
	return srv.Run(addr)
}

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kidbloom/internal/server"
	"kidbloom/internal/util"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		port    int
		devMode bool
		open    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, info, logger, err := opts.load()
			if err != nil {
				return err
			}
			// an explicit port in config.toml or the environment wins over the flag
			if port > 0 && !info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}
			if cmd.Flags().Changed("open") {
				cfg.Server.OpenBrowser = open
			}

			fmt.Println("==========================================")
			fmt.Println("  KidBloom")
			fmt.Println("==========================================")

			srv, err := server.NewServer(cfg, logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			url := fmt.Sprintf("http://localhost:%d/api/health", cfg.Server.Port)
			fmt.Printf("Listening on %s\n", addr)

			if cfg.Server.OpenBrowser && !cfg.Server.DevMode {
				if err := util.OpenBrowser(url); err != nil {
					fmt.Printf("Could not open a browser, visit %s\n", url)
				}
			}
			fmt.Println("Press Ctrl+C to stop")

			if err := srv.Run(ctx, addr); err != nil {
				return err
			}
			fmt.Println("Server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (used only when config.toml sets none)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "development mode")
	cmd.Flags().BoolVar(&open, "open", false, "open a browser once the server is up")
	return cmd
}


package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finsearch/finsearch/config"
	srv "github.com/finsearch/finsearch/internal/server"
)

func main() {
	var root = &cobra.Command{Use: "finsearch"}

	var serveAddr string
	var configPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serveAddr == "" {
				serveAddr = os.Getenv("FINSEARCH_HTTP_ADDR")
			}
			cfg := config.LoadConfig(configPath)
			return srv.Run(serveAddr, cfg)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to general.listen)")
	serve.Flags().StringVar(&configPath, "config", "", "path to config file")
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

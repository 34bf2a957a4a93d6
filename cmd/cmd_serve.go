// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/jcodagnone/matjip/catalog"
	"github.com/jcodagnone/matjip/naver"
	"github.com/jcodagnone/matjip/server"
	"github.com/spf13/cobra"
)

var serveOptions struct {
	Addr     string
	SeedFile string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Runs the HTTP API. When the catalog is empty it is seeded from the backup
file, if present. Without Naver credentials /api/search answers CONFIG_ERROR.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, repo, err := openCatalog()
		if err != nil {
			return err
		}
		defer db.Close()

		seeded, n, err := catalog.SeedIfEmpty(context.Background(), repo, serveOptions.SeedFile)
		if err != nil {
			return err
		}

		if seeded {
			log.Printf("Seeded %d places from %s", n, serveOptions.SeedFile)
		}

		var searcher server.Searcher

		client, err := newSearchClient()

		switch {
		case errors.Is(err, naver.ErrMissingCredentials):
			log.Println("NAVER_CLIENT_ID / NAVER_CLIENT_SECRET not set, search is disabled")
		case err != nil:
			return err
		default:
			searcher = client
		}

		addr := serveOptions.Addr
		if !cmd.Flags().Changed("addr") {
			if env := os.Getenv("MATJIP_ADDR"); env != "" {
				addr = env
			}
		}

		return server.NewServer(catalog.NewService(repo), searcher).Run(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOptions.Addr, "addr", "localhost:8080", "Address to listen on, overrides MATJIP_ADDR")
	serveCmd.Flags().StringVar(&serveOptions.SeedFile, "seed", catalogFile, "Backup file used to seed an empty catalog")
	rootCmd.AddCommand(serveCmd)
}

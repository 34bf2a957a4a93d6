// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/matjip/catalog"
	"github.com/jcodagnone/matjip/naver"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	dbFilename  = "matjip.duckdb"
	catalogFile = "places.json"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// Options are the settings shared by every command.
type Options struct {
	// DbPath is the directory holding the database
	DbPath string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// EnvFile is loaded into the environment before running a command
	EnvFile string
}

var options = &Options{}

var rootCmd = &cobra.Command{
	Use:   "matjip",
	Short: "restaurant catalog and map search",
	Long: `
matjip keeps a catalog of restaurants discovered through the Naver local
search API, deduplicates them as they are picked, and serves the reviewed ones
for a map viewport.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := godotenv.Load(options.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", options.EnvFile, err)
		}

		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&options.DbPath,
		"db-path",
		"db",
		"Directory where the database lives",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.EnvFile,
		"env-file",
		".env",
		"Environment file with NAVER_CLIENT_ID, NAVER_CLIENT_SECRET and MATJIP_ADDR",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}

// openCatalog opens the database, creating it when missing, and makes sure
// the schema exists.
func openCatalog() (*sql.DB, catalog.Repository, error) {
	if err := os.MkdirAll(options.DbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(options.DbPath, dbFilename))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := catalog.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

// newSearchClient builds the provider client from the environment.
func newSearchClient() (*naver.Client, error) {
	cfg := naver.ConfigFromEnv()
	cfg.EnableHTTPTrace = options.EnableHTTPTrace
	cfg.EnableHTTPBodyTrace = options.EnableHTTPBodyTrace
	cfg.UserAgent = "matjip/" + Version

	return naver.NewClient(cfg)
}

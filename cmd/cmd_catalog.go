// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/jcodagnone/matjip/catalog"
	"github.com/jcodagnone/matjip/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Backup, restore and bulk load the catalog",
}

var catalogStoreCmd = &cobra.Command{
	Use:   "store [file]",
	Short: "Export the catalog to a file",
	Long:  `Exports every place to a local JSON file. Places are sorted by id to minimize diffs when checking into version control.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := fileArg(args)

		db, repo, err := openCatalog()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := catalog.ExportToJSON(context.Background(), repo, path)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Exported %s places to %s\n", textutils.FormatInt(int64(n)), path)

		return nil
	},
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Import the catalog from a file",
	Long:  `Imports places from a local JSON file. The catalog must be empty.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := fileArg(args)

		db, repo, err := openCatalog()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := catalog.ImportFromJSON(context.Background(), repo, path)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Imported %s places from %s\n", textutils.FormatInt(int64(n)), path)

		return nil
	},
}

var catalogResolveOptions struct {
	Raw      bool
	MaxProcs int
}

var catalogResolveCmd = &cobra.Command{
	Use:   "resolve <candidates.json>",
	Short: "Resolve a file of candidates into the catalog",
	Long: `Resolves every candidate of a JSON array into the catalog, creating the places
that don't exist yet. With --raw the candidates carry the provider mapx/mapy
fields instead of latitude/longitude.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		candidates, err := readCandidates(args[0], catalogResolveOptions.Raw)
		if err != nil {
			return err
		}

		db, repo, err := openCatalog()
		if err != nil {
			return err
		}
		defer db.Close()

		m := resolveAll(context.Background(), catalog.NewService(repo), candidates, catalogResolveOptions.MaxProcs)

		log.Printf(
			"Resolve complete - %d created, %d found, %d failed from %d candidates",
			m.Created, m.Found, m.Failed, len(candidates),
		)

		if m.Failed > 0 {
			return fmt.Errorf("%d candidates failed", m.Failed)
		}

		return nil
	},
}

func fileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return catalogFile
}

func readCandidates(path string, raw bool) ([]*catalog.CandidatePlace, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is provided by admin
	if err != nil {
		return nil, fmt.Errorf("reading candidates: %w", err)
	}

	if !raw {
		var candidates []*catalog.CandidatePlace
		if err := json.Unmarshal(data, &candidates); err != nil {
			return nil, fmt.Errorf("parsing candidates: %w", err)
		}

		return candidates, nil
	}

	var rawCandidates []*catalog.RawCandidate
	if err := json.Unmarshal(data, &rawCandidates); err != nil {
		return nil, fmt.Errorf("parsing candidates: %w", err)
	}

	candidates := make([]*catalog.CandidatePlace, 0, len(rawCandidates))

	for i, r := range rawCandidates {
		c, err := r.Normalize()
		if err != nil {
			return nil, fmt.Errorf("candidate %d (%q): %w", i, r.Name, err)
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}

// ResolveMetrics counts the outcomes of a bulk resolve.
type ResolveMetrics struct {
	Created int
	Found   int
	Failed  int
}

func resolveAll(ctx context.Context, svc *catalog.Service, candidates []*catalog.CandidatePlace, maxProcs int) ResolveMetrics {
	n := len(candidates)

	if maxProcs <= 0 {
		maxProcs = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Resolving"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		metrics ResolveMetrics
	)

	semaphore := make(chan struct{}, maxProcs)

	for i, c := range candidates {
		wg.Add(1)

		go func(i int, c *catalog.CandidatePlace) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			res, err := svc.Resolve(ctx, c)

			mu.Lock()
			switch {
			case err != nil:
				metrics.Failed++
			case res.IsNew():
				metrics.Created++
			default:
				metrics.Found++
			}
			mu.Unlock()

			if err != nil {
				log.Printf("[%d/%d] Resolve failed - %s", i+1, n, err)
			}

			if bar == nil {
				if err == nil {
					log.Printf("[%d/%d] %s %s", i+1, n, res.Outcome, res.PlaceID)
				}
			} else if err := bar.Add(1); err != nil {
				log.Printf("updating progress bar: %v", err)
			}
		}(i, c)
	}

	wg.Wait()

	return metrics
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogStoreCmd, catalogLoadCmd, catalogResolveCmd)

	catalogResolveCmd.Flags().BoolVar(&catalogResolveOptions.Raw, "raw", false, "Candidates carry provider mapx/mapy coordinates")
	catalogResolveCmd.Flags().IntVar(
		&catalogResolveOptions.MaxProcs,
		"max-procs",
		0,
		"Max number of concurrent resolutions. Defaults to the number of CPUs",
	)
}

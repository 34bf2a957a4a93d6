// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jcodagnone/matjip/catalog"
	"github.com/jcodagnone/matjip/utils/textutils"
	"github.com/spf13/cobra"
)

var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "Query and edit the catalog",
}

var placesOptions struct {
	Category  string
	Res       int
	Candidate catalog.CandidatePlace
}

// withService runs fn with a catalog service over the local database.
func withService(fn func(ctx context.Context, svc *catalog.Service) error) error {
	db, repo, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(context.Background(), catalog.NewService(repo))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

var placesListCmd = &cobra.Command{
	Use:   "list <lat1> <lng1> <lat2> <lng2>",
	Short: "List the reviewed places inside a viewport",
	Args:  cobra.ExactArgs(4),
	RunE: func(_ *cobra.Command, args []string) error {
		q, err := catalog.ParseViewport(args[0], args[1], args[2], args[3], placesOptions.Category)
		if err != nil {
			return err
		}

		return withService(func(ctx context.Context, svc *catalog.Service) error {
			markers, err := svc.ListPlacesInViewport(ctx, q)
			if err != nil {
				return err
			}

			a, b, c := strings.Repeat("─", 36), strings.Repeat("─", 30), strings.Repeat("─", 16)
			fmt.Printf("╭─%s─┬─%s─┬─%s─╮\n", a, b, c)
			fmt.Printf("│ %-36s │ %s │ %16s │\n", "Id", padRight("Name", 30), "Rating (reviews)")
			fmt.Printf("├─%s─┼─%s─┼─%s─┤\n", a, b, c)

			for _, m := range markers {
				fmt.Printf("│ %-36s │ %s │ %4.2f (%9s) │\n",
					m.ID, padRight(m.Name, 30), m.AverageRating, textutils.FormatInt(int64(m.ReviewCount)))
			}

			fmt.Printf("╰─%s─┴─%s─┴─%s─╯\n", a, b, c)

			return nil
		})
	},
}

var placesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *catalog.Service) error {
			place, err := svc.GetPlace(ctx, args[0])
			if err != nil {
				return err
			}

			return printJSON(place)
		})
	},
}

var placesResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Find or create the place described by the flags",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *catalog.Service) error {
			res, err := svc.Resolve(ctx, &placesOptions.Candidate)
			if err != nil {
				return err
			}

			return printJSON(res)
		})
	},
}

var placesCellsCmd = &cobra.Command{
	Use:   "cells <lat1> <lng1> <lat2> <lng2>",
	Short: "Summarize the reviewed places of a viewport by H3 cell",
	Args:  cobra.ExactArgs(4),
	RunE: func(_ *cobra.Command, args []string) error {
		q, err := catalog.ParseViewport(args[0], args[1], args[2], args[3], placesOptions.Category)
		if err != nil {
			return err
		}

		return withService(func(ctx context.Context, svc *catalog.Service) error {
			cells, err := svc.SummarizeCells(ctx, q, placesOptions.Res)
			if err != nil {
				return err
			}

			for _, c := range cells {
				fmt.Printf("%s %10.6f,%11.6f %6d places %8s reviews\n",
					c.Cell, c.Center.Lat, c.Center.Lng, c.PlaceCount, textutils.FormatInt(int64(c.ReviewCount)))
			}

			return nil
		})
	},
}

var placesStatsCmd = &cobra.Command{
	Use:   "stats <id> <average-rating> <review-count>",
	Short: "Overwrite the review aggregate of a place",
	Long:  "Overwrites the rating and review count of a place, as the review subsystem does after every review.",
	Args:  cobra.ExactArgs(3),
	RunE: func(_ *cobra.Command, args []string) error {
		avg, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid average rating %q: %w", args[1], err)
		}

		count, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid review count %q: %w", args[2], err)
		}

		return withService(func(ctx context.Context, svc *catalog.Service) error {
			return svc.RecordReviewStats(ctx, args[0], avg, count)
		})
	},
}

func init() {
	rootCmd.AddCommand(placesCmd)
	placesCmd.AddCommand(placesListCmd, placesGetCmd, placesResolveCmd, placesCellsCmd, placesStatsCmd)

	for _, c := range []*cobra.Command{placesListCmd, placesCellsCmd} {
		c.Flags().StringVar(&placesOptions.Category, "category", "", "Comma separated categories, by label or english name")
	}

	placesCellsCmd.Flags().IntVar(&placesOptions.Res, "res", 7, "H3 resolution, 5 to 9")

	f := placesResolveCmd.Flags()
	f.StringVar(&placesOptions.Candidate.Name, "name", "", "Place name")
	f.StringVar(&placesOptions.Candidate.Address, "address", "", "Lot address")
	f.StringVar(&placesOptions.Candidate.RoadAddress, "road-address", "", "Road address")
	f.StringVar(&placesOptions.Candidate.Category, "category", "", "Provider category, classified on creation")
	f.StringVar(&placesOptions.Candidate.Telephone, "telephone", "", "Telephone")
	f.Float64Var(&placesOptions.Candidate.Latitude, "lat", 0, "Latitude in degrees")
	f.Float64Var(&placesOptions.Candidate.Longitude, "lng", 0, "Longitude in degrees")
	f.StringVar(&placesOptions.Candidate.ExternalLink, "link", "", "Provider link")
	_ = placesResolveCmd.MarkFlagRequired("name")
	_ = placesResolveCmd.MarkFlagRequired("lat")
	_ = placesResolveCmd.MarkFlagRequired("lng")
}

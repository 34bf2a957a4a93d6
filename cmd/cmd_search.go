// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jcodagnone/matjip/catalog"
	"github.com/jcodagnone/matjip/naver"
	"github.com/jcodagnone/matjip/utils/textutils"
	"github.com/spf13/cobra"
)

var searchOptions struct {
	Display int
	Resolve bool
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search places in the Naver local search API",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		client, err := newSearchClient()
		if err != nil {
			return err
		}

		ctx := context.Background()

		resp, err := client.Search(ctx, naver.Query{
			Text:    strings.Join(args, " "),
			Display: searchOptions.Display,
		})
		if err != nil {
			if t := naver.TypeOf(err); t != naver.ErrorTypeUnknown {
				return fmt.Errorf("search failed (%s): %w", t, err)
			}

			return err
		}

		printSearchResults(resp)

		if !searchOptions.Resolve {
			return nil
		}

		db, repo, err := openCatalog()
		if err != nil {
			return err
		}
		defer db.Close()

		svc := catalog.NewService(repo)

		for i := range resp.Items {
			res, err := svc.Resolve(ctx, resp.Items[i].Candidate())
			if err != nil {
				return fmt.Errorf("resolving %q: %w", resp.Items[i].Title, err)
			}

			fmt.Printf("%-8s %s %s\n", res.Outcome, res.PlaceID, resp.Items[i].Title)
		}

		return nil
	},
}

func printSearchResults(resp *naver.SearchResponse) {
	const nameWidth, categoryWidth = 30, 6

	a, b, c, d := strings.Repeat("─", 3), strings.Repeat("─", nameWidth), strings.Repeat("─", categoryWidth), strings.Repeat("─", 22)

	fmt.Printf("%d results, showing %d\n", resp.Total, len(resp.Items))
	fmt.Printf("╭─%s─┬─%s─┬─%s─┬─%s─╮\n", a, b, c, d)
	fmt.Printf("│ %3s │ %s │ %s │ %-22s │\n", "#", padRight("Name", nameWidth), padRight("Cat.", categoryWidth), "Position")
	fmt.Printf("├─%s─┼─%s─┼─%s─┼─%s─┤\n", a, b, c, d)

	for i, item := range resp.Items {
		fmt.Printf("│ %3d │ %s │ %s │ %10.6f,%11.6f │\n",
			i+1,
			padRight(item.Title, nameWidth),
			padRight(string(item.Category), categoryWidth),
			item.Latitude,
			item.Longitude,
		)
	}

	fmt.Printf("╰─%s─┴─%s─┴─%s─┴─%s─╯\n", a, b, c, d)
}

// padRight pads s with spaces up to n characters, truncating longer values.
// Hangul takes two columns in a terminal, which is accounted for.
func padRight(s string, n int) string {
	var (
		out   strings.Builder
		width int
	)

	for _, r := range textutils.Truncate(s, n) {
		w := 1
		if r >= 0x1100 && (r <= 0x115f || (r >= 0x2e80 && r <= 0xa4cf) || (r >= 0xac00 && r <= 0xd7a3) || (r >= 0xff00 && r <= 0xff60)) {
			w = 2
		}

		if width+w > n {
			break
		}

		out.WriteRune(r)
		width += w
	}

	return out.String() + strings.Repeat(" ", n-width)
}

func init() {
	searchCmd.Flags().IntVar(&searchOptions.Display, "display", naver.DefaultDisplay, "Number of results, 1 to 100")
	searchCmd.Flags().BoolVar(&searchOptions.Resolve, "resolve", false, "Resolve every result into the catalog")
	rootCmd.AddCommand(searchCmd)
}

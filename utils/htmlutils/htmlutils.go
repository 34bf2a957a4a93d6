// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmlutils provides utility functions for working with HTML.
package htmlutils

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// StripTags removes markup from an HTML fragment, decodes entities and
// collapses runs of whitespace. Search providers highlight matches with
// <b> tags in otherwise plain text fields.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	sb := strings.Builder{}
	z := html.NewTokenizer(strings.NewReader(s))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				// fall back to the raw input, it was not markup after all
				return strings.Join(strings.Fields(s), " ")
			}

			break
		}

		if tt == html.TextToken {
			sb.Write(z.Text())
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

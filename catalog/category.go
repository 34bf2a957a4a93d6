// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"strings"

	"github.com/jcodagnone/matjip/utils/textutils"
)

// Category is one of the closed set of food categories. The value is the
// label shown to users and persisted in the catalog.
type Category string

// Known categories.
const (
	CategoryKorean   Category = "한식"
	CategoryJapanese Category = "일식"
	CategoryWestern  Category = "양식"
	CategoryChinese  Category = "중식"
	CategoryCafe     Category = "카페"
	CategoryDessert  Category = "디저트"
	CategoryFastFood Category = "패스트푸드"
	CategoryBar      Category = "주점"
	CategoryBuffet   Category = "뷔페"
	CategoryOther    Category = "기타"
)

type categoryKeywords struct {
	category Category
	name     string
	keywords []string
}

// categoryTable is evaluated in order and the first matching entry wins, so
// "한식 카페" is Korean, not Cafe. Keywords are stored already folded.
var categoryTable = []categoryKeywords{
	{CategoryKorean, "korean", []string{"한식", "korean", "한정식", "백반", "찌개"}},
	{CategoryJapanese, "japanese", []string{"일식", "japanese", "초밥", "돈까스", "라멘", "sushi"}},
	{CategoryWestern, "western", []string{"양식", "western", "이탈리안", "스테이크", "파스타"}},
	{CategoryChinese, "chinese", []string{"중식", "chinese", "중화요리"}},
	{CategoryCafe, "cafe", []string{"카페", "cafe", "커피", "coffee"}},
	{CategoryDessert, "dessert", []string{"디저트", "dessert", "베이커리", "bakery"}},
	{CategoryFastFood, "fastfood", []string{"패스트푸드", "fastfood", "fast food", "버거", "burger"}},
	{CategoryBar, "bar", []string{"주점", "bar", "술집"}},
	{CategoryBuffet, "buffet", []string{"뷔페", "buffet"}},
}

// Categories returns every category in classification order, Other last.
func Categories() []Category {
	out := make([]Category, 0, len(categoryTable)+1)
	for _, e := range categoryTable {
		out = append(out, e.category)
	}

	return append(out, CategoryOther)
}

// Classify maps a free-text provider category into the closed set. It never
// fails: empty or unmatched input is CategoryOther.
func Classify(raw string) Category {
	folded := textutils.LowerASCIIFolding(raw)
	if folded == "" {
		return CategoryOther
	}

	for _, e := range categoryTable {
		for _, kw := range e.keywords {
			if strings.Contains(folded, kw) {
				return e.category
			}
		}
	}

	return CategoryOther
}

// ParseCategory resolves an exact label ("한식") or English name ("korean")
// into a Category. Unlike Classify it does not match substrings.
func ParseCategory(s string) (Category, bool) {
	folded := textutils.LowerASCIIFolding(s)
	if folded == "" {
		return "", false
	}

	for _, e := range categoryTable {
		if folded == string(e.category) || folded == e.name {
			return e.category, true
		}
	}

	if folded == string(CategoryOther) || folded == "other" {
		return CategoryOther, true
	}

	return "", false
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	parsed, ok := ParseCategory(string(c))

	return ok && parsed == c
}

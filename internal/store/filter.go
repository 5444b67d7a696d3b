package store

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"locamark/internal/models"
)

// filter matches records against the timeline search box and category chip.
// Text matches any of location name, custom name or category; the two
// conditions are alternatives, so a record passes when either one holds.
type filter struct {
	text     string
	category string
}

func newFilter(searchText, category string) filter {
	return filter{
		text:     fold(strings.TrimSpace(searchText)),
		category: fold(strings.TrimSpace(category)),
	}
}

func (f filter) match(r models.LocationRecord) bool {
	if f.text == "" && f.category == "" {
		return true
	}
	if f.text != "" {
		fields := []string{r.LocationName, r.Category}
		if r.CustomName != nil {
			fields = append(fields, *r.CustomName)
		}
		for _, field := range fields {
			if strings.Contains(fold(field), f.text) {
				return true
			}
		}
	}
	if f.category != "" && fold(r.Category) == f.category {
		return true
	}
	return false
}

// fold lowercases s and strips combining marks so "Hà Nội" matches "ha noi".
// Transformers keep state, so a fresh chain is built per call.
func fold(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

package format

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title collapses whitespace and title-cases each word: "dana  darurat" -> "Dana Darurat"
func Title(s string) string {
	return cases.Title(language.Indonesian).String(strings.Join(strings.Fields(s), " "))
}

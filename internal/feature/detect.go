// Package feature resolves which ledger domain a message belongs to.
package feature

import (
	"strings"

	"catat-worker/internal/models"
)

// prefixes one fixed token per domain, matched case-insensitively and terminated by a colon
var prefixes = []struct {
	token   string
	feature models.Feature
}{
	{"lm", models.FeaturePreciousMetal},
	{"keuangan", models.FeatureGeneralExpense},
}

// Detect returns the domain for text given the tenant's enabled features.
// A single enabled feature always wins and text is returned unchanged.
// With several features the text must start with "<token>:"; the prefix is stripped.
// The zero Feature means no domain could be resolved.
func Detect(text string, enabled []models.Feature) (models.Feature, string) {
	if len(enabled) == 1 {
		return enabled[0], text
	}

	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, p := range prefixes {
		if !strings.HasPrefix(lower, p.token) {
			continue
		}
		rest := strings.TrimLeft(trimmed[len(p.token):], " \t")
		if !strings.HasPrefix(rest, ":") {
			continue
		}
		if !contains(enabled, p.feature) {
			return "", text
		}
		return p.feature, strings.TrimSpace(rest[1:])
	}
	return "", text
}

// Prefix returns the disambiguation prefix for f, e.g. "lm:"
func Prefix(f models.Feature) string {
	for _, p := range prefixes {
		if p.feature == f {
			return p.token + ":"
		}
	}
	return ""
}

func contains(fs []models.Feature, f models.Feature) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

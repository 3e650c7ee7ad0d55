package models

import (
	"fmt"
	"strings"
)

// Feature ledger domain a tenant can be entitled to
type Feature string

const (
	FeaturePreciousMetal  Feature = "precious_metal"
	FeatureGeneralExpense Feature = "general_expense"
)

// AllFeatures in display order
var AllFeatures = []Feature{FeaturePreciousMetal, FeatureGeneralExpense}

var featureAliases = map[string]Feature{
	"precious_metal":  FeaturePreciousMetal,
	"logam_mulia":     FeaturePreciousMetal,
	"lm":              FeaturePreciousMetal,
	"general_expense": FeatureGeneralExpense,
	"keuangan":        FeatureGeneralExpense,
}

// ParseFeature accepts canonical names and their Indonesian aliases, case-insensitive
func ParseFeature(s string) (Feature, error) {
	f, ok := featureAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown feature %q", s)
	}
	return f, nil
}

// Label human name used in replies
func (f Feature) Label() string {
	switch f {
	case FeaturePreciousMetal:
		return "Logam Mulia"
	case FeatureGeneralExpense:
		return "Keuangan"
	default:
		return string(f)
	}
}

// Tag keyword used in prefixes and ledger-link tags ("LM", "KEUANGAN")
func (f Feature) Tag() string {
	switch f {
	case FeaturePreciousMetal:
		return "LM"
	case FeatureGeneralExpense:
		return "KEUANGAN"
	default:
		return strings.ToUpper(string(f))
	}
}

func (f Feature) Valid() bool {
	return f == FeaturePreciousMetal || f == FeatureGeneralExpense
}

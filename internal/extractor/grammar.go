package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"catat-worker/internal/classifier"
)

var (
	// <kind> <weight>g [<amount>] [<qty>] <savings-goal>
	metalGrammar = regexp.MustCompile(`(?i)^(\w+)\s+(\d+(?:[.,]\d+)?)\s*(?:g|gr|gram)\s+` +
		`(?:(\d[\d.,]*\s*(?:k|rb|ribu|jt|juta|m|milyar|miliar)?)\s+)?(?:(\d+)\s+)?(.+)$`)
	purchaseClause = regexp.MustCompile(`(?i)\s*pembelian\s+tanggal\s+(\d{1,2}\s+[a-zA-Z]+\s+(\d{4}))`)
	bareYear       = regexp.MustCompile(`\b(\d{4})\b`)
	trailingYear   = regexp.MustCompile(`\s+\d{4}$`)
	amountSuffix   = regexp.MustCompile(`(?i)[a-z]$`)
)

// maxBareQuantity a lone number below this without a currency suffix is read as a quantity
const maxBareQuantity = 1000

// parseMetalGrammar local fallback used when the classification service fails
func parseMetalGrammar(text string) (classifier.Candidate, bool) {
	text = strings.Join(strings.Fields(text), " ")
	m := metalGrammar.FindStringSubmatch(text)
	if m == nil {
		return classifier.Candidate{}, false
	}
	c := classifier.Candidate{
		Kind:     m[1],
		Weight:   m[2],
		Amount:   strings.TrimSpace(m[3]),
		Quantity: m[4],
		Goal:     trailingYear.ReplaceAllString(stripPurchaseClause(m[5]), ""),
	}
	if c.Amount != "" && c.Quantity == "" && !amountSuffix.MatchString(c.Amount) {
		if n, err := strconv.Atoi(c.Amount); err == nil && n < maxBareQuantity {
			c.Quantity, c.Amount = c.Amount, ""
		}
	}
	if c.Goal == "" {
		return classifier.Candidate{}, false
	}
	return c, true
}

func stripPurchaseClause(s string) string {
	return strings.TrimSpace(purchaseClause.ReplaceAllString(s, ""))
}

// purchaseDate returns the "11 Januari 2010" part of a purchase-date clause
func purchaseDate(text string) (string, bool) {
	m := purchaseClause.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// purchaseYear prefers the purchase-date clause, then any bare 4-digit token
func purchaseYear(text string) (int, bool) {
	if m := purchaseClause.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[2])
		return y, true
	}
	if m := bareYear.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, true
	}
	return 0, false
}

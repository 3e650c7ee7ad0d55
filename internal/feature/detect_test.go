package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catat-worker/internal/models"
)

var both = []models.Feature{models.FeaturePreciousMetal, models.FeatureGeneralExpense}

func TestDetect_SingleFeatureAlwaysWins(t *testing.T) {
	for _, f := range models.AllFeatures {
		for _, text := range []string{"Antam 5g 5000k Dana Darurat", "keuangan: makan 30k", "lm: x", ""} {
			got, cleaned := Detect(text, []models.Feature{f})
			assert.Equal(t, f, got)
			assert.Equal(t, text, cleaned)
		}
	}
}

func TestDetect_MultipleFeaturesNeedPrefix(t *testing.T) {
	got, cleaned := Detect("LM: Antam 5g 5000k Dana Darurat", both)
	assert.Equal(t, models.FeaturePreciousMetal, got)
	assert.Equal(t, "Antam 5g 5000k Dana Darurat", cleaned)

	got, cleaned = Detect("  Keuangan :  makan siang 30k ", both)
	assert.Equal(t, models.FeatureGeneralExpense, got)
	assert.Equal(t, "makan siang 30k", cleaned)

	got, cleaned = Detect("keuangan: url https://x.y/z", both)
	assert.Equal(t, models.FeatureGeneralExpense, got)
	assert.Equal(t, "url https://x.y/z", cleaned, "only the first colon terminates the prefix")
}

func TestDetect_MultipleFeaturesUnprefixedIsNone(t *testing.T) {
	for _, text := range []string{"Antam 5g 5000k Dana Darurat", "lmx: a", "keuangan makan", "", "lm"} {
		got, cleaned := Detect(text, both)
		assert.Equal(t, models.Feature(""), got, text)
		assert.Equal(t, text, cleaned)
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "lm:", Prefix(models.FeaturePreciousMetal))
	assert.Equal(t, "keuangan:", Prefix(models.FeatureGeneralExpense))
}

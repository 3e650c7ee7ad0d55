package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeature_Aliases(t *testing.T) {
	for in, want := range map[string]Feature{
		"precious_metal":  FeaturePreciousMetal,
		"LOGAM_MULIA":     FeaturePreciousMetal,
		" keuangan ":      FeatureGeneralExpense,
		"general_expense": FeatureGeneralExpense,
	} {
		got, err := ParseFeature(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFeature("saham")
	assert.Error(t, err)
}

func TestDirectory_CloneIsDeep(t *testing.T) {
	d := &Directory{
		Admin: Admin{PhoneNumber: "628000"},
		Customers: []Tenant{{
			PhoneNumber: "628111",
			Features:    []Feature{FeaturePreciousMetal},
		}},
		Version: 3,
	}
	d.Customers[0].SetLedgerRef(FeaturePreciousMetal, "ledger-a")

	c := d.Clone()
	c.Find("628111").SetLedgerRef(FeaturePreciousMetal, "ledger-b")
	c.Find("628111").Features[0] = FeatureGeneralExpense

	assert.Equal(t, "ledger-a", d.Find("628111").LedgerRef(FeaturePreciousMetal))
	assert.Equal(t, FeaturePreciousMetal, d.Customers[0].Features[0])
	assert.Equal(t, int64(3), c.Version)
	assert.True(t, c.IsAdmin("628000"))
	assert.Nil(t, c.Find("628999"))
}

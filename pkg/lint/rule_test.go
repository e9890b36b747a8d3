package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnostic_HasRuleName(t *testing.T) {
	diag := Diagnostic{
		RuleID:   "ATC202",
		RuleName: "method-chain-separation",
		Message:  "chain should be split",
	}
	assert.Equal(t, "ATC202", diag.RuleID)
	assert.Equal(t, "method-chain-separation", diag.RuleName)
	assert.Equal(t, "chain should be split", diag.Message)
}

func TestDiagnostic_HasFix_NilSet(t *testing.T) {
	var diag Diagnostic
	assert.False(t, diag.HasFix())
}

func TestCategoryForID(t *testing.T) {
	tests := []struct {
		id   string
		want Category
	}{
		{"ATC001", CategoryDesign},
		{"ATC150", CategoryNaming},
		{"ATC201", CategoryStyle},
		{"ATC302", CategoryUsage},
		{"ATC401", CategoryPerformance},
		{"ATC599", CategorySecurity},
		{"ATC100", CategoryUnknown},
		{"ATC000", CategoryUnknown},
		{"SA1101", CategoryUnknown},
		{"ATC20", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryForID(tt.id))
		})
	}
}

func TestIsRuleID(t *testing.T) {
	assert.True(t, IsRuleID("ATC201"))
	assert.True(t, IsRuleID("atc201"))
	assert.False(t, IsRuleID("ATC2011"))
	assert.False(t, IsRuleID("ATCabc"))
	assert.False(t, IsRuleID("parameter-layout"))
}

func TestHelpURL(t *testing.T) {
	assert.Equal(t, BaseHelpURL+"/ATC204.md", HelpURL("ATC204"))
}

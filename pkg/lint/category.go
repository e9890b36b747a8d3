package lint

import (
	"strconv"
	"strings"
)

// Category groups rule ids by concern. Each category owns a band of
// hundreds in the numeric part of the id.
type Category string

const (
	CategoryDesign      Category = "design"
	CategoryNaming      Category = "naming"
	CategoryStyle       Category = "style"
	CategoryUsage       Category = "usage"
	CategoryPerformance Category = "performance"
	CategorySecurity    Category = "security"
	CategoryUnknown     Category = "unknown"
)

// RuleIDPrefix is the prefix shared by every rule id.
const RuleIDPrefix = "ATC"

// BaseHelpURL is the root under which rule documentation is published.
const BaseHelpURL = "https://github.com/yaklabco/atclint/blob/main/pkg/ruledocs/docs"

// CategoryForID maps a rule id such as "ATC205" to its category.
func CategoryForID(id string) Category {
	num, ok := ruleNumber(id)
	if !ok {
		return CategoryUnknown
	}

	switch {
	case num >= 1 && num <= 99:
		return CategoryDesign
	case num >= 101 && num <= 199:
		return CategoryNaming
	case num >= 201 && num <= 299:
		return CategoryStyle
	case num >= 301 && num <= 399:
		return CategoryUsage
	case num >= 401 && num <= 499:
		return CategoryPerformance
	case num >= 501 && num <= 599:
		return CategorySecurity
	default:
		return CategoryUnknown
	}
}

// HelpURL returns the documentation link for a rule id.
func HelpURL(id string) string {
	return BaseHelpURL + "/" + id + ".md"
}

// IsRuleID reports whether s has the shape of a rule id: the prefix
// followed by exactly three digits.
func IsRuleID(s string) bool {
	_, ok := ruleNumber(s)
	return ok
}

func ruleNumber(id string) (int, bool) {
	digits, found := strings.CutPrefix(strings.ToUpper(id), RuleIDPrefix)
	if !found || len(digits) != 3 {
		return 0, false
	}
	num, err := strconv.Atoi(digits)
	if err != nil || num < 0 {
		return 0, false
	}
	return num, true
}

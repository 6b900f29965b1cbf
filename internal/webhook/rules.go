package webhook

import (
	"regexp"

	"github.com/okoapay/c2b-console/internal/model"
)

// EvaluateRule applies a shortcode's validation rule to a callback payload
// and returns the verdict plus the ResultDesc message for Daraja.
//
// A missing rule accepts everything. A rule with an invalid regex fails open:
// an operator typo must never block live payments.
func EvaluateRule(rule *model.ValidationRule, payload map[string]any) (bool, string) {
	if rule == nil {
		return true, "Accepted"
	}

	if amount := model.ParseAmountMinor(model.PayloadString(payload, "TransAmount")); amount != nil {
		if rule.MinAmount != nil && *amount < *rule.MinAmount {
			return false, "Rejected: amount below minimum"
		}
		if rule.MaxAmount != nil && *amount > *rule.MaxAmount {
			return false, "Rejected: amount above maximum"
		}
	}

	billRef := model.PayloadString(payload, "BillRefNumber")
	if rule.RequireBillRef && billRef == "" {
		return false, "Rejected: BillRefNumber required"
	}

	if rule.BillRefRegex != nil && *rule.BillRefRegex != "" && billRef != "" {
		// Anchored at the start, matching re.match semantics the rule
		// authors expect.
		re, err := regexp.Compile("^(?:" + *rule.BillRefRegex + ")")
		if err != nil {
			return true, "Accepted"
		}
		if !re.MatchString(billRef) {
			return false, "Rejected: BillRefNumber format invalid"
		}
	}

	return true, "Accepted"
}

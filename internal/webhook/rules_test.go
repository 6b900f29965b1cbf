package webhook

import (
	"testing"

	"github.com/okoapay/c2b-console/internal/model"
	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

func TestEvaluateRule(t *testing.T) {
	tests := []struct {
		name     string
		rule     *model.ValidationRule
		payload  map[string]any
		accepted bool
		desc     string
	}{
		{
			name:     "no rule accepts everything",
			rule:     nil,
			payload:  map[string]any{"TransAmount": "1"},
			accepted: true,
			desc:     "Accepted",
		},
		{
			name:     "empty rule accepts",
			rule:     &model.ValidationRule{},
			payload:  map[string]any{"TransAmount": "100"},
			accepted: true,
			desc:     "Accepted",
		},
		{
			name:     "amount below minimum",
			rule:     &model.ValidationRule{MinAmount: int64Ptr(10000)},
			payload:  map[string]any{"TransAmount": "50.00"},
			accepted: false,
			desc:     "Rejected: amount below minimum",
		},
		{
			name:     "amount at minimum passes",
			rule:     &model.ValidationRule{MinAmount: int64Ptr(10000)},
			payload:  map[string]any{"TransAmount": "100.00"},
			accepted: true,
			desc:     "Accepted",
		},
		{
			name:     "amount above maximum",
			rule:     &model.ValidationRule{MaxAmount: int64Ptr(50000)},
			payload:  map[string]any{"TransAmount": "500.01"},
			accepted: false,
			desc:     "Rejected: amount above maximum",
		},
		{
			name:     "unparseable amount skips amount checks",
			rule:     &model.ValidationRule{MinAmount: int64Ptr(10000)},
			payload:  map[string]any{"TransAmount": "oops"},
			accepted: true,
			desc:     "Accepted",
		},
		{
			name:     "billref required and missing",
			rule:     &model.ValidationRule{RequireBillRef: true},
			payload:  map[string]any{"TransAmount": "100"},
			accepted: false,
			desc:     "Rejected: BillRefNumber required",
		},
		{
			name:     "billref required and present",
			rule:     &model.ValidationRule{RequireBillRef: true},
			payload:  map[string]any{"BillRefNumber": "INV-1"},
			accepted: true,
			desc:     "Accepted",
		},
		{
			name:     "regex mismatch",
			rule:     &model.ValidationRule{BillRefRegex: strPtr(`INV-\d+`)},
			payload:  map[string]any{"BillRefNumber": "ORDER-9"},
			accepted: false,
			desc:     "Rejected: BillRefNumber format invalid",
		},
		{
			name:     "regex matches at start only",
			rule:     &model.ValidationRule{BillRefRegex: strPtr(`INV-\d+`)},
			payload:  map[string]any{"BillRefNumber": "INV-42-extra"},
			accepted: true,
			desc:     "Accepted",
		},
		{
			name:     "regex not anchored mid string",
			rule:     &model.ValidationRule{BillRefRegex: strPtr(`\d+`)},
			payload:  map[string]any{"BillRefNumber": "INV-42"},
			accepted: false,
			desc:     "Rejected: BillRefNumber format invalid",
		},
		{
			name:     "invalid regex fails open",
			rule:     &model.ValidationRule{BillRefRegex: strPtr(`INV-[`)},
			payload:  map[string]any{"BillRefNumber": "anything"},
			accepted: true,
			desc:     "Accepted",
		},
		{
			name:     "regex skipped when billref empty and not required",
			rule:     &model.ValidationRule{BillRefRegex: strPtr(`INV-\d+`)},
			payload:  map[string]any{"TransAmount": "100"},
			accepted: true,
			desc:     "Accepted",
		},
		{
			name: "combined rule rejects on first failure",
			rule: &model.ValidationRule{
				MinAmount:      int64Ptr(1000),
				RequireBillRef: true,
				BillRefRegex:   strPtr(`INV-\d+`),
			},
			payload:  map[string]any{"TransAmount": "5.00", "BillRefNumber": "INV-1"},
			accepted: false,
			desc:     "Rejected: amount below minimum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accepted, desc := EvaluateRule(tt.rule, tt.payload)
			assert.Equal(t, tt.accepted, accepted)
			assert.Equal(t, tt.desc, desc)
		})
	}
}
